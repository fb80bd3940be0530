package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/internal/models"
	"gorm.io/gorm"
)

// ShoppingItem is one consolidated row of a shopping list.
type ShoppingItem struct {
	IngredientID    uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	MeasurementUnit string    `json:"measurement_unit"`
	TotalAmount     int64     `json:"total_amount"`
}

// ShoppingListAggregator sums the ingredient lines of every recipe a user
// has in their shopping cart. It only reads.
type ShoppingListAggregator struct {
	db *gorm.DB
}

func NewShoppingListAggregator(db *gorm.DB) *ShoppingListAggregator {
	return &ShoppingListAggregator{db: db}
}

// Aggregate groups lines by ingredient id and orders rows by name, then id,
// so repeated calls over the same data return the same sequence.
func (a *ShoppingListAggregator) Aggregate(ctx context.Context, userID uuid.UUID) ([]ShoppingItem, error) {
	items := []ShoppingItem{}
	if userID == uuid.Nil {
		return items, nil
	}

	err := a.db.WithContext(ctx).
		Table("recipe_ingredients").
		Select("ingredients.id AS ingredient_id, ingredients.name AS name, "+
			"ingredients.measurement_unit AS measurement_unit, SUM(recipe_ingredients.amount) AS total_amount").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Joins("JOIN recipe_relations ON recipe_relations.recipe_id = recipe_ingredients.recipe_id").
		Where("recipe_relations.kind = ? AND recipe_relations.user_id = ?", models.KindPurchase, userID).
		Group("ingredients.id, ingredients.name, ingredients.measurement_unit").
		Order("ingredients.name ASC, ingredients.id ASC").
		Scan(&items).Error
	if err != nil {
		return nil, fmt.Errorf("aggregate shopping list: %w", err)
	}
	return items, nil
}

// Export renders the shopping list as CSV rows of name, total amount and
// unit. Nothing is returned unless the whole document rendered.
func (a *ShoppingListAggregator) Export(ctx context.Context, userID uuid.UUID) ([]byte, error) {
	items, err := a.Aggregate(ctx, userID)
	if err != nil {
		return nil, err
	}
	return RenderShoppingList(items)
}

func RenderShoppingList(items []ShoppingItem) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, item := range items {
		row := []string{item.Name, strconv.FormatInt(item.TotalAmount, 10), item.MeasurementUnit}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("render shopping list: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("render shopping list: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportFilename names the attachment for a user's shopping list.
func ExportFilename(username string) string {
	return fmt.Sprintf("my_cart_%s.csv", username)
}
