package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RecipeFields are the scalar columns a caller controls. Image is a media
// key produced by the ImageService, not raw bytes.
type RecipeFields struct {
	Name        string `json:"name" validate:"required,max=200"`
	Text        string `json:"text" validate:"required"`
	CookingTime int    `json:"cooking_time" validate:"min=1,max=32767"`
	Image       string `json:"image" validate:"max=255"`
}

// IngredientLine is one (ingredient, amount) pair of a write request.
type IngredientLine struct {
	IngredientID uuid.UUID `json:"id"`
	Amount       int       `json:"amount"`
}

// RecipeComposer writes a recipe together with its ingredient lines and tag
// links as one unit.
type RecipeComposer struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewRecipeComposer(db *gorm.DB) *RecipeComposer {
	return &RecipeComposer{
		db:  db,
		log: logging.With().Str("component", "composer").Logger(),
	}
}

// validateComposition checks everything that can be checked without storage.
func validateComposition(fields RecipeFields, tagIDs []uuid.UUID, lines []IngredientLine) error {
	if err := validateStruct(fields); err != nil {
		return err
	}

	if len(tagIDs) == 0 {
		return invalid("tags", "at least one tag is required")
	}
	seenTags := make(map[uuid.UUID]struct{}, len(tagIDs))
	for _, id := range tagIDs {
		if id == uuid.Nil {
			return invalid("tags", "tag id is required")
		}
		if _, dup := seenTags[id]; dup {
			return invalid("tags", "tag %s is listed more than once", id)
		}
		seenTags[id] = struct{}{}
	}

	if len(lines) == 0 {
		return invalid("ingredients", "at least one ingredient is required")
	}
	seenIngredients := make(map[uuid.UUID]struct{}, len(lines))
	for _, line := range lines {
		if line.IngredientID == uuid.Nil {
			return invalid("ingredients", "ingredient id is required")
		}
		if line.Amount <= 0 {
			return invalid("ingredients", "amount must be positive")
		}
		if _, dup := seenIngredients[line.IngredientID]; dup {
			return invalid("ingredients", "ingredient %s is listed more than once", line.IngredientID)
		}
		seenIngredients[line.IngredientID] = struct{}{}
	}
	return nil
}

// Check runs every check Create (recipeID uuid.Nil) or Replace would run,
// without writing. Callers use it to reject a write before storing media.
func (c *RecipeComposer) Check(ctx context.Context, actorID, recipeID uuid.UUID, fields RecipeFields, tagIDs []uuid.UUID, lines []IngredientLine) error {
	if actorID == uuid.Nil {
		return ErrUnauthenticated
	}
	db := c.db.WithContext(ctx)
	if recipeID != uuid.Nil {
		var current models.Recipe
		if err := db.Select("id", "author_id").First(&current, "id = ?", recipeID).Error; err != nil {
			return storageError(err)
		}
		if current.AuthorID != actorID {
			return ErrForbidden
		}
	}
	if err := validateComposition(fields, tagIDs, lines); err != nil {
		return err
	}
	return checkReferences(db, tagIDs, lines)
}

// Create validates the whole composition, then writes the recipe, its lines
// and its tag links in one transaction.
func (c *RecipeComposer) Create(ctx context.Context, authorID uuid.UUID, fields RecipeFields, tagIDs []uuid.UUID, lines []IngredientLine) (*models.Recipe, error) {
	if authorID == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	if err := validateComposition(fields, tagIDs, lines); err != nil {
		return nil, err
	}

	recipe := &models.Recipe{
		AuthorID:    authorID,
		Name:        fields.Name,
		Text:        fields.Text,
		CookingTime: fields.CookingTime,
		Image:       fields.Image,
	}

	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkReferences(tx, tagIDs, lines); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(recipe).Error; err != nil {
			return storageError(err)
		}
		return writeChildren(tx, recipe.ID, tagIDs, lines)
	})
	if err != nil {
		return nil, err
	}

	c.log.Info().Str("recipe_id", recipe.ID.String()).Str("author", authorID.String()).Msg("recipe created")
	return loadRecipe(c.db.WithContext(ctx), recipe.ID)
}

// Replace rewrites a recipe's fields, tags and ingredient lines. Existing
// children are discarded, never merged. The author stays the same, and an
// empty Image keeps the current one.
func (c *RecipeComposer) Replace(ctx context.Context, actorID, recipeID uuid.UUID, fields RecipeFields, tagIDs []uuid.UUID, lines []IngredientLine) (*models.Recipe, error) {
	if actorID == uuid.Nil {
		return nil, ErrUnauthenticated
	}

	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Recipe
		q := tx
		if tx.Dialector.Name() == "postgres" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := q.First(&current, "id = ?", recipeID).Error; err != nil {
			return storageError(err)
		}
		if current.AuthorID != actorID {
			return ErrForbidden
		}

		if fields.Image == "" {
			fields.Image = current.Image
		}
		if err := validateComposition(fields, tagIDs, lines); err != nil {
			return err
		}
		if err := checkReferences(tx, tagIDs, lines); err != nil {
			return err
		}

		if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return storageError(err)
		}
		if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeTag{}).Error; err != nil {
			return storageError(err)
		}

		err := tx.Model(&models.Recipe{}).Where("id = ?", recipeID).Updates(map[string]interface{}{
			"name":         fields.Name,
			"text":         fields.Text,
			"cooking_time": fields.CookingTime,
			"image":        fields.Image,
		}).Error
		if err != nil {
			return storageError(err)
		}
		return writeChildren(tx, recipeID, tagIDs, lines)
	})
	if err != nil {
		return nil, err
	}

	c.log.Info().Str("recipe_id", recipeID.String()).Msg("recipe replaced")
	return loadRecipe(c.db.WithContext(ctx), recipeID)
}

// Delete removes a recipe owned by actorID. Lines, tag links and relations
// go with it through the foreign keys.
func (c *RecipeComposer) Delete(ctx context.Context, actorID, recipeID uuid.UUID) error {
	if actorID == uuid.Nil {
		return ErrUnauthenticated
	}

	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Recipe
		if err := tx.Select("id", "author_id").First(&current, "id = ?", recipeID).Error; err != nil {
			return storageError(err)
		}
		if current.AuthorID != actorID {
			return ErrForbidden
		}
		return storageError(tx.Delete(&models.Recipe{}, "id = ?", recipeID).Error)
	})
	if err != nil {
		return err
	}

	c.log.Info().Str("recipe_id", recipeID.String()).Msg("recipe deleted")
	return nil
}

func checkReferences(tx *gorm.DB, tagIDs []uuid.UUID, lines []IngredientLine) error {
	var count int64
	if err := tx.Model(&models.Tag{}).Where("id IN ?", tagIDs).Count(&count).Error; err != nil {
		return err
	}
	if int(count) != len(tagIDs) {
		return notFound("tag")
	}

	ingredientIDs := make([]uuid.UUID, len(lines))
	for i, line := range lines {
		ingredientIDs[i] = line.IngredientID
	}
	if err := tx.Model(&models.Ingredient{}).Where("id IN ?", ingredientIDs).Count(&count).Error; err != nil {
		return err
	}
	if int(count) != len(ingredientIDs) {
		return notFound("ingredient")
	}
	return nil
}

func writeChildren(tx *gorm.DB, recipeID uuid.UUID, tagIDs []uuid.UUID, lines []IngredientLine) error {
	rows := make([]models.RecipeIngredient, len(lines))
	for i, line := range lines {
		rows[i] = models.RecipeIngredient{
			RecipeID:     recipeID,
			IngredientID: line.IngredientID,
			Amount:       line.Amount,
			Position:     i,
		}
	}
	if err := tx.Omit(clause.Associations).Create(&rows).Error; err != nil {
		return storageError(err)
	}

	links := make([]models.RecipeTag, len(tagIDs))
	for i, id := range tagIDs {
		links[i] = models.RecipeTag{RecipeID: recipeID, TagID: id}
	}
	if err := tx.Omit(clause.Associations).Create(&links).Error; err != nil {
		return storageError(err)
	}
	return nil
}

// loadRecipe reads a recipe with author, tags and ordered ingredient lines.
func loadRecipe(db *gorm.DB, id uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	err := db.
		Preload("Author").
		Preload("Tags.Tag").
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Ingredients.Ingredient").
		First(&recipe, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &recipe, nil
}
