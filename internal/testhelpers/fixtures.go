package testhelpers

import (
	"testing"

	"github.com/pageza/foodgram/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateUser inserts a user whose email derives from the username.
func CreateUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Email:        username + "@example.com",
		Username:     username,
		FirstName:    "Test",
		LastName:     "User",
		PasswordHash: "not-a-real-hash",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return user
}

func CreateIngredient(t *testing.T, db *gorm.DB, name, unit string) *models.Ingredient {
	t.Helper()
	in := &models.Ingredient{Name: name, MeasurementUnit: unit}
	if err := db.Create(in).Error; err != nil {
		t.Fatalf("failed to create ingredient %s/%s: %v", name, unit, err)
	}
	return in
}

func CreateTag(t *testing.T, db *gorm.DB, name, slug string) *models.Tag {
	t.Helper()
	tag := &models.Tag{Name: name, Color: "#00AA00", Slug: slug}
	if err := db.Create(tag).Error; err != nil {
		t.Fatalf("failed to create tag %s: %v", slug, err)
	}
	return tag
}

// Line is an ingredient and amount for CreateRecipe.
type Line struct {
	Ingredient *models.Ingredient
	Amount     int
}

// CreateRecipe inserts a recipe with the given lines and tags directly,
// bypassing the composer.
func CreateRecipe(t *testing.T, db *gorm.DB, author *models.User, name string, tags []*models.Tag, lines ...Line) *models.Recipe {
	t.Helper()
	recipe := &models.Recipe{
		AuthorID:    author.ID,
		Name:        name,
		Text:        name + " instructions",
		CookingTime: 15,
		Image:       "recipes/images/" + name + ".png",
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(recipe).Error; err != nil {
			return err
		}
		for i, l := range lines {
			row := &models.RecipeIngredient{RecipeID: recipe.ID, IngredientID: l.Ingredient.ID, Amount: l.Amount, Position: i}
			if err := tx.Omit(clause.Associations).Create(row).Error; err != nil {
				return err
			}
		}
		for _, tag := range tags {
			if err := tx.Omit(clause.Associations).Create(&models.RecipeTag{RecipeID: recipe.ID, TagID: tag.ID}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("failed to create recipe %s: %v", name, err)
	}
	return recipe
}

// AddPurchase puts recipe in user's shopping cart without the ledger.
func AddPurchase(t *testing.T, db *gorm.DB, user *models.User, recipe *models.Recipe) {
	t.Helper()
	rel := &models.RecipeRelation{Kind: models.KindPurchase, UserID: user.ID, RecipeID: recipe.ID}
	if err := db.Omit(clause.Associations).Create(rel).Error; err != nil {
		t.Fatalf("failed to add purchase: %v", err)
	}
}
