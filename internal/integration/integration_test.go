package integration

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
)

func TestPostgresShoppingList(t *testing.T) {
	db := testhelpers.SetupPostgresDatabase(t)
	ctx := context.Background()

	composer := service.NewRecipeComposer(db)
	ledger := service.NewPreferenceLedger(db)
	agg := service.NewShoppingListAggregator(db)

	buyer := testhelpers.CreateUser(t, db, "buyer")
	chef := testhelpers.CreateUser(t, db, "chef01")
	flour := testhelpers.CreateIngredient(t, db, "flour", "g")
	sugar := testhelpers.CreateIngredient(t, db, "sugar", "g")
	egg := testhelpers.CreateIngredient(t, db, "egg", "pcs")
	tag := testhelpers.CreateTag(t, db, "Baking", "baking")

	fields := service.RecipeFields{Name: "Cake", Text: "Bake", CookingTime: 45, Image: "recipes/images/cake.png"}
	cake, err := composer.Create(ctx, chef.ID, fields, []uuid.UUID{tag.ID}, []service.IngredientLine{
		{IngredientID: flour.ID, Amount: 200},
		{IngredientID: sugar.ID, Amount: 50},
	})
	require.NoError(t, err)

	fields.Name = "Crepes"
	crepes, err := composer.Create(ctx, chef.ID, fields, []uuid.UUID{tag.ID}, []service.IngredientLine{
		{IngredientID: flour.ID, Amount: 100},
		{IngredientID: egg.ID, Amount: 2},
	})
	require.NoError(t, err)

	for _, r := range []*models.Recipe{cake, crepes} {
		_, err := ledger.Add(ctx, models.KindPurchase, buyer.ID, r.ID)
		require.NoError(t, err)
	}

	data, err := agg.Export(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, "egg,2,pcs\nflour,300,g\nsugar,50,g\n", string(data))

	require.NoError(t, composer.Delete(ctx, chef.ID, cake.ID))
	data, err = agg.Export(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, "egg,2,pcs\nflour,100,g\n", string(data))
}

func TestPostgresConcurrentAdds(t *testing.T) {
	db := testhelpers.SetupPostgresDatabase(t)
	ledger := service.NewPreferenceLedger(db)

	fan := testhelpers.CreateUser(t, db, "follower")
	chef := testhelpers.CreateUser(t, db, "chef01")

	const workers = 16
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		successes  int
		duplicates int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.Add(context.Background(), models.KindSubscription, fan.ID, chef.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, service.ErrDuplicateRelation):
				duplicates++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, duplicates)
}

func TestPostgresConcurrentReplaces(t *testing.T) {
	db := testhelpers.SetupPostgresDatabase(t)
	ctx := context.Background()
	composer := service.NewRecipeComposer(db)

	chef := testhelpers.CreateUser(t, db, "chef01")
	tag := testhelpers.CreateTag(t, db, "Soup", "soup")
	var ingredients []*models.Ingredient
	for _, name := range []string{"water", "salt", "carrot", "onion"} {
		ingredients = append(ingredients, testhelpers.CreateIngredient(t, db, name, "g"))
	}

	fields := service.RecipeFields{Name: "Soup", Text: "Boil", CookingTime: 30, Image: "recipes/images/soup.png"}
	recipe, err := composer.Create(ctx, chef.ID, fields, []uuid.UUID{tag.ID}, []service.IngredientLine{
		{IngredientID: ingredients[0].ID, Amount: 1000},
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for _, pair := range [][2]*models.Ingredient{{ingredients[0], ingredients[1]}, {ingredients[2], ingredients[3]}} {
		wg.Add(1)
		go func(a, b *models.Ingredient) {
			defer wg.Done()
			_, err := composer.Replace(ctx, chef.ID, recipe.ID, fields, []uuid.UUID{tag.ID}, []service.IngredientLine{
				{IngredientID: a.ID, Amount: 10},
				{IngredientID: b.ID, Amount: 20},
			})
			assert.NoError(t, err)
		}(pair[0], pair[1])
	}
	wg.Wait()

	var lines []models.RecipeIngredient
	require.NoError(t, db.Where("recipe_id = ?", recipe.ID).Order("position").Find(&lines).Error)
	require.Len(t, lines, 2, "one replacement wins in full")
	assert.Equal(t, 10, lines[0].Amount)
	assert.Equal(t, 20, lines[1].Amount)
}
