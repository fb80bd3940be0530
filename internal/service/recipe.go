package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
	"gorm.io/gorm"
)

// RecipeService handles recipe reads and wraps the composer for writes.
type RecipeService struct {
	db       *gorm.DB
	ledger   *PreferenceLedger
	composer *RecipeComposer
	images   *ImageService
}

// NewRecipeService creates a new RecipeService instance
func NewRecipeService(db *gorm.DB, ledger *PreferenceLedger, composer *RecipeComposer, images *ImageService) *RecipeService {
	return &RecipeService{
		db:       db,
		ledger:   ledger,
		composer: composer,
		images:   images,
	}
}

func composition(req *types.RecipeWriteRequest) (RecipeFields, []uuid.UUID, []IngredientLine) {
	fields := RecipeFields{Name: req.Name, Text: req.Text, CookingTime: req.CookingTime}
	lines := make([]IngredientLine, len(req.Ingredients))
	for i, in := range req.Ingredients {
		lines[i] = IngredientLine{IngredientID: in.ID, Amount: in.Amount}
	}
	return fields, req.Tags, lines
}

// CreateRecipe composes a new recipe for actorID. The image is stored only
// once the composition has passed every check.
func (s *RecipeService) CreateRecipe(ctx context.Context, actorID uuid.UUID, req *types.RecipeWriteRequest) (*types.Recipe, error) {
	if actorID == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	fields, tags, lines := composition(req)
	if err := validateComposition(fields, tags, lines); err != nil {
		return nil, err
	}
	if req.Image == "" {
		return nil, invalid("image", "this field is required")
	}
	ext, data, err := DecodeDataURI(req.Image)
	if err != nil {
		return nil, err
	}
	if err := s.composer.Check(ctx, actorID, uuid.Nil, fields, tags, lines); err != nil {
		return nil, err
	}

	key, err := s.images.Save(ctx, ext, data)
	if err != nil {
		return nil, err
	}
	fields.Image = key

	recipe, err := s.composer.Create(ctx, actorID, fields, tags, lines)
	if err != nil {
		s.images.Discard(ctx, key)
		return nil, err
	}
	return s.view(ctx, actorID, recipe)
}

// UpdateRecipe fully replaces a recipe owned by actorID. A new image is
// stored only after ownership and the composition are checked.
func (s *RecipeService) UpdateRecipe(ctx context.Context, actorID, recipeID uuid.UUID, req *types.RecipeWriteRequest) (*types.Recipe, error) {
	if actorID == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	fields, tags, lines := composition(req)
	if err := s.composer.Check(ctx, actorID, recipeID, fields, tags, lines); err != nil {
		return nil, err
	}

	var key string
	if req.Image != "" {
		var err error
		if key, err = s.images.SaveDataURI(ctx, req.Image); err != nil {
			return nil, err
		}
		fields.Image = key
	}

	recipe, err := s.composer.Replace(ctx, actorID, recipeID, fields, tags, lines)
	if err != nil {
		s.images.Discard(ctx, key)
		return nil, err
	}
	return s.view(ctx, actorID, recipe)
}

// DeleteRecipe deletes a recipe
func (s *RecipeService) DeleteRecipe(ctx context.Context, actorID, recipeID uuid.UUID) error {
	return s.composer.Delete(ctx, actorID, recipeID)
}

// GetRecipe retrieves a recipe by ID as seen by viewerID
func (s *RecipeService) GetRecipe(ctx context.Context, viewerID, id uuid.UUID) (*types.Recipe, error) {
	recipe, err := loadRecipe(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, viewerID, recipe)
}

// ListRecipes returns one page of recipes ordered by creation time, and the
// total number of matches.
func (s *RecipeService) ListRecipes(ctx context.Context, viewerID uuid.UUID, filter types.RecipeFilter, page types.PageRequest) ([]types.Recipe, int64, error) {
	db := s.db.WithContext(ctx)
	query := db.Model(&models.Recipe{})

	if filter.AuthorID != uuid.Nil {
		query = query.Where("recipes.author_id = ?", filter.AuthorID)
	}
	if len(filter.TagSlugs) > 0 {
		tagged := db.Table("recipe_tags").
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", filter.TagSlugs)
		query = query.Where("recipes.id IN (?)", tagged)
	}
	if viewerID != uuid.Nil {
		if filter.IsFavorited {
			query = query.Where("recipes.id IN (?)", relatedRecipes(db, models.KindFavorite, viewerID))
		}
		if filter.IsInShoppingCart {
			query = query.Where("recipes.id IN (?)", relatedRecipes(db, models.KindPurchase, viewerID))
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var recipes []models.Recipe
	err := query.
		Preload("Author").
		Preload("Tags.Tag").
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Ingredients.Ingredient").
		Order("recipes.created_at ASC, recipes.id ASC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&recipes).Error
	if err != nil {
		return nil, 0, err
	}

	result := make([]types.Recipe, 0, len(recipes))
	for i := range recipes {
		v, err := s.view(ctx, viewerID, &recipes[i])
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *v)
	}
	return result, total, nil
}

func relatedRecipes(db *gorm.DB, kind models.RelationKind, userID uuid.UUID) *gorm.DB {
	return db.Model(&models.RecipeRelation{}).
		Select("recipe_id").
		Where("kind = ? AND user_id = ?", kind, userID)
}

// AddToList puts a recipe in the actor's favorites or shopping cart.
func (s *RecipeService) AddToList(ctx context.Context, kind models.RelationKind, actorID, recipeID uuid.UUID) (*types.RecipeShort, error) {
	if !kind.TargetsRecipe() {
		return nil, invalid("kind", "%q does not target recipes", kind)
	}
	if _, err := s.ledger.Add(ctx, kind, actorID, recipeID); err != nil {
		return nil, err
	}

	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "id = ?", recipeID).Error; err != nil {
		return nil, storageError(err)
	}
	short := s.short(&recipe)
	return &short, nil
}

// RemoveFromList takes a recipe out of a list. ErrNotInList means the
// recipe exists but was not in the list.
func (s *RecipeService) RemoveFromList(ctx context.Context, kind models.RelationKind, actorID, recipeID uuid.UUID) error {
	if !kind.TargetsRecipe() {
		return invalid("kind", "%q does not target recipes", kind)
	}
	removed, err := s.ledger.Remove(ctx, kind, actorID, recipeID)
	if err != nil {
		return err
	}
	if removed == 0 {
		return ErrNotInList
	}
	return nil
}

func (s *RecipeService) short(r *models.Recipe) types.RecipeShort {
	return types.RecipeShort{
		ID:          r.ID,
		Name:        r.Name,
		Image:       s.images.URL(r.Image),
		CookingTime: r.CookingTime,
	}
}

func (s *RecipeService) view(ctx context.Context, viewerID uuid.UUID, r *models.Recipe) (*types.Recipe, error) {
	favorited, err := s.ledger.Exists(ctx, models.KindFavorite, viewerID, r.ID)
	if err != nil {
		return nil, err
	}
	inCart, err := s.ledger.Exists(ctx, models.KindPurchase, viewerID, r.ID)
	if err != nil {
		return nil, err
	}

	v := &types.Recipe{
		ID:               r.ID,
		Tags:             make([]types.Tag, 0, len(r.Tags)),
		Ingredients:      make([]types.RecipeIngredient, 0, len(r.Ingredients)),
		IsFavorited:      favorited,
		IsInShoppingCart: inCart,
		Name:             r.Name,
		Image:            s.images.URL(r.Image),
		Text:             r.Text,
		CookingTime:      r.CookingTime,
	}
	if r.Author != nil {
		author, err := userView(ctx, s.ledger, viewerID, r.Author)
		if err != nil {
			return nil, err
		}
		v.Author = author
	}
	for _, rt := range r.Tags {
		if rt.Tag != nil {
			v.Tags = append(v.Tags, tagView(rt.Tag))
		}
	}
	for _, line := range r.Ingredients {
		item := types.RecipeIngredient{ID: line.IngredientID, Amount: line.Amount}
		if line.Ingredient != nil {
			item.Name = line.Ingredient.Name
			item.MeasurementUnit = line.Ingredient.MeasurementUnit
		}
		v.Ingredients = append(v.Ingredients, item)
	}
	return v, nil
}

func tagView(t *models.Tag) types.Tag {
	return types.Tag{ID: t.ID, Name: t.Name, Color: t.Color, Slug: t.Slug}
}

func userView(ctx context.Context, ledger *PreferenceLedger, viewerID uuid.UUID, u *models.User) (types.User, error) {
	subscribed, err := ledger.Exists(ctx, models.KindSubscription, viewerID, u.ID)
	if err != nil {
		return types.User{}, err
	}
	return types.User{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: subscribed,
	}, nil
}
