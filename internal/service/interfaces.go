package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

// IAuthService defines the interface for authentication operations
type IAuthService interface {
	Register(ctx context.Context, req *types.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	SetPassword(ctx context.Context, userID uuid.UUID, current, next string) error
	Logout(ctx context.Context, userID uuid.UUID) error
	ValidateToken(token string) (*types.TokenClaims, error)
}

// IUserService defines the interface for account views and subscriptions
type IUserService interface {
	ListUsers(ctx context.Context, viewerID uuid.UUID, page types.PageRequest) ([]types.User, int64, error)
	GetUser(ctx context.Context, viewerID, id uuid.UUID) (*types.User, error)
	Me(ctx context.Context, viewerID uuid.UUID) (*types.User, error)
	Subscribe(ctx context.Context, actorID, targetID uuid.UUID, recipesLimit int) (*types.Subscription, error)
	Unsubscribe(ctx context.Context, actorID, targetID uuid.UUID) error
	Subscriptions(ctx context.Context, actorID uuid.UUID, page types.PageRequest, recipesLimit int) ([]types.Subscription, int64, error)
}

// IRecipeService defines the interface for recipe operations
type IRecipeService interface {
	CreateRecipe(ctx context.Context, actorID uuid.UUID, req *types.RecipeWriteRequest) (*types.Recipe, error)
	UpdateRecipe(ctx context.Context, actorID, recipeID uuid.UUID, req *types.RecipeWriteRequest) (*types.Recipe, error)
	DeleteRecipe(ctx context.Context, actorID, recipeID uuid.UUID) error
	GetRecipe(ctx context.Context, viewerID, id uuid.UUID) (*types.Recipe, error)
	ListRecipes(ctx context.Context, viewerID uuid.UUID, filter types.RecipeFilter, page types.PageRequest) ([]types.Recipe, int64, error)
	AddToList(ctx context.Context, kind models.RelationKind, actorID, recipeID uuid.UUID) (*types.RecipeShort, error)
	RemoveFromList(ctx context.Context, kind models.RelationKind, actorID, recipeID uuid.UUID) error
}

// ICatalogService defines the interface for tag and ingredient lookups
type ICatalogService interface {
	ListTags(ctx context.Context) ([]types.Tag, error)
	GetTag(ctx context.Context, id uuid.UUID) (*types.Tag, error)
	ListIngredients(ctx context.Context, prefix string) ([]types.Ingredient, error)
	GetIngredient(ctx context.Context, id uuid.UUID) (*types.Ingredient, error)
}

// IShoppingList defines the interface for the shopping list export
type IShoppingList interface {
	Aggregate(ctx context.Context, userID uuid.UUID) ([]ShoppingItem, error)
	Export(ctx context.Context, userID uuid.UUID) ([]byte, error)
}

var (
	_ IAuthService    = (*AuthService)(nil)
	_ IUserService    = (*UserService)(nil)
	_ IRecipeService  = (*RecipeService)(nil)
	_ ICatalogService = (*CatalogService)(nil)
	_ IShoppingList   = (*ShoppingListAggregator)(nil)
)
