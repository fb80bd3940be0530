package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
	"gorm.io/gorm"
)

// UserService serves account views and the subscription feed
type UserService struct {
	db     *gorm.DB
	ledger *PreferenceLedger
	images *ImageService
}

// NewUserService creates a new UserService instance
func NewUserService(db *gorm.DB, ledger *PreferenceLedger, images *ImageService) *UserService {
	return &UserService{
		db:     db,
		ledger: ledger,
		images: images,
	}
}

// ListUsers returns one page of users as seen by viewerID
func (s *UserService) ListUsers(ctx context.Context, viewerID uuid.UUID, page types.PageRequest) ([]types.User, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.User{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	if err := query.Order("created_at ASC, id ASC").Offset(page.Offset()).Limit(page.Limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}

	result := make([]types.User, 0, len(users))
	for i := range users {
		v, err := userView(ctx, s.ledger, viewerID, &users[i])
		if err != nil {
			return nil, 0, err
		}
		result = append(result, v)
	}
	return result, total, nil
}

// GetUser retrieves a user by ID
func (s *UserService) GetUser(ctx context.Context, viewerID, id uuid.UUID) (*types.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, storageError(err)
	}
	v, err := userView(ctx, s.ledger, viewerID, &user)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Me returns the authenticated user
func (s *UserService) Me(ctx context.Context, viewerID uuid.UUID) (*types.User, error) {
	if viewerID == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	return s.GetUser(ctx, viewerID, viewerID)
}

// Subscribe makes actorID follow targetID and returns the feed entry for
// the target. recipesLimit <= 0 means all recipes.
func (s *UserService) Subscribe(ctx context.Context, actorID, targetID uuid.UUID, recipesLimit int) (*types.Subscription, error) {
	if _, err := s.ledger.Add(ctx, models.KindSubscription, actorID, targetID); err != nil {
		return nil, err
	}

	var target models.User
	if err := s.db.WithContext(ctx).First(&target, "id = ?", targetID).Error; err != nil {
		return nil, storageError(err)
	}
	return s.subscription(ctx, actorID, &target, recipesLimit)
}

// Unsubscribe removes a subscription; ErrNotInList if there was none.
func (s *UserService) Unsubscribe(ctx context.Context, actorID, targetID uuid.UUID) error {
	removed, err := s.ledger.Remove(ctx, models.KindSubscription, actorID, targetID)
	if err != nil {
		return err
	}
	if removed == 0 {
		return ErrNotInList
	}
	return nil
}

// Subscriptions lists the users actorID follows, each with a recipe count
// and up to recipesLimit of their recipes.
func (s *UserService) Subscriptions(ctx context.Context, actorID uuid.UUID, page types.PageRequest, recipesLimit int) ([]types.Subscription, int64, error) {
	if actorID == uuid.Nil {
		return nil, 0, ErrUnauthenticated
	}

	db := s.db.WithContext(ctx)
	query := db.Model(&models.User{}).
		Joins("JOIN subscriptions ON subscriptions.subscribed_to_id = users.id").
		Where("subscriptions.subscriber_id = ?", actorID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	err := query.
		Order("subscriptions.created_at ASC, users.id ASC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}

	result := make([]types.Subscription, 0, len(users))
	for i := range users {
		sub, err := s.subscription(ctx, actorID, &users[i], recipesLimit)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *sub)
	}
	return result, total, nil
}

func (s *UserService) subscription(ctx context.Context, viewerID uuid.UUID, u *models.User, recipesLimit int) (*types.Subscription, error) {
	view, err := userView(ctx, s.ledger, viewerID, u)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.Recipe{}).Where("author_id = ?", u.ID).Count(&count).Error; err != nil {
		return nil, err
	}

	q := db.Where("author_id = ?", u.ID).Order("created_at ASC, id ASC")
	if recipesLimit > 0 {
		q = q.Limit(recipesLimit)
	}
	var recipes []models.Recipe
	if err := q.Find(&recipes).Error; err != nil {
		return nil, err
	}

	sub := &types.Subscription{User: view, RecipesCount: count, Recipes: make([]types.RecipeShort, 0, len(recipes))}
	for i := range recipes {
		sub.Recipes = append(sub.Recipes, types.RecipeShort{
			ID:          recipes[i].ID,
			Name:        recipes[i].Name,
			Image:       s.images.URL(recipes[i].Image),
			CookingTime: recipes[i].CookingTime,
		})
	}
	return sub, nil
}
