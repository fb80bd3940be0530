package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CatalogService exposes tags and ingredients, which are reference data.
type CatalogService struct {
	db *gorm.DB
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

// ListTags returns every tag ordered by slug
func (s *CatalogService) ListTags(ctx context.Context) ([]types.Tag, error) {
	var tags []models.Tag
	if err := s.db.WithContext(ctx).Order("slug ASC").Find(&tags).Error; err != nil {
		return nil, err
	}
	result := make([]types.Tag, len(tags))
	for i := range tags {
		result[i] = tagView(&tags[i])
	}
	return result, nil
}

func (s *CatalogService) GetTag(ctx context.Context, id uuid.UUID) (*types.Tag, error) {
	var tag models.Tag
	if err := s.db.WithContext(ctx).First(&tag, "id = ?", id).Error; err != nil {
		return nil, storageError(err)
	}
	v := tagView(&tag)
	return &v, nil
}

// ListIngredients returns ingredients whose name starts with prefix,
// ignoring case. An empty prefix matches everything.
func (s *CatalogService) ListIngredients(ctx context.Context, prefix string) ([]types.Ingredient, error) {
	query := s.db.WithContext(ctx).Model(&models.Ingredient{})
	if prefix = strings.TrimSpace(prefix); prefix != "" {
		query = query.Where("LOWER(name) LIKE ? ESCAPE '\\'", escapeLike(strings.ToLower(prefix))+"%")
	}

	var ingredients []models.Ingredient
	if err := query.Order("name ASC, measurement_unit ASC").Find(&ingredients).Error; err != nil {
		return nil, err
	}
	result := make([]types.Ingredient, len(ingredients))
	for i, in := range ingredients {
		result[i] = types.Ingredient{ID: in.ID, Name: in.Name, MeasurementUnit: in.MeasurementUnit}
	}
	return result, nil
}

func (s *CatalogService) GetIngredient(ctx context.Context, id uuid.UUID) (*types.Ingredient, error) {
	var in models.Ingredient
	if err := s.db.WithContext(ctx).First(&in, "id = ?", id).Error; err != nil {
		return nil, storageError(err)
	}
	return &types.Ingredient{ID: in.ID, Name: in.Name, MeasurementUnit: in.MeasurementUnit}, nil
}

// ImportIngredients inserts ingredients, skipping name+unit pairs that
// already exist. It returns how many rows were new.
func (s *CatalogService) ImportIngredients(ctx context.Context, ingredients []types.Ingredient) (int64, error) {
	if len(ingredients) == 0 {
		return 0, nil
	}
	rows := make([]models.Ingredient, 0, len(ingredients))
	for _, in := range ingredients {
		name, unit := strings.TrimSpace(in.Name), strings.TrimSpace(in.MeasurementUnit)
		if name == "" || unit == "" {
			return 0, invalid("ingredients", "name and measurement unit are required")
		}
		rows = append(rows, models.Ingredient{Name: name, MeasurementUnit: unit})
	}

	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(&rows, 500)
	if res.Error != nil {
		return 0, storageError(res.Error)
	}
	return res.RowsAffected, nil
}

// ImportTags inserts tags, skipping names or slugs that already exist.
func (s *CatalogService) ImportTags(ctx context.Context, tags []types.Tag) (int64, error) {
	if len(tags) == 0 {
		return 0, nil
	}
	rows := make([]models.Tag, 0, len(tags))
	for _, t := range tags {
		tag := models.Tag{Name: strings.TrimSpace(t.Name), Color: strings.TrimSpace(t.Color), Slug: strings.TrimSpace(t.Slug)}
		if tag.Color == "" {
			tag.Color = "#FF0000"
		}
		if err := validateStruct(tagInput{Name: tag.Name, Color: tag.Color, Slug: tag.Slug}); err != nil {
			return 0, err
		}
		rows = append(rows, tag)
	}

	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows)
	if res.Error != nil {
		return 0, storageError(res.Error)
	}
	return res.RowsAffected, nil
}

type tagInput struct {
	Name  string `json:"name" validate:"required,max=200"`
	Color string `json:"color" validate:"required,hexcolor"`
	Slug  string `json:"slug" validate:"required,max=200"`
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
