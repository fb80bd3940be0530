package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/pageza/foodgram/backend/internal/mocks"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

func TestWriteErrorStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"validation", &service.ValidationError{Field: "name", Message: "this field is required"}, http.StatusBadRequest, `{"error":"this field is required","field":"name"}`},
		{"duplicate", service.ErrDuplicateRelation, http.StatusBadRequest, ""},
		{"self reference", service.ErrSelfReference, http.StatusBadRequest, ""},
		{"not in list", service.ErrNotInList, http.StatusBadRequest, ""},
		{"unauthenticated", service.ErrUnauthenticated, http.StatusUnauthorized, ""},
		{"forbidden", service.ErrForbidden, http.StatusForbidden, ""},
		{"wrapped not found", fmt.Errorf("recipe %w", service.ErrNotFound), http.StatusNotFound, ""},
		{"constraint", service.ErrConstraintViolation, http.StatusConflict, ""},
		{"unexpected", errors.New("disk on fire"), http.StatusInternalServerError, `{"error":"internal server error"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recipes := &mocks.MockRecipeService{}
			recipes.On("GetRecipe", mock.Anything, uuid.Nil, mock.AnythingOfType("uuid.UUID")).Return(nil, tt.err)

			router := gin.New()
			NewRecipeHandler(recipes, &mocks.MockShoppingList{}, &mocks.MockAuthService{}, nil, 6).RegisterRoutes(router.Group("/api"))

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/recipes/"+uuid.NewString(), nil))

			assert.Equal(t, tt.status, w.Code)
			if tt.body != "" {
				assert.JSONEq(t, tt.body, w.Body.String())
			}
			recipes.AssertExpectations(t)
		})
	}
}

func TestDownloadShoppingCartFailureWritesNoAttachment(t *testing.T) {
	gin.SetMode(gin.TestMode)
	user := uuid.New()

	auth := &mocks.MockAuthService{}
	auth.On("ValidateToken", "tok").Return(&types.TokenClaims{UserID: user, Username: "buyer"}, nil)
	shopping := &mocks.MockShoppingList{}
	shopping.On("Export", mock.Anything, user).Return(nil, errors.New("connection reset"))

	router := gin.New()
	NewRecipeHandler(&mocks.MockRecipeService{}, shopping, auth, nil, 6).RegisterRoutes(router.Group("/api"))

	req := httptest.NewRequest(http.MethodGet, "/api/recipes/download_shopping_cart", nil)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, w.Header().Get("Content-Disposition"))
	shopping.AssertExpectations(t)
}

func TestListRecipesReadsFilters(t *testing.T) {
	gin.SetMode(gin.TestMode)
	author := uuid.New()

	recipes := &mocks.MockRecipeService{}
	recipes.On("ListRecipes", mock.Anything, uuid.Nil, types.RecipeFilter{
		AuthorID:    author,
		TagSlugs:    []string{"lunch", "dinner"},
		IsFavorited: true,
	}, types.PageRequest{Page: 3, Limit: 100}).Return([]types.Recipe{}, int64(0), nil)

	router := gin.New()
	NewRecipeHandler(recipes, &mocks.MockShoppingList{}, &mocks.MockAuthService{}, nil, 6).RegisterRoutes(router.Group("/api"))

	w := httptest.NewRecorder()
	path := "/api/recipes?author=" + author.String() + "&tags=lunch&tags=dinner&is_favorited=1&page=3&limit=500"
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"count":0,"next":null,"previous":"http://example.com/api/recipes?author=`+author.String()+`&is_favorited=1&limit=500&page=2&tags=lunch&tags=dinner","results":[]}`, w.Body.String())
	recipes.AssertExpectations(t)
}
