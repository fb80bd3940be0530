package router

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestSetupRouterServesHealthAndMedia(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "recipes", "images"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "recipes", "images", "a.png"), []byte("png"), 0o644))

	svc := api.Services{
		Auth:     &mocks.MockAuthService{},
		Users:    &mocks.MockUserService{},
		Recipes:  &mocks.MockRecipeService{},
		Catalog:  &mocks.MockCatalogService{},
		Shopping: &mocks.MockShoppingList{},
	}
	r := SetupRouter(svc, api.Options{}, Settings{CORSOrigins: []string{"*"}, MediaDir: dir, MediaURL: "/media"})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/media/recipes/images/a.png", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "png", w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/users/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
