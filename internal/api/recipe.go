package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

const maxUploadBytes = 10 << 20

type RecipeHandler struct {
	recipes       service.IRecipeService
	shopping      service.IShoppingList
	auth          service.IAuthService
	createLimiter *middleware.RateLimiter
	pageSize      int
}

func NewRecipeHandler(recipes service.IRecipeService, shopping service.IShoppingList, auth service.IAuthService, createLimiter *middleware.RateLimiter, pageSize int) *RecipeHandler {
	return &RecipeHandler{
		recipes:       recipes,
		shopping:      shopping,
		auth:          auth,
		createLimiter: createLimiter,
		pageSize:      pageSize,
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	required := middleware.AuthMiddleware(h.auth)
	optional := middleware.OptionalAuth(h.auth)

	recipes := router.Group("/recipes")
	{
		recipes.GET("", optional, h.ListRecipes)
		recipes.POST("", required, h.createLimiter.RateLimitMiddleware(), h.CreateRecipe)
		recipes.GET("/download_shopping_cart", required, h.DownloadShoppingCart)
		recipes.GET("/:id", optional, h.GetRecipe)
		recipes.PATCH("/:id", required, h.UpdateRecipe)
		recipes.DELETE("/:id", required, h.DeleteRecipe)
		recipes.POST("/:id/favorite", required, h.addTo(models.KindFavorite))
		recipes.DELETE("/:id/favorite", required, h.removeFrom(models.KindFavorite))
		recipes.POST("/:id/shopping_cart", required, h.addTo(models.KindPurchase))
		recipes.DELETE("/:id/shopping_cart", required, h.removeFrom(models.KindPurchase))
	}
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	filter := types.RecipeFilter{
		TagSlugs:         c.QueryArray("tags"),
		IsFavorited:      c.Query("is_favorited") == "1",
		IsInShoppingCart: c.Query("is_in_shopping_cart") == "1",
	}
	if author := c.Query("author"); author != "" {
		id, err := uuid.Parse(author)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "author must be a user id", "field": "author"})
			return
		}
		filter.AuthorID = id
	}

	page := pageRequest(c, h.pageSize)
	recipes, total, err := h.recipes.ListRecipes(c.Request.Context(), middleware.UserID(c), filter, page)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, paginate(c, page, total, recipes))
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	recipe, err := h.recipes.GetRecipe(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	req, err := bindRecipe(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	recipe, err := h.recipes.CreateRecipe(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, recipe)
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	req, err := bindRecipe(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	recipe, err := h.recipes.UpdateRecipe(c.Request.Context(), middleware.UserID(c), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.recipes.DeleteRecipe(c.Request.Context(), middleware.UserID(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) addTo(kind models.RelationKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		short, err := h.recipes.AddToList(c.Request.Context(), kind, middleware.UserID(c), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, short)
	}
}

func (h *RecipeHandler) removeFrom(kind models.RelationKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		if err := h.recipes.RemoveFromList(c.Request.Context(), kind, middleware.UserID(c), id); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// DownloadShoppingCart sends the aggregated list as a CSV attachment. The
// body is rendered in full before any byte is written.
func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	data, err := h.shopping.Export(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	filename := service.ExportFilename(middleware.Username(c))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

// bindRecipe accepts a JSON body, or a multipart form with the JSON in a
// "data" field and the image as a file part.
func bindRecipe(c *gin.Context) (*types.RecipeWriteRequest, error) {
	var req types.RecipeWriteRequest
	if c.ContentType() != "multipart/form-data" {
		if err := c.ShouldBindJSON(&req); err != nil {
			return nil, err
		}
		return &req, nil
	}

	if err := json.Unmarshal([]byte(c.PostForm("data")), &req); err != nil {
		return nil, errors.New("data: expected a JSON recipe")
	}
	file, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return &req, nil
	}
	if err != nil {
		return nil, err
	}
	if file.Size > maxUploadBytes {
		return nil, errors.New("image: file is too large")
	}

	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	raw, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(file.Filename)), ".")
	if ext == "" {
		ext = "png"
	}
	req.Image = "data:image/" + ext + ";base64," + base64.StdEncoding.EncodeToString(raw)
	return &req, nil
}
