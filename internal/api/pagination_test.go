package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/types"
)

func queryContext(rawQuery string) *gin.Context {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/api/recipes?"+rawQuery, nil)
	return c
}

func TestPageRequest(t *testing.T) {
	tests := []struct {
		query string
		want  types.PageRequest
	}{
		{"", types.PageRequest{Page: 1, Limit: 6}},
		{"page=3&limit=10", types.PageRequest{Page: 3, Limit: 10}},
		{"page=-2&limit=0", types.PageRequest{Page: 1, Limit: 6}},
		{"page=abc&limit=1000", types.PageRequest{Page: 1, Limit: maxPageSize}},
		{"page=9223372036854775807&limit=100", types.PageRequest{Page: maxPage, Limit: 100}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, pageRequest(queryContext(tt.query), 6))
		})
	}
}

func TestPaginateHugePage(t *testing.T) {
	c := queryContext("page=9223372036854775807&limit=100")
	page := pageRequest(c, 6)
	assert.Positive(t, page.Offset())

	out := paginate(c, page, 3, []types.Recipe{})
	assert.Nil(t, out.Next)
	require.NotNil(t, out.Previous)
	assert.Contains(t, *out.Previous, "page=1048575")
}
