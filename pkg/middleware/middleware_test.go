package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"bountyhub/pkg/errutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
	gin.SetMode(gin.TestMode)
}

func newEngine() *gin.Engine {
	r := gin.New()
	r.Use(Error())
	api := r.Group("/api", Actor())
	api.GET("/me", func(c *gin.Context) {
		c.String(http.StatusOK, ActorID(c.Request.Context()))
	})
	api.GET("/missing", func(c *gin.Context) {
		_ = c.Error(errutil.NotFound("project not found", nil))
	})
	api.GET("/boom", func(c *gin.Context) {
		_ = c.Error(errors.New("db down"))
	})
	return r
}

func do(r *gin.Engine, path, user string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if user != "" {
		req.Header.Set(HeaderUserID, user)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestActor(t *testing.T) {
	r := newEngine()

	w := do(r, "/api/me", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), `"unauthorized"`)

	w = do(r, "/api/me", "u-1")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "u-1", w.Body.String())
}

func TestError(t *testing.T) {
	r := newEngine()

	w := do(r, "/api/missing", "u-1")
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), `"not_found"`)

	w = do(r, "/api/boom", "u-1")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.NotContains(t, w.Body.String(), "db down")
}
