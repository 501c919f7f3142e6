package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"bountyhub/pkg/middleware"
	"bountyhub/pkg/server"

	"github.com/gin-gonic/gin"
)

// NewTestRouter returns an engine wired with the API middleware chain.
func NewTestRouter() (*gin.Engine, server.Router) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(middleware.Error())
	return engine, server.NewRouter(engine)
}

// Do sends a JSON request as userID and returns the recorded response.
func Do(t *testing.T, h http.Handler, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set(middleware.HeaderUserID, userID)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}
