package api

import (
	"freelyforms-backend/config"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestNewRouterRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(&config.Config{CORSOrigins: []string{"http://localhost:3000"}})

	routes := make(map[string]bool)
	for _, info := range r.Routes() {
		routes[info.Method+" "+info.Path] = true
	}
	for _, want := range []string{
		"POST /api/v1/auth/register",
		"POST /api/v1/auth/login",
		"POST /api/v1/auth/logout",
		"GET /api/v1/auth/user",
		"GET /api/v1/prefabs",
		"POST /api/v1/prefabs",
		"GET /api/v1/prefabs/:id",
		"PATCH /api/v1/prefabs/:id",
		"PATCH /api/v1/prefabs/:id/activation",
		"DELETE /api/v1/prefabs/:id",
		"POST /api/v1/prefabs/:id/answers",
		"GET /api/v1/prefabs/:id/export",
	} {
		assert.True(t, routes[want], want)
	}
}

func TestCORSAndHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(&config.Config{CORSOrigins: []string{"http://localhost:3000"}})

	req, _ := http.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
