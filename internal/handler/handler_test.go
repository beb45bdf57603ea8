package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"corebank/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestUpdateUserSelfOnly(t *testing.T) {
	authService := newAuthService()
	h := &Handler{authService: authService}

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.PATCH("/api/v1/users/:id", AuthMiddleware(authService), h.UpdateUser)

	// token is issued for user 7; touching user 8 is rejected before any
	// service call
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/users/8", strings.NewReader(`{"first_name":"Maria"}`))
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, authService, model.RoleCustomer))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUpdateUserInvalidID(t *testing.T) {
	authService := newAuthService()
	h := &Handler{authService: authService}

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.PATCH("/api/v1/users/:id", AuthMiddleware(authService), h.UpdateUser)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/users/abc", strings.NewReader(`{}`))
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, authService, model.RoleCustomer))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
