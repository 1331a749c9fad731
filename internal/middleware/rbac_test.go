package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/edusync/edusync-api/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func rbacRouter(handler gin.HandlerFunc, claims *models.JWTClaims) *gin.Engine {
	r := gin.New()
	r.GET("/users/:id", func(c *gin.Context) {
		if claims != nil {
			c.Set(ContextUserKey, claims)
		}
		c.Next()
	}, handler, func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func doRequest(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestMinRoleFloor(t *testing.T) {
	cases := []struct {
		name   string
		role   models.UserRole
		min    models.UserRole
		status int
	}{
		{"teacher below head", models.RoleTeacher, models.RoleHead, http.StatusForbidden},
		{"head at floor", models.RoleHead, models.RoleHead, http.StatusOK},
		{"admin above head", models.RoleAdmin, models.RoleHead, http.StatusOK},
		{"creator above admin", models.RoleCreator, models.RoleAdmin, http.StatusOK},
		{"head below admin", models.RoleHead, models.RoleAdmin, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			claims := &models.JWTClaims{UserID: "u1", Role: tc.role}
			w := doRequest(rbacRouter(MinRole(tc.min), claims), "/users/u1")
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestMinRoleWithoutClaims(t *testing.T) {
	w := doRequest(rbacRouter(MinRole(models.RoleTeacher), nil), "/users/u1")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMinRoleOrSelfAllowsOwnRecord(t *testing.T) {
	claims := &models.JWTClaims{UserID: "t1", Role: models.RoleTeacher}

	w := doRequest(rbacRouter(MinRoleOrSelf(models.RoleAdmin), claims), "/users/t1")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(rbacRouter(MinRoleOrSelf(models.RoleAdmin), claims), "/users/t2")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMinRoleOrSelfAdminSeesEveryone(t *testing.T) {
	claims := &models.JWTClaims{UserID: "a1", Role: models.RoleAdmin}

	w := doRequest(rbacRouter(MinRoleOrSelf(models.RoleAdmin), claims), "/users/t2")
	assert.Equal(t, http.StatusOK, w.Code)
}
