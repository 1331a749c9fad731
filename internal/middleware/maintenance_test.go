package middleware

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edusync/edusync-api/internal/models"
	"github.com/edusync/edusync-api/internal/service"
)

type memFlagRepo struct {
	flags map[string]string
}

func (m *memFlagRepo) Get(ctx context.Context, name string) (*models.SystemFlag, error) {
	value, ok := m.flags[name]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.SystemFlag{Name: name, Value: value}, nil
}

func (m *memFlagRepo) Set(ctx context.Context, name, value string) error {
	m.flags[name] = value
	return nil
}

func (m *memFlagRepo) List(ctx context.Context) ([]models.SystemFlag, error) {
	return nil, nil
}

func maintenanceRouter(flags *service.FlagService, claims *models.JWTClaims) *gin.Engine {
	r := gin.New()
	r.GET("/ping", func(c *gin.Context) {
		if claims != nil {
			c.Set(ContextUserKey, claims)
		}
		c.Next()
	}, Maintenance(flags), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestMaintenanceOffPassesEveryone(t *testing.T) {
	flags := service.NewFlagService(&memFlagRepo{flags: map[string]string{}}, nil, zap.NewNop())

	claims := &models.JWTClaims{UserID: "t1", Role: models.RoleTeacher}
	w := httptest.NewRecorder()
	maintenanceRouter(flags, claims).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMaintenanceOnBlocksAllButCreator(t *testing.T) {
	flags := service.NewFlagService(&memFlagRepo{flags: map[string]string{}}, nil, zap.NewNop())
	require.NoError(t, flags.SetMaintenance(context.Background(), true))

	admin := &models.JWTClaims{UserID: "a1", Role: models.RoleAdmin}
	w := httptest.NewRecorder()
	maintenanceRouter(flags, admin).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	creator := &models.JWTClaims{UserID: "c1", Role: models.RoleCreator}
	w = httptest.NewRecorder()
	maintenanceRouter(flags, creator).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMaintenanceOnBlocksAnonymous(t *testing.T) {
	flags := service.NewFlagService(&memFlagRepo{flags: map[string]string{}}, nil, zap.NewNop())
	require.NoError(t, flags.SetMaintenance(context.Background(), true))

	w := httptest.NewRecorder()
	maintenanceRouter(flags, nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
