package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	appErrors "github.com/edusync/edusync-api/pkg/errors"
)

func TestCacheRepositoryNilClientReturnsUnavailable(t *testing.T) {
	repo := NewCacheRepository(nil, zap.NewNop())
	ctx := context.Background()

	var dest map[string]string
	assert.ErrorIs(t, repo.Get(ctx, "k", &dest), appErrors.ErrCacheUnavailable)
	assert.ErrorIs(t, repo.Set(ctx, "k", "v", time.Minute), appErrors.ErrCacheUnavailable)
	assert.ErrorIs(t, repo.Delete(ctx, "k"), appErrors.ErrCacheUnavailable)
	assert.ErrorIs(t, repo.DeleteByPattern(ctx, "k:*"), appErrors.ErrCacheUnavailable)
}
