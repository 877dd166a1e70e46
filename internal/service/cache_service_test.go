package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/consultancy-crm-api/internal/models"
	appErrors "github.com/noah-isme/consultancy-crm-api/pkg/errors"
)

type memoryCacheRepo struct {
	values   map[string]interface{}
	patterns []string
	failOn   string
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{values: make(map[string]interface{})}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	value, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	if out, ok := dest.(*int); ok {
		*out = value.(int)
	}
	return nil
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.values[key] = value
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.patterns = append(m.patterns, pattern)
	if pattern == m.failOn {
		return errors.New("redis down")
	}
	return nil
}

func TestCacheServiceGetSet(t *testing.T) {
	repo := newMemoryCacheRepo()
	svc := NewCacheService(repo, NewMetricsService(), time.Minute, nil, true)

	var out int
	hit, err := svc.Get(context.Background(), "approval_requests:pending:co-1", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(context.Background(), "approval_requests:pending:co-1", 4, 0))
	hit, err = svc.Get(context.Background(), "approval_requests:pending:co-1", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 4, out)
	assert.Equal(t, uint64(1), svc.metrics.Snapshot().CacheHits)
}

func TestCacheServiceInvalidateCollections(t *testing.T) {
	repo := newMemoryCacheRepo()
	repo.failOn = models.CollectionEnquiries.Pattern()
	svc := NewCacheService(repo, nil, time.Minute, nil, true)

	err := svc.InvalidateCollections(context.Background(), models.CollectionEnquiries, models.CollectionRegistrations, models.CollectionEnquiries)
	require.Error(t, err)
	assert.Equal(t, []string{"enquiries:*", "registrations:*"}, repo.patterns)
}

func TestCacheServiceDisabled(t *testing.T) {
	repo := newMemoryCacheRepo()
	svc := NewCacheService(repo, nil, time.Minute, nil, false)

	require.NoError(t, svc.InvalidateCollections(context.Background(), models.CollectionFollowUps))
	assert.Empty(t, repo.patterns)
	assert.Equal(t, "followups:list:co-1", CollectionKey(models.CollectionFollowUps, "list", "co-1"))
}
