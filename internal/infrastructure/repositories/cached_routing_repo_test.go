package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payment-hub.backend/internal/domain/entities"
	redispkg "payment-hub.backend/pkg/redis"
)

func startCacheRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	srv, err := miniredis.Run()
	if err != nil {
		t.Skipf("skip: miniredis unavailable in this environment: %v", err)
	}
	t.Cleanup(srv.Close)

	cli := goredis.NewClient(&goredis.Options{Addr: srv.Addr()})
	redispkg.SetClient(cli)
	t.Cleanup(func() { _ = cli.Close() })
	return srv
}

func TestCachedClearingSystemServesFromCache(t *testing.T) {
	startCacheRedis(t)
	inner := NewClearingSystemRepository(newTestDB(t))
	repo := NewCachedClearingSystemRepository(inner, time.Minute)

	require.NoError(t, repo.Create(context.Background(), &entities.ClearingSystemConfig{
		Code: "ACH", Name: "Automated Clearing House", IsActive: true,
	}))

	first, err := repo.GetByCode(context.Background(), "ACH")
	require.NoError(t, err)
	assert.Equal(t, "Automated Clearing House", first.Name)

	// Mutate the row behind the cache; a cached read still sees the old name.
	require.NoError(t, inner.Create(context.Background(), &entities.ClearingSystemConfig{
		Code: "RTP", Name: "Real Time Payments", IsActive: true,
	}))
	second, err := repo.GetByCode(context.Background(), "ACH")
	require.NoError(t, err)
	assert.Equal(t, first.Name, second.Name)
}

func TestCachedClearingSystemWriteInvalidates(t *testing.T) {
	startCacheRedis(t)
	inner := NewClearingSystemRepository(newTestDB(t))
	repo := NewCachedClearingSystemRepository(inner, time.Minute)

	require.NoError(t, repo.Create(context.Background(), &entities.ClearingSystemConfig{
		Code: "ACH", Name: "ACH", IsActive: true,
	}))
	active, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, active, 1)

	// A second write flushes the routing prefix so the list is re-read.
	require.NoError(t, repo.Create(context.Background(), &entities.ClearingSystemConfig{
		Code: "RTP", Name: "RTP", IsActive: true,
	}))
	active, err = repo.ListActive(context.Background())
	require.NoError(t, err)
	assert.Len(t, active, 2)
}

func TestCachedRoutingRulesFallThroughOnRedisOutage(t *testing.T) {
	// Unreachable redis: every read falls through to the database.
	redispkg.SetClient(goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:0"}))

	inner := NewRoutingRuleRepository(newTestDB(t))
	repo := NewCachedRoutingRuleRepository(inner, time.Minute)

	require.NoError(t, repo.Create(context.Background(), &entities.PaymentRoutingRule{
		TenantID:           "tenant-1",
		PaymentType:        "CREDIT_TRANSFER",
		RoutingType:        entities.RoutingTypeOtherBank,
		ClearingSystemCode: "ACH",
		Priority:           1,
		IsActive:           true,
	}))

	rules, err := repo.GetForTenant(context.Background(), "tenant-1")
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "ACH", rules[0].ClearingSystemCode)
}

func TestCachedRoutingRulesGlobalCached(t *testing.T) {
	srv := startCacheRedis(t)
	inner := NewRoutingRuleRepository(newTestDB(t))
	repo := NewCachedRoutingRuleRepository(inner, time.Minute)

	require.NoError(t, repo.Create(context.Background(), &entities.PaymentRoutingRule{
		RoutingType:        entities.RoutingTypeOtherBank,
		ClearingSystemCode: "RTP",
		Priority:           1,
		IsActive:           true,
	}))

	_, err := repo.GetGlobal(context.Background())
	require.NoError(t, err)
	assert.True(t, srv.Exists(ruleCachePrefix+"_global"))
}
