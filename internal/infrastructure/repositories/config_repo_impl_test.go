package repositories

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payment-hub.backend/internal/domain/entities"
	domainerrors "payment-hub.backend/internal/domain/errors"
)

func TestCoreBankingConfigGetActivePrefersHighestPriority(t *testing.T) {
	repo := NewCoreBankingConfigRepository(newTestDB(t))
	seed := func(priority int, active bool, baseURL string) {
		require.NoError(t, repo.Create(context.Background(), &entities.CoreBankingConfig{
			TenantID:    "tenant-1",
			BankCode:    "BANK-A",
			AdapterKind: entities.AdapterKindREST,
			BaseURL:     baseURL,
			Priority:    priority,
			IsActive:    active,
		}))
	}
	seed(1, true, "https://old.example.com")
	seed(9, true, "https://new.example.com")
	seed(99, false, "https://disabled.example.com")

	got, err := repo.GetActive(context.Background(), "tenant-1", "BANK-A")
	require.NoError(t, err)
	assert.Equal(t, "https://new.example.com", got.BaseURL)

	_, err = repo.GetActive(context.Background(), "tenant-2", "BANK-A")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestEndpointConfigListActiveOnly(t *testing.T) {
	repo := NewEndpointConfigRepository(newTestDB(t))
	owner := uuid.New()
	seed := func(endpointType string, priority int, active bool) {
		require.NoError(t, repo.Create(context.Background(), &entities.EndpointConfiguration{
			CoreBankingConfigID: owner,
			EndpointType:        endpointType,
			HTTPMethod:          "POST",
			Path:                "/v1/" + endpointType,
			AuthConfig:          map[string]interface{}{"type": "bearer"},
			Priority:            priority,
			IsActive:            active,
		}))
	}
	seed("debit", 2, true)
	seed("credit", 1, true)
	seed("legacy-debit", 0, false)

	endpoints, err := repo.ListByCoreBankingConfig(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, endpoints, 2)
	assert.Equal(t, "credit", endpoints[0].EndpointType)
	assert.Equal(t, "debit", endpoints[1].EndpointType)
	assert.Equal(t, "bearer", endpoints[0].AuthConfig["type"])
}

func TestSchemaMappingCreateDeactivatesPriorActive(t *testing.T) {
	repo := NewSchemaMappingRepository(newTestDB(t))
	endpoint := uuid.New()

	v1 := &entities.PayloadSchemaMapping{
		EndpointConfigID: endpoint,
		MappingName:      "pacs008",
		MappingType:      entities.MappingTypeTransformation,
		Direction:        entities.MappingDirectionRequest,
		Version:          1,
		IsActive:         true,
	}
	require.NoError(t, repo.Create(context.Background(), v1))

	v2 := &entities.PayloadSchemaMapping{
		EndpointConfigID: endpoint,
		MappingName:      "pacs008",
		MappingType:      entities.MappingTypeTransformation,
		Direction:        entities.MappingDirectionRequest,
		Version:          2,
		IsActive:         true,
	}
	require.NoError(t, repo.Create(context.Background(), v2))

	active, err := repo.GetActive(context.Background(), endpoint, "pacs008", entities.MappingDirectionRequest)
	require.NoError(t, err)
	assert.Equal(t, 2, active.Version, "only the newest version stays active")

	// The old version remains addressable by pin.
	pinned, err := repo.GetVersion(context.Background(), endpoint, "pacs008", 1)
	require.NoError(t, err)
	assert.False(t, pinned.IsActive)
}

func TestSchemaMappingGetActiveDirectionMatching(t *testing.T) {
	repo := NewSchemaMappingRepository(newTestDB(t))
	endpoint := uuid.New()

	require.NoError(t, repo.Create(context.Background(), &entities.PayloadSchemaMapping{
		EndpointConfigID: endpoint,
		MappingName:      "pacs008",
		Direction:        entities.MappingDirectionBidirectional,
		Version:          1,
		IsActive:         true,
	}))

	// A bidirectional mapping serves both directions.
	_, err := repo.GetActive(context.Background(), endpoint, "pacs008", entities.MappingDirectionRequest)
	assert.NoError(t, err)
	_, err = repo.GetActive(context.Background(), endpoint, "pacs008", entities.MappingDirectionResponse)
	assert.NoError(t, err)

	require.NoError(t, repo.Create(context.Background(), &entities.PayloadSchemaMapping{
		EndpointConfigID: endpoint,
		MappingName:      "pain001",
		Direction:        entities.MappingDirectionRequest,
		Version:          1,
		IsActive:         true,
	}))
	_, err = repo.GetActive(context.Background(), endpoint, "pain001", entities.MappingDirectionResponse)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound, "request-only mappings never serve responses")
}

func TestSchemaMappingRoundTripsRuleMaps(t *testing.T) {
	repo := NewSchemaMappingRepository(newTestDB(t))
	endpoint := uuid.New()

	require.NoError(t, repo.Create(context.Background(), &entities.PayloadSchemaMapping{
		EndpointConfigID: endpoint,
		MappingName:      "pacs008",
		Direction:        entities.MappingDirectionRequest,
		FieldMappings: map[string]interface{}{
			"transaction.amount": "payment.instructedAmount",
		},
		DefaultValues: map[string]interface{}{"transaction.priority": "NORMAL"},
		Version:       1,
		IsActive:      true,
	}))

	got, err := repo.GetActive(context.Background(), endpoint, "pacs008", entities.MappingDirectionRequest)
	require.NoError(t, err)
	assert.Equal(t, "payment.instructedAmount", got.FieldMappings["transaction.amount"])
	assert.Equal(t, "NORMAL", got.DefaultValues["transaction.priority"])
}

func TestResiliencyConfigGetActiveEndpointFallback(t *testing.T) {
	repo := NewResiliencyConfigRepository(newTestDB(t))

	require.NoError(t, repo.Create(context.Background(), &entities.ResiliencyConfiguration{
		ServiceName: "core-banking-debit",
		TenantID:    "tenant-1",
		Retry:       &entities.RetrySettings{MaxAttempts: 5},
		Priority:    1,
		IsActive:    true,
	}))
	require.NoError(t, repo.Create(context.Background(), &entities.ResiliencyConfiguration{
		ServiceName:     "core-banking-debit",
		TenantID:        "tenant-1",
		EndpointPattern: "/v1/debit",
		Retry:           &entities.RetrySettings{MaxAttempts: 2},
		Priority:        9,
		IsActive:        true,
	}))

	// Pattern-specific config wins on priority.
	got, err := repo.GetActive(context.Background(), "core-banking-debit", "tenant-1", "/v1/debit")
	require.NoError(t, err)
	require.NotNil(t, got.Retry)
	assert.Equal(t, 2, got.Retry.MaxAttempts)

	// An unknown pattern falls back to the service-wide config.
	got, err = repo.GetActive(context.Background(), "core-banking-debit", "tenant-1", "/v1/other")
	require.NoError(t, err)
	require.NotNil(t, got.Retry)
	assert.Equal(t, 5, got.Retry.MaxAttempts)
}

func TestResiliencyConfigSectionRoundTrip(t *testing.T) {
	repo := NewResiliencyConfigRepository(newTestDB(t))

	require.NoError(t, repo.Create(context.Background(), &entities.ResiliencyConfiguration{
		ServiceName: "fraud-external-api",
		TenantID:    "tenant-1",
		CircuitBreaker: &entities.CircuitBreakerSettings{
			FailureRateThreshold: 0.4,
			MinimumNumberOfCalls: 20,
			WaitDurationSeconds:  60,
		},
		Timeout:  &entities.TimeoutSettings{TimeoutDurationSeconds: 5},
		IsActive: true,
	}))

	list, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	got := list[0]
	require.NotNil(t, got.CircuitBreaker)
	assert.Equal(t, 0.4, got.CircuitBreaker.FailureRateThreshold)
	assert.Equal(t, 20, got.CircuitBreaker.MinimumNumberOfCalls)
	require.NotNil(t, got.Timeout)
	assert.Equal(t, 5, got.Timeout.TimeoutDurationSeconds)
	assert.Nil(t, got.Retry, "absent sections stay nil")
	assert.Nil(t, got.Bulkhead)
	assert.Nil(t, got.HealthCheck)
}
