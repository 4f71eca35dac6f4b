package corebanking

import (
	"fmt"
	"sync"
	"time"

	"payment-hub.backend/internal/domain/corebanking"
	"payment-hub.backend/internal/domain/entities"
	domainerrors "payment-hub.backend/internal/domain/errors"
)

// Factory builds and caches adapters per core banking configuration.
// Adapters are stateless (REST) or long-lived (INTERNAL), so one instance
// per config is enough.
type Factory struct {
	mu       sync.Mutex
	internal *InternalAdapter
	rest     map[string]*RESTAdapter
}

// NewFactory creates an adapter factory. The shared internal adapter backs
// every INTERNAL config.
func NewFactory(internal *InternalAdapter) *Factory {
	return &Factory{
		internal: internal,
		rest:     make(map[string]*RESTAdapter),
	}
}

// ForConfig returns the adapter for a core banking configuration. GRPC is a
// recognized kind without an implementation yet and reports NotSupported.
func (f *Factory) ForConfig(cfg *entities.CoreBankingConfig) (corebanking.Adapter, error) {
	switch cfg.AdapterKind {
	case entities.AdapterKindInternal:
		return f.internal, nil
	case entities.AdapterKindREST:
		f.mu.Lock()
		defer f.mu.Unlock()
		if a, ok := f.rest[cfg.BaseURL]; ok {
			return a, nil
		}
		a := NewRESTAdapter(cfg.BaseURL, time.Duration(cfg.TimeoutMs)*time.Millisecond)
		f.rest[cfg.BaseURL] = a
		return a, nil
	case entities.AdapterKindGRPC:
		return nil, fmt.Errorf("%w: GRPC adapter not available", domainerrors.ErrNotSupported)
	default:
		return nil, fmt.Errorf("%w: unknown adapter kind %q", domainerrors.ErrNotSupported, cfg.AdapterKind)
	}
}
