// Package collect assembles the engine's input bundle by querying the
// upstream data providers concurrently. The engine runs only after
// the whole bundle is gathered; optional feeds that fail simply leave
// their slot empty.
package collect

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/cwhited/dealerval/internal/model"
)

// VINDecoder resolves a VIN to a decoded vehicle specification.
type VINDecoder interface {
	Decode(ctx context.Context, vin string) (model.VehicleSpec, error)
}

// ComparableSource provides market listings for a vehicle spec.
type ComparableSource interface {
	Active(ctx context.Context, spec model.VehicleSpec) ([]model.ComparableListing, error)
	RecentlySold(ctx context.Context, spec model.VehicleSpec) ([]model.ComparableListing, error)
}

// HistorySource provides the VIN's listing price history.
type HistorySource interface {
	History(ctx context.Context, vin string) ([]model.PriceHistoryEntry, error)
}

// SupplySource provides market days-supply data.
type SupplySource interface {
	Supply(ctx context.Context, spec model.VehicleSpec) (*model.MarketSupplyData, error)
}

// PriceCheckSource provides an externally predicted price used for
// cross-validation.
type PriceCheckSource interface {
	PredictedPrice(ctx context.Context, spec model.VehicleSpec, mileage int) (float64, error)
}

// Providers groups the upstream collaborators. Only Decoder is
// required; nil providers are skipped.
type Providers struct {
	Decoder     VINDecoder
	Comparables ComparableSource
	History     HistorySource
	Supply      SupplySource
	PriceCheck  PriceCheckSource
}

// Fetcher gathers bundles under a shared rate limit.
type Fetcher struct {
	providers Providers
	limiter   *rate.Limiter
	timeout   time.Duration
}

// Config tunes the fetcher.
type Config struct {
	RateLimit rate.Limit    // requests per second across all providers
	Timeout   time.Duration // budget for the whole assembly
}

// NewFetcher builds a Fetcher with sane defaults for zero config
// values.
func NewFetcher(providers Providers, cfg Config) *Fetcher {
	limit := cfg.RateLimit
	if limit == 0 {
		limit = rate.Limit(5)
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Fetcher{
		providers: providers,
		limiter:   rate.NewLimiter(limit, int(limit)+1),
		timeout:   timeout,
	}
}

// Assemble decodes the VIN, then fetches every optional feed in
// parallel. Optional feed errors are logged and degrade to empty
// slots; only decode failure and malformed input are fatal.
func (f *Fetcher) Assemble(ctx context.Context, vin string, mileage int, condition model.Condition) (model.Bundle, error) {
	if vin == "" {
		return model.Bundle{}, fmt.Errorf("vin is required")
	}
	if mileage <= 0 {
		return model.Bundle{}, fmt.Errorf("mileage must be positive")
	}
	if !condition.Valid() {
		return model.Bundle{}, fmt.Errorf("unknown condition %q", condition)
	}
	if f.providers.Decoder == nil {
		return model.Bundle{}, fmt.Errorf("vin decoder is required")
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	if err := f.limiter.Wait(ctx); err != nil {
		return model.Bundle{}, fmt.Errorf("rate limit wait: %w", err)
	}
	spec, err := f.providers.Decoder.Decode(ctx, vin)
	if err != nil {
		return model.Bundle{}, fmt.Errorf("decode vin %s: %w", vin, err)
	}

	bundle := model.Bundle{
		Subject: model.SubjectVehicle{Spec: spec, Mileage: mileage, Condition: condition},
	}

	var wg sync.WaitGroup
	var mu sync.Mutex

	fetch := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := f.limiter.Wait(ctx); err != nil {
				log.Printf("[WARN] %s fetch skipped: %v", name, err)
				return
			}
			if err := fn(ctx); err != nil {
				log.Printf("[WARN] %s fetch failed: %v", name, err)
			}
		}()
	}

	if p := f.providers.Comparables; p != nil {
		fetch("comparables", func(ctx context.Context) error {
			comps, err := p.Active(ctx, spec)
			if err != nil {
				return err
			}
			mu.Lock()
			bundle.Comparables = comps
			mu.Unlock()
			return nil
		})
		fetch("recent listings", func(ctx context.Context) error {
			recent, err := p.RecentlySold(ctx, spec)
			if err != nil {
				return err
			}
			mu.Lock()
			bundle.RecentListings = recent
			mu.Unlock()
			return nil
		})
	}
	if p := f.providers.History; p != nil {
		fetch("price history", func(ctx context.Context) error {
			history, err := p.History(ctx, vin)
			if err != nil {
				return err
			}
			mu.Lock()
			bundle.PriceHistory = history
			mu.Unlock()
			return nil
		})
	}
	if p := f.providers.Supply; p != nil {
		fetch("market supply", func(ctx context.Context) error {
			supply, err := p.Supply(ctx, spec)
			if err != nil {
				return err
			}
			mu.Lock()
			bundle.Supply = supply
			mu.Unlock()
			return nil
		})
	}
	if p := f.providers.PriceCheck; p != nil {
		fetch("price check", func(ctx context.Context) error {
			price, err := p.PredictedPrice(ctx, spec, mileage)
			if err != nil {
				return err
			}
			mu.Lock()
			bundle.MarketCheckPrice = price
			mu.Unlock()
			return nil
		})
	}

	wg.Wait()
	return bundle, nil
}
