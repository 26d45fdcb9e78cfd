package collect

import (
	"context"
	"errors"
	"testing"

	"github.com/cwhited/dealerval/internal/model"
)

type stubDecoder struct {
	spec model.VehicleSpec
	err  error
}

func (d stubDecoder) Decode(_ context.Context, _ string) (model.VehicleSpec, error) {
	return d.spec, d.err
}

type stubComps struct {
	active []model.ComparableListing
	recent []model.ComparableListing
	err    error
}

func (s stubComps) Active(_ context.Context, _ model.VehicleSpec) ([]model.ComparableListing, error) {
	return s.active, s.err
}

func (s stubComps) RecentlySold(_ context.Context, _ model.VehicleSpec) ([]model.ComparableListing, error) {
	return s.recent, s.err
}

type stubHistory struct {
	entries []model.PriceHistoryEntry
}

func (s stubHistory) History(_ context.Context, _ string) ([]model.PriceHistoryEntry, error) {
	return s.entries, nil
}

type stubSupply struct {
	supply *model.MarketSupplyData
	err    error
}

func (s stubSupply) Supply(_ context.Context, _ model.VehicleSpec) (*model.MarketSupplyData, error) {
	return s.supply, s.err
}

type stubPriceCheck struct{ price float64 }

func (s stubPriceCheck) PredictedPrice(_ context.Context, _ model.VehicleSpec, _ int) (float64, error) {
	return s.price, nil
}

func TestAssemble_FullBundle(t *testing.T) {
	spec := model.VehicleSpec{VIN: "VIN1", Year: 2022, Make: "Honda", Model: "Accord"}
	f := NewFetcher(Providers{
		Decoder:     stubDecoder{spec: spec},
		Comparables: stubComps{active: []model.ComparableListing{{Price: 21000}}, recent: []model.ComparableListing{{Price: 20500}}},
		History:     stubHistory{entries: []model.PriceHistoryEntry{{Price: 20800}}},
		Supply:      stubSupply{supply: &model.MarketSupplyData{DaysSupply: 45}},
		PriceCheck:  stubPriceCheck{price: 21300},
	}, Config{})

	b, err := f.Assemble(context.Background(), "VIN1", 40000, model.ConditionGood)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if b.Subject.Spec != spec {
		t.Errorf("spec = %+v, want decoded spec", b.Subject.Spec)
	}
	if len(b.Comparables) != 1 || len(b.RecentListings) != 1 {
		t.Errorf("comps/recent = %d/%d, want 1/1", len(b.Comparables), len(b.RecentListings))
	}
	if len(b.PriceHistory) != 1 {
		t.Errorf("history = %d entries, want 1", len(b.PriceHistory))
	}
	if b.Supply == nil || b.Supply.DaysSupply != 45 {
		t.Errorf("supply = %+v, want days supply 45", b.Supply)
	}
	if b.MarketCheckPrice != 21300 {
		t.Errorf("market check price = %.2f, want 21300", b.MarketCheckPrice)
	}
}

func TestAssemble_OptionalFailuresDegrade(t *testing.T) {
	f := NewFetcher(Providers{
		Decoder:     stubDecoder{spec: model.VehicleSpec{Year: 2022}},
		Comparables: stubComps{err: errors.New("upstream down")},
		Supply:      stubSupply{err: errors.New("upstream down")},
	}, Config{})

	b, err := f.Assemble(context.Background(), "VIN1", 40000, model.ConditionGood)
	if err != nil {
		t.Fatalf("optional failures must not be fatal: %v", err)
	}
	if b.Comparables != nil || b.Supply != nil {
		t.Errorf("failed feeds should leave empty slots, got %+v", b)
	}
}

func TestAssemble_InputValidation(t *testing.T) {
	f := NewFetcher(Providers{Decoder: stubDecoder{}}, Config{})

	if _, err := f.Assemble(context.Background(), "", 40000, model.ConditionGood); err == nil {
		t.Error("missing vin should fail")
	}
	if _, err := f.Assemble(context.Background(), "VIN1", 0, model.ConditionGood); err == nil {
		t.Error("non-positive mileage should fail")
	}
	if _, err := f.Assemble(context.Background(), "VIN1", 40000, "mint"); err == nil {
		t.Error("unknown condition should fail")
	}
}

func TestAssemble_DecodeFailureIsFatal(t *testing.T) {
	f := NewFetcher(Providers{Decoder: stubDecoder{err: errors.New("bad vin")}}, Config{})
	if _, err := f.Assemble(context.Background(), "VIN1", 40000, model.ConditionGood); err == nil {
		t.Error("decode failure should be fatal")
	}
}
