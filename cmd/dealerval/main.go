// Command dealerval values a used vehicle against live market
// comparables and prints an itemized pricing report.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/cwhited/dealerval/internal/collect"
	"github.com/cwhited/dealerval/internal/config"
	"github.com/cwhited/dealerval/internal/listings"
	"github.com/cwhited/dealerval/internal/model"
	"github.com/cwhited/dealerval/internal/recorder"
	"github.com/cwhited/dealerval/internal/report"
	"github.com/cwhited/dealerval/internal/valuation"
)

type options struct {
	configPath string
	bundlePath string
	csvPath    string
	watch      bool

	vin       string
	mileage   int
	condition string

	year   int
	mk     string
	mdl    string
	trim   string
	msrp   float64
	zip    string
	radius int
}

func main() {
	log.SetFlags(log.LstdFlags)

	if err := godotenv.Load(); err == nil {
		log.Println("[INFO] loaded .env")
	}

	var opts options
	flag.StringVar(&opts.configPath, "config", "configs/config.yaml", "path to YAML config")
	flag.StringVar(&opts.bundlePath, "bundle", "", "path to a pre-assembled bundle JSON file")
	flag.StringVar(&opts.csvPath, "csv", "", "write the breakdown as CSV to this path")
	flag.BoolVar(&opts.watch, "watch", false, "re-run the valuation on the configured cron schedule")
	flag.StringVar(&opts.vin, "vin", "", "subject vehicle VIN")
	flag.IntVar(&opts.mileage, "mileage", 0, "subject vehicle mileage")
	flag.StringVar(&opts.condition, "condition", "good", "condition: excellent, good, fair, poor")
	flag.IntVar(&opts.year, "year", 0, "model year (manual spec mode)")
	flag.StringVar(&opts.mk, "make", "", "make (manual spec mode)")
	flag.StringVar(&opts.mdl, "model", "", "model (manual spec mode)")
	flag.StringVar(&opts.trim, "trim", "", "trim (manual spec mode)")
	flag.Float64Var(&opts.msrp, "msrp", 0, "original MSRP (manual spec mode)")
	flag.StringVar(&opts.zip, "zip", "", "search zip code (overrides config)")
	flag.IntVar(&opts.radius, "radius", 0, "search radius in miles (overrides config)")
	flag.Parse()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}
	if opts.zip != "" {
		cfg.Listings.ZipCode = opts.zip
	}
	if opts.radius > 0 {
		cfg.Listings.RadiusMiles = opts.radius
	}

	var rec recorder.Recorder
	if cfg.Database.Enabled {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NoopRecorder{}
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NoopRecorder{}
	}

	run := func() {
		if err := runValuation(opts, cfg, rec); err != nil {
			log.Printf("[WARN] valuation failed: %v", err)
			if !opts.watch {
				os.Exit(1)
			}
		}
	}

	if !opts.watch {
		run()
		return
	}

	c := cron.New(cron.WithSeconds())
	if _, err := c.AddFunc(cfg.Schedule.WatchCron, run); err != nil {
		log.Fatalf("[FATAL] register watch schedule %q: %v", cfg.Schedule.WatchCron, err)
	}
	c.Start()
	defer c.Stop()
	log.Printf("[INFO] watching on schedule %q, press Ctrl+C to stop", cfg.Schedule.WatchCron)

	run()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Println("[INFO] shutdown signal received, stopping")
}

func runValuation(opts options, cfg *config.Config, rec recorder.Recorder) error {
	start := time.Now()

	bundle, err := loadBundle(opts, cfg)
	if err != nil {
		return err
	}

	engine := valuation.New()
	result := engine.Value(bundle)

	if err := render(os.Stdout, bundle.Subject, &result); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	if opts.csvPath != "" {
		if err := writeCSVFile(opts.csvPath, &result); err != nil {
			return err
		}
		log.Printf("[INFO] breakdown written to %s", opts.csvPath)
	}

	err = rec.Record(&recorder.Record{
		When:           time.Now(),
		Subject:        bundle.Subject,
		Result:         result,
		CompCount:      len(bundle.Comparables),
		ElapsedMillis:  time.Since(start).Milliseconds(),
		RequestedBy:    "cli",
		ListingZipCode: cfg.Listings.ZipCode,
	})
	if err != nil {
		log.Printf("[WARN] record valuation: %v", err)
	}
	return nil
}

// loadBundle picks the input path: a pre-assembled bundle file, or a
// live assembly from the configured listing source.
func loadBundle(opts options, cfg *config.Config) (model.Bundle, error) {
	if opts.bundlePath != "" {
		return readBundleFile(opts.bundlePath)
	}
	return assembleBundle(opts, cfg)
}

func readBundleFile(path string) (model.Bundle, error) {
	var b model.Bundle
	data, err := os.ReadFile(path)
	if err != nil {
		return b, fmt.Errorf("read bundle: %w", err)
	}
	if err := json.Unmarshal(data, &b); err != nil {
		return b, fmt.Errorf("parse bundle: %w", err)
	}
	return b, nil
}

func assembleBundle(opts options, cfg *config.Config) (model.Bundle, error) {
	var b model.Bundle

	cond := model.Condition(strings.ToLower(opts.condition))
	if !cond.Valid() {
		return b, fmt.Errorf("unknown condition %q", opts.condition)
	}
	if opts.year == 0 || opts.mk == "" || opts.mdl == "" {
		return b, fmt.Errorf("live mode needs -year, -make and -model (or use -bundle)")
	}
	if cfg.Listings.BaseURL == "" {
		return b, fmt.Errorf("listings.base_url not configured")
	}
	if cfg.Listings.ZipCode == "" {
		return b, fmt.Errorf("no zip code: set listings.zip_code or pass -zip")
	}

	spec := model.VehicleSpec{
		VIN:   opts.vin,
		Year:  opts.year,
		Make:  opts.mk,
		Model: opts.mdl,
		Trim:  opts.trim,
		MSRP:  opts.msrp,
	}

	lcfg := listings.DefaultConfig(cfg.Listings.BaseURL)
	lcfg.CachePath = cfg.Listings.CachePath
	if ttl, err := time.ParseDuration(cfg.Listings.CacheTTL); err == nil {
		lcfg.CacheTTL = ttl
	}
	client := listings.NewClient(lcfg)

	fetcher := collect.NewFetcher(collect.Providers{
		Decoder:     staticDecoder{spec: spec},
		Comparables: listingSource{client: client, zip: cfg.Listings.ZipCode, radius: cfg.Listings.RadiusMiles},
	}, collect.Config{})

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	return fetcher.Assemble(ctx, opts.vin, opts.mileage, cond)
}

// staticDecoder serves the flag-built spec in place of a VIN-decode
// API.
type staticDecoder struct {
	spec model.VehicleSpec
}

func (d staticDecoder) Decode(ctx context.Context, vin string) (model.VehicleSpec, error) {
	spec := d.spec
	spec.VIN = vin
	return spec, nil
}

// listingSource adapts the listing search client to the comparable
// source interface.
type listingSource struct {
	client *listings.Client
	zip    string
	radius int
}

func (s listingSource) Active(ctx context.Context, spec model.VehicleSpec) ([]model.ComparableListing, error) {
	return s.client.Search(spec, s.zip, s.radius)
}

func (s listingSource) RecentlySold(ctx context.Context, spec model.VehicleSpec) ([]model.ComparableListing, error) {
	return nil, nil
}

func render(w *os.File, subject model.SubjectVehicle, res *model.ValuationResult) error {
	sections := [][][]string{
		report.SummaryTable(subject, res),
		report.PricingTable(res),
		report.BreakdownTable(res),
	}
	for i, rows := range sections {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if err := report.WriteText(w, rows); err != nil {
			return err
		}
	}
	return nil
}

func writeCSVFile(path string, res *model.ValuationResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	defer f.Close()
	return report.WriteCSV(f, report.BreakdownTable(res))
}
