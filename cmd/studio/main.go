package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"studio/adapters/db"
	"studio/adapters/file"
	"studio/domain/canon"
	"studio/domain/core"
	"studio/domain/insight"
	"studio/domain/template"
	"studio/internal"
	"studio/internal/cache"
	"studio/internal/config"
	"studio/internal/normalize"
	"studio/internal/pipeline"
)

func main() {
	// .env is optional; real environments set variables directly
	_ = godotenv.Load()

	templateID := flag.String("template", "", "template id (general, govcon, ecommerce, saas)")
	overridesPath := flag.String("overrides", "", "path to a JSON overrides file")
	outDir := flag.String("out", "", "write one <input>.json per input instead of stdout")
	rowLimit := flag.Int("row-limit", 0, "cap rows read from each input (0 = no cap)")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: studio [flags] <input.csv|input.xlsx|sql:QUERY> ...")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel)).Named("studio")

	tmpl := cfg.Analysis.TemplateID
	if *templateID != "" {
		tmpl = *templateID
	}
	if !template.Builtin().Has(tmpl) {
		log.Error("%v: %s", core.ErrUnknownTemplate, tmpl)
		os.Exit(2)
	}

	var overrides *insight.Overrides
	if *overridesPath != "" {
		overrides, err = loadOverrides(*overridesPath)
		if err != nil {
			log.Error("overrides: %v", err)
			os.Exit(1)
		}
	}

	var store cache.Store = cache.NopStore{}
	if cfg.Cache.Enabled {
		store = cache.NewMemoryStore(cfg.Cache.TTL)
	}

	type analysis struct {
		Input  string           `json:"input"`
		Result *pipeline.Result `json:"result"`
	}
	results := make([]analysis, flag.NArg())

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(context.Background())
	for i, input := range flag.Args() {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			result, err := analyze(ctx, input, tmpl, overrides, *rowLimit, cfg, store)
			if err != nil {
				return fmt.Errorf("%s: %w", input, err)
			}
			mu.Lock()
			results[i] = analysis{Input: input, Result: result}
			mu.Unlock()
			log.Info("analyzed %s: %d blocks, %d pages", input, len(result.Blocks), len(result.Scene.Pages))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Error("%v", err)
		if core.IsInputError(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}

	if *outDir != "" {
		if err := os.MkdirAll(*outDir, 0o755); err != nil {
			log.Error("out dir: %v", err)
			os.Exit(1)
		}
		for _, a := range results {
			name := strings.TrimSuffix(filepath.Base(a.Input), filepath.Ext(a.Input)) + ".json"
			if err := writeJSON(filepath.Join(*outDir, name), a); err != nil {
				log.Error("write %s: %v", name, err)
				os.Exit(1)
			}
		}
		return
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		log.Error("encode: %v", err)
		os.Exit(1)
	}
}

func analyze(ctx context.Context, input, templateID string, overrides *insight.Overrides, rowLimit int, cfg *config.Config, store cache.Store) (*pipeline.Result, error) {
	ds, err := loadDataset(ctx, input, rowLimit, cfg, store)
	if err != nil {
		return nil, err
	}

	return pipeline.Run(ds, pipeline.RunOptions{
		TemplateID:     templateID,
		Overrides:      overrides,
		MaxProfileRows: cfg.Analysis.MaxProfileRows,
		MaxComputeRows: cfg.Analysis.MaxComputeRows,
	})
}

// loadDataset reads and normalizes one input, caching the normalized
// dataset by source identity so repeated inputs are read once.
func loadDataset(ctx context.Context, input string, rowLimit int, cfg *config.Config, store cache.Store) (*canon.CanonicalDataset, error) {
	key := core.Hash(core.ComputeSourceHash([]string{input}, map[string]string{
		"row_limit": strconv.Itoa(rowLimit),
	}))
	if ds, ok := store.Get(key); ok {
		return ds, nil
	}

	records, err := readRecords(ctx, input, cfg)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, core.ErrEmptyDataset
	}
	ds := normalize.Dataset(records, rowLimit, map[string]string{
		"source": filepath.Base(input),
	})
	if len(ds.Schema) == 0 {
		return nil, core.ErrNoUsableColumns
	}
	store.Set(key, &ds)
	return &ds, nil
}

// readRecords routes sql: inputs to the database connector and
// everything else to the file connector.
func readRecords(ctx context.Context, input string, cfg *config.Config) ([]map[string]any, error) {
	if query, ok := strings.CutPrefix(input, "sql:"); ok {
		if cfg.Database.URL == "" {
			return nil, fmt.Errorf("sql input needs DATABASE_URL")
		}
		conn, err := sqlx.Open("postgres", cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		defer conn.Close()
		return db.NewQueryReader(conn, cfg.Database.RowLimit).ReadRecords(ctx, query)
	}
	switch strings.ToLower(filepath.Ext(input)) {
	case ".csv", ".xlsx", ".xlsm":
		return file.NewDataReader(input).ReadRecords()
	}
	return nil, fmt.Errorf("%w: %s", core.ErrUnsupportedSource, filepath.Ext(input))
}

func loadOverrides(path string) (*insight.Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var o insight.Overrides
	if err := json.Unmarshal(data, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
