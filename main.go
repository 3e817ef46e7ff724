package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/GiGurra/boa/pkg/boa"

	"github.com/gravdal/spending-insights/internal"
)

type Params struct {
	File     string `descr:"Path to the transaction file, optionally prefixed with a source (e.g. simple-json:data.json)" positional:"true"`
	Source   string `descr:"Data source type" alts:"bank-xlsx,simple-json"`
	Rules    string `descr:"Path to a rules/catalog yaml file"`
	Config   string `descr:"Path to the config file (default: ~/.spending-insights/config.yaml)"`
	Currency string `descr:"Currency code for display" default:"NOK"`
	From     string `descr:"Window start (YYYY-MM-DD, default: first transaction)"`
	To       string `descr:"Window end (YYYY-MM-DD, default: last transaction)"`
	Output   string `descr:"Output format" alts:"table,json" default:"table"`
	Top      int    `descr:"Max merchants in the merchant breakdown" default:"10"`
}

func main() {
	boa.NewCmdT[Params]("spending-insights").
		WithShort("Analyze bank transactions: categories, merchants, subscriptions, anomalies").
		WithLong("Reads a bank or card export, normalizes signs and transfers, applies categorization rules, and reports spend per category, per merchant chain (with trend), recurring payment candidates, and statistically unusual transactions.").
		WithRunFunc(func(params *Params) {
			if err := run(params); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		}).
		Run()
}

func run(params *Params) error {
	ctx := context.Background()
	log := internal.NewLogger()

	cfg, err := loadConfig(params.Config)
	if err != nil {
		return err
	}

	rows, err := parseInput(params)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("no transactions found in %s", params.File)
	}

	store := internal.NewMemoryStore()
	normalizer := internal.NewIngestNormalizer(cfg.Ingest)
	for _, row := range rows {
		store.AddTransaction(normalizer.FromRaw(row))
	}
	log.Info().Int("rows", len(rows)).Str("file", params.File).Msg("transactions loaded")

	if params.Rules != "" {
		rf, err := internal.LoadRuleFile(params.Rules)
		if err != nil {
			return err
		}
		if err := internal.SeedStore(store, rf); err != nil {
			return fmt.Errorf("seeding rules: %w", err)
		}
	}

	engine := internal.NewRuleEngine(store, log)
	batch, err := engine.ApplyBatch(ctx, internal.TransactionFilter{IncludeExcluded: true})
	if err != nil {
		return err
	}

	window, err := resolveWindow(ctx, params, store)
	if err != nil {
		return err
	}

	reports := internal.NewReports(store, cfg)
	categories, err := reports.CategoryBreakdown(ctx, window)
	if err != nil {
		return err
	}
	merchants, err := reports.MerchantBreakdown(ctx, window, params.Top)
	if err != nil {
		return err
	}
	subscriptions, err := reports.Subscriptions(ctx, window)
	if err != nil {
		return err
	}
	anomalies, err := reports.Anomalies(ctx, window)
	if err != nil {
		return err
	}

	txs, err := store.Transactions(ctx, internal.TransactionFilter{Range: &window, IncludeExcluded: true})
	if err != nil {
		return err
	}
	txByID := internal.TransactionIndex(txs)

	if params.Output == "json" {
		report := internal.BuildJSONReport(window, categories, merchants, subscriptions, anomalies, txByID, &batch)
		internal.PrintReportJSON(os.Stdout, report)
		return nil
	}

	cur := internal.GetCurrency(params.Currency)
	fmt.Printf("Window: %s to %s\n\n", window.Start.Format("2006-01-02"), window.End.Format("2006-01-02"))

	fmt.Println("Spending by category")
	internal.PrintCategoryBreakdownTable(os.Stdout, categories, cur)

	fmt.Println("\nTop merchants")
	internal.PrintMerchantBreakdownTable(os.Stdout, merchants, cur)

	if len(subscriptions) > 0 {
		fmt.Println("\nRecurring payments")
		internal.PrintSubscriptionsTable(os.Stdout, subscriptions, cur)
	} else {
		fmt.Println("\nNo recurring payments detected.")
	}

	if len(anomalies) > 0 {
		fmt.Println("\nUnusual transactions")
		internal.PrintAnomaliesTable(os.Stdout, anomalies, txByID, cur)
	}

	return nil
}

func loadConfig(path string) (*internal.Config, error) {
	if path != "" {
		return internal.LoadConfig(path)
	}
	defaultPath := internal.DefaultConfigPath()
	if defaultPath != "" {
		if _, err := os.Stat(defaultPath); err == nil {
			return internal.LoadConfig(defaultPath)
		}
	}
	return internal.NewDefaultConfig(), nil
}

func parseInput(params *Params) ([]internal.RawRow, error) {
	source, path := internal.ParseFileArg(params.File)
	if params.Source != "" {
		source = params.Source
	}
	if source == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".xlsx":
			source = "bank-xlsx"
		case ".json":
			source = "simple-json"
		default:
			return nil, fmt.Errorf("cannot infer source type from %s, use --source", path)
		}
	}

	parser, err := internal.GetParser(source)
	if err != nil {
		return nil, err
	}
	return parser.Parse(path)
}

// resolveWindow derives the reporting window from the flags, falling back to
// the full span of the loaded data.
func resolveWindow(ctx context.Context, params *Params, store internal.Store) (internal.DateRange, error) {
	txs, err := store.Transactions(ctx, internal.TransactionFilter{IncludeExcluded: true})
	if err != nil {
		return internal.DateRange{}, err
	}

	var window internal.DateRange
	if len(txs) > 0 {
		window.Start = txs[0].Date
		window.End = txs[len(txs)-1].Date
	}

	if params.From != "" {
		start, err := time.Parse("2006-01-02", params.From)
		if err != nil {
			return internal.DateRange{}, fmt.Errorf("parsing --from: %w", err)
		}
		window.Start = start
	}
	if params.To != "" {
		end, err := time.Parse("2006-01-02", params.To)
		if err != nil {
			return internal.DateRange{}, fmt.Errorf("parsing --to: %w", err)
		}
		window.End = end
	}

	if window.End.Before(window.Start) {
		return internal.DateRange{}, fmt.Errorf("window end %s is before start %s",
			window.End.Format("2006-01-02"), window.Start.Format("2006-01-02"))
	}
	return window, nil
}
