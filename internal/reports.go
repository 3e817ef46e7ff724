package internal

import (
	"context"
	"fmt"
)

// Reports is the query edge the reporting/UI collaborator calls. Every
// method reads the window it needs through the store, runs the relevant
// detector or aggregator, and returns a freshly computed result. No
// intermediate state ever leaves this package.
type Reports struct {
	store      Store
	aggregator *Aggregator
	recurrence *RecurrenceDetector
	anomalies  *AnomalyDetector
}

// NewReports wires the report surface from a store and a config.
func NewReports(store Store, cfg *Config) *Reports {
	resolver := NewChainResolver(cfg.Chain)
	return &Reports{
		store:      store,
		aggregator: NewAggregator(resolver),
		recurrence: NewRecurrenceDetector(resolver, cfg.Recurrence),
		anomalies:  NewAnomalyDetector(cfg.Anomaly),
	}
}

// CategoryBreakdown summarizes expense spend per category over the window.
func (r *Reports) CategoryBreakdown(ctx context.Context, window DateRange) ([]CategoryBreakdown, error) {
	txs, err := r.store.Transactions(ctx, TransactionFilter{Range: &window})
	if err != nil {
		return nil, fmt.Errorf("reading window: %w", err)
	}
	snapshot, err := r.store.ConfigSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching config snapshot: %w", err)
	}
	return r.aggregator.CategoryBreakdown(txs, snapshot.Catalogs), nil
}

// MerchantBreakdown summarizes chain-grouped expense spend over the window,
// with a trend against the immediately preceding window of equal length.
func (r *Reports) MerchantBreakdown(ctx context.Context, window DateRange, limit int) ([]MerchantBreakdown, error) {
	current, err := r.store.Transactions(ctx, TransactionFilter{Range: &window})
	if err != nil {
		return nil, fmt.Errorf("reading window: %w", err)
	}
	prevWindow := window.Previous()
	previous, err := r.store.Transactions(ctx, TransactionFilter{Range: &prevWindow})
	if err != nil {
		return nil, fmt.Errorf("reading previous window: %w", err)
	}
	return r.aggregator.MerchantBreakdown(current, previous, limit), nil
}

// Subscriptions returns the recurring payment candidates in the window.
func (r *Reports) Subscriptions(ctx context.Context, window DateRange) ([]SubscriptionCandidate, error) {
	txs, err := r.store.Transactions(ctx, TransactionFilter{Range: &window})
	if err != nil {
		return nil, fmt.Errorf("reading window: %w", err)
	}
	return r.recurrence.Detect(txs), nil
}

// Anomalies returns the statistically unusual transactions in the window.
func (r *Reports) Anomalies(ctx context.Context, window DateRange) ([]Anomaly, error) {
	txs, err := r.store.Transactions(ctx, TransactionFilter{Range: &window})
	if err != nil {
		return nil, fmt.Errorf("reading window: %w", err)
	}
	return r.anomalies.Detect(txs), nil
}
