package internal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedReportStore loads two months of shop, subscription and transfer rows
// through the full ingest path.
func seedReportStore(t *testing.T) (*MemoryStore, *Config) {
	t.Helper()
	cfg := NewDefaultConfig()
	store := NewMemoryStore()
	n := NewIngestNormalizer(cfg.Ingest)

	rows := []RawRow{
		{Date: date("2025-02-05"), Amount: 310, Description: "KIWI 123 MAJORSTUEN", SectionLabel: "Varekjøp"},
		{Date: date("2025-02-15"), Amount: -99, Description: "Netflix.com"},
		{Date: date("2025-03-05"), Amount: 230, Description: "KIWI 505 BARCODE", SectionLabel: "Varekjøp"},
		{Date: date("2025-03-12"), Amount: 185, Description: "KIWI 505 BARCODE", SectionLabel: "Varekjøp"},
		{Date: date("2025-03-15"), Amount: -99, Description: "Netflix.com"},
		{Date: date("2025-03-20"), Amount: -5000, Description: "Nettgiro til konto 1234.56.78901"},
		{Date: date("2025-03-25"), Amount: 30000, Description: "Lønn mars"},
	}
	for _, row := range rows {
		store.AddTransaction(n.FromRaw(row))
	}
	return store, cfg
}

func TestReportsCategoryBreakdown(t *testing.T) {
	ctx := context.Background()
	store, cfg := seedReportStore(t)
	reports := NewReports(store, cfg)

	window := DateRange{Start: date("2025-03-01"), End: date("2025-03-31")}
	got, err := reports.CategoryBreakdown(ctx, window)
	require.NoError(t, err)

	// All expenses are uncategorized; the transfer and the salary never count.
	require.Len(t, got, 1)
	assert.Equal(t, UncategorizedName, got[0].Name)
	assert.InDelta(t, 230+185+99, got[0].Total, 0.01)
	assert.Equal(t, 3, got[0].Count)
}

func TestReportsMerchantBreakdownWithTrend(t *testing.T) {
	ctx := context.Background()
	store, cfg := seedReportStore(t)
	reports := NewReports(store, cfg)

	window := DateRange{Start: date("2025-03-01"), End: date("2025-03-31")}
	got, err := reports.MerchantBreakdown(ctx, window, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "KIWI", got[0].Key)
	assert.InDelta(t, 415.0, got[0].Total, 0.01)
	// Previous window (2025-01-29 .. 2025-02-28) had 310 at KIWI.
	assert.InDelta(t, (415.0-310.0)/310.0*100, got[0].TrendPct, 0.01)

	assert.Equal(t, "NETFLIX.COM", got[1].Key)
	assert.InDelta(t, 0.0, got[1].TrendPct, 0.01, "equal spend both windows")
}

func TestReportsSubscriptions(t *testing.T) {
	ctx := context.Background()
	store, cfg := seedReportStore(t)
	n := NewIngestNormalizer(cfg.Ingest)
	store.AddTransaction(n.FromRaw(RawRow{Date: date("2025-01-15"), Amount: -99, Description: "Netflix.com"}))

	reports := NewReports(store, cfg)
	window := DateRange{Start: date("2025-01-01"), End: date("2025-03-31")}
	got, err := reports.Subscriptions(ctx, window)
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "NETFLIX.COM", got[0].MerchantKey)
	assert.Equal(t, CadenceMonthly, got[0].Cadence)
	assert.Equal(t, 3, got[0].Occurrences)
}

func TestReportsAnomalies(t *testing.T) {
	ctx := context.Background()
	store, cfg := seedReportStore(t)
	n := NewIngestNormalizer(cfg.Ingest)
	// Pad with everyday spend so the outlier stands out statistically.
	for i := 0; i < 20; i++ {
		store.AddTransaction(n.FromRaw(RawRow{
			Date: date("2025-03-10"), Amount: 100, Description: "KIWI 505", SectionLabel: "Varekjøp",
		}))
	}
	outlier := store.AddTransaction(n.FromRaw(RawRow{
		Date: date("2025-03-18"), Amount: -25000, Description: "Elkjøp Megastore",
	}))

	reports := NewReports(store, cfg)
	window := DateRange{Start: date("2025-03-01"), End: date("2025-03-31")}
	got, err := reports.Anomalies(ctx, window)
	require.NoError(t, err)

	require.NotEmpty(t, got)
	assert.Equal(t, outlier.ID, got[0].TransactionID)
	assert.Equal(t, SeverityHigh, got[0].Severity)
}
