package internal

import (
	"fmt"
	"testing"
)

func testAnomalyDetector() *AnomalyDetector {
	return NewAnomalyDetector(NewDefaultConfig().Anomaly)
}

func TestDetectAnomalies(t *testing.T) {
	d := testAnomalyDetector()

	// A tight cluster of everyday spend plus one far outlier.
	var txs []Transaction
	for i := 0; i < 20; i++ {
		txs = append(txs, expense(fmt.Sprintf("t%d", i), "KIWI 505", 100+float64(i%3), "2025-03-01"))
	}
	txs = append(txs, expense("big", "Elkjøp Megastore", 15000, "2025-03-15"))

	got := d.Detect(txs)
	if len(got) != 1 {
		t.Fatalf("got %d anomalies, want 1", len(got))
	}
	if got[0].TransactionID != "big" {
		t.Errorf("transaction = %q, want big", got[0].TransactionID)
	}
	if got[0].Severity != SeverityHigh {
		t.Errorf("severity = %v, want high", got[0].Severity)
	}
	if got[0].ZScore <= 2.5 {
		t.Errorf("z-score = %v, want > threshold", got[0].ZScore)
	}
	if got[0].Mean == 0 || got[0].StdDev == 0 {
		t.Errorf("context stats missing: mean=%v stddev=%v", got[0].Mean, got[0].StdDev)
	}
}

func TestDetectAnomaliesZeroVariance(t *testing.T) {
	d := testAnomalyDetector()

	var txs []Transaction
	for i := 0; i < 10; i++ {
		txs = append(txs, expense(fmt.Sprintf("t%d", i), "Netflix.com", 99, "2025-03-01"))
	}
	if got := d.Detect(txs); len(got) != 0 {
		t.Errorf("got %d anomalies for identical amounts, want 0", len(got))
	}
}

func TestDetectAnomaliesEmptyAndNonExpense(t *testing.T) {
	d := testAnomalyDetector()

	if got := d.Detect(nil); len(got) != 0 {
		t.Errorf("got %d anomalies for empty window, want 0", len(got))
	}

	txs := []Transaction{
		{ID: "i1", Amount: 30000, Description: "Lønn", Flow: FlowUnknown},
		{ID: "i2", Amount: 500, Description: "Refusjon", Flow: FlowUnknown},
	}
	if got := d.Detect(txs); len(got) != 0 {
		t.Errorf("got %d anomalies for income-only window, want 0", len(got))
	}
}

func TestDetectAnomaliesExcludedIgnored(t *testing.T) {
	d := testAnomalyDetector()

	var txs []Transaction
	for i := 0; i < 20; i++ {
		txs = append(txs, expense(fmt.Sprintf("t%d", i), "KIWI 505", 100+float64(i%3), "2025-03-01"))
	}
	outlier := expense("big", "Nettgiro", 50000, "2025-03-15")
	outlier.Excluded = true
	txs = append(txs, outlier)

	if got := d.Detect(txs); len(got) != 0 {
		t.Errorf("got %d anomalies, want 0 when the outlier is excluded", len(got))
	}
}

func TestDetectAnomaliesMaxResults(t *testing.T) {
	cfg := AnomalyConfig{Threshold: 1.0, MaxResults: 2}
	d := NewAnomalyDetector(cfg)

	var txs []Transaction
	for i := 0; i < 30; i++ {
		txs = append(txs, expense(fmt.Sprintf("t%d", i), "KIWI 505", 100, "2025-03-01"))
	}
	txs = append(txs,
		expense("o1", "Elkjøp", 900, "2025-03-10"),
		expense("o2", "Power", 1000, "2025-03-11"),
		expense("o3", "Komplett", 1100, "2025-03-12"),
	)

	got := d.Detect(txs)
	if len(got) != 2 {
		t.Fatalf("got %d anomalies, want cap of 2", len(got))
	}
	if got[0].TransactionID != "o3" || got[1].TransactionID != "o2" {
		t.Errorf("order = %q, %q; want largest z-scores first", got[0].TransactionID, got[1].TransactionID)
	}
}

func TestSeverityForZ(t *testing.T) {
	tests := []struct {
		z    float64
		want Severity
	}{
		{2.6, SeverityLow},
		{3.0, SeverityLow},
		{3.5, SeverityMedium},
		{4.0, SeverityMedium},
		{4.5, SeverityHigh},
	}
	for _, tt := range tests {
		if got := severityForZ(tt.z); got != tt.want {
			t.Errorf("severityForZ(%v) = %v, want %v", tt.z, got, tt.want)
		}
	}
}
