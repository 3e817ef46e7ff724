package internal

import (
	"math"
	"sort"
)

// AnomalyDetector flags statistically unusual expense amounts within a
// window. Results are recomputed fresh on every call.
type AnomalyDetector struct {
	cfg AnomalyConfig
}

// NewAnomalyDetector returns a detector with the given thresholds.
func NewAnomalyDetector(cfg AnomalyConfig) *AnomalyDetector {
	return &AnomalyDetector{cfg: cfg}
}

// Detect computes the mean and population standard deviation of absolute
// expense amounts, then returns the transactions lying more than
// threshold standard deviations above the mean, capped to the configured
// top-N by amount. A zero-variance or empty window yields no anomalies,
// never an error.
func (d *AnomalyDetector) Detect(txs []Transaction) []Anomaly {
	var amounts []float64
	var qualifying []Transaction
	for _, tx := range txs {
		if tx.EffectiveFlow() != FlowExpense || tx.Excluded {
			continue
		}
		amounts = append(amounts, math.Abs(tx.Amount))
		qualifying = append(qualifying, tx)
	}
	if len(amounts) == 0 {
		return nil
	}

	mean, stdDev := meanAndStdDev(amounts)
	if stdDev == 0 {
		return nil
	}

	cutoff := mean + d.cfg.Threshold*stdDev
	var anomalies []Anomaly
	for i, tx := range qualifying {
		amt := amounts[i]
		if amt <= cutoff {
			continue
		}
		z := (amt - mean) / stdDev
		anomalies = append(anomalies, Anomaly{
			TransactionID: tx.ID,
			ZScore:        z,
			Severity:      severityForZ(z),
			Mean:          mean,
			StdDev:        stdDev,
		})
	}

	sort.Slice(anomalies, func(i, j int) bool {
		if anomalies[i].ZScore != anomalies[j].ZScore {
			return anomalies[i].ZScore > anomalies[j].ZScore
		}
		return anomalies[i].TransactionID < anomalies[j].TransactionID
	})

	if d.cfg.MaxResults > 0 && len(anomalies) > d.cfg.MaxResults {
		anomalies = anomalies[:d.cfg.MaxResults]
	}
	return anomalies
}

// meanAndStdDev returns the mean and population standard deviation.
func meanAndStdDev(values []float64) (float64, float64) {
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var sqDiff float64
	for _, v := range values {
		d := v - mean
		sqDiff += d * d
	}
	return mean, math.Sqrt(sqDiff / float64(len(values)))
}

func severityForZ(z float64) Severity {
	switch {
	case z > 4:
		return SeverityHigh
	case z > 3:
		return SeverityMedium
	default:
		return SeverityLow
	}
}
