package internal

import (
	"math"
	"sort"
	"time"
)

// RecurrenceDetector finds recurring payment groups (subscriptions) in a
// lookback window of expense transactions. Candidates are recomputed from
// scratch on every call; nothing is cached or persisted.
type RecurrenceDetector struct {
	resolver *ChainResolver
	cfg      RecurrenceConfig
}

// NewRecurrenceDetector returns a detector grouping through the given chain
// resolver so subscription groups line up with the aggregator's.
func NewRecurrenceDetector(resolver *ChainResolver, cfg RecurrenceConfig) *RecurrenceDetector {
	return &RecurrenceDetector{resolver: resolver, cfg: cfg}
}

// Detect groups the window's expense transactions by merchant key and infers
// a cadence per group. A group qualifies when it has enough occurrences and
// its amount spread stays under the configured share of the average. Groups
// whose cadence gap falls outside every calibrated band still qualify but
// default to monthly at low confidence. Only groups at or above the
// confidence floor are returned, largest average amount first.
func (d *RecurrenceDetector) Detect(txs []Transaction) []SubscriptionCandidate {
	groups := make(map[string][]Transaction)
	for _, tx := range txs {
		if tx.EffectiveFlow() != FlowExpense || tx.Excluded {
			continue
		}
		key := d.resolver.ChainKey(tx.MerchantID, merchantDisplayText(tx))
		groups[key] = append(groups[key], tx)
	}

	var candidates []SubscriptionCandidate
	for key, group := range groups {
		if c, ok := d.candidateFor(key, group); ok {
			candidates = append(candidates, c)
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].AvgAmount != candidates[j].AvgAmount {
			return candidates[i].AvgAmount > candidates[j].AvgAmount
		}
		return candidates[i].MerchantKey < candidates[j].MerchantKey
	})
	return candidates
}

func (d *RecurrenceDetector) candidateFor(key string, group []Transaction) (SubscriptionCandidate, bool) {
	if len(group) < d.cfg.MinOccurrences {
		return SubscriptionCandidate{}, false
	}

	sort.Slice(group, func(i, j int) bool {
		return group[i].Date.Before(group[j].Date)
	})

	var sum float64
	minAmt := math.Abs(group[0].Amount)
	maxAmt := minAmt
	for _, tx := range group {
		amt := math.Abs(tx.Amount)
		sum += amt
		if amt < minAmt {
			minAmt = amt
		}
		if amt > maxAmt {
			maxAmt = amt
		}
	}
	avg := sum / float64(len(group))

	if avg == 0 || (maxAmt-minAmt) >= d.cfg.AmountSpread*avg {
		return SubscriptionCandidate{}, false
	}

	first := group[0].Date
	last := group[len(group)-1].Date
	daySpan := last.Sub(first).Hours() / 24
	avgGap := daySpan / float64(len(group)-1)

	cadence, confidence := cadenceForGap(avgGap)
	if confidence < d.cfg.ConfidenceFloor {
		return SubscriptionCandidate{}, false
	}

	ids := make([]string, 0, len(group))
	for _, tx := range group {
		ids = append(ids, tx.ID)
	}

	return SubscriptionCandidate{
		MerchantKey:    key,
		AvgAmount:      avg,
		Occurrences:    len(group),
		Cadence:        cadence,
		Confidence:     confidence,
		FirstDate:      first,
		LastDate:       last,
		NextExpected:   advanceByCadence(last, cadence),
		TransactionIDs: ids,
	}, true
}

// merchantDisplayText is the text a transaction is grouped by when no
// canonical merchant reference narrows it.
func merchantDisplayText(tx Transaction) string {
	if tx.MerchantRaw != "" {
		return tx.MerchantRaw
	}
	return tx.Description
}

// cadenceForGap maps an average inter-occurrence gap in days onto the
// calibrated cadence bands. Each band carries a fixed confidence score;
// out-of-band gaps fall back to monthly at low confidence.
func cadenceForGap(gapDays float64) (Cadence, float64) {
	switch {
	case gapDays >= 6 && gapDays <= 8:
		return CadenceWeekly, 0.85
	case gapDays >= 12 && gapDays <= 16:
		return CadenceBiweekly, 0.80
	case gapDays >= 25 && gapDays <= 35:
		return CadenceMonthly, 0.90
	case gapDays >= 85 && gapDays <= 100:
		return CadenceQuarterly, 0.80
	case gapDays >= 350 && gapDays <= 380:
		return CadenceYearly, 0.75
	default:
		return CadenceMonthly, 0.40
	}
}

// advanceByCadence moves a date forward by exactly one cadence unit.
func advanceByCadence(t time.Time, cadence Cadence) time.Time {
	switch cadence {
	case CadenceWeekly:
		return t.AddDate(0, 0, 7)
	case CadenceBiweekly:
		return t.AddDate(0, 0, 14)
	case CadenceQuarterly:
		return t.AddDate(0, 3, 0)
	case CadenceYearly:
		return t.AddDate(1, 0, 0)
	default:
		return t.AddDate(0, 1, 0)
	}
}
