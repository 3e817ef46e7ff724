package internal

import (
	"math"
	"sort"
)

// UncategorizedName is the bucket for expense spend with no category.
const UncategorizedName = "Uncategorized"

// Aggregator computes category/merchant spend summaries over a window.
type Aggregator struct {
	resolver *ChainResolver
}

// NewAggregator returns an aggregator grouping merchants through the given
// chain resolver.
func NewAggregator(resolver *ChainResolver) *Aggregator {
	return &Aggregator{resolver: resolver}
}

// CategoryBreakdown sums absolute expense amounts per category. A split
// transaction contributes through its splits, each counted once; everything
// else lands on the transaction's own category, falling back to the
// uncategorized bucket. Percentages are shares of the window total.
func (a *Aggregator) CategoryBreakdown(txs []Transaction, catalogs Catalogs) []CategoryBreakdown {
	totals := make(map[string]*CategoryBreakdown)

	add := func(categoryID string, amount float64) {
		b, ok := totals[categoryID]
		if !ok {
			b = &CategoryBreakdown{CategoryID: categoryID, Name: categoryName(categoryID, catalogs)}
			totals[categoryID] = b
		}
		b.Total += amount
		b.Count++
	}

	for _, tx := range txs {
		if tx.EffectiveFlow() != FlowExpense || tx.Excluded {
			continue
		}
		if len(tx.Splits) > 0 {
			for _, split := range tx.Splits {
				add(split.CategoryID, split.Amount)
			}
			continue
		}
		add(tx.CategoryID, math.Abs(tx.Amount))
	}

	var windowTotal float64
	for _, b := range totals {
		windowTotal += b.Total
	}

	out := make([]CategoryBreakdown, 0, len(totals))
	for _, b := range totals {
		if windowTotal > 0 {
			b.Percent = b.Total / windowTotal * 100
		}
		out = append(out, *b)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// MerchantBreakdown sums absolute expense amounts per chain key so store
// location variants merge, then compares each group against the same
// grouping over the preceding window. Grouping happens before truncation to
// limit; truncating first would under-count chain merges. A group with no
// previous-window total reports a zero trend rather than dividing by zero.
func (a *Aggregator) MerchantBreakdown(current, previous []Transaction, limit int) []MerchantBreakdown {
	curTotals, curCounts := a.groupByChain(current)
	prevTotals, _ := a.groupByChain(previous)

	var windowTotal float64
	for _, total := range curTotals {
		windowTotal += total
	}

	out := make([]MerchantBreakdown, 0, len(curTotals))
	for key, total := range curTotals {
		b := MerchantBreakdown{
			Key:   key,
			Total: total,
			Count: curCounts[key],
		}
		if windowTotal > 0 {
			b.Percent = total / windowTotal * 100
		}
		if prev := prevTotals[key]; prev > 0 {
			b.TrendPct = (total - prev) / prev * 100
		}
		out = append(out, b)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Key < out[j].Key
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (a *Aggregator) groupByChain(txs []Transaction) (map[string]float64, map[string]int) {
	totals := make(map[string]float64)
	counts := make(map[string]int)
	for _, tx := range txs {
		if tx.EffectiveFlow() != FlowExpense || tx.Excluded {
			continue
		}
		key := a.resolver.ChainKey(tx.MerchantID, merchantDisplayText(tx))
		totals[key] += math.Abs(tx.Amount)
		counts[key]++
	}
	return totals, counts
}

func categoryName(categoryID string, catalogs Catalogs) string {
	if categoryID == "" {
		return UncategorizedName
	}
	if cat, ok := catalogs.CategoryByID(categoryID); ok {
		return cat.Name
	}
	return categoryID
}
