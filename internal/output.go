package internal

import (
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// JSONReport is the root JSON output object.
type JSONReport struct {
	Window        JSONWindow             `json:"window"`
	Categories    []JSONCategory         `json:"categories,omitempty"`
	Merchants     []JSONMerchant         `json:"merchants,omitempty"`
	Subscriptions []JSONSubscription     `json:"subscriptions,omitempty"`
	Anomalies     []JSONAnomaly          `json:"anomalies,omitempty"`
	Batch         *JSONBatchResult       `json:"batch,omitempty"`
}

type JSONWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type JSONCategory struct {
	Name    string  `json:"name"`
	Total   float64 `json:"total"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

type JSONMerchant struct {
	Key      string  `json:"key"`
	Total    float64 `json:"total"`
	Count    int     `json:"count"`
	Percent  float64 `json:"percent"`
	TrendPct float64 `json:"trend_pct"`
}

type JSONSubscription struct {
	MerchantKey  string  `json:"merchant_key"`
	AvgAmount    float64 `json:"avg_amount"`
	Occurrences  int     `json:"occurrences"`
	Cadence      string  `json:"cadence"`
	Confidence   float64 `json:"confidence"`
	FirstDate    string  `json:"first_date"`
	LastDate     string  `json:"last_date"`
	NextExpected string  `json:"next_expected"`
}

type JSONAnomaly struct {
	TransactionID string  `json:"transaction_id"`
	Description   string  `json:"description,omitempty"`
	Amount        float64 `json:"amount,omitempty"`
	ZScore        float64 `json:"z_score"`
	Severity      string  `json:"severity"`
}

type JSONBatchResult struct {
	Processed int `json:"processed"`
	Updated   int `json:"updated"`
	Errors    int `json:"errors"`
}

// BuildJSONReport converts derived structures into the JSON output shape.
// txByID enriches anomalies with description and amount when available.
func BuildJSONReport(window DateRange, categories []CategoryBreakdown, merchants []MerchantBreakdown,
	subs []SubscriptionCandidate, anomalies []Anomaly, txByID map[string]Transaction, batch *BatchResult) JSONReport {

	report := JSONReport{
		Window: JSONWindow{
			Start: window.Start.Format("2006-01-02"),
			End:   window.End.Format("2006-01-02"),
		},
	}

	for _, c := range categories {
		report.Categories = append(report.Categories, JSONCategory{
			Name:    c.Name,
			Total:   c.Total,
			Count:   c.Count,
			Percent: c.Percent,
		})
	}
	for _, m := range merchants {
		report.Merchants = append(report.Merchants, JSONMerchant{
			Key:      m.Key,
			Total:    m.Total,
			Count:    m.Count,
			Percent:  m.Percent,
			TrendPct: m.TrendPct,
		})
	}
	for _, s := range subs {
		report.Subscriptions = append(report.Subscriptions, JSONSubscription{
			MerchantKey:  s.MerchantKey,
			AvgAmount:    s.AvgAmount,
			Occurrences:  s.Occurrences,
			Cadence:      string(s.Cadence),
			Confidence:   s.Confidence,
			FirstDate:    s.FirstDate.Format("2006-01-02"),
			LastDate:     s.LastDate.Format("2006-01-02"),
			NextExpected: s.NextExpected.Format("2006-01-02"),
		})
	}
	for _, a := range anomalies {
		ja := JSONAnomaly{
			TransactionID: a.TransactionID,
			ZScore:        a.ZScore,
			Severity:      string(a.Severity),
		}
		if tx, ok := txByID[a.TransactionID]; ok {
			ja.Description = tx.Description
			ja.Amount = tx.Amount
		}
		report.Anomalies = append(report.Anomalies, ja)
	}
	if batch != nil {
		report.Batch = &JSONBatchResult{
			Processed: batch.Processed,
			Updated:   batch.Updated,
			Errors:    batch.Errors,
		}
	}

	return report
}

// PrintReportJSON writes the report as indented JSON.
func PrintReportJSON(w io.Writer, report JSONReport) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(report)
}

// PrintCategoryBreakdownTable renders the per-category spend table.
func PrintCategoryBreakdownTable(w io.Writer, breakdowns []CategoryBreakdown, cur Currency) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Category", "Total", "Count", "Share"})

	var total float64
	for _, b := range breakdowns {
		total += b.Total
		t.AppendRow(table.Row{
			b.Name,
			cur.Format(b.Total),
			b.Count,
			fmt.Sprintf("%.1f%%", b.Percent),
		})
	}

	t.AppendSeparator()
	t.AppendFooter(table.Row{text.Bold.Sprint("Total"), text.Bold.Sprint(cur.Format(total)), "", ""})
	applyTableStyle(t, 2)
	t.Render()
}

// PrintMerchantBreakdownTable renders the chain-grouped merchant table with
// the period-over-period trend.
func PrintMerchantBreakdownTable(w io.Writer, breakdowns []MerchantBreakdown, cur Currency) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Merchant", "Total", "Count", "Share", "Trend"})

	for _, b := range breakdowns {
		trend := fmt.Sprintf("%+.1f%%", b.TrendPct)
		switch {
		case b.TrendPct > 0:
			trend = text.FgRed.Sprint(trend)
		case b.TrendPct < 0:
			trend = text.FgGreen.Sprint(trend)
		}
		t.AppendRow(table.Row{
			b.Key,
			cur.Format(b.Total),
			b.Count,
			fmt.Sprintf("%.1f%%", b.Percent),
			trend,
		})
	}

	applyTableStyle(t, 2)
	t.Render()
}

// PrintSubscriptionsTable renders the recurring payment candidates.
func PrintSubscriptionsTable(w io.Writer, subs []SubscriptionCandidate, cur Currency) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Merchant", "Cadence", "Confidence", "Amount", "First", "Last", "Next Expected"})

	var monthlyTotal float64
	for _, s := range subs {
		if s.Cadence == CadenceMonthly {
			monthlyTotal += s.AvgAmount
		}
		t.AppendRow(table.Row{
			s.MerchantKey,
			string(s.Cadence),
			fmt.Sprintf("%.2f", s.Confidence),
			cur.Format(s.AvgAmount),
			s.FirstDate.Format("2006-01-02"),
			s.LastDate.Format("2006-01-02"),
			s.NextExpected.Format("2006-01-02"),
		})
	}

	t.AppendSeparator()
	t.AppendFooter(table.Row{"", "", text.Bold.Sprint("Monthly total"), text.Bold.Sprint(cur.Format(monthlyTotal)), "", "", ""})
	applyTableStyle(t, 4)
	t.Render()
}

// PrintAnomaliesTable renders flagged transactions, enriched with
// description and amount when the lookup has them.
func PrintAnomaliesTable(w io.Writer, anomalies []Anomaly, txByID map[string]Transaction, cur Currency) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Date", "Description", "Amount", "Z-Score", "Severity"})

	for _, a := range anomalies {
		dateStr, desc, amountStr := "", a.TransactionID, ""
		if tx, ok := txByID[a.TransactionID]; ok {
			dateStr = tx.Date.Format("2006-01-02")
			desc = tx.Description
			amountStr = cur.Format(math.Abs(tx.Amount))
		}

		severity := string(a.Severity)
		switch a.Severity {
		case SeverityHigh:
			severity = text.FgRed.Sprint(severity)
		case SeverityMedium:
			severity = text.FgYellow.Sprint(severity)
		}

		t.AppendRow(table.Row{dateStr, desc, amountStr, fmt.Sprintf("%.2f", a.ZScore), severity})
	}

	applyTableStyle(t, 3)
	t.Render()
}

// TransactionIndex builds an id lookup for display enrichment.
func TransactionIndex(txs []Transaction) map[string]Transaction {
	byID := make(map[string]Transaction, len(txs))
	for _, tx := range txs {
		byID[tx.ID] = tx
	}
	return byID
}

func applyTableStyle(t table.Writer, amountCol int) {
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatDefault
	t.Style().Format.Footer = text.FormatDefault
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: amountCol, Align: text.AlignRight},
	})
}
