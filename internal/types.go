package internal

import "time"

// FlowType classifies a transaction as income, expense, transfer or unknown.
type FlowType string

const (
	FlowIncome   FlowType = "income"
	FlowExpense  FlowType = "expense"
	FlowTransfer FlowType = "transfer"
	FlowUnknown  FlowType = "unknown"
)

// TxStatus is the booking state of a transaction.
type TxStatus string

const (
	StatusBooked  TxStatus = "booked"
	StatusPending TxStatus = "pending"
)

// Transaction is a single bank/card export row after raw parsing.
// Amount is signed: negative means money out.
type Transaction struct {
	ID           string
	Date         time.Time
	Amount       float64
	Description  string
	MerchantRaw  string // raw merchant text from the export, if any
	Flow         FlowType
	Status       TxStatus
	Excluded     bool
	Transfer     bool
	CategoryID   string // empty = uncategorized
	MerchantID   string // empty = no canonical merchant
	Tags         []string
	SectionLabel string // raw section hint from the source export, if any
	Splits       []Split
}

// Split partitions part of a transaction's absolute amount onto a category.
// For a split transaction the split amounts sum to the parent's absolute amount.
type Split struct {
	CategoryID string
	Amount     float64
}

// EffectiveFlow resolves FlowUnknown from the amount sign: negative is
// expense, positive is income, zero stays unknown.
func (t Transaction) EffectiveFlow() FlowType {
	if t.Flow != FlowUnknown {
		return t.Flow
	}
	switch {
	case t.Amount < 0:
		return FlowExpense
	case t.Amount > 0:
		return FlowIncome
	default:
		return FlowUnknown
	}
}

// HasTag reports whether the transaction already carries the tag.
func (t Transaction) HasTag(tagID string) bool {
	for _, id := range t.Tags {
		if id == tagID {
			return true
		}
	}
	return false
}

// Category is a node in the category tree. A transfer category marks its
// transactions as transfers when assigned.
type Category struct {
	ID       string
	Name     string
	ParentID string // empty = root
	Transfer bool
}

// Merchant is a canonical merchant with the raw-text patterns that map to it.
type Merchant struct {
	ID       string
	Name     string
	Patterns []string
}

// Tag is a user-defined label.
type Tag struct {
	ID   string
	Name string
}

// Catalogs bundles the reference data rules are validated against.
type Catalogs struct {
	Categories []Category
	Merchants  []Merchant
	Tags       []Tag
}

// CategoryByID returns the category with the given id, if present.
func (c Catalogs) CategoryByID(id string) (Category, bool) {
	for _, cat := range c.Categories {
		if cat.ID == id {
			return cat, true
		}
	}
	return Category{}, false
}

// MerchantByID returns the merchant with the given id, if present.
func (c Catalogs) MerchantByID(id string) (Merchant, bool) {
	for _, m := range c.Merchants {
		if m.ID == id {
			return m, true
		}
	}
	return Merchant{}, false
}

// TagByID returns the tag with the given id, if present.
func (c Catalogs) TagByID(id string) (Tag, bool) {
	for _, tag := range c.Tags {
		if tag.ID == id {
			return tag, true
		}
	}
	return Tag{}, false
}

// Snapshot is the immutable rule/catalog configuration one batch run sees.
// Fetched once per run so a mid-run config change cannot split the batch.
type Snapshot struct {
	Rules    []Rule
	Catalogs Catalogs
}

// Cadence is the inferred recurrence interval of a transaction group.
type Cadence string

const (
	CadenceWeekly    Cadence = "weekly"
	CadenceBiweekly  Cadence = "biweekly"
	CadenceMonthly   Cadence = "monthly"
	CadenceQuarterly Cadence = "quarterly"
	CadenceYearly    Cadence = "yearly"
	CadenceUnknown   Cadence = "unknown"
)

// SubscriptionCandidate is a recurring payment group inferred from a lookback
// window. Always recomputed, never persisted.
type SubscriptionCandidate struct {
	MerchantKey    string
	AvgAmount      float64
	Occurrences    int
	Cadence        Cadence
	Confidence     float64
	FirstDate      time.Time
	LastDate       time.Time
	NextExpected   time.Time
	TransactionIDs []string
}

// Severity buckets an anomaly by how far it sits from the window mean.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Anomaly is a statistically unusual transaction within a window.
type Anomaly struct {
	TransactionID string
	ZScore        float64
	Severity      Severity
	Mean          float64
	StdDev        float64
}

// CategoryBreakdown is the spend total for one category within a window.
type CategoryBreakdown struct {
	CategoryID string // empty for the uncategorized bucket
	Name       string
	Total      float64
	Count      int
	Percent    float64 // share of the window total
}

// MerchantBreakdown is the spend total for one chain-grouped merchant,
// with the change versus the immediately preceding window of equal length.
type MerchantBreakdown struct {
	Key      string
	Total    float64
	Count    int
	Percent  float64
	TrendPct float64 // 0 when there is no previous-window total
}

// DateRange is an inclusive date window.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the range (inclusive).
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Previous returns the immediately preceding window of equal length:
// its end is the day before this range starts.
func (r DateRange) Previous() DateRange {
	days := int(r.End.Sub(r.Start).Hours() / 24)
	end := r.Start.AddDate(0, 0, -1)
	return DateRange{Start: end.AddDate(0, 0, -days), End: end}
}

// BatchResult summarizes one rule batch-apply run.
type BatchResult struct {
	Processed int
	Updated   int
	Errors    int
}

// RawRow is a transaction row as delivered by an export parser, before
// sign/transfer normalization.
type RawRow struct {
	Date         time.Time
	Amount       float64
	Description  string
	SectionLabel string
	Pending      bool
}
