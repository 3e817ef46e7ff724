package internal

import (
	"math"
	"strings"
)

// SignResult is the outcome of sign/transfer normalization for one row.
type SignResult struct {
	Amount   float64
	Transfer bool
	Excluded bool
}

// IngestNormalizer corrects amount signs and flags transfers at ingestion
// time based on the export's ad-hoc section and description text.
type IngestNormalizer struct {
	transferPhrases  []string
	purchaseSections []string
	refundWords      []string
}

// NewIngestNormalizer compiles the vocabulary for matching. Entries are
// normalized once here so NormalizeRow stays cheap.
func NewIngestNormalizer(vocab IngestVocabulary) *IngestNormalizer {
	return &IngestNormalizer{
		transferPhrases:  normalizeAll(vocab.TransferPhrases),
		purchaseSections: normalizeAll(vocab.PurchaseSections),
		refundWords:      normalizeAll(vocab.RefundWords),
	}
}

// NormalizeRow decides the corrected amount and transfer/exclusion flags for
// a raw row. First applicable rule wins:
//
//  1. Payment-rail text in the description or section marks the row as a
//     transfer and excludes it; the sign is left alone so transfer in/out
//     totals stay correct.
//  2. A purchase/withdrawal section forces the amount negative, unless the
//     description is refund-like.
//  3. Otherwise the amount passes through unchanged.
//
// A missing section hint skips rule 2 entirely. Reapplying to an already
// normalized row changes nothing.
func (n *IngestNormalizer) NormalizeRow(amount float64, description, sectionLabel string) SignResult {
	desc := Normalize(description)
	section := Normalize(sectionLabel)

	if containsAny(desc, n.transferPhrases) || containsAny(section, n.transferPhrases) {
		return SignResult{Amount: amount, Transfer: true, Excluded: true}
	}

	if section != "" && containsAny(section, n.purchaseSections) && !containsAny(desc, n.refundWords) {
		return SignResult{Amount: -math.Abs(amount)}
	}

	return SignResult{Amount: amount}
}

// FromRaw builds a transaction from a parsed export row, applying sign and
// transfer normalization. The caller assigns the id when persisting.
func (n *IngestNormalizer) FromRaw(row RawRow) Transaction {
	res := n.NormalizeRow(row.Amount, row.Description, row.SectionLabel)

	tx := Transaction{
		Date:         row.Date,
		Amount:       res.Amount,
		Description:  row.Description,
		Flow:         FlowUnknown,
		Status:       StatusBooked,
		Transfer:     res.Transfer,
		Excluded:     res.Excluded,
		SectionLabel: row.SectionLabel,
	}
	if row.Pending {
		tx.Status = StatusPending
	}
	if res.Transfer {
		tx.Flow = FlowTransfer
	}
	return tx
}

func normalizeAll(entries []string) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if norm := Normalize(e); norm != "" {
			out = append(out, norm)
		}
	}
	return out
}

func containsAny(text string, phrases []string) bool {
	if text == "" {
		return false
	}
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}
