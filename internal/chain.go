package internal

import (
	"sort"
	"strings"
)

// ChainResolver derives the grouping key that merges textual variants of the
// same real-world merchant ("KIWI 505 BARCODE" and "KIWI 123" -> "KIWI").
// Aggregation groups by chain key; rule matching never does, it always sees
// the raw text.
type ChainResolver struct {
	paymentPrefixes []string
	purchaseWords   map[string]bool
	suffixMarkers   []string
	knownChains     []knownChain
}

type knownChain struct {
	key      string
	prefixes []string
}

// prefixDelimiters terminate a payment-app prefix token.
const prefixDelimiters = "*:.- "

// NewChainResolver compiles the chain tables. Known chains are kept in
// sorted key order so resolution is deterministic.
func NewChainResolver(tables ChainTables) *ChainResolver {
	words := make(map[string]bool, len(tables.PurchaseWords))
	for _, w := range tables.PurchaseWords {
		if norm := Normalize(w); norm != "" {
			words[norm] = true
		}
	}

	keys := make([]string, 0, len(tables.KnownChains))
	for key := range tables.KnownChains {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	chains := make([]knownChain, 0, len(keys))
	for _, key := range keys {
		chains = append(chains, knownChain{
			key:      key,
			prefixes: normalizeAll(tables.KnownChains[key]),
		})
	}

	return &ChainResolver{
		paymentPrefixes: normalizeAll(tables.PaymentPrefixes),
		purchaseWords:   words,
		suffixMarkers:   normalizeAll(tables.SuffixMarkers),
		knownChains:     chains,
	}
}

// ChainKey returns the grouping key for a merchant reference plus display
// text. A canonical merchant reference wins: the display text is returned
// unchanged. Pure; identical inputs always yield identical keys.
func (r *ChainResolver) ChainKey(merchantID, displayText string) string {
	if merchantID != "" {
		return displayText
	}

	cleaned := r.stripNoise(Normalize(displayText))
	if cleaned == "" {
		return strings.ToUpper(Normalize(displayText))
	}

	for _, chain := range r.knownChains {
		for _, prefix := range chain.prefixes {
			if strings.HasPrefix(cleaned, prefix) {
				return chain.key
			}
		}
	}

	tokens := strings.Fields(cleaned)
	if len(tokens) > 2 {
		tokens = tokens[:2]
	}
	return strings.ToUpper(strings.Join(tokens, " "))
}

// stripNoise removes payment-app prefixes, generic purchase words and
// reference/date suffixes from normalized text.
func (r *ChainResolver) stripNoise(text string) string {
	for _, prefix := range r.paymentPrefixes {
		if strings.HasPrefix(text, prefix) && len(text) > len(prefix) &&
			strings.ContainsRune(prefixDelimiters, rune(text[len(prefix)])) {
			text = strings.TrimLeft(text[len(prefix):], prefixDelimiters)
			break
		}
	}

	tokens := strings.Fields(text)
	for len(tokens) > 0 && r.purchaseWords[tokens[0]] {
		tokens = tokens[1:]
	}
	text = strings.Join(tokens, " ")

	for _, marker := range r.suffixMarkers {
		if idx := strings.Index(text, marker); idx > 0 {
			text = strings.TrimSpace(text[:idx])
		}
	}

	return text
}
