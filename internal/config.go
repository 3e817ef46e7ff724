package internal

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config carries the data tables the pipeline matches against. The token
// tables encode one export vendor's text conventions, so new formats are
// config additions rather than code changes. All entries are compared after
// Normalize, so config files may use any casing or diacritics.
type Config struct {
	Ingest     IngestVocabulary `yaml:"ingest,omitempty"`
	Chain      ChainTables      `yaml:"chain,omitempty"`
	Recurrence RecurrenceConfig `yaml:"recurrence,omitempty"`
	Anomaly    AnomalyConfig    `yaml:"anomaly,omitempty"`
}

// IngestVocabulary drives sign/transfer correction at ingestion time.
type IngestVocabulary struct {
	// TransferPhrases mark payment-rail and investment-transfer rows
	// (bank giro, one-time mandates, brokerage trades, card settlements).
	TransferPhrases []string `yaml:"transfer_phrases,omitempty"`

	// PurchaseSections are section labels whose rows are outflows.
	PurchaseSections []string `yaml:"purchase_sections,omitempty"`

	// RefundWords exempt refund-like rows from sign forcing.
	RefundWords []string `yaml:"refund_words,omitempty"`
}

// ChainTables drive merchant chain-key derivation.
type ChainTables struct {
	// PaymentPrefixes are payment-app prefix tokens stripped together with
	// their trailing delimiter (e.g. "Vipps*Spotify" -> "Spotify").
	PaymentPrefixes []string `yaml:"payment_prefixes,omitempty"`

	// PurchaseWords are generic leading purchase tokens carrying no
	// merchant information.
	PurchaseWords []string `yaml:"purchase_words,omitempty"`

	// SuffixMarkers cut the text from the marker onward (references,
	// invoice numbers, "payment date ..." fragments).
	SuffixMarkers []string `yaml:"suffix_markers,omitempty"`

	// KnownChains maps a canonical chain key to the normalized prefixes
	// its store-location variants start with.
	KnownChains map[string][]string `yaml:"known_chains,omitempty"`
}

// RecurrenceConfig tunes the subscription detector.
type RecurrenceConfig struct {
	MinOccurrences  int     `yaml:"min_occurrences,omitempty"`
	AmountSpread    float64 `yaml:"amount_spread,omitempty"`
	ConfidenceFloor float64 `yaml:"confidence_floor,omitempty"`
}

// AnomalyConfig tunes the anomaly detector.
type AnomalyConfig struct {
	Threshold  float64 `yaml:"threshold,omitempty"`
	MaxResults int     `yaml:"max_results,omitempty"`
}

// DefaultTransferPhrases covers the payment rails seen in Norwegian bank and
// card exports, plus their common English counterparts.
var DefaultTransferPhrases = []string{
	"nettgiro",
	"avtalegiro",
	"efaktura",
	"engangsfullmakt",
	"kjøp verdipapir",
	"salg verdipapir",
	"fondshandel",
	"aksjehandel",
	"innbetaling kredittkort",
	"innbetaling kort",
	"overføring mellom egne kontoer",
	"bank giro",
	"brokerage transfer",
}

// DefaultPurchaseSections are section labels that mark purchase/withdrawal
// blocks in card exports.
var DefaultPurchaseSections = []string{
	"varekjøp",
	"kjøp",
	"uttak",
	"purchases",
	"withdrawals",
}

// DefaultRefundWords identify refund-like rows that must keep their sign.
var DefaultRefundWords = []string{
	"refusjon",
	"retur",
	"tilbakebetaling",
	"tilbakeføring",
	"kreditnota",
	"refund",
	"return",
	"reversal",
	"credit note",
}

// DefaultPaymentPrefixes are payment-app prefixes seen in export text.
var DefaultPaymentPrefixes = []string{
	"vipps",
	"klarna",
	"paypal",
	"zettle",
	"izettle",
	"sumup",
}

// DefaultPurchaseWords are generic leading purchase tokens.
var DefaultPurchaseWords = []string{
	"varekjøp",
	"kjøp",
	"purchase",
	"betaling",
}

// DefaultSuffixMarkers cut reference/invoice fragments off merchant text.
var DefaultSuffixMarkers = []string{
	"betalt:",
	"betalingsdato",
	"payment date",
	"ref:",
	"ref.",
	"faktura",
	"invoice",
	"kvittering",
}

// DefaultKnownChains maps multi-variant organizations straight to one key
// regardless of how many tokens their store names carry.
var DefaultKnownChains = map[string][]string{
	"KIWI":         {"kiwi"},
	"REMA 1000":    {"rema"},
	"COOP":         {"coop", "obs bygg", "obs hypermarked"},
	"MENY":         {"meny"},
	"SPAR":         {"spar"},
	"BUNNPRIS":     {"bunnpris"},
	"NARVESEN":     {"narvesen"},
	"7-ELEVEN":     {"7-eleven", "7 eleven"},
	"VINMONOPOLET": {"vinmonopolet"},
	"RUTER":        {"ruter"},
	"CIRCLE K":     {"circle k"},
	"ESSO":         {"esso"},
	"SHELL":        {"shell"},
	"APOTEK 1":     {"apotek 1", "apotek1"},
	"POSTEN":       {"posten"},
}

// NewDefaultConfig returns the built-in tables and thresholds. Used when no
// config file exists.
func NewDefaultConfig() *Config {
	return &Config{
		Ingest: IngestVocabulary{
			TransferPhrases:  append([]string(nil), DefaultTransferPhrases...),
			PurchaseSections: append([]string(nil), DefaultPurchaseSections...),
			RefundWords:      append([]string(nil), DefaultRefundWords...),
		},
		Chain: ChainTables{
			PaymentPrefixes: append([]string(nil), DefaultPaymentPrefixes...),
			PurchaseWords:   append([]string(nil), DefaultPurchaseWords...),
			SuffixMarkers:   append([]string(nil), DefaultSuffixMarkers...),
			KnownChains:     copyChains(DefaultKnownChains),
		},
		Recurrence: RecurrenceConfig{
			MinOccurrences:  3,
			AmountSpread:    0.2,
			ConfidenceFloor: 0.5,
		},
		Anomaly: AnomalyConfig{
			Threshold:  2.5,
			MaxResults: 20,
		},
	}
}

// DefaultConfigPath returns ~/.spending-insights/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".spending-insights", "config.yaml")
}

// LoadConfig reads a config file and merges it over the built-in defaults.
// User entries are additive: list entries are appended, known chains are
// merged per key, thresholds replace defaults when set.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var user Config
	if err := yaml.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg := NewDefaultConfig()
	cfg.Ingest.TransferPhrases = append(cfg.Ingest.TransferPhrases, user.Ingest.TransferPhrases...)
	cfg.Ingest.PurchaseSections = append(cfg.Ingest.PurchaseSections, user.Ingest.PurchaseSections...)
	cfg.Ingest.RefundWords = append(cfg.Ingest.RefundWords, user.Ingest.RefundWords...)
	cfg.Chain.PaymentPrefixes = append(cfg.Chain.PaymentPrefixes, user.Chain.PaymentPrefixes...)
	cfg.Chain.PurchaseWords = append(cfg.Chain.PurchaseWords, user.Chain.PurchaseWords...)
	cfg.Chain.SuffixMarkers = append(cfg.Chain.SuffixMarkers, user.Chain.SuffixMarkers...)
	for key, prefixes := range user.Chain.KnownChains {
		cfg.Chain.KnownChains[key] = append(cfg.Chain.KnownChains[key], prefixes...)
	}

	if user.Recurrence.MinOccurrences > 0 {
		cfg.Recurrence.MinOccurrences = user.Recurrence.MinOccurrences
	}
	if user.Recurrence.AmountSpread > 0 {
		cfg.Recurrence.AmountSpread = user.Recurrence.AmountSpread
	}
	if user.Recurrence.ConfidenceFloor > 0 {
		cfg.Recurrence.ConfidenceFloor = user.Recurrence.ConfidenceFloor
	}
	if user.Anomaly.Threshold > 0 {
		cfg.Anomaly.Threshold = user.Anomaly.Threshold
	}
	if user.Anomaly.MaxResults > 0 {
		cfg.Anomaly.MaxResults = user.Anomaly.MaxResults
	}

	return cfg, nil
}

// Save writes the config to disk, creating parent directories as needed.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

func copyChains(src map[string][]string) map[string][]string {
	dst := make(map[string][]string, len(src))
	for key, prefixes := range src {
		dst[key] = append([]string(nil), prefixes...)
	}
	return dst
}
