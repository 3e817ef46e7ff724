package internal

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// MatchField selects which transaction text a rule is tested against.
type MatchField string

const (
	MatchDescription MatchField = "description"
	MatchMerchant    MatchField = "merchant"
	MatchCombined    MatchField = "combined"
)

// MatchType selects how the rule value is compared to the match text.
type MatchType string

const (
	MatchContains MatchType = "contains"
	MatchExact    MatchType = "exact"
)

// ActionType is what a firing rule does to a transaction.
type ActionType string

const (
	ActionSetCategory ActionType = "set_category"
	ActionAddTag      ActionType = "add_tag"
	ActionSetMerchant ActionType = "set_merchant"
)

// Rule is one priority-ordered categorization rule. Lower priority numbers
// are evaluated first and win ties on conflicting same-type actions.
type Rule struct {
	ID          string
	Name        string
	Priority    int
	Enabled     bool
	Field       MatchField
	Match       MatchType
	Value       string
	SecondValue string // optional; AND-narrows the match
	Action      ActionType
	ActionValue string // reference into the relevant catalog
}

// Action is the effect of one firing rule.
type Action struct {
	Type   ActionType
	Value  string
	RuleID string
}

// SortRules orders rules ascending by priority, ties broken by name. The
// engine requires this order; stores sort before serving a snapshot.
func SortRules(rules []Rule) {
	sort.Slice(rules, func(i, j int) bool {
		if rules[i].Priority != rules[j].Priority {
			return rules[i].Priority < rules[j].Priority
		}
		return rules[i].Name < rules[j].Name
	})
}

// ValidateRule checks a rule at admission time: enums must be known, the
// match value non-empty, and the action value must reference an existing
// catalog entry. Evaluation relies on this and never re-checks.
func ValidateRule(r Rule, catalogs Catalogs) error {
	switch r.Field {
	case MatchDescription, MatchMerchant, MatchCombined:
	default:
		return fmt.Errorf("rule %q: unknown match field %q", r.Name, r.Field)
	}
	switch r.Match {
	case MatchContains, MatchExact:
	default:
		return fmt.Errorf("rule %q: unknown match type %q", r.Name, r.Match)
	}
	if strings.TrimSpace(r.Value) == "" {
		return fmt.Errorf("rule %q: empty match value", r.Name)
	}

	switch r.Action {
	case ActionSetCategory:
		if _, ok := catalogs.CategoryByID(r.ActionValue); !ok {
			return fmt.Errorf("rule %q: category %s does not exist", r.Name, r.ActionValue)
		}
	case ActionAddTag:
		if _, ok := catalogs.TagByID(r.ActionValue); !ok {
			return fmt.Errorf("rule %q: tag %s does not exist", r.Name, r.ActionValue)
		}
	case ActionSetMerchant:
		if _, ok := catalogs.MerchantByID(r.ActionValue); !ok {
			return fmt.Errorf("rule %q: merchant %s does not exist", r.Name, r.ActionValue)
		}
	default:
		return fmt.Errorf("rule %q: unknown action type %q", r.Name, r.Action)
	}
	return nil
}

// Evaluate runs the pre-sorted rule set against one transaction and returns
// the actions of every firing rule, in priority order. It matches raw
// transaction text (normalized), never chain keys.
func Evaluate(tx Transaction, rules []Rule) []Action {
	var actions []Action
	for _, r := range rules {
		if !r.Enabled {
			continue
		}
		if ruleMatches(r, tx) {
			actions = append(actions, Action{Type: r.Action, Value: r.ActionValue, RuleID: r.ID})
		}
	}
	return actions
}

func ruleMatches(r Rule, tx Transaction) bool {
	text := Normalize(matchText(tx, r.Field))
	if !valueMatches(text, r.Value, r.Match) {
		return false
	}
	if r.SecondValue != "" && !valueMatches(text, r.SecondValue, r.Match) {
		return false
	}
	return true
}

func matchText(tx Transaction, field MatchField) string {
	switch field {
	case MatchMerchant:
		return tx.MerchantRaw
	case MatchCombined:
		return tx.Description + " " + tx.MerchantRaw
	default:
		return tx.Description
	}
}

func valueMatches(normalizedText, value string, match MatchType) bool {
	v := Normalize(value)
	if match == MatchExact {
		return normalizedText == v
	}
	return strings.Contains(normalizedText, v)
}

// actionReducer folds the next firing action into the already-kept ones of
// the same type. New action types only need a table entry.
type actionReducer func(kept []Action, next Action) []Action

// firstWins keeps only the first (lowest-priority-number) firing action.
func firstWins(kept []Action, next Action) []Action {
	if len(kept) > 0 {
		return kept
	}
	return []Action{next}
}

// accumulate keeps every distinct value. Tags are non-exclusive: a
// lower-priority rule still adds its tag after a higher-priority rule has
// won the category.
func accumulate(kept []Action, next Action) []Action {
	for _, a := range kept {
		if a.Value == next.Value {
			return kept
		}
	}
	return append(kept, next)
}

var actionReducers = map[ActionType]actionReducer{
	ActionSetCategory: firstWins,
	ActionSetMerchant: firstWins,
	ActionAddTag:      accumulate,
}

// ReduceActions collapses the firing actions (already in priority order)
// into the final set to apply.
func ReduceActions(actions []Action) []Action {
	byType := make(map[ActionType][]Action)
	var order []ActionType
	for _, a := range actions {
		reducer, ok := actionReducers[a.Type]
		if !ok {
			continue
		}
		if _, seen := byType[a.Type]; !seen {
			order = append(order, a.Type)
		}
		byType[a.Type] = reducer(byType[a.Type], a)
	}

	var out []Action
	for _, t := range order {
		out = append(out, byType[t]...)
	}
	return out
}

// RuleEngine applies the rule set to stored transactions in batch.
type RuleEngine struct {
	store Store
	log   zerolog.Logger
}

// NewRuleEngine returns an engine writing through the given store.
func NewRuleEngine(store Store, log zerolog.Logger) *RuleEngine {
	return &RuleEngine{store: store, log: log}
}

// ApplyBatch evaluates the active rule set against every transaction the
// filter selects. The configuration snapshot is fetched once, so one run
// sees one consistent rule set. A row whose write fails is counted and
// skipped; the batch never aborts. Updated counts only rows whose stored
// value actually changed, so a second run over unchanged inputs reports
// zero updates.
func (e *RuleEngine) ApplyBatch(ctx context.Context, filter TransactionFilter) (BatchResult, error) {
	snapshot, err := e.store.ConfigSnapshot(ctx)
	if err != nil {
		return BatchResult{}, fmt.Errorf("fetching config snapshot: %w", err)
	}

	txs, err := e.store.Transactions(ctx, filter)
	if err != nil {
		return BatchResult{}, fmt.Errorf("reading transactions: %w", err)
	}

	var result BatchResult
	for _, tx := range txs {
		result.Processed++

		actions := ReduceActions(Evaluate(tx, snapshot.Rules))
		updated, changed := ApplyActions(tx, actions, snapshot.Catalogs)
		if !changed {
			continue
		}

		if err := e.store.UpdateTransaction(ctx, updated); err != nil {
			result.Errors++
			e.log.Warn().Err(err).Str("transaction_id", tx.ID).Msg("skipping row after write failure")
			continue
		}
		result.Updated++
	}

	e.log.Info().
		Int("processed", result.Processed).
		Int("updated", result.Updated).
		Int("errors", result.Errors).
		Int("rules", len(snapshot.Rules)).
		Msg("rule batch applied")

	return result, nil
}

// ApplyActions applies a reduced action set to a transaction and reports
// whether anything changed. Assigning a transfer-marked category also marks
// the transaction as an excluded transfer; reassigning away from one
// reverses both, mirroring the manual-toggle invariant.
func ApplyActions(tx Transaction, actions []Action, catalogs Catalogs) (Transaction, bool) {
	changed := false

	for _, a := range actions {
		switch a.Type {
		case ActionSetCategory:
			if tx.CategoryID == a.Value {
				continue
			}
			prevTransfer := false
			if prev, ok := catalogs.CategoryByID(tx.CategoryID); ok {
				prevTransfer = prev.Transfer
			}
			tx.CategoryID = a.Value
			changed = true

			next, ok := catalogs.CategoryByID(a.Value)
			switch {
			case ok && next.Transfer:
				tx.Transfer = true
				tx.Excluded = true
				tx.Flow = FlowTransfer
			case prevTransfer:
				tx.Transfer = false
				tx.Excluded = false
				tx.Flow = FlowUnknown
			}

		case ActionSetMerchant:
			if tx.MerchantID != a.Value {
				tx.MerchantID = a.Value
				changed = true
			}

		case ActionAddTag:
			if !tx.HasTag(a.Value) {
				tx.Tags = append(append([]string(nil), tx.Tags...), a.Value)
				changed = true
			}
		}
	}

	return tx, changed
}
