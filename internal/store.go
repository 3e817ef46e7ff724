package internal

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// TransactionFilter narrows a bulk transaction read.
type TransactionFilter struct {
	Range           *DateRange
	Flow            FlowType // empty = all flows; matches the effective flow
	Status          TxStatus // empty = all statuses
	IncludeExcluded bool
}

// Store is the persistence collaborator. It supplies filtered transaction
// rows plus the active configuration snapshot, and accepts row writes. The
// pipeline itself never touches storage outside this interface.
type Store interface {
	Transactions(ctx context.Context, filter TransactionFilter) ([]Transaction, error)
	UpdateTransaction(ctx context.Context, tx Transaction) error
	ConfigSnapshot(ctx context.Context) (Snapshot, error)
}

// MemoryStore is the in-process reference Store. Rules and categories are
// validated at admission so the engine never sees dangling references or
// category cycles.
type MemoryStore struct {
	mu           sync.RWMutex
	transactions map[string]Transaction
	rules        map[string]Rule
	catalogs     Catalogs
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		transactions: make(map[string]Transaction),
		rules:        make(map[string]Rule),
	}
}

// AddCategory admits a category, rejecting parent references that are
// missing or would close a cycle.
func (s *MemoryStore) AddCategory(cat Category) (Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cat.ID == "" {
		cat.ID = uuid.NewString()
	}
	if err := validateCategoryParent(cat, s.catalogs.Categories); err != nil {
		return Category{}, err
	}
	s.catalogs.Categories = append(s.catalogs.Categories, cat)
	return cat, nil
}

// AddMerchant admits a merchant into the catalog.
func (s *MemoryStore) AddMerchant(m Merchant) Merchant {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	s.catalogs.Merchants = append(s.catalogs.Merchants, m)
	return m
}

// AddTag admits a tag into the catalog.
func (s *MemoryStore) AddTag(t Tag) Tag {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	s.catalogs.Tags = append(s.catalogs.Tags, t)
	return t
}

// AddRule admits a rule, rejecting action values that reference nothing in
// the catalogs. Evaluation never re-validates.
func (s *MemoryStore) AddRule(r Rule) (Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if err := ValidateRule(r, s.catalogs); err != nil {
		return Rule{}, err
	}
	s.rules[r.ID] = r
	return r, nil
}

// AddTransaction stores a transaction, minting an id when absent.
func (s *MemoryStore) AddTransaction(tx Transaction) Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	s.transactions[tx.ID] = tx
	return tx
}

// Transactions returns the rows matching the filter, sorted by date then id
// so reads are deterministic.
func (s *MemoryStore) Transactions(_ context.Context, filter TransactionFilter) ([]Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Transaction
	for _, tx := range s.transactions {
		if !filter.IncludeExcluded && tx.Excluded {
			continue
		}
		if filter.Range != nil && !filter.Range.Contains(tx.Date) {
			continue
		}
		if filter.Flow != "" && tx.EffectiveFlow() != filter.Flow {
			continue
		}
		if filter.Status != "" && tx.Status != filter.Status {
			continue
		}
		out = append(out, tx)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// UpdateTransaction replaces a stored row.
func (s *MemoryStore) UpdateTransaction(_ context.Context, tx Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.transactions[tx.ID]; !ok {
		return fmt.Errorf("transaction %s: not found", tx.ID)
	}
	s.transactions[tx.ID] = tx
	return nil
}

// ConfigSnapshot returns the active rule set, pre-sorted by priority with
// name tie-breaks, plus the catalogs. Callers fetch it once per run.
func (s *MemoryStore) ConfigSnapshot(_ context.Context) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rules := make([]Rule, 0, len(s.rules))
	for _, r := range s.rules {
		rules = append(rules, r)
	}
	SortRules(rules)

	catalogs := Catalogs{
		Categories: append([]Category(nil), s.catalogs.Categories...),
		Merchants:  append([]Merchant(nil), s.catalogs.Merchants...),
		Tags:       append([]Tag(nil), s.catalogs.Tags...),
	}

	return Snapshot{Rules: rules, Catalogs: catalogs}, nil
}

// validateCategoryParent checks that a new category's parent exists and that
// following parents from it never loops back.
func validateCategoryParent(cat Category, existing []Category) error {
	if cat.ParentID == "" {
		return nil
	}
	if cat.ParentID == cat.ID {
		return fmt.Errorf("category %q: cannot be its own parent", cat.Name)
	}

	byID := make(map[string]Category, len(existing))
	for _, c := range existing {
		byID[c.ID] = c
	}
	if _, ok := byID[cat.ParentID]; !ok {
		return fmt.Errorf("category %q: parent %s does not exist", cat.Name, cat.ParentID)
	}

	seen := map[string]bool{cat.ID: true}
	for id := cat.ParentID; id != ""; {
		if seen[id] {
			return fmt.Errorf("category %q: parent %s would create a cycle", cat.Name, cat.ParentID)
		}
		seen[id] = true
		parent, ok := byID[id]
		if !ok {
			break
		}
		id = parent.ParentID
	}
	return nil
}
