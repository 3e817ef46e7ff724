package internal

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RuleFile is a yaml document declaring catalogs and rules for seeding a
// store. Referencing by id keeps the file self-contained:
//
//	categories:
//	  - id: groceries
//	    name: Groceries
//	  - id: internal-transfer
//	    name: Internal Transfer
//	    transfer: true
//	tags:
//	  - id: shared
//	    name: Shared
//	rules:
//	  - name: kiwi-groceries
//	    priority: 10
//	    field: description
//	    match: contains
//	    value: kiwi
//	    action: set_category
//	    action_value: groceries
type RuleFile struct {
	Categories []RuleFileCategory `yaml:"categories,omitempty"`
	Merchants  []RuleFileMerchant `yaml:"merchants,omitempty"`
	Tags       []RuleFileTag      `yaml:"tags,omitempty"`
	Rules      []RuleFileRule     `yaml:"rules,omitempty"`
}

type RuleFileCategory struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Parent   string `yaml:"parent,omitempty"`
	Transfer bool   `yaml:"transfer,omitempty"`
}

type RuleFileMerchant struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

type RuleFileTag struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

type RuleFileRule struct {
	Name        string `yaml:"name"`
	Priority    int    `yaml:"priority"`
	Disabled    bool   `yaml:"disabled,omitempty"`
	Field       string `yaml:"field,omitempty"` // defaults to description
	Match       string `yaml:"match,omitempty"` // defaults to contains
	Value       string `yaml:"value"`
	SecondValue string `yaml:"second_value,omitempty"`
	Action      string `yaml:"action"`
	ActionValue string `yaml:"action_value"`
}

// LoadRuleFile reads and parses a rules yaml file.
func LoadRuleFile(path string) (RuleFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RuleFile{}, fmt.Errorf("reading rules file: %w", err)
	}
	var rf RuleFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return RuleFile{}, fmt.Errorf("parsing rules file: %w", err)
	}
	return rf, nil
}

// SeedStore admits the declared catalogs and rules into the store, in
// declaration order so parent categories can precede their children. All
// admission validation applies, so a bad entry fails here rather than during
// a batch run.
func SeedStore(store *MemoryStore, rf RuleFile) error {
	for _, c := range rf.Categories {
		_, err := store.AddCategory(Category{ID: c.ID, Name: c.Name, ParentID: c.Parent, Transfer: c.Transfer})
		if err != nil {
			return err
		}
	}
	for _, m := range rf.Merchants {
		store.AddMerchant(Merchant{ID: m.ID, Name: m.Name})
	}
	for _, t := range rf.Tags {
		store.AddTag(Tag{ID: t.ID, Name: t.Name})
	}
	for _, r := range rf.Rules {
		field := MatchField(r.Field)
		if r.Field == "" {
			field = MatchDescription
		}
		match := MatchType(r.Match)
		if r.Match == "" {
			match = MatchContains
		}
		_, err := store.AddRule(Rule{
			Name:        r.Name,
			Priority:    r.Priority,
			Enabled:     !r.Disabled,
			Field:       field,
			Match:       match,
			Value:       r.Value,
			SecondValue: r.SecondValue,
			Action:      ActionType(r.Action),
			ActionValue: r.ActionValue,
		})
		if err != nil {
			return err
		}
	}
	return nil
}
