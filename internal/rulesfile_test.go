package internal

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRulesYaml = `
categories:
  - id: groceries
    name: Groceries
  - id: internal-transfer
    name: Internal Transfer
    transfer: true
tags:
  - id: shared
    name: Shared
rules:
  - name: kiwi-groceries
    priority: 10
    value: kiwi
    action: set_category
    action_value: groceries
  - name: shared-tag
    priority: 20
    field: combined
    match: contains
    value: kiwi
    action: add_tag
    action_value: shared
  - name: off
    priority: 30
    disabled: true
    value: rema
    action: set_category
    action_value: groceries
`

func writeRulesFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadRuleFileAndSeed(t *testing.T) {
	rf, err := LoadRuleFile(writeRulesFile(t, testRulesYaml))
	require.NoError(t, err)
	assert.Len(t, rf.Categories, 2)
	assert.Len(t, rf.Rules, 3)

	store := NewMemoryStore()
	require.NoError(t, SeedStore(store, rf))

	snap, err := store.ConfigSnapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Rules, 3)

	assert.Equal(t, "kiwi-groceries", snap.Rules[0].Name)
	assert.Equal(t, MatchDescription, snap.Rules[0].Field, "field defaults to description")
	assert.Equal(t, MatchContains, snap.Rules[0].Match, "match defaults to contains")
	assert.True(t, snap.Rules[0].Enabled)
	assert.False(t, snap.Rules[2].Enabled, "disabled entry stays off")

	cat, ok := snap.Catalogs.CategoryByID("internal-transfer")
	require.True(t, ok)
	assert.True(t, cat.Transfer)
}

func TestSeedStoreRejectsDanglingReference(t *testing.T) {
	rf, err := LoadRuleFile(writeRulesFile(t, `
rules:
  - name: bad
    priority: 10
    value: kiwi
    action: set_category
    action_value: no-such-category
`))
	require.NoError(t, err)

	err = SeedStore(NewMemoryStore(), rf)
	assert.Error(t, err)
}

func TestSeedStoreRejectsBadParent(t *testing.T) {
	rf, err := LoadRuleFile(writeRulesFile(t, `
categories:
  - id: child
    name: Child
    parent: missing
`))
	require.NoError(t, err)

	err = SeedStore(NewMemoryStore(), rf)
	assert.Error(t, err)
}
