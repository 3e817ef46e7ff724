package internal

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIsKnownParser(t *testing.T) {
	RegisterParser("test-format", ParserFunc(func(path string) ([]RawRow, error) {
		return nil, nil
	}))

	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"known parser", "test-format", true},
		{"built-in xlsx parser", "bank-xlsx", true},
		{"built-in json parser", "simple-json", true},
		{"unknown parser", "unknown-format", false},
		{"empty string", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsKnownParser(tt.input)
			if got != tt.expected {
				t.Errorf("IsKnownParser(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseFileArg(t *testing.T) {
	tests := []struct {
		name           string
		input          string
		expectedFormat string
		expectedPath   string
	}{
		{
			name:           "with format prefix",
			input:          "simple-json:data.json",
			expectedFormat: "simple-json",
			expectedPath:   "data.json",
		},
		{
			name:           "no prefix",
			input:          "data.json",
			expectedFormat: "",
			expectedPath:   "data.json",
		},
		{
			name:           "unknown prefix treated as path",
			input:          "unknown:data.json",
			expectedFormat: "",
			expectedPath:   "unknown:data.json",
		},
		{
			name:           "windows path with drive letter",
			input:          "C:\\Users\\test\\data.xlsx",
			expectedFormat: "",
			expectedPath:   "C:\\Users\\test\\data.xlsx",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			format, path := ParseFileArg(tt.input)
			if format != tt.expectedFormat || path != tt.expectedPath {
				t.Errorf("ParseFileArg(%q) = (%q, %q), want (%q, %q)",
					tt.input, format, path, tt.expectedFormat, tt.expectedPath)
			}
		})
	}
}

func TestGetParserUnknown(t *testing.T) {
	if _, err := GetParser("no-such-source"); err == nil {
		t.Error("expected error for unknown source")
	}
}

func TestParseSimpleJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	content := `{
  "transactions": [
    {"date": "2025-01-15", "description": "Netflix", "amount": -99.00},
    {"date": "2025-02-15", "description": "KIWI 505", "amount": 231.50, "section": "Varekjøp"}
  ]
}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	rows, err := ParseSimpleJSON(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}

	if rows[0].Description != "Netflix" || rows[0].Amount != -99.00 {
		t.Errorf("row 0 = %+v", rows[0])
	}
	if !rows[0].Date.Equal(date("2025-01-15")) {
		t.Errorf("row 0 date = %v", rows[0].Date)
	}
	if rows[1].SectionLabel != "Varekjøp" {
		t.Errorf("row 1 section = %q", rows[1].SectionLabel)
	}
}

func TestParseSimpleJSONBadDate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	content := `{"transactions": [{"date": "15/01/2025", "description": "x", "amount": 1}]}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ParseSimpleJSON(path); err == nil {
		t.Error("expected error for bad date format")
	}
}
