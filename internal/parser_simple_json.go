package internal

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// SimpleJSONFormat is a minimal JSON format for importing transactions
// Example:
//
//	{
//	  "transactions": [
//	    {"date": "2025-01-15", "description": "Netflix", "amount": -99.00},
//	    {"date": "2025-02-15", "description": "KIWI 505", "amount": 231.50, "section": "Varekjøp"}
//	  ]
//	}
//
// This format is easy to convert to from any bank export or data source.
type SimpleJSONFormat struct {
	Transactions []SimpleJSONTransaction `json:"transactions"`
}

type SimpleJSONTransaction struct {
	Date        string  `json:"date"`              // YYYY-MM-DD format
	Description string  `json:"description"`       // Payee/description
	Amount      float64 `json:"amount"`            // Signed; negative for expenses
	Section     string  `json:"section,omitempty"` // Optional section hint
}

// ParseSimpleJSON parses a JSON file in the simple JSON format
func ParseSimpleJSON(path string) ([]RawRow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	var jsonData SimpleJSONFormat
	if err := json.Unmarshal(data, &jsonData); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	var rows []RawRow
	for _, tx := range jsonData.Transactions {
		date, err := time.Parse("2006-01-02", tx.Date)
		if err != nil {
			return nil, fmt.Errorf("parsing date %q: %w", tx.Date, err)
		}
		rows = append(rows, RawRow{
			Date:         date,
			Amount:       tx.Amount,
			Description:  tx.Description,
			SectionLabel: tx.Section,
		})
	}

	return rows, nil
}

func init() {
	RegisterParser("simple-json", ParserFunc(ParseSimpleJSON))
}
