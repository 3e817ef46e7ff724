package internal

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// headerAliases maps the column headers seen across bank/card exports onto
// the row fields. Comparison happens after Normalize.
var (
	dateHeaders    = []string{"dato", "date", "reskontradatum", "transaksjonsdato"}
	textHeaders    = []string{"tekst", "text", "beskrivelse", "description"}
	amountHeaders  = []string{"beløp", "belopp", "amount"}
	sectionHeaders = []string{"seksjon", "section", "type"}
)

// ParseBankXLSX reads raw rows from a bank or card Excel export.
// It locates the header row by its column names, then reads data rows below
// it. Rows where only the text column is filled act as section labels for
// the rows that follow (card exports group purchases under such labels).
// A "Prel " text prefix marks a pending row and is stripped.
func ParseBankXLSX(path string) ([]RawRow, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in file")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet: %w", err)
	}

	dateCol, textCol, amountCol, sectionCol := -1, -1, -1, -1
	dataStartRow := -1

	for i, row := range rows {
		for j, cell := range row {
			switch header := Normalize(cell); {
			case matchesHeader(header, dateHeaders):
				if dateCol == -1 {
					dateCol = j
					dataStartRow = i + 1
				}
			case matchesHeader(header, textHeaders):
				textCol = j
			case matchesHeader(header, amountHeaders):
				amountCol = j
			case matchesHeader(header, sectionHeaders):
				sectionCol = j
			}
		}
		if dateCol >= 0 && textCol >= 0 && amountCol >= 0 {
			break
		}
	}

	if dateCol < 0 || textCol < 0 || amountCol < 0 {
		return nil, fmt.Errorf("could not find required columns (date, text, amount)")
	}

	var out []RawRow
	currentSection := ""

	for i := dataStartRow; i < len(rows); i++ {
		row := rows[i]

		maxCol := max(dateCol, textCol, amountCol)
		if len(row) <= maxCol {
			// A short row with only label text starts a new section.
			if label := firstNonEmpty(row); label != "" {
				currentSection = label
			}
			continue
		}

		dateStr := strings.TrimSpace(row[dateCol])
		text := strings.TrimSpace(row[textCol])
		amountStr := strings.TrimSpace(row[amountCol])

		if dateStr == "" && amountStr == "" {
			if text != "" {
				currentSection = text
			}
			continue
		}
		if dateStr == "" || text == "" || amountStr == "" {
			continue
		}

		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			continue
		}

		amountStr = strings.ReplaceAll(amountStr, " ", "")
		amountStr = strings.ReplaceAll(amountStr, ",", ".")
		amount, err := strconv.ParseFloat(amountStr, 64)
		if err != nil {
			continue
		}

		pending := strings.HasPrefix(text, "Prel ")
		text = strings.TrimPrefix(text, "Prel ")

		section := currentSection
		if sectionCol >= 0 && sectionCol < len(row) {
			if s := strings.TrimSpace(row[sectionCol]); s != "" {
				section = s
			}
		}

		out = append(out, RawRow{
			Date:         date,
			Amount:       amount,
			Description:  text,
			SectionLabel: section,
			Pending:      pending,
		})
	}

	return out, nil
}

func matchesHeader(header string, aliases []string) bool {
	for _, a := range aliases {
		if header == Normalize(a) {
			return true
		}
	}
	return false
}

func firstNonEmpty(row []string) string {
	for _, cell := range row {
		if s := strings.TrimSpace(cell); s != "" {
			return s
		}
	}
	return ""
}

func init() {
	RegisterParser("bank-xlsx", ParserFunc(ParseBankXLSX))
}
