package internal

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

// writeTestWorkbook builds a minimal card-export workbook: a title row, a
// header row, section label rows and data rows.
func writeTestWorkbook(t *testing.T, rows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatal(err)
		}
	}

	path := filepath.Join(t.TempDir(), "export.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseBankXLSX(t *testing.T) {
	path := writeTestWorkbook(t, [][]interface{}{
		{"Kontoutskrift mars 2025"},
		{},
		{"Dato", "Tekst", "Beløp"},
		{"Varekjøp"},
		{"2025-03-05", "KIWI 505 BARCODE", "-231,50"},
		{"2025-03-06", "Prel REMA 1000 TORSHOV", "-185,00"},
		{"Uttak"},
		{"2025-03-07", "Minibank Oslo S", "-500,00"},
	})

	rows, err := ParseBankXLSX(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}

	if rows[0].Description != "KIWI 505 BARCODE" {
		t.Errorf("row 0 description = %q", rows[0].Description)
	}
	if rows[0].Amount != -231.50 {
		t.Errorf("row 0 amount = %v, want -231.50", rows[0].Amount)
	}
	if rows[0].SectionLabel != "Varekjøp" {
		t.Errorf("row 0 section = %q, want Varekjøp", rows[0].SectionLabel)
	}
	if !rows[0].Date.Equal(date("2025-03-05")) {
		t.Errorf("row 0 date = %v", rows[0].Date)
	}

	if !rows[1].Pending {
		t.Error("row 1 not marked pending")
	}
	if rows[1].Description != "REMA 1000 TORSHOV" {
		t.Errorf("row 1 description = %q, want Prel prefix stripped", rows[1].Description)
	}

	if rows[2].SectionLabel != "Uttak" {
		t.Errorf("row 2 section = %q, want Uttak", rows[2].SectionLabel)
	}
}

func TestParseBankXLSXExplicitSectionColumn(t *testing.T) {
	path := writeTestWorkbook(t, [][]interface{}{
		{"Date", "Text", "Amount", "Section"},
		{"2025-03-05", "KIWI 505", "-231.50", "Varekjøp"},
		{"2025-03-25", "Lønn mars", "30000.00", "Innskudd"},
	})

	rows, err := ParseBankXLSX(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].SectionLabel != "Varekjøp" {
		t.Errorf("row 0 section = %q", rows[0].SectionLabel)
	}
	if rows[1].Amount != 30000.00 {
		t.Errorf("row 1 amount = %v", rows[1].Amount)
	}
}

func TestParseBankXLSXSkipsMalformedRows(t *testing.T) {
	path := writeTestWorkbook(t, [][]interface{}{
		{"Dato", "Tekst", "Beløp"},
		{"2025-03-05", "KIWI 505", "-231,50"},
		{"not-a-date", "Bad row", "-10,00"},
		{"2025-03-06", "No amount", ""},
		{"2025-03-07", "Netflix.com", "-99,00"},
	})

	rows, err := ParseBankXLSX(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[1].Description != "Netflix.com" {
		t.Errorf("row 1 = %+v", rows[1])
	}
}

func TestParseBankXLSXMissingColumns(t *testing.T) {
	path := writeTestWorkbook(t, [][]interface{}{
		{"Dato", "Tekst"},
		{"2025-03-05", "KIWI 505"},
	})

	if _, err := ParseBankXLSX(path); err == nil {
		t.Error("expected error when amount column is missing")
	}
}
