// Package spreadsheet reads conto reconciliation workbooks and writes conto statements.
package spreadsheet

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/impresahub/impresa_backend/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

var dateLayouts = []string{"02/01/2006", "2/1/2006", "2006-01-02", "02-01-2006", "02.01.2006", "1-2-06"}

// ParseContoImport reads the first sheet of an xlsx workbook with the columns
// partita IVA | importo | data | descrizione. A leading header row is skipped.
// Rows that cannot be parsed are returned as unmatched with the reason.
func ParseContoImport(r io.Reader) ([]domain.ImportRow, []domain.UnmatchedRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}

	var parsed []domain.ImportRow
	var bad []domain.UnmatchedRow
	for i, cells := range rows {
		rowNum := i + 1
		if isBlank(cells) {
			continue
		}
		vat := strings.TrimSpace(cell(cells, 0))
		if i == 0 && !isDigits(strings.TrimPrefix(strings.ToUpper(vat), "IT")) {
			continue // header
		}
		vat = strings.TrimPrefix(strings.ToUpper(vat), "IT")
		if vat == "" {
			bad = append(bad, domain.UnmatchedRow{Row: rowNum, Reason: "missing partita IVA"})
			continue
		}
		amount, err := ParseAmount(cell(cells, 1))
		if err != nil {
			bad = append(bad, domain.UnmatchedRow{Row: rowNum, VATNumber: vat, Reason: err.Error()})
			continue
		}
		date, err := ParseDate(cell(cells, 2))
		if err != nil {
			bad = append(bad, domain.UnmatchedRow{Row: rowNum, VATNumber: vat, Reason: err.Error()})
			continue
		}
		parsed = append(parsed, domain.ImportRow{
			Row:         rowNum,
			VATNumber:   vat,
			Amount:      amount,
			Date:        date,
			Description: strings.TrimSpace(cell(cells, 3)),
		})
	}
	return parsed, bad, nil
}

// ParseAmount accepts "1.234,56", "1234.56", "€ 12,30" and plain integers.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(strings.NewReplacer("€", "", " ", "", " ", "").Replace(raw))
	if s == "" {
		return decimal.Zero, fmt.Errorf("missing importo")
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid importo %q", raw)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("importo must be positive, got %q", raw)
	}
	return d.Round(2), nil
}

// ParseDate accepts the common Italian and ISO layouts or an Excel serial date.
func ParseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("missing data")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid data %q", raw)
}

// StatementRow is one rendered line of a conto statement.
type StatementRow struct {
	Entry       domain.ContoEntry
	Beneficiary string
	CompanyName string
}

var statementHeader = []any{"Data", "Beneficiario", "Azienda", "Descrizione", "Categoria", "Origine", "Dare", "Avere", "Riferimento"}

// WriteContoStatement renders rows to an xlsx workbook written to w, adding a totals line.
func WriteContoStatement(w io.Writer, rows []StatementRow) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Conto"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, "A1", &statementHeader); err != nil {
		return err
	}

	credits, debits := decimal.Zero, decimal.Zero
	for i, r := range rows {
		e := r.Entry
		var dare, avere any = "", ""
		if e.Direction == domain.Debit {
			dare, _ = e.Amount.Float64()
			debits = debits.Add(e.Amount)
		} else {
			avere, _ = e.Amount.Float64()
			credits = credits.Add(e.Amount)
		}
		ref := ""
		if e.ReferenceID != nil {
			ref = *e.ReferenceID
		}
		line := []any{e.EntryDate.Format("02/01/2006"), r.Beneficiary, r.CompanyName, e.Description, e.Category, string(e.Source), dare, avere, ref}
		cellRef, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cellRef, &line); err != nil {
			return err
		}
	}

	totalRef, err := excelize.CoordinatesToCellName(1, len(rows)+3)
	if err != nil {
		return err
	}
	d, _ := debits.Float64()
	c, _ := credits.Float64()
	total := []any{"Totale", "", "", "", "", "", d, c, ""}
	if err := f.SetSheetRow(sheet, totalRef, &total); err != nil {
		return err
	}
	_ = f.SetColWidth(sheet, "A", "I", 18)

	_, err = f.WriteTo(w)
	return err
}

func cell(cells []string, i int) string {
	if i < len(cells) {
		return cells[i]
	}
	return ""
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
