// Package importer parses uploaded receiving workbooks into normalized line
// tuples. It is stateless: a pure function of the file bytes, with no
// persistence.
package importer

import (
	"bytes"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"receivingapi/internal/apperr"
)

// Line is one normalized row of the workbook.
type Line struct {
	SKU      string  `json:"sku"`
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	UOM      string  `json:"uom"`
}

// Workbook is the parse result. DetectedColumns maps each logical field to
// the header cell it was matched against, so the caller can confirm the
// mapping before committing.
type Workbook struct {
	OrderNumber       string            `json:"order_number"`
	DocumentDate      *time.Time        `json:"document_date,omitempty"`
	ResponsiblePerson string            `json:"responsible_person,omitempty"`
	DetectedColumns   map[string]string `json:"detected_columns"`
	Lines             []Line            `json:"lines"`
}

// Header synonyms, compared case-insensitively. Covers the Serbian labels the
// suppliers actually send plus English fallbacks.
var columnSynonyms = map[string][]string{
	"sku":  {"sifra", "šifra", "sku", "code", "artikal", "sifra artikla", "item"},
	"name": {"naziv", "name", "opis", "description", "naziv artikla"},
	"qty":  {"kolicina", "količina", "qty", "quantity", "kol", "kol."},
	"uom":  {"jm", "j.m.", "jed. mere", "jedinica mere", "uom", "unit"},
}

// Metadata labels looked for above the header row.
var metadataSynonyms = map[string][]string{
	"order":       {"broj porudzbine", "broj porudžbine", "broj", "order", "order number", "porudzbina"},
	"date":        {"datum", "date", "datum dokumenta"},
	"responsible": {"odgovorno lice", "responsible", "odgovoran"},
}

const headerScanDepth = 10

// Parse reads an xlsx workbook and returns its normalized lines. Fails with
// a ParseError when the file is unreadable, has no rows, or no recognizable
// header.
func Parse(data []byte) (*Workbook, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, apperr.Parse("cannot open workbook: %v", err)
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, apperr.Parse("cannot read sheet %q: %v", sheet, err)
	}
	if len(rows) == 0 {
		return nil, apperr.Parse("workbook is empty")
	}

	headerRow, cols := detectHeader(rows)
	if headerRow < 0 {
		return nil, apperr.Parse("no header row with recognizable sku/quantity columns found")
	}

	wb := &Workbook{
		DetectedColumns: make(map[string]string),
		Lines:           make([]Line, 0, len(rows)-headerRow-1),
	}
	for field, idx := range cols {
		wb.DetectedColumns[field] = strings.TrimSpace(rows[headerRow][idx])
	}

	// Rows above the header may carry document metadata as label/value pairs.
	extractMetadata(rows[:headerRow], wb)

	for _, row := range rows[headerRow+1:] {
		line, ok := parseLine(row, cols)
		if !ok {
			continue
		}
		wb.Lines = append(wb.Lines, line)
	}
	if len(wb.Lines) == 0 {
		return nil, apperr.Parse("workbook contains no data rows")
	}
	return wb, nil
}

// detectHeader scans the first rows for one matching at least the sku and
// qty synonyms. Returns the row index and the field → column index mapping.
func detectHeader(rows [][]string) (int, map[string]int) {
	depth := headerScanDepth
	if len(rows) < depth {
		depth = len(rows)
	}
	for i := 0; i < depth; i++ {
		cols := matchColumns(rows[i])
		if _, okSKU := cols["sku"]; okSKU {
			if _, okQty := cols["qty"]; okQty {
				return i, cols
			}
		}
	}
	return -1, nil
}

func matchColumns(row []string) map[string]int {
	cols := make(map[string]int)
	for idx, cell := range row {
		norm := strings.ToLower(strings.TrimSpace(cell))
		if norm == "" {
			continue
		}
		for field, synonyms := range columnSynonyms {
			if _, taken := cols[field]; taken {
				continue
			}
			for _, syn := range synonyms {
				if norm == syn {
					cols[field] = idx
					break
				}
			}
		}
	}
	return cols
}

func parseLine(row []string, cols map[string]int) (Line, bool) {
	cell := func(field string) string {
		idx, ok := cols[field]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	sku := cell("sku")
	if sku == "" {
		return Line{}, false
	}
	qty, err := strconv.ParseFloat(strings.ReplaceAll(cell("qty"), ",", "."), 64)
	if err != nil || qty < 0 {
		return Line{}, false
	}
	uom := cell("uom")
	if uom == "" {
		uom = "kom"
	}
	return Line{SKU: sku, Name: cell("name"), Quantity: qty, UOM: uom}, true
}

func extractMetadata(rows [][]string, wb *Workbook) {
	for _, row := range rows {
		for idx, cell := range row {
			norm := strings.ToLower(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(cell), ":")))
			if norm == "" || idx+1 >= len(row) {
				continue
			}
			value := strings.TrimSpace(row[idx+1])
			if value == "" {
				continue
			}
			switch metadataField(norm) {
			case "order":
				if wb.OrderNumber == "" {
					wb.OrderNumber = value
				}
			case "date":
				if wb.DocumentDate == nil {
					if t, ok := parseDate(value); ok {
						wb.DocumentDate = &t
					}
				}
			case "responsible":
				if wb.ResponsiblePerson == "" {
					wb.ResponsiblePerson = value
				}
			}
		}
	}
}

func metadataField(label string) string {
	for field, synonyms := range metadataSynonyms {
		for _, syn := range synonyms {
			if label == syn {
				return field
			}
		}
	}
	return ""
}

var dateLayouts = []string{"02.01.2006", "02.01.2006.", "2006-01-02", "02/01/2006"}

func parseDate(value string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
