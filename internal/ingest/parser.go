package ingest

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/xuri/excelize/v2"

	"github.com/Harshthakur24/Env-Dashboard/internal/models"
)

// maxRows caps the number of data rows processed per workbook. A resource
// guard, not a business rule.
const maxRows = 50000

// ParseResult aggregates the outcome of parsing one workbook: validated
// records in original row order, per-row errors, and the resolved header
// mapping for diagnostics.
type ParseResult struct {
	Rows      []models.VisitRecord
	Errors    []models.RowError
	HeaderMap HeaderMap
}

// Parser turns raw workbook bytes into a ParseResult against an injected
// column schema. Safe for concurrent use.
type Parser struct {
	schema    *Schema
	validator *validator.Validate
}

func NewParser(schema *Schema) *Parser {
	return &Parser{schema: schema, validator: newRowValidator()}
}

// Parse reads the first sheet of an xlsx/xls workbook. Whole-file failures
// return a single row-0 error and no records; individual bad rows are reported
// and skipped without aborting the rest of the file.
func (p *Parser) Parse(data []byte) ParseResult {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return whole("Workbook has no sheets.")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return whole("Workbook has no sheets.")
	}

	// Raw cell values keep numbers locale-neutral and leave date cells as
	// their underlying serials for the coercer to interpret.
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return whole("Failed to read sheet.")
	}
	if len(rows) <= 1 {
		return whole("Sheet is empty.")
	}

	dataRows := rows[1:]
	if len(dataRows) > maxRows {
		return whole(fmt.Sprintf("Too many rows (%d). Max supported is %d.", len(dataRows), maxRows))
	}

	mapping, missing := p.schema.Resolve(rows[0])
	if len(missing) > 0 {
		return whole("Missing required columns: " + strings.Join(missing, ", "))
	}
	positions := headerPositions(rows[0], mapping)

	result := ParseResult{HeaderMap: mapping}
	for i, row := range dataRows {
		dataRow := i + 1

		raw := make(map[Field]string, len(positions))
		blank := true
		for _, field := range p.schema.fields() {
			v := cellAt(row, positions[field])
			raw[field] = v
			if !isBlank(v) {
				blank = false
			}
		}
		if blank {
			continue
		}

		visitDate, ok := parseDate(raw[FieldVisitDate])
		if !ok {
			echoed := strings.TrimSpace(raw[FieldVisitDate])
			if echoed == "" {
				echoed = "(empty)"
			}
			result.Errors = append(result.Errors, models.RowError{
				Row:     dataRow,
				Message: "Invalid Date of Visit: " + echoed,
			})
			continue
		}

		cand := candidate{
			Location:  strings.TrimSpace(raw[FieldLocation]),
			visitDate: visitDate,
		}
		cand.Composters, _ = parseNumber(raw[FieldComposters])
		cand.WetWasteKg, _ = parseNumber(raw[FieldWetWaste])
		cand.BrownWasteKg, _ = parseNumber(raw[FieldBrownWaste])
		cand.LeachateL, _ = parseNumber(raw[FieldLeachate])
		cand.HarvestKg, _ = parseNumber(raw[FieldHarvest])

		if msg, ok := validateRow(p.validator, cand); !ok {
			result.Errors = append(result.Errors, models.RowError{Row: dataRow, Message: msg})
			continue
		}

		result.Rows = append(result.Rows, models.VisitRecord{
			Location:     cand.Location,
			VisitDate:    cand.visitDate,
			Composters:   int(cand.Composters),
			WetWasteKg:   cand.WetWasteKg,
			BrownWasteKg: cand.BrownWasteKg,
			LeachateL:    cand.LeachateL,
			HarvestKg:    cand.HarvestKg,
		})
	}
	return result
}

func whole(message string) ParseResult {
	return ParseResult{Errors: []models.RowError{{Row: 0, Message: message}}}
}

// headerPositions maps each resolved field to the column index of the literal
// header that claimed it (first occurrence on duplicates).
func headerPositions(headers []string, mapping HeaderMap) map[Field]int {
	positions := make(map[Field]int, len(mapping))
	for field, literal := range mapping {
		for i, h := range headers {
			if h == literal {
				positions[field] = i
				break
			}
		}
	}
	return positions
}

// cellAt tolerates ragged rows: excelize trims trailing empty cells.
func cellAt(row []string, pos int) string {
	if pos < 0 || pos >= len(row) {
		return ""
	}
	return row[pos]
}
