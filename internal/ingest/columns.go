package ingest

import (
	"strings"
)

// Field identifies one of the seven logical columns every workbook must carry,
// independent of how it is spelled in the file.
type Field string

const (
	FieldLocation   Field = "location"
	FieldVisitDate  Field = "visitDate"
	FieldComposters Field = "composters"
	FieldWetWaste   Field = "wetWasteKg"
	FieldBrownWaste Field = "brownWasteKg"
	FieldLeachate   Field = "leachateL"
	FieldHarvest    Field = "harvestKg"
)

// Column binds a logical field to its canonical header and the alias spellings
// accepted for it. Matching is case- and whitespace-insensitive.
type Column struct {
	Field     Field
	Canonical string
	Aliases   []string
}

// HeaderMap associates each logical field with the literal header found in the
// uploaded file. Kept around for diagnostics after parsing.
type HeaderMap map[Field]string

// Schema is the closed set of required columns plus a normalized lookup table.
// Build once and share; it is read-only after New.
type Schema struct {
	columns []Column
	lookup  map[string]Field
}

func NewSchema(columns []Column) *Schema {
	s := &Schema{columns: columns, lookup: make(map[string]Field)}
	for _, col := range columns {
		s.lookup[normalizeHeader(col.Canonical)] = col.Field
		for _, alias := range col.Aliases {
			s.lookup[normalizeHeader(alias)] = col.Field
		}
	}
	return s
}

// DefaultSchema returns the production column table. Alias spellings cover the
// header variants seen in real field exports.
func DefaultSchema() *Schema {
	return NewSchema([]Column{
		{Field: FieldLocation, Canonical: "Name of the Project Location", Aliases: []string{"Project Location", "Location", "Site"}},
		{Field: FieldVisitDate, Canonical: "Date of Visit", Aliases: []string{"Visit Date", "Date"}},
		{Field: FieldComposters, Canonical: "No. of composters", Aliases: []string{"No of composters", "Number of composters", "Composters"}},
		{Field: FieldWetWaste, Canonical: "Sum of Wet Waste (Kg)", Aliases: []string{"Wet Waste (Kg)", "Wet Waste"}},
		{Field: FieldBrownWaste, Canonical: "Sum of Brown Waste (Kg)", Aliases: []string{"Brown Waste (Kg)", "Brown Waste"}},
		{Field: FieldLeachate, Canonical: "Sum of Leachate (Litre)", Aliases: []string{"Leachate (Litre)", "Leachate (L)", "Leachate"}},
		{Field: FieldHarvest, Canonical: "Sum of Harvest (Kg)", Aliases: []string{"Harvest (Kg)", "Harvest"}},
	})
}

// Resolve maps the literal headers of row 1 onto the logical columns. The first
// header that normalizes to a registered spelling claims the column; later
// duplicates are ignored. A non-empty missing list means resolution failed and
// no partial mapping may be used.
func (s *Schema) Resolve(headers []string) (HeaderMap, []string) {
	mapping := make(HeaderMap, len(s.columns))
	for _, h := range headers {
		field, ok := s.lookup[normalizeHeader(h)]
		if !ok {
			continue
		}
		if _, claimed := mapping[field]; claimed {
			continue
		}
		mapping[field] = h
	}

	var missing []string
	for _, col := range s.columns {
		if _, ok := mapping[col.Field]; !ok {
			missing = append(missing, col.Canonical)
		}
	}
	if len(missing) > 0 {
		return nil, missing
	}
	return mapping, nil
}

func (s *Schema) fields() []Field {
	out := make([]Field, 0, len(s.columns))
	for _, col := range s.columns {
		out = append(out, col.Field)
	}
	return out
}

// normalizeHeader reduces a header to its comparison key: trimmed, internal
// whitespace runs collapsed to a single space, lower-cased. BOMs from Excel
// exports are stripped as well.
func normalizeHeader(h string) string {
	h = strings.ReplaceAll(h, "\ufeff", "")
	return strings.ToLower(strings.Join(strings.Fields(h), " "))
}
