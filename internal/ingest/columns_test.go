package ingest

import (
	"strings"
	"testing"
)

func TestResolveToleratesCaseAndSpacing(t *testing.T) {
	schema := DefaultSchema()
	headers := []string{
		"  name  OF the   Project location ",
		"DATE OF VISIT",
		"no. of composters",
		"Sum of Wet Waste (Kg)",
		"sum  of brown waste (kg)",
		"Sum of Leachate (Litre)",
		"Sum of Harvest (Kg)",
	}
	mapping, missing := schema.Resolve(headers)
	if len(missing) != 0 {
		t.Fatalf("expected no missing columns, got %v", missing)
	}
	if mapping[FieldLocation] != headers[0] {
		t.Fatalf("expected literal header preserved in mapping, got %q", mapping[FieldLocation])
	}
	if mapping[FieldBrownWaste] != "sum  of brown waste (kg)" {
		t.Fatalf("unexpected brown waste mapping: %q", mapping[FieldBrownWaste])
	}
}

func TestResolveAliases(t *testing.T) {
	schema := DefaultSchema()
	headers := []string{"Location", "Visit Date", "Composters", "Wet Waste", "Brown Waste", "Leachate", "Harvest"}
	mapping, missing := schema.Resolve(headers)
	if len(missing) != 0 {
		t.Fatalf("expected aliases to resolve, missing: %v", missing)
	}
	if mapping[FieldVisitDate] != "Visit Date" {
		t.Fatalf("expected alias to claim visit date, got %q", mapping[FieldVisitDate])
	}
}

func TestResolveReportsAllMissingColumns(t *testing.T) {
	schema := DefaultSchema()
	headers := []string{"Name of the Project Location", "Date of Visit", "No. of composters", "Sum of Wet Waste (Kg)", "Sum of Brown Waste (Kg)"}
	mapping, missing := schema.Resolve(headers)
	if mapping != nil {
		t.Fatalf("expected no partial mapping on failure")
	}
	if len(missing) != 2 {
		t.Fatalf("expected 2 missing columns, got %v", missing)
	}
	joined := strings.Join(missing, ", ")
	if !strings.Contains(joined, "Sum of Leachate (Litre)") || !strings.Contains(joined, "Sum of Harvest (Kg)") {
		t.Fatalf("missing list should name every unresolved column, got %q", joined)
	}
}

func TestResolveSingleMissingColumnNamesExactlyOne(t *testing.T) {
	schema := DefaultSchema()
	headers := []string{"Name of the Project Location", "Date of Visit", "No. of composters", "Sum of Wet Waste (Kg)", "Sum of Brown Waste (Kg)", "Sum of Leachate (Litre)"}
	_, missing := schema.Resolve(headers)
	if len(missing) != 1 || missing[0] != "Sum of Harvest (Kg)" {
		t.Fatalf("expected exactly the harvest column missing, got %v", missing)
	}
}

func TestResolveDuplicateHeaderFirstWins(t *testing.T) {
	schema := DefaultSchema()
	headers := []string{
		"Date of Visit", "Visit Date",
		"Name of the Project Location", "No. of composters", "Sum of Wet Waste (Kg)",
		"Sum of Brown Waste (Kg)", "Sum of Leachate (Litre)", "Sum of Harvest (Kg)",
	}
	mapping, missing := schema.Resolve(headers)
	if len(missing) != 0 {
		t.Fatalf("expected full resolution, missing: %v", missing)
	}
	if mapping[FieldVisitDate] != "Date of Visit" {
		t.Fatalf("expected first occurrence to claim the column, got %q", mapping[FieldVisitDate])
	}
}

func TestNormalizeHeaderStripsBOM(t *testing.T) {
	if normalizeHeader("\ufeffDate of Visit") != "date of visit" {
		t.Fatalf("BOM should be stripped before comparison")
	}
}
