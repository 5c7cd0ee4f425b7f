package ingest

import (
	"math"
	"strings"
	"testing"
)

func validCandidate() candidate {
	return candidate{
		Location:     "Manav Rachna University",
		Composters:   4,
		WetWasteKg:   55,
		BrownWasteKg: 6,
		LeachateL:    0,
		HarvestKg:    0,
	}
}

func TestValidateRowAccepts(t *testing.T) {
	v := newRowValidator()
	if msg, ok := validateRow(v, validCandidate()); !ok {
		t.Fatalf("expected valid row, got %q", msg)
	}
}

func TestValidateRowNegativeMeasurement(t *testing.T) {
	v := newRowValidator()
	c := validCandidate()
	c.HarvestKg = -5
	msg, ok := validateRow(v, c)
	if ok {
		t.Fatalf("expected failure")
	}
	if !strings.Contains(msg, "harvestKg must be a non-negative number") {
		t.Fatalf("unexpected message: %q", msg)
	}
}

func TestValidateRowFractionalComposters(t *testing.T) {
	v := newRowValidator()
	c := validCandidate()
	c.Composters = 2.5
	msg, ok := validateRow(v, c)
	if ok {
		t.Fatalf("expected failure")
	}
	if !strings.Contains(msg, "composters must be a whole number") {
		t.Fatalf("unexpected message: %q", msg)
	}
}

func TestValidateRowNaNFromFailedCoercion(t *testing.T) {
	v := newRowValidator()
	c := validCandidate()
	c.WetWasteKg = math.NaN()
	msg, ok := validateRow(v, c)
	if ok {
		t.Fatalf("expected failure")
	}
	if !strings.Contains(msg, "wetWasteKg must be a non-negative number") {
		t.Fatalf("unexpected message: %q", msg)
	}
}

func TestValidateRowAggregatesEveryFailingField(t *testing.T) {
	v := newRowValidator()
	c := validCandidate()
	c.Location = ""
	c.WetWasteKg = -1
	c.LeachateL = -2
	msg, ok := validateRow(v, c)
	if ok {
		t.Fatalf("expected failure")
	}
	for _, want := range []string{
		"location must not be empty",
		"wetWasteKg must be a non-negative number",
		"leachateL must be a non-negative number",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message %q should contain %q", msg, want)
		}
	}
	if strings.Count(msg, ";") != 2 {
		t.Fatalf("expected three joined parts, got %q", msg)
	}
}
