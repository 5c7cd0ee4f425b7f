package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestUploadErrorsMarshalAsStructuredJSON(t *testing.T) {
	rowErrs, err := json.Marshal([]RowError{{Row: 2, Message: "Invalid Date of Visit: x"}})
	if err != nil {
		t.Fatalf("marshal row errors: %v", err)
	}

	u := Upload{
		ID:        "upload-1",
		FileName:  "visits.xlsx",
		Status:    "SUCCESS",
		Errors:    rowErrs,
		StartedAt: time.Date(2025, time.October, 7, 0, 0, 0, 0, time.UTC),
	}
	out, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("marshal upload: %v", err)
	}

	// The stored row errors must surface as a JSON array, not a base64 blob.
	if !strings.Contains(string(out), `"errors":[{"row":2,`) {
		t.Fatalf("expected structured errors array, got %s", out)
	}

	var decoded struct {
		Errors []RowError `json:"errors"`
	}
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(decoded.Errors) != 1 || decoded.Errors[0].Row != 2 {
		t.Fatalf("unexpected round-tripped errors: %+v", decoded.Errors)
	}
}
