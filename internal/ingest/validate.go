package ingest

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// candidate is a coerced row awaiting validation. Numeric fields hold NaN when
// coercion failed, which trips the gte constraint.
type candidate struct {
	Location     string  `field:"location" validate:"required"`
	Composters   float64 `field:"composters" validate:"whole,gte=0"`
	WetWasteKg   float64 `field:"wetWasteKg" validate:"gte=0"`
	BrownWasteKg float64 `field:"brownWasteKg" validate:"gte=0"`
	LeachateL    float64 `field:"leachateL" validate:"gte=0"`
	HarvestKg    float64 `field:"harvestKg" validate:"gte=0"`

	visitDate time.Time
}

func newRowValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return fld.Tag.Get("field")
	})
	_ = v.RegisterValidation("whole", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return f == math.Trunc(f)
	})
	return v
}

// validateRow applies the field constraints and returns one aggregated message
// naming every failing field, or ok when the candidate is a valid record.
// The date is checked upstream; by this point it is already a calendar date.
func validateRow(v *validator.Validate, c candidate) (string, bool) {
	err := v.Struct(c)
	if err == nil {
		return "", true
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return "Invalid row.", false
	}

	var parts []string
	for _, fe := range verrs {
		parts = append(parts, constraintMessage(fe))
	}
	if len(parts) == 0 {
		return "Invalid row.", false
	}
	return strings.Join(parts, "; "), false
}

func constraintMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s must not be empty", fe.Field())
	case "whole":
		return fmt.Sprintf("%s must be a whole number", fe.Field())
	case "gte":
		return fmt.Sprintf("%s must be a non-negative number", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
