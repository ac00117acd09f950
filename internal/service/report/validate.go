package report

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// FieldError is a recoverable validation failure, reported as data so the
// caller can fix the payload and resubmit.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// RowWarning marks a skipped batch row; Row is 1-based over the input order.
type RowWarning struct {
	Row    int          `json:"row"`
	Errors []FieldError `json:"errors"`
}

var validate = validator.New()

func init() {
	validate.RegisterTagNameFunc(useJSONTagNames)
	validate.RegisterCustomTypeFunc(decimalAsFloat, decimal.Decimal{})
}

// useJSONTagNames reports field errors under the wire name, not the Go name
func useJSONTagNames(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

// decimalAsFloat lets validator tags like gt=0 work on decimal.Decimal fields
func decimalAsFloat(field reflect.Value) any {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		f, _ := d.Float64()
		return f
	}
	return nil
}

func structFieldErrors(v any) []FieldError {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []FieldError{{Field: "", Message: err.Error()}}
	}

	fields := make([]FieldError, 0, len(errs))
	for _, fieldError := range errs {
		fields = append(fields, FieldError{
			Field:   fieldError.Field(),
			Message: messageForTag(fieldError),
		})
	}

	return fields
}

func messageForTag(fieldError validator.FieldError) string {
	switch fieldError.Tag() {
	case "required":
		return "This field is required"
	case "gt":
		return "Must be greater than " + fieldError.Param()
	case "oneof":
		return "Must be one of: " + fieldError.Param()
	default:
		return "Invalid value"
	}
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseDate accepts the formats bank exports actually contain
func parseDate(value string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// checkAmount enforces positive integer minor units on top of the tag checks
func checkAmount(amount decimal.Decimal, fields []FieldError) []FieldError {
	if amount.Sign() > 0 && !amount.IsInteger() {
		fields = append(fields, FieldError{
			Field:   "amount",
			Message: "Must be an integer amount in minor currency units",
		})
	}
	return fields
}
