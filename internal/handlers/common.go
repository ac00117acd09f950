package handlers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/andriarta/payrecon/internal/service/report"
)

// fieldMap flattens service field errors into the response fields shape.
func fieldMap(fields []report.FieldError) map[string]string {
	m := make(map[string]string, len(fields))
	for _, f := range fields {
		m[f.Field] = f.Message
	}
	return m
}

func uuidPtrString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

// statusFilter reads the optional comma-separated "status" query parameter.
func statusFilter(r *http.Request) []string {
	raw := r.URL.Query().Get("status")
	if raw == "" {
		return nil
	}

	var statuses []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			statuses = append(statuses, s)
		}
	}
	return statuses
}
