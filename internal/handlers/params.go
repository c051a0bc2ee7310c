package handlers

import (
	"strings"
	"time"

	"meeting-search/internal/meeting"
)

// dateLayouts are the accepted date formats, most specific last.
var dateLayouts = []string{"2006-01-02", time.RFC3339}

// parseDate parses an optional date. Empty input yields nil.
func parseDate(field, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, &meeting.ValidationError{Field: field, Message: "must be a date in YYYY-MM-DD or RFC 3339 format"}
}

// parseContentTypes parses content type names, accepting plural forms.
func parseContentTypes(names []string) ([]meeting.ContentType, error) {
	if len(names) == 0 {
		return nil, nil
	}
	types := make([]meeting.ContentType, 0, len(names))
	for _, name := range names {
		ct, err := meeting.ParseContentType(name)
		if err != nil {
			return nil, err
		}
		types = append(types, ct)
	}
	return types, nil
}

// splitList splits a comma-separated form value, dropping blanks.
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
