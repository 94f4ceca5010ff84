package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// fieldRule opisuje jedno pole wejściowe. Handlery budują z nich tabele
// zamiast rozsypywać warunki po kodzie — nierozpoznana wartość z zamkniętej
// listy odpada tutaj, zanim dotknie serwisu.
type fieldRule struct {
	Name     string
	Required bool
	// Options to zamknięta lista dozwolonych wartości; pusta oznacza
	// dowolny tekst.
	Options []string
	MaxLen  int
	UUID    bool
}

func validateFields(fields map[string]string, rules []fieldRule) error {
	for _, rule := range rules {
		value, ok := fields[rule.Name]
		if !ok || value == "" {
			if rule.Required {
				return fmt.Errorf("field '%s' is required", rule.Name)
			}
			continue
		}

		if rule.MaxLen > 0 && len(value) > rule.MaxLen {
			return fmt.Errorf("field '%s' exceeds %d characters", rule.Name, rule.MaxLen)
		}

		if rule.UUID {
			if _, err := uuid.Parse(value); err != nil {
				return fmt.Errorf("field '%s' is not a valid id", rule.Name)
			}
		}

		if len(rule.Options) > 0 {
			recognized := false
			for _, opt := range rule.Options {
				if value == opt {
					recognized = true
					break
				}
			}
			if !recognized {
				return fmt.Errorf("field '%s' has unrecognized value '%s' (allowed: %s)",
					rule.Name, value, strings.Join(rule.Options, ", "))
			}
		}
	}
	return nil
}

func optionalString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func parsePagination(r *http.Request) (int, int) {
	limit := 50
	offset := 0

	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 && v <= 200 {
			limit = v
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			offset = v
		}
	}

	return limit, offset
}
