package validators

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	pkgerrors "github.com/matespatagonico/storefront/pkg/errors"
	"github.com/shopspring/decimal"
)

func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").WithDetails(map[string]any{"field": key})
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return value, nil
}

// ParsePathID reads a positive integer route parameter.
func ParsePathID(r *http.Request, key string) (int64, error) {
	raw := strings.TrimSpace(chi.URLParam(r, key))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid path parameter").WithDetails(map[string]any{"field": key})
	}
	return id, nil
}

// ParseQueryIDs reads a comma separated list of positive ids; repeated keys
// are accepted too (?category=1,2&category=3).
func ParseQueryIDs(r *http.Request, key string) ([]int64, error) {
	var ids []int64
	for _, value := range r.URL.Query()[key] {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil || id <= 0 {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must list positive ids").WithDetails(map[string]any{"field": key})
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func ParseQueryDecimal(r *http.Request, key string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return decimal.Zero, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil || value.IsNegative() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be a non-negative amount").WithDetails(map[string]any{"field": key})
	}
	return value, nil
}
