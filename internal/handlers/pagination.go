package handlers

import (
	"strconv"
	"strings"

	"orderbackend/internal/apperrors"
	"orderbackend/internal/orders"
)

// parsePaginationParams reads the page and limit query values. Blank values take
// the orders defaults and a limit above orders.MaxPageLimit is clamped to it.
func parsePaginationParams(pageStr, limitStr string) (int64, int64, error) {
	page, err := positiveParam("page", pageStr, 1)
	if err != nil {
		return 0, 0, err
	}
	limit, err := positiveParam("limit", limitStr, orders.DefaultPageLimit)
	if err != nil {
		return 0, 0, err
	}
	return page, min(limit, orders.MaxPageLimit), nil
}

func positiveParam(name, raw string, fallback int64) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 1 {
		return 0, apperrors.Validation("%s must be a positive integer", name)
	}
	return v, nil
}
