package pagination

import "strconv"

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 25
	// MaxLimit caps how many rows any list query can request.
	MaxLimit = 100
)

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// ParseLimit reads a raw query value; blank or malformed input yields the
// default.
func ParseLimit(raw string) int {
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return DefaultLimit
	}
	return NormalizeLimit(limit)
}
