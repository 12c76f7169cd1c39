package common

import "time"

// Freshness TTLs per data component, sized to upstream volatility.
const (
	FreshnessQuote       = 30 * time.Second
	FreshnessSearch      = 1 * time.Minute
	FreshnessChart       = 5 * time.Minute
	FreshnessFilings     = 5 * time.Minute
	FreshnessMarketIndex = 1 * time.Minute
	FreshnessFX          = 5 * time.Minute
	FreshnessMacroLatest = 30 * time.Minute
	FreshnessMacroSeries = 1 * time.Hour
	FreshnessFinancials  = 1 * time.Hour
	FreshnessCompany     = 24 * time.Hour
	FreshnessRanking     = 30 * time.Minute
	FreshnessReference   = 24 * time.Hour
)

// IsFresh returns true if the given timestamp is within the TTL
func IsFresh(updated time.Time, ttl time.Duration) bool {
	if updated.IsZero() {
		return false
	}
	return time.Since(updated) < ttl
}
