// Package fallback implements the ordered-candidate resolution strategy
// shared by search, chart retrieval, and the date-stamped bulk endpoints:
// try each attempt in order, accept the first usable result, never merge.
package fallback

import "context"

// Attempt produces one candidate result. An attempt that fails should
// return an error or a value its Accept predicate rejects.
type Attempt[T any] func(ctx context.Context) (T, error)

// Accept reports whether a candidate result is usable. A nil Accept
// accepts any result whose attempt returned no error.
type Accept[T any] func(T) bool

// Resolve tries each attempt in order and returns the first result that
// produced no error and passes ok. Later attempts are never invoked once
// one succeeds. On exhaustion it returns the zero value and false; no
// provider is more authoritative than another, so exhaustion is an
// empty-result condition, not an error.
func Resolve[T any](ctx context.Context, ok Accept[T], attempts ...Attempt[T]) (T, bool) {
	var zero T
	for _, attempt := range attempts {
		if ctx.Err() != nil {
			return zero, false
		}
		result, err := attempt(ctx)
		if err != nil {
			continue
		}
		if ok != nil && !ok(result) {
			continue
		}
		return result, true
	}
	return zero, false
}

// NonEmpty accepts any slice with at least one element. It is the Accept
// predicate for every fetchMany-shaped fallback chain.
func NonEmpty[E any](s []E) bool {
	return len(s) > 0
}

// NotNil accepts any non-nil pointer, for fetchOne-shaped chains.
func NotNil[E any](p *E) bool {
	return p != nil
}

// OverDates builds one attempt per date stamp from a date-keyed fetch,
// for bulk endpoints where the most recent business day's data may not
// exist yet.
func OverDates[T any](dates []string, fetch func(ctx context.Context, date string) (T, error)) []Attempt[T] {
	attempts := make([]Attempt[T], len(dates))
	for i, date := range dates {
		d := date
		attempts[i] = func(ctx context.Context) (T, error) {
			return fetch(ctx, d)
		}
	}
	return attempts
}
