// Package funcs holds small pure helpers shared across the SDK.
package funcs

import (
	"context"
	"strings"
	"time"
	"unicode"
)

// GetInitials returns the uppercased initials for a display name: the first
// character for a single-token name, the first characters of the first two
// tokens otherwise. Empty and whitespace-only names yield "".
func GetInitials(name string) string {
	if name == "" {
		return ""
	}
	parts := strings.Split(name, " ")
	if len(parts) == 1 {
		return firstUpper(parts[0])
	}
	return firstUpper(parts[0]) + firstUpper(parts[1])
}

func firstUpper(s string) string {
	for _, r := range s {
		return string(unicode.ToUpper(r))
	}
	return ""
}

// Promisify delivers value on the returned channel after delay. It never
// fails; it exists to simulate backend latency in fixture mode.
func Promisify[T any](value T, delay time.Duration) <-chan T {
	ch := make(chan T, 1)
	go func() {
		if delay > 0 {
			time.Sleep(delay)
		}
		ch <- value
	}()
	return ch
}

// Sleep blocks for d or until ctx is done, returning ctx.Err() in the
// latter case.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Remap linearly rescales v from domain to newDomain. A degenerate domain
// (equal endpoints) propagates the IEEE-754 result (±Inf or NaN) rather
// than guarding it; callers that cannot tolerate non-finite output must
// check the domain themselves.
func Remap(v float64, domain, newDomain [2]float64) float64 {
	return newDomain[0] + (v-domain[0])*((newDomain[1]-newDomain[0])/(domain[1]-domain[0]))
}

// ListGenerate builds a slice of length n where element i is generator(i).
// Non-positive n yields nil.
func ListGenerate[T any](n int, generator func(i int) T) []T {
	if n <= 0 {
		return nil
	}
	list := make([]T, 0, n)
	for i := 0; i < n; i++ {
		list = append(list, generator(i))
	}
	return list
}
