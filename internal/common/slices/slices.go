package slices

import "math"

// Map returns a new slice holding mapFunc applied to every element of s.
func Map[S ~[]E, E any, V any](s S, mapFunc func(E) V) []V {
	if s == nil {
		return nil
	}
	rv := make([]V, len(s))
	for i, e := range s {
		rv[i] = mapFunc(e)
	}
	return rv
}

// Filter returns the elements of s for which predicate is true, preserving order.
func Filter[S ~[]E, E any](s S, predicate func(E) bool) S {
	if s == nil {
		return nil
	}
	rv := make(S, 0, len(s))
	for _, e := range s {
		if predicate(e) {
			rv = append(rv, e)
		}
	}
	return rv
}

// Indices returns the positions i of s for which predicate(s[i]) is true.
func Indices[S ~[]E, E any](s S, predicate func(E) bool) []int {
	rv := make([]int, 0, len(s))
	for i, e := range s {
		if predicate(e) {
			rv = append(rv, i)
		}
	}
	return rv
}

// GroupByFunc groups the elements e_1, ..., e_n of s into separate slices by keyFunc(e).
func GroupByFunc[S ~[]E, E any, K comparable](s S, keyFunc func(E) K) map[K]S {
	rv := make(map[K]S)
	for _, e := range s {
		k := keyFunc(e)
		rv[k] = append(rv[k], e)
	}
	return rv
}

// ArgMin returns the index of the smallest element of s, preferring the lowest index on ties.
// NaN elements are never selected unless every element is NaN. Panics if s is empty.
func ArgMin(s []float64) int {
	if len(s) == 0 {
		panic("ArgMin of empty slice")
	}
	rv := 0
	for i := 1; i < len(s); i++ {
		if s[i] < s[rv] || (math.IsNaN(s[rv]) && !math.IsNaN(s[i])) {
			rv = i
		}
	}
	return rv
}

// Fill returns a slice T[] of length n with all elements equal to v.
func Fill[T any](v T, n int) []T {
	rv := make([]T, n)
	for i := range rv {
		rv[i] = v
	}
	return rv
}
