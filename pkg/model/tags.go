package model

import (
	"sort"
	"strings"
)

// GenreKey is the tag holding the set of genres of a track
const GenreKey = "genre"

// Tags is a tag document: every value is an ordered sequence of strings
type Tags map[string][]string

// Clone performs a deep copy of the tags
func (t Tags) Clone() Tags {
	res := make(Tags, len(t))
	for k, v := range t {
		res[k] = cloneValue(v)
	}
	return res
}

func cloneValue(v []string) []string {
	res := make([]string, len(v))
	copy(res, v)
	return res
}

// First value held for some key, or the empty string
func (t Tags) First(key string) string {
	v := t[key]
	if len(v) == 0 {
		return ""
	}
	return v[0]
}

// Keys of the document, sorted
func (t Tags) Keys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Equal compares two documents key by key, regardless of the order of values
func (t Tags) Equal(other Tags) bool {
	if len(t) != len(other) {
		return false
	}
	for k, v := range t {
		w, ok := other[k]
		if !ok {
			return false
		}
		if !sameMultiset(v, w) {
			return false
		}
	}
	return true
}

// Normalize returns a copy of the tags with genres normalized
func (t Tags) Normalize() Tags {
	res := t.Clone()
	for k, v := range res {
		if IsGenreKey(k) {
			res[k] = NormalizeGenre(v)
		}
	}
	return res
}

// IsGenreKey tells if a tag key designates genres
func IsGenreKey(key string) bool {
	return strings.EqualFold(key, GenreKey)
}

// NormalizeGenre splits comma-separated genres, trims them, drops empty ones
// and returns a sorted list without duplicates.
//
// NormalizeGenre(NormalizeGenre(x)) == NormalizeGenre(x)
func NormalizeGenre(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	res := make([]string, 0, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			genre := strings.TrimSpace(part)
			if genre == "" {
				continue
			}
			if _, ok := seen[genre]; ok {
				continue
			}
			seen[genre] = struct{}{}
			res = append(res, genre)
		}
	}
	sort.Strings(res)
	return res
}

func counts(v []string) map[string]int {
	res := make(map[string]int, len(v))
	for _, item := range v {
		res[item]++
	}
	return res
}

func sameMultiset(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	ca := counts(a)
	for _, item := range b {
		ca[item]--
		if ca[item] < 0 {
			return false
		}
	}
	return true
}
