package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxIDList bounds the IDs accepted in one filter or association list. It
// keeps IN clauses well under SQLite's bound-variable limit.
const MaxIDList = 1000

// RecipeFilter selects the recipes a list returns.
//
// Within a dimension IDs are "any-of"; when both dimensions are set a
// recipe must match at least one tag AND at least one ingredient. An empty
// slice means the dimension is not filtered.
type RecipeFilter struct {
	OwnerID       int64
	TagIDs        []int64
	IngredientIDs []int64
}

// ParseIDList parses a comma-separated list of positive integer IDs.
//
// Empty or whitespace-only input yields nil (no filter). Blank tokens are
// skipped and duplicates dropped, keeping first-seen order. Any token that
// is not a positive integer fails the whole list, as do more than MaxIDList
// distinct IDs.
func ParseIDList(raw string) ([]int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var ids []int64
	seen := make(map[int64]struct{})
	for tok := range strings.SplitSeq(raw, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		n, err := strconv.ParseInt(tok, 10, 64)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid id %q", tok)
		}
		if _, ok := seen[n]; ok {
			continue
		}
		if len(ids) == MaxIDList {
			return nil, fmt.Errorf("ensure this list has no more than %d ids", MaxIDList)
		}
		seen[n] = struct{}{}
		ids = append(ids, n)
	}
	return ids, nil
}

// UniqueIDs returns ids without duplicates, keeping first-seen order.
// A nil input stays nil so "not supplied" survives.
func UniqueIDs(ids []int64) []int64 {
	if ids == nil {
		return nil
	}
	out := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
