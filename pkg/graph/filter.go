package graph

import "github.com/mkarlsen/biolens/pkg/errors"

// Filter selects the visible subset of a graph: either all nodes or
// exactly one category value.
type Filter string

// FilterAll passes every node through unchanged.
const FilterAll Filter = "all"

// ParseFilter validates a user-supplied filter string. Empty means all.
func ParseFilter(s string) (Filter, error) {
	if s == "" || s == string(FilterAll) {
		return FilterAll, nil
	}
	for _, c := range Categories {
		if s == string(c) {
			return Filter(s), nil
		}
	}
	return "", errors.New(errors.ErrCodeInvalidFilter, "unknown category filter: %s", s)
}

// Matches reports whether a node with the given category survives the filter.
func (f Filter) Matches(c Category) bool {
	return f == FilterAll || Category(f) == c
}

// Select derives the filtered subgraph for a category predicate.
//
// For FilterAll both sets are returned unchanged, same membership and order.
// For a category filter, nodes with a matching category survive, and an edge
// survives only when both endpoints do. The inputs are never mutated; the
// returned slices are disposable views sharing the same node pointers, so a
// later layout pass positions the original nodes.
func Select(nodes []*Node, edges []Edge, f Filter) ([]*Node, []Edge) {
	if f == FilterAll {
		return nodes, edges
	}

	visible := make([]*Node, 0, len(nodes))
	keep := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		if f.Matches(n.Category) {
			visible = append(visible, n)
			keep[n.ID] = true
		}
	}

	visEdges := make([]Edge, 0, len(edges))
	for _, e := range edges {
		if keep[e.Source] && keep[e.Target] {
			visEdges = append(visEdges, e)
		}
	}

	return visible, visEdges
}
