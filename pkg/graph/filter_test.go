package graph

import (
	"reflect"
	"testing"
)

func nodesByID(nodes []*Node) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}

func TestSelect(t *testing.T) {
	nodes := []*Node{
		{ID: "1", Category: CategoryMicrobiology},
		{ID: "2", Category: CategoryPlantStudies},
		{ID: "3", Category: CategoryMicrobiology},
	}
	edges := []Edge{
		{Source: "1", Target: "2"},
		{Source: "1", Target: "3"},
	}

	tests := []struct {
		name      string
		filter    Filter
		wantNodes []string
		wantEdges []Edge
	}{
		{
			name:      "All",
			filter:    FilterAll,
			wantNodes: []string{"1", "2", "3"},
			wantEdges: edges,
		},
		{
			name:      "Category",
			filter:    Filter(CategoryMicrobiology),
			wantNodes: []string{"1", "3"},
			wantEdges: []Edge{{Source: "1", Target: "3"}},
		},
		{
			name:      "CategoryWithoutMembers",
			filter:    Filter(CategoryHumanStudies),
			wantNodes: []string{},
			wantEdges: []Edge{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotNodes, gotEdges := Select(nodes, edges, tt.filter)

			if got := nodesByID(gotNodes); !reflect.DeepEqual(got, tt.wantNodes) {
				t.Errorf("nodes = %v, want %v", got, tt.wantNodes)
			}
			if len(gotEdges) != len(tt.wantEdges) {
				t.Fatalf("edges = %v, want %v", gotEdges, tt.wantEdges)
			}
			for i := range gotEdges {
				if gotEdges[i] != tt.wantEdges[i] {
					t.Errorf("edge %d = %+v, want %+v", i, gotEdges[i], tt.wantEdges[i])
				}
			}
		})
	}
}

// Select must be a pure view: node pointers are shared, membership and order
// of the inputs never change, and repeated calls yield the same result.
func TestSelectIsPure(t *testing.T) {
	nodes := []*Node{
		{ID: "1", Category: CategoryMicrobiology},
		{ID: "2", Category: CategoryPlantStudies},
	}
	edges := []Edge{{Source: "1", Target: "2"}}

	first, _ := Select(nodes, edges, Filter(CategoryMicrobiology))
	second, _ := Select(nodes, edges, Filter(CategoryMicrobiology))

	if len(nodes) != 2 || len(edges) != 1 {
		t.Error("Select mutated its inputs")
	}
	if first[0] != nodes[0] {
		t.Error("Select should share node pointers, not copy nodes")
	}
	if !reflect.DeepEqual(nodesByID(first), nodesByID(second)) {
		t.Error("repeated Select calls should agree")
	}
}

func TestFilterMatches(t *testing.T) {
	if !FilterAll.Matches(CategoryOther) {
		t.Error("FilterAll should match every category")
	}
	if !Filter(CategoryPlantStudies).Matches(CategoryPlantStudies) {
		t.Error("category filter should match its own category")
	}
	if Filter(CategoryPlantStudies).Matches(CategoryHumanStudies) {
		t.Error("category filter should not match other categories")
	}
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Filter
		wantErr bool
	}{
		{"empty means all", "", FilterAll, false},
		{"explicit all", "all", FilterAll, false},
		{"known category", "microbiology", Filter(CategoryMicrobiology), false},
		{"unknown category", "astrology", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFilter(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseFilter(%q) succeeded, want error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFilter(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseFilter(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
