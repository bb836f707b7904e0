package graph

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// =============================================================================
// Constants - Single Source of Truth
// =============================================================================

// Category identifies the research discipline of an experiment.
type Category string

// Known experiment categories.
const (
	CategoryMicrobiology  Category = "microbiology"
	CategoryPlantStudies  Category = "plant-studies"
	CategoryAnimalStudies Category = "animal-studies"
	CategoryHumanStudies  Category = "human-studies"
	CategoryOther         Category = "other"
)

// Categories lists the known categories in display order.
var Categories = []Category{
	CategoryMicrobiology,
	CategoryPlantStudies,
	CategoryAnimalStudies,
	CategoryHumanStudies,
	CategoryOther,
}

// DefaultColor is the fill used for categories without a palette entry.
const DefaultColor = "#6b7280"

// palette maps each known category to its fixed display color.
// This is the only place colors are defined; every render path goes
// through Category.Color.
var palette = map[Category]string{
	CategoryMicrobiology:  "#8b5cf6",
	CategoryPlantStudies:  "#10b981",
	CategoryAnimalStudies: "#f59e0b",
	CategoryHumanStudies:  "#ef4444",
}

// Color returns the display color for the category.
// Unknown categories get the neutral default rather than an error.
func (c Category) Color() string {
	if color, ok := palette[c]; ok {
		return color
	}
	return DefaultColor
}

// Defaults applied by Build when the source record omits optional fields.
const (
	DefaultSize        = 15.0
	DefaultConnections = 3
	DefaultDescription = "No description available."
)

// =============================================================================
// Node - Normalized Experiment
// =============================================================================

// Links groups the external references an experiment carries.
// Each kind holds an ordered sequence of URLs (or experiment IDs for Related).
type Links struct {
	Related      []string `json:"related,omitempty" bson:"related,omitempty"`
	Publications []string `json:"publications,omitempty" bson:"publications,omitempty"`
	Datasets     []string `json:"datasets,omitempty" bson:"datasets,omitempty"`
}

// Node is a fully-defaulted experiment in the graph.
//
// Identity fields are immutable after Build. Position fields (X, Y) are
// overwritten by every layout pass and by drag gestures; FX/FY hold the
// pinned position and are non-nil only while the node is pinned.
type Node struct {
	ID          string   `json:"id" bson:"id"`
	Title       string   `json:"title" bson:"title"`
	Category    Category `json:"category" bson:"category"`
	Status      string   `json:"status,omitempty" bson:"status,omitempty"`
	Duration    string   `json:"duration,omitempty" bson:"duration,omitempty"`
	Mission     string   `json:"mission,omitempty" bson:"mission,omitempty"`
	Description string   `json:"description" bson:"description"`
	Size        float64  `json:"size" bson:"size"`
	Connections int      `json:"connections" bson:"connections"`
	Links       Links    `json:"links,omitempty" bson:"links,omitempty"`

	// Transient layout state.
	X  float64  `json:"x,omitempty" bson:"x,omitempty"`
	Y  float64  `json:"y,omitempty" bson:"y,omitempty"`
	FX *float64 `json:"fx,omitempty" bson:"fx,omitempty"`
	FY *float64 `json:"fy,omitempty" bson:"fy,omitempty"`
}

// Pin fixes the node at the given position. Pinned nodes are not moved by
// the force simulation and keep their coordinates across ticks.
func (n *Node) Pin(x, y float64) {
	n.X, n.Y = x, y
	n.FX, n.FY = &x, &y
}

// Unpin releases a pinned position. The node keeps its current coordinates
// but becomes free for the simulation to move.
func (n *Node) Unpin() {
	n.FX, n.FY = nil, nil
}

// Pinned reports whether the node has an explicit fixed position.
func (n *Node) Pinned() bool {
	return n.FX != nil && n.FY != nil
}

// =============================================================================
// Edge - Relation Between Experiments
// =============================================================================

// Edge is an undirected relation between two experiments.
// Both endpoints are guaranteed to exist in the node set the edge was
// built against; Build never emits a dangling edge.
type Edge struct {
	Source string `json:"source" bson:"source"`
	Target string `json:"target" bson:"target"`
}

// =============================================================================
// Graph - Serialization Format
// =============================================================================

// Graph is the canonical serialization format for an experiment graph.
// Used for API responses, files, and cache entries.
type Graph struct {
	Nodes []*Node `json:"nodes" bson:"nodes"`
	Edges []Edge  `json:"edges" bson:"edges"`
}

// MarshalGraph serializes a graph to indented JSON bytes.
func MarshalGraph(g Graph) ([]byte, error) {
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode graph: %w", err)
	}
	return data, nil
}

// UnmarshalGraph deserializes JSON bytes to a Graph.
func UnmarshalGraph(data []byte) (Graph, error) {
	var g Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return Graph{}, fmt.Errorf("decode graph: %w", err)
	}
	return g, nil
}

// WriteGraph writes a graph as JSON to an io.Writer.
func WriteGraph(g Graph, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(g); err != nil {
		return fmt.Errorf("encode graph: %w", err)
	}
	return nil
}

// ReadGraphFile reads a JSON file and returns the decoded graph.
func ReadGraphFile(path string) (Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Graph{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalGraph(data)
}
