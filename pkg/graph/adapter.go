package graph

// =============================================================================
// Record - Raw Experiment Wire Format
// =============================================================================

// GraphHints carries optional visualization hints on a raw record.
type GraphHints struct {
	Size        float64 `json:"size,omitempty" bson:"size,omitempty"`
	Connections int     `json:"connections,omitempty" bson:"connections,omitempty"`
}

// Record is a raw experiment record as served by a data source
// (GET /api/experiments). Only ID, Title, Category, Status, Duration, and
// Mission are guaranteed; everything else is optional and defaulted by Build.
type Record struct {
	ID          string      `json:"id" bson:"id"`
	Title       string      `json:"title" bson:"title"`
	Category    string      `json:"category" bson:"category"`
	Status      string      `json:"status" bson:"status"`
	Duration    string      `json:"duration" bson:"duration"`
	Mission     string      `json:"mission" bson:"mission"`
	Summary     string      `json:"summary,omitempty" bson:"summary,omitempty"`
	Description string      `json:"description,omitempty" bson:"description,omitempty"`
	GraphData   *GraphHints `json:"graphData,omitempty" bson:"graph_data,omitempty"`
	Links       *Links      `json:"links,omitempty" bson:"links,omitempty"`
}

// Diagnostics reports data-quality observations from Build that are resolved
// silently rather than raised as errors.
type Diagnostics struct {
	// DroppedEdges counts related-experiment references that named an ID
	// not present in the dataset. The edges are dropped without error;
	// this count is the only trace they leave.
	DroppedEdges int `json:"dropped_edges" bson:"dropped_edges"`
}

// =============================================================================
// Build - Record Normalization
// =============================================================================

// Build converts raw experiment records into the normalized node/edge model.
//
// Normalization rules:
//   - Description falls back to the record summary, then to a fixed
//     placeholder when both are absent.
//   - Size, Connections, and Links get documented defaults when omitted.
//   - One edge is emitted per links.related entry whose target ID exists in
//     the built node set; unresolved references are dropped and counted.
//
// Build is pure: the same input yields the same node order and edge set,
// and it touches no network or shared state.
func Build(records []Record) ([]*Node, []Edge, Diagnostics) {
	nodes := make([]*Node, 0, len(records))
	byID := make(map[string]bool, len(records))

	for _, r := range records {
		n := &Node{
			ID:          r.ID,
			Title:       r.Title,
			Category:    Category(r.Category),
			Status:      r.Status,
			Duration:    r.Duration,
			Mission:     r.Mission,
			Description: description(r),
			Size:        DefaultSize,
			Connections: DefaultConnections,
		}
		if r.GraphData != nil {
			if r.GraphData.Size > 0 {
				n.Size = r.GraphData.Size
			}
			if r.GraphData.Connections > 0 {
				n.Connections = r.GraphData.Connections
			}
		}
		if r.Links != nil {
			n.Links = *r.Links
		}
		nodes = append(nodes, n)
		byID[n.ID] = true
	}

	// Edges are undirected. When two records list each other, only the
	// first occurrence of the pair survives.
	var edges []Edge
	var diag Diagnostics
	seen := make(map[[2]string]bool)
	for _, n := range nodes {
		for _, related := range n.Links.Related {
			if !byID[related] {
				diag.DroppedEdges++
				continue
			}
			pair := [2]string{n.ID, related}
			if related < n.ID {
				pair = [2]string{related, n.ID}
			}
			if seen[pair] {
				continue
			}
			seen[pair] = true
			edges = append(edges, Edge{Source: n.ID, Target: related})
		}
	}

	return nodes, edges, diag
}

// description resolves the display description for a record.
func description(r Record) string {
	if r.Summary != "" {
		return r.Summary
	}
	if r.Description != "" {
		return r.Description
	}
	return DefaultDescription
}
