package view

import (
	"strings"

	"github.com/mkarlsen/biolens/pkg/graph"
)

// MissionPlaceholder fills the detail panel's mission line when the record
// carries none. Already uppercase to match the rendered style.
const MissionPlaceholder = "UNSPECIFIED"

// Panel is the detail view opened by clicking a node.
type Panel struct {
	NodeID      string
	Title       string
	Description string
	Status      string
	Duration    string
	Mission     string

	// LinkURL is the resolved external link. When LinkEnabled is false the
	// action is shown disabled rather than hidden.
	LinkURL     string
	LinkEnabled bool
}

// buildPanel assembles the detail view for a node. The external link resolves
// to the first publication URL, falling back to the first dataset URL.
func buildPanel(n *graph.Node) *Panel {
	p := &Panel{
		NodeID:      n.ID,
		Title:       n.Title,
		Description: n.Description,
		Status:      n.Status,
		Duration:    n.Duration,
		Mission:     MissionPlaceholder,
	}
	if n.Mission != "" {
		p.Mission = strings.ToUpper(n.Mission)
	}
	if url, ok := externalLink(n); ok {
		p.LinkURL = url
		p.LinkEnabled = true
	}
	return p
}

func externalLink(n *graph.Node) (string, bool) {
	if len(n.Links.Publications) > 0 {
		return n.Links.Publications[0], true
	}
	if len(n.Links.Datasets) > 0 {
		return n.Links.Datasets[0], true
	}
	return "", false
}
