package mindmap

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bryanwahyu/skillscope/internal/domain/ai"
)

// ErrMalformedGraph is returned when a completion cannot be parsed into a Graph.
// It also matches ai.ErrUpstreamShape.
var ErrMalformedGraph = fmt.Errorf("malformed mind map: %w", ai.ErrUpstreamShape)

type Category string

const (
	CategoryRoot         Category = "root"
	CategoryCore         Category = "core"
	CategoryPrerequisite Category = "prerequisite"
	CategorySkill        Category = "skill"
	CategoryResource     Category = "resource"
	CategoryProject      Category = "project"
	CategoryCareer       Category = "career"
)

// Categories in prompt order.
var Categories = []Category{
	CategoryRoot, CategoryCore, CategoryPrerequisite, CategorySkill,
	CategoryResource, CategoryProject, CategoryCareer,
}

func (c Category) Known() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

type Node struct {
	ID          string   `json:"id"`
	Label       string   `json:"label"`
	Category    Category `json:"category"`
	Description string   `json:"description,omitempty"`
}

type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Report counts what Normalize removed.
type Report struct {
	DroppedNodes int
	DroppedEdges int
}

// Parse strips code fences from a completion and decodes it as a Graph,
// then normalizes it. Failures wrap ErrMalformedGraph.
func Parse(content string) (*Graph, Report, error) {
	body := StripCodeFence(content)
	if body == "" {
		return nil, Report{}, fmt.Errorf("empty completion: %w", ErrMalformedGraph)
	}
	var g Graph
	if err := json.Unmarshal([]byte(body), &g); err != nil {
		return nil, Report{}, fmt.Errorf("decode: %v: %w", err, ErrMalformedGraph)
	}
	rep, err := g.Normalize()
	if err != nil {
		return nil, rep, err
	}
	return &g, rep, nil
}

// Normalize trims fields, drops nodes without an id or with a duplicate id,
// and drops edges whose endpoints do not name a kept node. Self edges are
// dropped and duplicate edges collapse to the first occurrence. A graph left
// without nodes or without a root node is malformed.
func (g *Graph) Normalize() (Report, error) {
	var rep Report
	seen := make(map[string]struct{}, len(g.Nodes))
	nodes := make([]Node, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		n.ID = strings.TrimSpace(n.ID)
		if n.ID == "" {
			rep.DroppedNodes++
			continue
		}
		if _, dup := seen[n.ID]; dup {
			rep.DroppedNodes++
			continue
		}
		seen[n.ID] = struct{}{}
		n.Label = strings.TrimSpace(n.Label)
		if n.Label == "" {
			n.Label = n.ID
		}
		n.Category = Category(strings.ToLower(strings.TrimSpace(string(n.Category))))
		n.Description = strings.TrimSpace(n.Description)
		nodes = append(nodes, n)
	}
	if len(nodes) == 0 {
		return rep, fmt.Errorf("no nodes: %w", ErrMalformedGraph)
	}
	hasRoot := false
	for _, n := range nodes {
		hasRoot = hasRoot || n.Category == CategoryRoot
	}
	if !hasRoot {
		return rep, fmt.Errorf("no root node: %w", ErrMalformedGraph)
	}

	edges := make([]Edge, 0, len(g.Edges))
	seenEdge := make(map[Edge]struct{}, len(g.Edges))
	for _, e := range g.Edges {
		e.From, e.To = strings.TrimSpace(e.From), strings.TrimSpace(e.To)
		_, okFrom := seen[e.From]
		_, okTo := seen[e.To]
		if !okFrom || !okTo || e.From == e.To {
			rep.DroppedEdges++
			continue
		}
		if _, dup := seenEdge[e]; dup {
			rep.DroppedEdges++
			continue
		}
		seenEdge[e] = struct{}{}
		edges = append(edges, e)
	}
	g.Nodes, g.Edges = nodes, edges
	return rep, nil
}

// Root returns the first root node, if any.
func (g *Graph) Root() (Node, bool) {
	for _, n := range g.Nodes {
		if n.Category == CategoryRoot {
			return n, true
		}
	}
	return Node{}, false
}

// StripCodeFence removes a surrounding ``` or ```json fence and any prose
// around the outermost JSON object. Clean JSON is returned unchanged apart from
// surrounding whitespace.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if i := strings.IndexByte(s, '\n'); i >= 0 && !strings.HasPrefix(strings.TrimSpace(s[:i]), "{") {
			s = s[i+1:]
		} else {
			s = strings.TrimPrefix(strings.TrimPrefix(s, "json"), "JSON")
		}
		s = strings.TrimSpace(s)
	}
	s = strings.TrimSpace(strings.TrimSuffix(s, "```"))
	if strings.HasPrefix(s, "{") {
		return s
	}
	start, end := strings.IndexByte(s, '{'), strings.LastIndexByte(s, '}')
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}
