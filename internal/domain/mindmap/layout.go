package mindmap

import "strconv"

const (
	EdgeColor    = "#1EAEDB"
	DefaultColor = "#999999"
)

// Position is a canvas coordinate in pixels.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// band is the affine placement rule for one category: x = X0 + ordinal*StrideX, y = Y0.
type band struct {
	X0, Y0, StrideX float64
	Color           string
}

var bands = map[Category]band{
	CategoryRoot:         {X0: 400, Y0: 50, StrideX: 250, Color: "#1EAEDB"},
	CategoryCore:         {X0: 275, Y0: 200, StrideX: 250, Color: "#33C3F0"},
	CategoryPrerequisite: {X0: 100, Y0: 350, StrideX: 200, Color: "#FF6B6B"},
	CategorySkill:        {X0: 100, Y0: 500, StrideX: 180, Color: "#4ECDC4"},
	CategoryResource:     {X0: 100, Y0: 650, StrideX: 180, Color: "#95E1D3"},
	CategoryProject:      {X0: 500, Y0: 500, StrideX: 200, Color: "#F38181"},
	CategoryCareer:       {X0: 600, Y0: 650, StrideX: 200, Color: "#AA96DA"},
}

// unknown categories share one neutral band below the others
var fallback = band{X0: 100, Y0: 800, StrideX: 180, Color: DefaultColor}

func bandFor(c Category) band {
	if b, ok := bands[c]; ok {
		return b
	}
	return fallback
}

// Place is the pure placement rule for the ordinal-th node of a category.
func Place(c Category, ordinal int) Position {
	b := bandFor(c)
	return Position{X: b.X0 + float64(ordinal)*b.StrideX, Y: b.Y0}
}

// Stride returns the horizontal distance between neighbours of a category.
func Stride(c Category) float64 { return bandFor(c).StrideX }

// Color returns the display color of a category.
func Color(c Category) string { return bandFor(c).Color }

type PlacedNode struct {
	Node
	Position Position `json:"position"`
	Color    string   `json:"color"`
}

type PlacedEdge struct {
	ID    string `json:"id"`
	From  string `json:"from"`
	To    string `json:"to"`
	Color string `json:"color"`
}

type Layout struct {
	Nodes  []PlacedNode `json:"nodes"`
	Edges  []PlacedEdge `json:"edges"`
	Width  float64      `json:"width"`
	Height float64      `json:"height"`
}

// Arrange positions every node by category and per-category ordinal. Ordinals
// count from zero in node order and reset on each call. Edges do not affect placement.
func Arrange(g *Graph) Layout {
	counters := make(map[Category]int)
	out := Layout{
		Nodes: make([]PlacedNode, 0, len(g.Nodes)),
		Edges: make([]PlacedEdge, 0, len(g.Edges)),
	}
	for _, n := range g.Nodes {
		i := counters[n.Category]
		counters[n.Category] = i + 1
		p := Place(n.Category, i)
		out.Nodes = append(out.Nodes, PlacedNode{Node: n, Position: p, Color: Color(n.Category)})
		if p.X > out.Width {
			out.Width = p.X
		}
		if p.Y > out.Height {
			out.Height = p.Y
		}
	}
	for i, e := range g.Edges {
		out.Edges = append(out.Edges, PlacedEdge{
			ID:    "edge-" + strconv.Itoa(i),
			From:  e.From,
			To:    e.To,
			Color: EdgeColor,
		})
	}
	return out
}

