package present

import (
	"io"
	"sort"

	"github.com/bryanwahyu/skillscope/internal/domain/mindmap"
)

var categoryTitles = map[mindmap.Category]string{
	mindmap.CategoryCore:         "Core concepts",
	mindmap.CategoryPrerequisite: "Prerequisites",
	mindmap.CategorySkill:        "Skills",
	mindmap.CategoryResource:     "Resources",
	mindmap.CategoryProject:      "Projects",
	mindmap.CategoryCareer:       "Career paths",
}

// WriteMindMap prints the root and then one group per category in layout
// band order, each node with its computed position.
func WriteMindMap(w io.Writer, g *mindmap.Graph) error {
	p := &printer{w: w}
	l := mindmap.Arrange(g)

	groups := make(map[mindmap.Category][]mindmap.PlacedNode)
	var order []mindmap.Category
	for _, n := range l.Nodes {
		if _, ok := groups[n.Category]; !ok {
			order = append(order, n.Category)
		}
		groups[n.Category] = append(groups[n.Category], n)
	}
	sort.SliceStable(order, func(i, j int) bool { return rank(order[i]) < rank(order[j]) })

	for _, c := range order {
		title, ok := categoryTitles[c]
		if c == mindmap.CategoryRoot {
			for _, n := range groups[c] {
				p.linef("%s (%s)", n.Label, n.Color)
			}
			continue
		}
		if !ok {
			title = "Other (" + string(c) + ")"
		}
		p.linef("")
		p.linef("%s", title)
		for _, n := range groups[c] {
			if n.Description != "" {
				p.linef("  - %s: %s  @(%.0f,%.0f)", n.Label, n.Description, n.Position.X, n.Position.Y)
			} else {
				p.linef("  - %s  @(%.0f,%.0f)", n.Label, n.Position.X, n.Position.Y)
			}
		}
	}
	p.linef("")
	p.linef("%d nodes, %d links", len(l.Nodes), len(l.Edges))
	return p.err
}

func rank(c mindmap.Category) int {
	for i, k := range mindmap.Categories {
		if k == c {
			return i
		}
	}
	return len(mindmap.Categories)
}
