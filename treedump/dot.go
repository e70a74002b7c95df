// Package treedump renders a search tree snapshot as Graphviz DOT, for the
// -dump-dot debug flag.
package treedump

import (
	"fmt"

	"github.com/alphabeth/puctsearch/mcts"
	"github.com/awalterschulze/gographviz"
)

// DOT builds a directed graph of t's root children, labeling each with its
// action, visit count, and Q value. It only covers the nodes mcts.Tree.Snapshot
// exposes - one level deep - since a full tree dump is unreadable past a
// few thousand nodes anyway.
func DOT(snapshot []mcts.NodeSnapshot) (string, error) {
	graph := gographviz.NewGraph()
	if err := graph.SetName("tree"); err != nil {
		return "", fmt.Errorf("treedump: set graph name: %w", err)
	}
	if err := graph.SetDir(true); err != nil {
		return "", fmt.Errorf("treedump: set directed: %w", err)
	}

	if err := graph.AddNode("tree", "root", map[string]string{
		"label": `"root"`,
		"shape": "box",
	}); err != nil {
		return "", fmt.Errorf("treedump: add root node: %w", err)
	}

	for i, n := range snapshot {
		name := fmt.Sprintf("n%d", i)
		label := fmt.Sprintf(`"%s\nN=%d Q=%.3f P=%.3f"`, n.Action, n.N, n.Q, n.P)

		if err := graph.AddNode("tree", name, map[string]string{"label": label}); err != nil {
			return "", fmt.Errorf("treedump: add node %s: %w", name, err)
		}
		if err := graph.AddEdge("root", name, true, nil); err != nil {
			return "", fmt.Errorf("treedump: add edge to %s: %w", name, err)
		}
	}

	return graph.String(), nil
}
