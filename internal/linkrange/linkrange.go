// Package linkrange finds the maximal run of sibling nodes that share one
// internal link value around a position.
package linkrange

import (
	"github.com/mesh-intelligence/internallink/pkg/model"
	"github.com/mesh-intelligence/internallink/pkg/types"
)

// Find returns the range covering the entire link run in which pos is
// placed, using the internal link attribute. When no neighbouring node
// carries value the range collapses to pos; callers treat that as "no run".
func Find(pos model.Position, value string) model.Range {
	return FindByKey(pos, types.LinkAttribute, value)
}

// FindByKey is Find for an arbitrary attribute key.
func FindByKey(pos model.Position, key, value string) model.Range {
	return model.Range{
		Start: bound(pos, key, value, true),
		End:   bound(pos, key, value, false),
	}
}

// bound walks backward or forward, node by node, while the siblings carry
// value, and returns the position just before or after the last match.
// A position inside a text node starts from that text node in both
// directions.
func bound(pos model.Position, key, value string, backward bool) model.Position {
	node := pos.TextNode()
	if node == nil {
		if backward {
			node = pos.NodeBefore()
		} else {
			node = pos.NodeAfter()
		}
	}

	var last *model.Node
	for node != nil && matches(node, key, value) {
		last = node
		if backward {
			node = node.PreviousSibling()
		} else {
			node = node.NextSibling()
		}
	}

	switch {
	case last == nil:
		return pos
	case backward:
		return model.Before(last)
	default:
		return model.After(last)
	}
}

func matches(n *model.Node, key, value string) bool {
	v, ok := n.Attr(key)
	return ok && v == value
}
