/*package tree builds Barnes-Hut octrees over particle slices and serializes
them into the flat form consumed by a force kernel.

A tree is rebuilt from scratch every step. Nodes live in a fixed-capacity
Arena and refer to each other by arena index; index 0 is always the root and
is never a child, so 0 doubles as the "no child" marker in the Children
arrays of both node forms.
*/
package tree

import (
	"github.com/gravitree/gravitree/geom"
)

// Node is the in-arena form of an octree cell. A Node with Bodies == 1 is a
// leaf and Body holds the index of its particle in the source slice; Body is
// meaningless otherwise. COG is the mass-weighted average position of every
// body under the cell.
type Node struct {
	COG      geom.Vec
	Mass     float32
	Bodies   uint32
	Body     uint32
	Children [8]uint32
}

// FlatNode is the wire form of an octree cell: a fixed-size record whose
// Children entries are absolute indices into the flattened array. The
// pre-order layout guarantees every child index is greater than its
// parent's.
type FlatNode struct {
	COG      geom.Vec
	Mass     float32
	Bodies   uint32
	Children [8]uint32
}

// Leaf returns true if the node represents exactly one body.
func (n *Node) Leaf() bool { return n.Bodies == 1 }
