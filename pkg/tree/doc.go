// Package tree builds, traverses and publishes flattened render trees.
//
// # Building
//
// A Builder appends frames in pre-order and patches container frames with
// their subtree length when they are closed:
//
//	b := tree.NewBuilder()
//	b.OpenElement(0, "div")
//	b.AddAttribute(1, "class", "red")
//	b.AddText(2, "Hi")
//	b.CloseElement()
//	seq, err := b.Build()
//
// Attributes must directly follow the element or component they belong to.
//
// # Traversal
//
// Sequence is immutable. NextSibling skips a whole closed subtree in O(1) using
// the subtree length of its root; an open subtree is reported as
// ErrOpenSubtree rather than treated as empty.
//
// # Publishing
//
// Store swaps snapshots atomically so a differ reading Load() always sees a
// fully built current sequence and the previous one it replaced.
package tree
