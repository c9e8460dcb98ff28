// Package frame provides the Frame, the atomic unit of a flattened render tree.
//
// A render tree is stored as a pre-order sequence of frames. Each frame is one
// fixed-size value describing exactly one fact about the tree: an element, a
// text node, an attribute of the nearest preceding element or component, or a
// child component placeholder.
//
// # Kinds
//
// Every frame carries a Kind. The kind selects which field group is live:
//
//	KindElement    Sequence, ElementName, ElementSubtreeLength
//	KindText       Sequence, TextContent
//	KindAttribute  Sequence, AttributeName, AttributeValue
//	KindComponent  Sequence, ComponentType, ComponentSubtreeLength,
//	               ComponentID, ComponentInstance
//
// Accessors for a field group panic with a *MismatchError when called on a
// frame of another kind, in the same way reflect.Value panics when asked for
// a representation it does not hold. Consumers branch on Kind first, or use
// the AsElement/AsText/AsAttribute/AsComponent views which report ok=false.
//
// # Immutability
//
// Frames are values. The With* methods never modify the receiver; they return
// a new frame with one field changed:
//
//	div := frame.Element(0, "div")
//	div = div.WithElementSubtreeLength(3)
//
// # Subtree length
//
// Element and component frames record the number of frames in the subtree
// they root, counting themselves. A length of zero means the subtree is still
// open. The next sibling of a closed container at index i is at i+length.
package frame
