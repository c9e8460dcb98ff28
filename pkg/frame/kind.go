package frame

// Kind is the frame type discriminator.
type Kind uint8

const (
	KindNone      Kind = iota // Zero value, never produced by a factory
	KindElement               // <div>, <button>, etc.
	KindText                  // Text node
	KindAttribute             // Attribute of the preceding element or component
	KindComponent             // Child component placeholder
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "None"
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	case KindAttribute:
		return "Attribute"
	case KindComponent:
		return "Component"
	default:
		return "Unknown"
	}
}

// IsContainer reports whether frames of this kind root a subtree.
func (k Kind) IsContainer() bool {
	return k == KindElement || k == KindComponent
}
