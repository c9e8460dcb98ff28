// Package errors provides structured, coded errors for rendertree.
//
// Every error raised by the builder, the layout packer, configuration loading
// or the CLI carries a code (e.g., "F103") that maps to a category, a short
// message and a longer explanation in the registry.
//
// # Error Categories
//
//   - builder: the frame builder was driven out of order
//   - traversal: a sequence was walked through an open or malformed subtree
//   - layout: packing or reading a fixed-width frame image failed
//   - config: configuration could not be read or is invalid
//   - cli: command-line usage errors
//
// # Usage
//
//	err := errors.New("F101").
//	    WithDetail("attribute \"class\" follows a text frame").
//	    WithSuggestion("Add attributes immediately after OpenElement")
//
//	fmt.Print(err.Format())
//	// Output:
//	//
//	// ERROR F101: Attribute added outside an open element or component
//	//
//	//   attribute "class" follows a text frame
//	//
//	//   Hint: Add attributes immediately after OpenElement
package errors
