// Package treefile loads declarative tree documents and replays them into a
// tree.Builder.
//
// A document is YAML (JSON is accepted as a subset):
//
//	tree:
//	  - element: div
//	    attributes:
//	      class: box
//	      onclick: increment
//	    children:
//	      - text: Count
//	      - component: Counter
//	        bind: 7
//	        attributes:
//	          start: 1
//
// Each node sets exactly one of element, text or component. Attributes are
// emitted in name order. Event attributes (onclick, oninput, ...) with a
// string value become callbacks holding a HandlerRef. Component names are
// resolved through a Registry; a non-zero bind attaches a fresh instance of
// the registered type under that id.
package treefile
