// Package layout packs frame sequences into a fixed-width binary image.
//
// The in-process frame.Frame uses native Go types whose size depends on the
// pointer width of the host. An Image is the explicit, platform-independent
// form: every frame becomes one record of exactly RecordSize bytes with the
// same field offsets on every GOARCH, so an external reader can walk the
// records through a shared memory view.
//
// # Record Format
//
// All fields are little-endian and 32 bits wide, except the kind and flags
// bytes:
//
//	┌──────────┬──────┬───────┬──────────┬──────────┬──────────┬──────────┬──────────┐
//	│ Sequence │ Kind │ Flags │ Reserved │ Length   │ Str      │ Ref      │ Handle   │
//	│ int32    │ u8   │ u8    │ u16      │ int32    │ int32    │ int32    │ int32    │
//	└──────────┴──────┴───────┴──────────┴──────────┴──────────┴──────────┴──────────┘
//	  0          4      5       6          8          12         16         20
//
// The field meanings overlap by kind:
//
//	Element    Length=subtree length  Str=name
//	Text                              Str=content
//	Attribute                         Str=name   Ref=value or callback handle
//	Component  Length=subtree length  Str=type   Ref=component id  Handle=instance
//
// Str indexes the image string table. A plain attribute value is stored
// msgpack-encoded in the value heap and Ref indexes it; a callback is stored
// in the handle table and Ref is its 1-based handle. Handles refer to
// in-process objects and are not part of the encoded bytes.
//
// # Image Format
//
//	[Magic "RTFR"][Version u16][RecordSize u16][Records u32][Strings u32][Values u32]
//	[Strings: (len u32, bytes)...][Values: (len u32, msgpack)...][Records...]
//
// # Reading
//
// View exposes records through accessors that check the record kind and
// return an error on mismatch, so a reader can never reinterpret one kind's
// fields as another's.
//
// msgpack does not carry Go types, so Record.AttributeValue returns plain
// values in normalized form: signed and small integers as int64, unsigned
// integers beyond the int64 range as uint64, floats as float64, slices as
// []any and maps as map[string]any. Strings, bools and []byte keep their
// type. Use Record.DecodeValue to decode into a concrete type.
package layout
