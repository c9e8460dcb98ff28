package tree

import (
	"github.com/vango-dev/rendertree/internal/errors"
	"github.com/vango-dev/rendertree/pkg/frame"
)

// Traversal errors. Returned errors match these with errors.Is.
var (
	ErrOpenSubtree error = errors.New("F150")
	ErrOutOfRange  error = errors.New("F151")
	ErrMalformed   error = errors.New("F152")
)

func openSubtree(i int) error {
	return errors.New("F150").WithDetailf("frame %d has subtree length 0", i)
}

func outOfRange(i, n int) error {
	return errors.New("F151").WithDetailf("index %d, length %d", i, n)
}

func malformed(format string, args ...any) error {
	return errors.New("F152").WithDetailf(format, args...)
}

// Sequence is an immutable, pre-order flattened render tree.
//
// A Sequence never changes once created; it is safe to share between
// goroutines and to read concurrently.
type Sequence struct {
	frames []frame.Frame
}

// NewSequence returns a Sequence holding a copy of frames.
func NewSequence(frames []frame.Frame) Sequence {
	if len(frames) == 0 {
		return Sequence{}
	}
	cp := make([]frame.Frame, len(frames))
	copy(cp, frames)
	return Sequence{frames: cp}
}

// Len returns the number of frames.
func (s Sequence) Len() int { return len(s.frames) }

// At returns the frame at index i. It panics if i is out of range.
func (s Sequence) At(i int) frame.Frame { return s.frames[i] }

// Frames returns a copy of the frames.
func (s Sequence) Frames() []frame.Frame {
	return NewSequence(s.frames).frames
}

func (s Sequence) check(i int) error {
	if i < 0 || i >= len(s.frames) {
		return outOfRange(i, len(s.frames))
	}
	return nil
}

// NextSibling returns the index just past the subtree rooted at i.
//
// For text and attribute frames that is i+1. For element and component frames
// it is i plus the subtree length; an open container (length 0) yields
// ErrOpenSubtree. The result may equal Len().
func (s Sequence) NextSibling(i int) (int, error) {
	if err := s.check(i); err != nil {
		return 0, err
	}
	f := s.frames[i]
	if !f.Kind().IsContainer() {
		return i + 1, nil
	}
	n := int(f.SubtreeLength())
	if n == 0 {
		return 0, openSubtree(i)
	}
	end := i + n
	if end > len(s.frames) {
		return 0, malformed("subtree at %d ends at %d past sequence length %d", i, end, len(s.frames))
	}
	return end, nil
}

// Subtree returns the frames of the closed subtree rooted at i, root included.
func (s Sequence) Subtree(i int) (Sequence, error) {
	end, err := s.NextSibling(i)
	if err != nil {
		return Sequence{}, err
	}
	return Sequence{frames: s.frames[i:end:end]}, nil
}

// Attributes returns the attribute frames owned by the container at i.
// Text and attribute frames own no attributes.
func (s Sequence) Attributes(i int) (Sequence, error) {
	if err := s.check(i); err != nil {
		return Sequence{}, err
	}
	if !s.frames[i].Kind().IsContainer() {
		return Sequence{}, nil
	}
	end := i + 1
	for end < len(s.frames) && s.frames[end].Kind() == frame.KindAttribute {
		end++
	}
	return Sequence{frames: s.frames[i+1 : end : end]}, nil
}

// Children returns the indices of the direct, non-attribute children of the
// container at i, skipping each child's subtree in O(1).
func (s Sequence) Children(i int) ([]int, error) {
	end, err := s.NextSibling(i)
	if err != nil {
		return nil, err
	}
	var children []int
	for j := i + 1; j < end; {
		if s.frames[j].Kind() == frame.KindAttribute {
			j++
			continue
		}
		children = append(children, j)
		next, err := s.NextSibling(j)
		if err != nil {
			return nil, err
		}
		if next > end {
			return nil, malformed("child at %d overruns parent at %d", j, i)
		}
		j = next
	}
	return children, nil
}

// Walk visits every frame in pre-order with its depth. Attributes are
// reported one level below their owner. Returning a non-nil error from fn
// stops the walk and returns that error.
func (s Sequence) Walk(fn func(depth, index int, f frame.Frame) error) error {
	var ends []int
	for i, f := range s.frames {
		for len(ends) > 0 && i >= ends[len(ends)-1] {
			ends = ends[:len(ends)-1]
		}
		if err := fn(len(ends), i, f); err != nil {
			return err
		}
		if f.Kind().IsContainer() {
			end, err := s.NextSibling(i)
			if err != nil {
				return err
			}
			ends = append(ends, end)
		}
	}
	return nil
}

// Validate checks that every container is closed and nested within its
// parent and that attributes directly follow their owner.
func (s Sequence) Validate() error {
	var ends []int
	attrEnd := 0 // end of the container currently accepting attributes
	for i, f := range s.frames {
		for len(ends) > 0 && i >= ends[len(ends)-1] {
			ends = ends[:len(ends)-1]
		}
		switch f.Kind() {
		case frame.KindAttribute:
			if i >= attrEnd {
				return malformed("attribute %q at %d does not follow an element or component", f.AttributeName(), i)
			}
		case frame.KindText:
			attrEnd = 0
		case frame.KindElement, frame.KindComponent:
			end, err := s.NextSibling(i)
			if err != nil {
				return err
			}
			if len(ends) > 0 && end > ends[len(ends)-1] {
				return malformed("subtree at %d overruns its parent", i)
			}
			ends = append(ends, end)
			attrEnd = end
		default:
			return malformed("frame %d has kind %s", i, f.Kind())
		}
	}
	return nil
}
