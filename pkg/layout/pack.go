package layout

import (
	"context"

	"fortio.org/safecast"
	"github.com/vmihailenco/msgpack/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/rendertree/internal/errors"
	"github.com/vango-dev/rendertree/pkg/frame"
	"github.com/vango-dev/rendertree/pkg/tree"
)

const tracerName = "github.com/vango-dev/rendertree/pkg/layout"

// packer accumulates the tables of one image.
type packer struct {
	img         Image
	interned    map[string]int32
	limits      *Limits
	stringBytes int
}

// Pack converts a sequence into a fixed-width image. Sequences that were
// never validated are checked here: a subtree length reaching past the end
// fails with ErrBadReference.
func Pack(seq tree.Sequence, limits *Limits) (*Image, error) {
	limits = limits.orDefault()
	if seq.Len() > limits.MaxFrames {
		return nil, errors.New("F203").WithDetailf("%d frames, limit %d", seq.Len(), limits.MaxFrames)
	}

	p := &packer{
		interned: make(map[string]int32),
		limits:   limits,
	}
	p.img.Records = make([]byte, 0, seq.Len()*RecordSize)

	for i := 0; i < seq.Len(); i++ {
		r, err := p.record(seq.At(i))
		if err != nil {
			e := errors.FromError(err, "F205")
			return nil, e.WithDetailf("frame %d: %s", i, e.Detail)
		}
		p.img.Records = r.appendTo(p.img.Records)
	}
	// Subtree lengths are only known to fit once every record exists.
	for i := 0; i < p.img.Len(); i++ {
		if err := p.img.check(i); err != nil {
			return nil, err
		}
	}
	return &p.img, nil
}

// PackAll packs several sequences concurrently, typically the current and
// previous trees of a snapshot. Images are returned in input order.
func PackAll(ctx context.Context, seqs []tree.Sequence, limits *Limits) ([]*Image, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "layout.PackAll")
	defer span.End()
	span.SetAttributes(attribute.Int("layout.sequences", len(seqs)))

	images := make([]*Image, len(seqs))
	g, gctx := errgroup.WithContext(ctx)
	for i, seq := range seqs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			img, err := Pack(seq, limits)
			if err != nil {
				return err
			}
			images[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return images, nil
}

func (p *packer) record(f frame.Frame) (rawRecord, error) {
	r := rawRecord{seq: f.Sequence(), kind: f.Kind()}
	var err error

	switch f.Kind() {
	case frame.KindElement:
		r.length = f.ElementSubtreeLength()
		r.str, err = p.intern(f.ElementName())

	case frame.KindText:
		r.str, err = p.intern(f.TextContent())

	case frame.KindAttribute:
		if r.str, err = p.intern(f.AttributeName()); err != nil {
			return r, err
		}
		v := f.AttributeValue()
		switch {
		case v.IsCallback():
			r.flags |= FlagCallback
			r.ref, err = p.handle(v.Handler())
		case v.IsNil():
			r.flags |= FlagNilValue
		default:
			r.ref, err = p.value(v.Plain())
		}

	case frame.KindComponent:
		r.length = f.ComponentSubtreeLength()
		r.ref = f.ComponentID()
		if r.str, err = p.intern(f.ComponentType().String()); err != nil {
			return r, err
		}
		if inst := f.ComponentInstance(); inst != nil {
			r.handle, err = p.handle(inst)
		}

	default:
		return r, errors.New("F205").WithDetailf("kind %s", f.Kind())
	}
	return r, err
}

func (p *packer) intern(s string) (int32, error) {
	if i, ok := p.interned[s]; ok {
		return i, nil
	}
	if err := p.charge(len(s)); err != nil {
		return 0, err
	}
	i, err := safecast.Conv[int32](len(p.img.Strings))
	if err != nil {
		return 0, errors.New("F203").Wrap(err)
	}
	p.img.Strings = append(p.img.Strings, s)
	p.interned[s] = i
	return i, nil
}

func (p *packer) value(v any) (int32, error) {
	b, err := msgpack.Marshal(v)
	if err != nil {
		return 0, errors.New("F205").WithDetailf("%T", v).Wrap(err)
	}
	if err := p.charge(len(b)); err != nil {
		return 0, err
	}
	i, err := safecast.Conv[int32](len(p.img.Values))
	if err != nil {
		return 0, errors.New("F203").Wrap(err)
	}
	p.img.Values = append(p.img.Values, b)
	return i, nil
}

// handle stores v in the handle table and returns its 1-based index.
func (p *packer) handle(v any) (int32, error) {
	p.img.Handles = append(p.img.Handles, v)
	i, err := safecast.Conv[int32](len(p.img.Handles))
	if err != nil {
		return 0, errors.New("F203").Wrap(err)
	}
	return i, nil
}

func (p *packer) charge(n int) error {
	p.stringBytes += n
	if p.stringBytes > p.limits.MaxStringBytes {
		return errors.New("F203").WithDetailf("%d table bytes, limit %d", p.stringBytes, p.limits.MaxStringBytes)
	}
	return nil
}
