package tree

import (
	stderrors "errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/vango-dev/rendertree/pkg/frame"
)

func textSequence(t *testing.T, content string) Sequence {
	t.Helper()
	b := NewBuilder()
	b.OpenElement(0, "p")
	b.AddText(1, content)
	b.CloseElement()
	seq, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	return seq
}

func TestStoreInitialSnapshot(t *testing.T) {
	s := NewStore()
	snap := s.Load()
	if snap == nil {
		t.Fatal("Load() returned nil")
	}
	if snap.Version != 0 || snap.Current.Len() != 0 || snap.Previous.Len() != 0 {
		t.Errorf("initial snapshot = %+v", snap)
	}
}

func TestStorePublish(t *testing.T) {
	s := NewStore()

	first := textSequence(t, "one")
	snap, err := s.Publish(first)
	if err != nil {
		t.Fatalf("Publish() error: %v", err)
	}
	if snap.Version != 1 {
		t.Errorf("Version = %d, want 1", snap.Version)
	}
	if snap.Previous.Len() != 0 {
		t.Errorf("Previous.Len() = %d, want 0", snap.Previous.Len())
	}

	second := textSequence(t, "two")
	snap, err = s.Publish(second)
	if err != nil {
		t.Fatalf("Publish() error: %v", err)
	}
	if snap.Version != 2 {
		t.Errorf("Version = %d, want 2", snap.Version)
	}
	if got := snap.Current.At(1).TextContent(); got != "two" {
		t.Errorf("Current text = %q, want two", got)
	}
	if got := snap.Previous.At(1).TextContent(); got != "one" {
		t.Errorf("Previous text = %q, want one", got)
	}
	if s.Load() != snap {
		t.Error("Load() did not return the published snapshot")
	}
}

func TestStoreRejectsInvalidSequence(t *testing.T) {
	s := NewStore()
	open := NewSequence([]frame.Frame{frame.Element(0, "div")})

	if _, err := s.Publish(open); !stderrors.Is(err, ErrOpenSubtree) {
		t.Fatalf("Publish() error = %v, want ErrOpenSubtree", err)
	}
	if s.Load().Version != 0 {
		t.Errorf("Version = %d after rejected publish, want 0", s.Load().Version)
	}
}

func TestStoreWithoutValidation(t *testing.T) {
	s := NewStore(WithValidation(false))
	open := NewSequence([]frame.Frame{frame.Element(0, "div")})
	if _, err := s.Publish(open); err != nil {
		t.Errorf("Publish() error = %v, want nil", err)
	}
}

func TestStoreConcurrentReaders(t *testing.T) {
	s := NewStore()
	seqs := []Sequence{textSequence(t, "a"), textSequence(t, "b"), textSequence(t, "c")}

	var wg sync.WaitGroup
	done := make(chan struct{})

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				snap := s.Load()
				if snap.Current.Len() == 0 {
					continue
				}
				// A published sequence is always complete and closed.
				if err := snap.Current.Validate(); err != nil {
					t.Errorf("reader observed invalid sequence: %v", err)
					return
				}
				if snap.Version > 1 && snap.Previous.Len() == 0 {
					t.Errorf("version %d has no previous sequence", snap.Version)
					return
				}
			}
		}()
	}

	for i := 0; i < 300; i++ {
		if _, err := s.Publish(seqs[i%len(seqs)]); err != nil {
			t.Fatalf("Publish() error: %v", err)
		}
	}
	close(done)
	wg.Wait()

	if got := s.Load().Version; got != 300 {
		t.Errorf("Version = %d, want 300", got)
	}
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg), WithNamespace("test"))

	b := NewBuilder(WithMetrics(m))
	b.OpenElement(0, "div")
	b.AddAttribute(1, "class", "red")
	b.AddText(2, "Hi")
	b.CloseElement()
	seq, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}

	b.CloseElement()
	if _, err := b.Build(); err == nil {
		t.Fatal("expected build error")
	}

	s := NewStore(WithStoreMetrics(m))
	if _, err := s.Publish(seq); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		c    prometheus.Collector
		want float64
	}{
		{"element frames", m.framesTotal.WithLabelValues("Element"), 1},
		{"attribute frames", m.framesTotal.WithLabelValues("Attribute"), 1},
		{"text frames", m.framesTotal.WithLabelValues("Text"), 1},
		{"ok builds", m.buildsTotal.WithLabelValues("ok"), 1},
		{"failed builds", m.buildsTotal.WithLabelValues("error"), 1},
		{"publishes", m.publishesTotal, 1},
		{"version", m.version, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := testutil.ToFloat64(tt.c); got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, got, tt.want)
			}
		})
	}

	if n := testutil.CollectAndCount(m.sequenceFrames); n != 1 {
		t.Errorf("sequence_frames series = %d, want 1", n)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.recordFrame(frame.KindText)
	m.recordBuild(1, nil)
	m.recordPublish(1)
}
