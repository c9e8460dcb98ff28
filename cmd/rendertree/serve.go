package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/rendertree/internal/config"
	"github.com/vango-dev/rendertree/internal/errors"
	"github.com/vango-dev/rendertree/internal/treefile"
	"github.com/vango-dev/rendertree/pkg/frame"
	"github.com/vango-dev/rendertree/pkg/layout"
	"github.com/vango-dev/rendertree/pkg/tree"
)

const tracerName = "github.com/vango-dev/rendertree/cmd/rendertree"

// maxDocumentBytes bounds POST /tree bodies.
const maxDocumentBytes = 4 << 20

func serveCmd(flags *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve [tree-file...]",
		Short: "Serve published trees over HTTP for debugging",
		Long: `Start a debug server holding a tree store.

Each tree document given on the command line is published in order, so
the last two become the current and previous trees. More trees can be
published with POST /tree.

Routes:
  GET  /tree      current snapshot as JSON
  POST /tree      build and publish a tree document
  GET  /layout    packed image statistics for current and previous
  GET  /layout/current.bin  encoded image of the current tree
  GET  /metrics   Prometheus metrics

Examples:
  rendertree serve
  rendertree serve --addr=:7070 before.yaml after.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Serve.Addr = addr
			}
			logger, err := newLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			srv := newServer(cfg, logger, prometheus.NewRegistry(), newRegistry(flags.strict))
			for _, path := range args {
				seq, err := buildFile(path, cfg, srv.reg, srv.builderOptions()...)
				if err != nil {
					return err
				}
				snap, err := srv.store.Publish(seq)
				if err != nil {
					return err
				}
				logger.Info("published", "file", path, "version", snap.Version, "frames", seq.Len())
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			success(cmd.OutOrStdout(), "Serving on http://%s", cfg.Serve.Addr)
			return srv.listen(ctx, cfg.Serve.Addr)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Address to listen on (default from config)")

	return cmd
}

// server exposes a tree store over HTTP.
type server struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *tree.Store
	metrics  *tree.Metrics
	gatherer prometheus.Gatherer
	reg      *treefile.Registry
	tracer   trace.Tracer
}

func newServer(cfg *config.Config, logger *slog.Logger, promReg *prometheus.Registry, reg *treefile.Registry) *server {
	s := &server{
		cfg:      cfg,
		logger:   logger.With("component", "server"),
		gatherer: promReg,
		reg:      reg,
		tracer:   otel.Tracer(tracerName),
	}
	if cfg.Metrics.Enabled {
		s.metrics = tree.NewMetrics(
			tree.WithNamespace(cfg.Metrics.Namespace),
			tree.WithRegistry(promReg),
		)
	}
	s.store = tree.NewStore(
		tree.WithStoreLogger(logger),
		tree.WithStoreMetrics(s.metrics),
	)
	return s
}

func (s *server) builderOptions() []tree.BuilderOption {
	return []tree.BuilderOption{
		tree.WithLogger(s.logger),
		tree.WithMetrics(s.metrics),
	}
}

// routes returns the HTTP handler.
func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/tree", s.handleGetTree)
	r.Post("/tree", s.handlePostTree)
	r.Get("/layout", s.handleLayout)
	r.Get("/layout/current.bin", s.handleLayoutBinary)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return r
}

func (s *server) listen(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	}
}

// frameJSON is the JSON form of one frame.
type frameJSON struct {
	Index         int    `json:"index"`
	Depth         int    `json:"depth"`
	Sequence      int32  `json:"sequence"`
	Kind          string `json:"kind"`
	Name          string `json:"name,omitempty"`
	Text          string `json:"text,omitempty"`
	Value         any    `json:"value,omitempty"`
	Callback      bool   `json:"callback,omitempty"`
	ComponentType string `json:"componentType,omitempty"`
	ComponentID   int32  `json:"componentId,omitempty"`
	SubtreeLength int32  `json:"subtreeLength,omitempty"`
}

type snapshotJSON struct {
	Version  uint64      `json:"version"`
	Current  []frameJSON `json:"current"`
	Previous []frameJSON `json:"previous"`
}

func framesJSON(seq tree.Sequence) ([]frameJSON, error) {
	out := make([]frameJSON, 0, seq.Len())
	err := seq.Walk(func(depth, index int, f frame.Frame) error {
		j := frameJSON{Index: index, Depth: depth, Sequence: f.Sequence(), Kind: f.Kind().String()}
		switch f.Kind() {
		case frame.KindElement:
			j.Name = f.ElementName()
			j.SubtreeLength = f.ElementSubtreeLength()
		case frame.KindText:
			j.Text = f.TextContent()
		case frame.KindAttribute:
			j.Name = f.AttributeName()
			if v := f.AttributeValue(); v.IsCallback() {
				j.Callback = true
			} else {
				j.Value = v.Plain()
			}
		case frame.KindComponent:
			j.ComponentType = f.ComponentType().String()
			j.ComponentID = f.ComponentID()
			j.SubtreeLength = f.ComponentSubtreeLength()
		}
		out = append(out, j)
		return nil
	})
	return out, err
}

func (s *server) handleGetTree(w http.ResponseWriter, r *http.Request) {
	_, span := s.tracer.Start(r.Context(), "GET /tree")
	defer span.End()

	snap := s.store.Load()
	span.SetAttributes(attribute.Int64("tree.version", int64(snap.Version)))

	cur, err := framesJSON(snap.Current)
	if err == nil {
		var prev []frameJSON
		prev, err = framesJSON(snap.Previous)
		if err == nil {
			s.writeJSON(w, http.StatusOK, snapshotJSON{Version: snap.Version, Current: cur, Previous: prev})
			return
		}
	}
	s.writeError(w, span, http.StatusInternalServerError, err)
}

func (s *server) handlePostTree(w http.ResponseWriter, r *http.Request) {
	_, span := s.tracer.Start(r.Context(), "POST /tree")
	defer span.End()

	doc, err := treefile.Parse(http.MaxBytesReader(w, r.Body, maxDocumentBytes))
	if err != nil {
		s.writeError(w, span, http.StatusBadRequest, err)
		return
	}
	opts := append(s.cfg.BuilderOptions(), s.builderOptions()...)
	seq, err := treefile.Build(doc, s.reg, opts...)
	if err != nil {
		s.writeError(w, span, http.StatusUnprocessableEntity, err)
		return
	}
	snap, err := s.store.Publish(seq)
	if err != nil {
		s.writeError(w, span, http.StatusUnprocessableEntity, err)
		return
	}

	span.SetAttributes(
		attribute.Int64("tree.version", int64(snap.Version)),
		attribute.Int("tree.frames", seq.Len()),
	)
	s.logger.Info("published", "version", snap.Version, "frames", seq.Len(),
		"request_id", middleware.GetReqID(r.Context()))
	s.writeJSON(w, http.StatusCreated, map[string]any{"version": snap.Version, "frames": seq.Len()})
}

type imageJSON struct {
	Records int `json:"records"`
	Strings int `json:"strings"`
	Values  int `json:"values"`
	Handles int `json:"handles"`
	Bytes   int `json:"bytes"`
}

func (s *server) handleLayout(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.tracer.Start(r.Context(), "GET /layout")
	defer span.End()

	snap := s.store.Load()
	images, err := layout.PackAll(ctx, []tree.Sequence{snap.Current, snap.Previous}, s.cfg.LayoutLimits())
	if err != nil {
		s.writeError(w, span, http.StatusInternalServerError, err)
		return
	}

	stats := make([]imageJSON, len(images))
	for i, img := range images {
		stats[i] = imageJSON{
			Records: img.Len(),
			Strings: len(img.Strings),
			Values:  len(img.Values),
			Handles: len(img.Handles),
			Bytes:   len(img.Bytes()),
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"version":    snap.Version,
		"recordSize": layout.RecordSize,
		"current":    stats[0],
		"previous":   stats[1],
	})
}

func (s *server) handleLayoutBinary(w http.ResponseWriter, r *http.Request) {
	_, span := s.tracer.Start(r.Context(), "GET /layout/current.bin")
	defer span.End()

	img, err := layout.Pack(s.store.Load().Current, s.cfg.LayoutLimits())
	if err != nil {
		s.writeError(w, span, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(img.Bytes()); err != nil {
		s.logger.Warn("write response", "error", err)
	}
}

func (s *server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("write response", "error", err)
	}
}

func (s *server) writeError(w http.ResponseWriter, span trace.Span, status int, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	s.logger.Warn("request failed", "status", status, "error", err)
	s.writeJSON(w, status, map[string]string{
		"code":  errors.Code(err),
		"error": err.Error(),
	})
}
