package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/Xeraclom14/NeonHorizon-PCG/internal/catalog"
	"github.com/Xeraclom14/NeonHorizon-PCG/internal/compat"
	"github.com/Xeraclom14/NeonHorizon-PCG/internal/config"
	"github.com/Xeraclom14/NeonHorizon-PCG/internal/preview"
	"github.com/Xeraclom14/NeonHorizon-PCG/internal/solver"
	"github.com/Xeraclom14/NeonHorizon-PCG/internal/store"
	"github.com/Xeraclom14/NeonHorizon-PCG/internal/terrain"
)

var errBusy = errors.New("too many generations in progress")

type Server struct {
	cfg     *config.Config
	cat     *catalog.Catalog
	indices *compat.Cache
	field   terrain.HeightField
	store   store.Store
	slots   chan struct{}
	httpSrv *http.Server
	logger  *log.Logger
}

// New loads the configured catalog and opens the result store.
func New(ctx context.Context, cfg *config.Config) (*Server, error) {
	cat := catalog.Default()
	if cfg.Catalog.Source != "" {
		loaded, err := catalog.LoadSource(ctx, cfg.Catalog.Source, cfg.Catalog.CacheDir)
		if err != nil {
			return nil, err
		}
		cat = loaded
	}
	field, err := terrain.New(cfg.Terrain)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(cfg.Store)
	if err != nil {
		return nil, err
	}
	return newServer(cfg, cat, field, st), nil
}

func newServer(cfg *config.Config, cat *catalog.Catalog, field terrain.HeightField, st store.Store) *Server {
	slots := cfg.Server.MaxConcurrentGenerations
	if slots <= 0 {
		slots = 1
	}
	return &Server{
		cfg:     cfg,
		cat:     cat,
		indices: compat.NewCache(),
		field:   field,
		store:   st,
		slots:   make(chan struct{}, slots),
		logger:  log.New(log.Writer(), "server ", log.LstdFlags|log.Lmicroseconds),
	}
}

// Handler returns the routing table of the service.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("GET /catalog", s.handleCatalog)
	mux.HandleFunc("POST /generations", s.handleCreateGeneration)
	mux.HandleFunc("GET /generations", s.handleListGenerations)
	mux.HandleFunc("GET /generations/{id}", s.handleGetGeneration)
	mux.HandleFunc("DELETE /generations/{id}", s.handleDeleteGeneration)
	mux.HandleFunc("GET /generations/{id}/preview.png", s.handlePreview)
	mux.HandleFunc("GET /stream", s.handleStream)
	return mux
}

func (s *Server) Run(ctx context.Context) error {
	defer s.store.Close()

	addr := fmt.Sprintf("%s:%d", s.cfg.ListenAddress, s.cfg.HTTPPort)
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Printf("HTTP server listening on %s (%d pieces)", addr, s.cat.Len())
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout.Duration())
		defer cancel()
		_ = s.httpSrv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}

// GenerateRequest overrides the configured generation parameters. Zero
// fields keep the configured value.
type GenerateRequest struct {
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	Depth          int    `json:"depth"`
	Seed           *int64 `json:"seed,omitempty"`
	AirHeightLimit *int   `json:"airHeightLimit,omitempty"`
	MaxIterations  int    `json:"maxIterations"`
	MaxRestarts    *int   `json:"maxRestarts,omitempty"`
}

func (s *Server) options(req GenerateRequest) (solver.Options, error) {
	gen := s.cfg.Generation
	if req.Width != 0 {
		gen.Width = req.Width
	}
	if req.Height != 0 {
		gen.Height = req.Height
	}
	if req.Depth != 0 {
		gen.Depth = req.Depth
	}
	if req.Seed != nil {
		gen.Seed = *req.Seed
		gen.RandomSeed = false
	}
	if req.AirHeightLimit != nil {
		gen.AirHeightLimit = *req.AirHeightLimit
	}
	if req.MaxIterations != 0 {
		gen.MaxIterations = req.MaxIterations
	}
	if req.MaxRestarts != nil {
		gen.MaxRestarts = *req.MaxRestarts
	}
	if gen.Width <= 0 || gen.Height <= 0 || gen.Depth <= 0 {
		return solver.Options{}, solver.ErrInvalidDimensions
	}
	if cells := gen.Width * gen.Height * gen.Depth; s.cfg.Server.MaxCells > 0 && cells > s.cfg.Server.MaxCells {
		return solver.Options{}, fmt.Errorf("%w: %d cells exceeds the limit of %d", solver.ErrInvalidOptions, cells, s.cfg.Server.MaxCells)
	}
	opts := solver.OptionsFromConfig(gen, s.field)
	opts.Logger = s.logger
	return opts, nil
}

func (s *Server) acquire(ctx context.Context) error {
	select {
	case s.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return errBusy
	}
}

func (s *Server) release() {
	<-s.slots
}

func (s *Server) generationContext(parent context.Context) (context.Context, context.CancelFunc) {
	if timeout := s.cfg.Generation.Timeout.Duration(); timeout > 0 {
		return context.WithTimeout(parent, timeout)
	}
	return context.WithCancel(parent)
}

// generate runs one generation to completion and stores it.
func (s *Server) generate(ctx context.Context, opts solver.Options) (*store.Record, error) {
	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	defer s.release()

	ctx, cancel := s.generationContext(ctx)
	defer cancel()

	result, err := solver.Generate(ctx, s.cat, s.indices.For(s.cat), opts)
	if err != nil {
		return nil, err
	}
	return s.save(result, opts)
}

func (s *Server) save(result *solver.Result, opts solver.Options) (*store.Record, error) {
	rec := store.NewRecord(s.cat, s.cfg.Catalog.Source, opts.AirHeightLimit, result)
	if err := s.store.Save(rec); err != nil {
		return nil, fmt.Errorf("store generation: %w", err)
	}
	return rec, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.cat.Pieces())
}

func (s *Server) handleCreateGeneration(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	opts, err := s.options(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	rec, err := s.generate(r.Context(), opts)
	if err != nil {
		s.logger.Printf("generation failed: %v", err)
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	w.Header().Set("Location", "/generations/"+rec.ID)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, rec)
}

func (s *Server) handleListGenerations(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = n
	}
	summaries := make([]store.Record, 0)
	err := s.store.ForEach(func(rec *store.Record) bool {
		summaries = append(summaries, rec.Summary())
		return limit == 0 || len(summaries) < limit
	})
	if err != nil {
		s.logger.Printf("list generations: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, summaries)
}

func (s *Server) loadRecord(w http.ResponseWriter, r *http.Request) (*store.Record, bool) {
	rec, err := s.store.Load(r.PathValue("id"))
	switch {
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
		return nil, false
	case err != nil:
		s.logger.Printf("load generation: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return nil, false
	}
	return rec, true
}

func (s *Server) handleGetGeneration(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.loadRecord(w, r)
	if !ok {
		return
	}
	writeJSON(w, rec)
}

func (s *Server) handleDeleteGeneration(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.PathValue("id")); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.loadRecord(w, r)
	if !ok {
		return
	}
	colors := make([]string, len(rec.Pieces))
	for i, p := range rec.Pieces {
		colors[i] = p.Color
	}
	img, err := preview.Render(rec.Grid(), colors)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if err := preview.EncodeImage(w, img); err != nil {
		s.logger.Printf("write preview %s: %v", rec.ID, err)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, solver.ErrInvalidDimensions), errors.Is(err, solver.ErrInvalidOptions):
		return http.StatusBadRequest
	case errors.Is(err, solver.ErrUnsolvable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, errBusy), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
