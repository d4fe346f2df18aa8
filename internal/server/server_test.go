package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/Xeraclom14/NeonHorizon-PCG/internal/catalog"
	"github.com/Xeraclom14/NeonHorizon-PCG/internal/config"
	"github.com/Xeraclom14/NeonHorizon-PCG/internal/emit"
	"github.com/Xeraclom14/NeonHorizon-PCG/internal/grid"
	"github.com/Xeraclom14/NeonHorizon-PCG/internal/solver"
	"github.com/Xeraclom14/NeonHorizon-PCG/internal/store"
	"github.com/Xeraclom14/NeonHorizon-PCG/internal/terrain"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	cfg.Server.MaxCells = 2048
	srv := newServer(&cfg, catalog.Default(), terrain.Flat(0), store.NewMemory())
	srv.logger = log.New(io.Discard, "", 0)
	return srv
}

func createGeneration(t *testing.T, h http.Handler, body string) *store.Record {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/generations", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("POST /generations status = %d, body %s", rr.Code, rr.Body.String())
	}
	var rec store.Record
	if err := json.Unmarshal(rr.Body.Bytes(), &rec); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if got := rr.Header().Get("Location"); got != "/generations/"+rec.ID {
		t.Fatalf("Location = %q", got)
	}
	return &rec
}

func TestWriteJSONHandlesEncodingFailures(t *testing.T) {
	recorder := httptest.NewRecorder()

	// encoding/json cannot marshal channel values and returns an error.
	data := struct{ C chan int }{C: make(chan int)}
	writeJSON(recorder, data)

	if recorder.Code != http.StatusInternalServerError {
		t.Fatalf("status code = %d, want %d", recorder.Code, http.StatusInternalServerError)
	}
}

func TestWriteJSONSetsContentType(t *testing.T) {
	recorder := httptest.NewRecorder()
	writeJSON(recorder, struct{ Value string }{Value: "ok"})

	if got := recorder.Header().Get("Content-Type"); got != "application/json" {
		t.Fatalf("Content-Type = %q, want application/json", got)
	}
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"ok"`) {
		t.Fatalf("healthz = %d %s", rr.Code, rr.Body.String())
	}
}

func TestHandleCatalogListsPieces(t *testing.T) {
	srv := newTestServer(t)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/catalog", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	var pieces []catalog.Piece
	if err := json.Unmarshal(rr.Body.Bytes(), &pieces); err != nil {
		t.Fatalf("decode catalog: %v", err)
	}
	if len(pieces) != srv.cat.Len() || pieces[0].Name != "void" {
		t.Fatalf("catalog response has %d pieces, first %q", len(pieces), pieces[0].Name)
	}
}

func TestGenerationLifecycle(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()

	rec := createGeneration(t, h, `{"width":5,"height":3,"depth":4,"seed":11,"airHeightLimit":1}`)
	if rec.Outcome != solver.OutcomeCollapsed {
		t.Fatalf("outcome = %v, want collapsed", rec.Outcome)
	}
	if rec.Dimensions != (grid.Dimensions{X: 5, Y: 3, Z: 4}) || len(rec.Cells) != 60 {
		t.Fatalf("record dimensions %+v with %d cells", rec.Dimensions, len(rec.Cells))
	}
	if rec.InitialSeed != 11 {
		t.Fatalf("initial seed = %d, want 11", rec.InitialSeed)
	}

	t.Run("list", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/generations", nil))
		var list []store.Record
		if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil {
			t.Fatalf("decode list: %v", err)
		}
		if len(list) != 1 || list[0].ID != rec.ID || list[0].Cells != nil {
			t.Fatalf("list = %+v", list)
		}
	})

	t.Run("get", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/generations/"+rec.ID, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
		}
		var got store.Record
		if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
			t.Fatalf("decode record: %v", err)
		}
		if len(got.Cells) != len(rec.Cells) {
			t.Fatalf("got %d cells, want %d", len(got.Cells), len(rec.Cells))
		}
	})

	t.Run("preview", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/generations/"+rec.ID+"/preview.png", nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
		}
		if got := rr.Header().Get("Content-Type"); got != "image/png" {
			t.Fatalf("Content-Type = %q", got)
		}
		if _, err := png.Decode(bytes.NewReader(rr.Body.Bytes())); err != nil {
			t.Fatalf("decode preview: %v", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/generations/"+rec.ID, nil))
		if rr.Code != http.StatusNoContent {
			t.Fatalf("expected status %d, got %d", http.StatusNoContent, rr.Code)
		}
		rr = httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/generations/"+rec.ID, nil))
		if rr.Code != http.StatusNotFound {
			t.Fatalf("expected status %d after delete, got %d", http.StatusNotFound, rr.Code)
		}
	})
}

func TestListGenerationsLimit(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()
	for seed := 1; seed <= 3; seed++ {
		createGeneration(t, h, fmt.Sprintf(`{"width":3,"height":2,"depth":3,"seed":%d}`, seed))
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/generations?limit=2", nil))
	var list []store.Record
	if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("limit=2 returned %d records", len(list))
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/generations?limit=x", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
}

func TestCreateGenerationRejectsBadInput(t *testing.T) {
	srv := newTestServer(t)
	tests := map[string]string{
		"malformed body":  `{"width":`,
		"negative width":  `{"width":-2}`,
		"too many cells":  `{"width":20,"height":20,"depth":20}`,
		"negative air":    `{"airHeightLimit":-1}`,
		"negative budget": `{"maxRestarts":-1}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/generations", strings.NewReader(body)))
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected status %d, got %d (%s)", http.StatusBadRequest, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestGetGenerationNotFound(t *testing.T) {
	srv := newTestServer(t)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/generations/does-not-exist", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rr.Code)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{solver.ErrInvalidDimensions, http.StatusBadRequest},
		{fmt.Errorf("wrap: %w", solver.ErrInvalidOptions), http.StatusBadRequest},
		{solver.ErrUnsolvable, http.StatusUnprocessableEntity},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errBusy, http.StatusServiceUnavailable},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Fatalf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestAcquireGivesUpWhenContextEnds(t *testing.T) {
	srv := newTestServer(t)
	for i := 0; i < cap(srv.slots); i++ {
		srv.slots <- struct{}{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := srv.acquire(ctx); !errors.Is(err, errBusy) {
		t.Fatalf("acquire on full server = %v, want errBusy", err)
	}
}

func TestStreamDeliversEveryCell(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/stream?width=4&height=3&depth=4&seed=5&air_height_limit=1"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial stream: %v", err)
	}
	defer conn.Close()

	type frame struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	seen := make(map[grid.Coord]int)
	var done store.Record
	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			t.Fatalf("read frame: %v", err)
		}
		if f.Type == string(emit.EventDone) {
			if err := json.Unmarshal(f.Payload, &done); err != nil {
				t.Fatalf("decode done payload: %v", err)
			}
			break
		}
		switch f.Type {
		case string(emit.EventPlacement):
			var p emit.Placement
			if err := json.Unmarshal(f.Payload, &p); err != nil {
				t.Fatalf("decode placement: %v", err)
			}
			seen[p.Coord] = p.Piece
		case string(emit.EventRestart):
			seen = make(map[grid.Coord]int)
		default:
			t.Fatalf("unexpected frame %s: %s", f.Type, f.Payload)
		}
	}
	if len(seen) != 48 {
		t.Fatalf("streamed %d cells, want 48", len(seen))
	}

	stored, err := srv.store.Load(done.ID)
	if err != nil {
		t.Fatalf("stream result not stored: %v", err)
	}
	g := stored.Grid()
	for c, piece := range seen {
		if got := g.At(c); got != piece {
			t.Fatalf("streamed %d at %v, stored %d", piece, c, got)
		}
	}

	if _, _, err := conn.ReadMessage(); !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Fatalf("expected normal close after done, got %v", err)
	}
}

func TestStreamRejectsBadQuery(t *testing.T) {
	srv := newTestServer(t)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/stream?width=wide", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
}
