package server

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Xeraclom14/NeonHorizon-PCG/internal/emit"
)

const streamWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(_ *http.Request) bool { return true },
}

// envelope is one websocket frame: placement, restart, done or error.
type envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type restartPayload struct {
	Attempt int   `json:"attempt"`
	Seed    int64 `json:"seed"`
}

type errorPayload struct {
	Error string `json:"error"`
}

type streamConn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *streamConn) writeJSON(value any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
	return c.conn.WriteJSON(value)
}

// parseStreamRequest reads generation overrides from the query string.
func parseStreamRequest(r *http.Request) (GenerateRequest, error) {
	var req GenerateRequest
	q := r.URL.Query()
	ints := []struct {
		name string
		dst  *int
	}{
		{"width", &req.Width},
		{"height", &req.Height},
		{"depth", &req.Depth},
		{"max_iterations", &req.MaxIterations},
	}
	for _, field := range ints {
		v := q.Get(field.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, &queryError{field.name}
		}
		*field.dst = n
	}
	if v := q.Get("seed"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return req, &queryError{"seed"}
		}
		req.Seed = &seed
	}
	if v := q.Get("air_height_limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, &queryError{"air_height_limit"}
		}
		req.AirHeightLimit = &n
	}
	if v := q.Get("max_restarts"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, &queryError{"max_restarts"}
		}
		req.MaxRestarts = &n
	}
	return req, nil
}

type queryError struct {
	param string
}

func (e *queryError) Error() string {
	return "invalid " + e.param + " parameter"
}

// handleStream upgrades to a websocket and streams every resolved cell of a
// fresh generation. A restart frame tells the client to discard what it has
// received so far. The closing done frame carries the stored record summary.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	req, err := parseStreamRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	opts, err := s.options(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("stream upgrade failed: %v", err)
		return
	}
	client := &streamConn{conn: conn}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Reads only detect the client going away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	layout := emit.Layout{Dimensions: opts.Dimensions, CellSize: s.cfg.Generation.CellSize}
	stream := emit.NewStream(s.cat, layout, func(ev emit.Event) {
		if ctx.Err() != nil {
			return
		}
		var frame envelope
		switch ev.Type {
		case emit.EventPlacement:
			frame = envelope{Type: string(ev.Type), Payload: ev.Placement}
		case emit.EventRestart:
			frame = envelope{Type: string(ev.Type), Payload: restartPayload{Attempt: ev.Attempt, Seed: ev.Seed}}
		default:
			return
		}
		if err := client.writeJSON(frame); err != nil {
			s.logger.Printf("stream client write error: %v", err)
			cancel()
		}
	})
	opts.Observer = stream

	rec, err := s.generate(ctx, opts)
	if err != nil {
		if ctx.Err() == nil {
			_ = client.writeJSON(envelope{Type: "error", Payload: errorPayload{Error: err.Error()}})
		}
		s.logger.Printf("stream generation failed: %v", err)
		return
	}
	summary := rec.Summary()
	if err := client.writeJSON(envelope{Type: string(emit.EventDone), Payload: summary}); err != nil {
		s.logger.Printf("stream client write error: %v", err)
		return
	}
	client.writeMu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "generation complete"),
		time.Now().Add(time.Second))
	client.writeMu.Unlock()
}
