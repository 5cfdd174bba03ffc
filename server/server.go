// Package server exposes the monitor snapshots over HTTP and pushes every
// new snapshot to websocket clients.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/mklimuk/sensorlog/monitor"
)

const writeWait = 5 * time.Second

// SnapshotSource is satisfied by *monitor.Poller.
type SnapshotSource interface {
	Latest() (monitor.Snapshot, bool)
	Subscribe(buffer int) (<-chan monitor.Snapshot, func())
}

type Server struct {
	source   SnapshotSource
	router   *mux.Router
	upgrader websocket.Upgrader
}

func New(source SnapshotSource) *Server {
	s := &Server{
		source: source,
		router: mux.NewRouter(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/snapshot", s.handleSnapshot).Methods(http.MethodGet)
	api.HandleFunc("/orientation", s.handleOrientation).Methods(http.MethodGet)
	api.HandleFunc("/environment", s.handleEnvironment).Methods(http.MethodGet)
	api.HandleFunc("/stream", s.handleStream).Methods(http.MethodGet)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type errorResponse struct {
	Error string `json:"error"`
}

type environmentResponse struct {
	At           time.Time `json:"at"`
	TemperatureF *float64  `json:"temperatureF,omitempty"`
	PressureHpa  *float64  `json:"pressureHpa,omitempty"`
	AltitudeFt   *float64  `json:"altitudeFt,omitempty"`
}

func (s *Server) latest(w http.ResponseWriter) (monitor.Snapshot, bool) {
	snap, ok := s.source.Latest()
	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "no reading yet"})
	}
	return snap, ok
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.latest(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleOrientation(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.latest(w)
	if !ok {
		return
	}
	if snap.Orientation == nil {
		msg := snap.Errors["orientation"]
		if msg == "" {
			msg = "orientation not available"
		}
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: msg})
		return
	}
	writeJSON(w, http.StatusOK, snap.Orientation)
}

func (s *Server) handleEnvironment(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.latest(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, environmentResponse{
		At:           snap.At,
		TemperatureF: snap.TemperatureF,
		PressureHpa:  snap.PressureHpa,
		AltitudeFt:   snap.AltitudeFt,
	})
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	updates, unsubscribe := s.source.Subscribe(4)
	defer unsubscribe()

	// the client only ever closes; reading is needed to notice it
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					slog.Debug("websocket read error", "error", err)
				}
				return
			}
		}
	}()

	if snap, ok := s.source.Latest(); ok {
		if err := send(conn, snap); err != nil {
			return
		}
	}
	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case snap, ok := <-updates:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeWait))
				return
			}
			if err := send(conn, snap); err != nil {
				slog.Debug("websocket write failed", "error", err)
				return
			}
		}
	}
}

func send(conn *websocket.Conn, snap monitor.Snapshot) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(snap)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("could not send response", "error", err)
	}
}

// ListenAndServe serves h on addr until ctx is done, then shuts down
// gracefully.
func ListenAndServe(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      h,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	errs := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", addr)
		errs <- srv.ListenAndServe()
	}()
	select {
	case err := <-errs:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 4*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	if err != nil {
		return fmt.Errorf("could not shut down http server: %w", err)
	}
	if err := <-errs; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
