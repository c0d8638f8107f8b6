package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"codeberg.org/mutker/hostwatch/internal/commands"
	"codeberg.org/mutker/hostwatch/internal/errors"
	"codeberg.org/mutker/hostwatch/internal/eventbus"
	"codeberg.org/mutker/hostwatch/internal/logger"
	"codeberg.org/mutker/hostwatch/internal/metrics"
	"codeberg.org/mutker/hostwatch/internal/telemetry"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

const (
	writeTimeout   = 5 * time.Second
	maxRequestBody = 64 << 10
)

// Invoker runs a named command with JSON arguments.
type Invoker interface {
	Invoke(ctx context.Context, name string, args json.RawMessage) (any, error)
}

// Envelope is the wire form of one event on the WebSocket stream.
type Envelope struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server bridges the event bus and command surface to the presentation
// layer over HTTP and WebSocket.
type Server struct {
	bus      *eventbus.Bus
	invoker  Invoker
	recorder metrics.Recorder
	upgrader websocket.Upgrader
	http     *http.Server
}

func New(addr string, bus *eventbus.Bus, invoker Invoker, recorder metrics.Recorder) *Server {
	s := &Server{
		bus:      bus,
		invoker:  invoker,
		recorder: recorder,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/events", s.handleEvents).Methods(http.MethodGet)
	r.HandleFunc("/invoke/{command}", s.handleInvoke).Methods(http.MethodPost)
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	r.Handle("/metrics", s.recorder.Handler()).Methods(http.MethodGet)

	return r
}

// ListenAndServe blocks until the server stops. A clean Shutdown returns nil.
func (s *Server) ListenAndServe() error {
	logger.Info().Str("addr", s.http.Addr).Msg("Presentation bridge listening")

	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.New().Wrap(errors.ErrServeBridge, err)
	}

	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.http.Shutdown(ctx); err != nil {
		return errors.New().Wrap(errors.ErrShutdownFailed, err)
	}

	return nil
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Debug().Err(errors.New().Wrap(ErrUpgradeFailed, err)).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	sub := s.bus.Subscribe(telemetry.Topic)
	s.recorder.SetSubscribers(s.bus.Subscribers(telemetry.Topic))
	defer func() {
		sub.Close()
		s.recorder.SetSubscribers(s.bus.Subscribers(telemetry.Topic))
	}()

	logger.Debug().Str("subscriber", sub.ID).Str("remote", r.RemoteAddr).Msg("Event client connected")

	// The client never sends anything we act on; reading detects the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			logger.Debug().Str("subscriber", sub.ID).Msg("Event client disconnected")
			return
		case event, ok := <-sub.C:
			if !ok {
				return
			}
			if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				return
			}
			if err := conn.WriteJSON(Envelope{Event: event.Topic, Payload: event.Payload}); err != nil {
				logger.Debug().
					Err(errors.New().Wrap(ErrWriteFailed, err)).
					Str("subscriber", sub.ID).
					Msg("Dropping event client")
				return
			}
		}
	}
}

func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["command"]

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if len(body) > maxRequestBody {
		writeJSON(w, http.StatusRequestEntityTooLarge,
			errorResponse{Error: errors.New().New(ErrBodyTooLarge).Error()})
		return
	}

	result, err := s.invoker.Invoke(r.Context(), name, body)
	if err != nil {
		status, msg := statusFor(err)
		logger.Debug().Err(err).Str("command", name).Msg("Command failed")
		writeJSON(w, status, errorResponse{Error: msg})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// statusFor maps a command error to an HTTP status and the diagnostic
// string returned to the caller.
func statusFor(err error) (int, string) {
	switch {
	case errors.HasCode(err, commands.ErrUnknownCommand):
		return http.StatusNotFound, err.Error()
	case errors.HasCode(err, commands.ErrInvalidArguments):
		return http.StatusBadRequest, err.Error()
	case errors.HasCode(err, commands.ErrCommandFailed):
		if cause := errors.Unwrap(err); cause != nil {
			return http.StatusInternalServerError, cause.Error()
		}
		return http.StatusInternalServerError, err.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug().Err(err).Msg("Failed to write response")
	}
}
