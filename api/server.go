// Package api serves the HTTP control surface: listing, uploading, playing
// and stopping timelines, plus a websocket preview of the rendered strip.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/matt-g-everett/ledmotion/engine"
	"github.com/matt-g-everett/ledmotion/library"
	"github.com/matt-g-everett/ledmotion/timeline"
	"github.com/matt-g-everett/ledmotion/timing"
	"go.uber.org/zap"
)

const maxBody = 1 << 20

// A Caller runs fn on the goroutine that owns the library and waits for it.
// host.Loop is one.
type Caller interface {
	Call(ctx context.Context, fn func() error) error
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Server exposes a library over HTTP.
type Server struct {
	loop Caller
	lib  *library.Library
	hub  *Hub
	log  *zap.Logger
}

// NewServer creates a server. hub may be nil to disable the preview.
func NewServer(loop Caller, lib *library.Library, hub *Hub, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		loop: loop,
		lib:  lib,
		hub:  hub,
		log:  log,
	}
}

// Router builds the chi router for the API.
func (s *Server) Router(middlewares ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	for _, mw := range middlewares {
		r.Use(mw)
	}

	r.Get("/health", s.handleHealth)
	r.Route("/timelines", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Put("/", s.handlePut)
		r.Get("/{name}", s.handleGet)
		r.Delete("/{name}", s.handleDelete)
		r.Post("/{name}/play", s.handlePlay)
		r.Post("/{name}/stop", s.handleStop)
	})
	if s.hub != nil {
		r.Get("/preview", s.handlePreview)
	}

	return r
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// statusFor maps library and engine errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, library.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, timeline.ErrInvalidKeyframe),
		errors.Is(err, timing.ErrMalformedCurve),
		errors.Is(err, timing.ErrUnknownCurve),
		errors.Is(err, library.ErrUnnamed):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrTargetNotFound),
		errors.Is(err, engine.ErrUnsupportedTarget),
		errors.Is(err, engine.ErrUnsupportedAttribute),
		errors.Is(err, engine.ErrMissingValue):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"service": "ledmotion",
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	var status []library.Status
	err := s.loop.Call(r.Context(), func() error {
		status = s.lib.Status()
		return nil
	})
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var data []byte
	err := s.loop.Call(r.Context(), func() error {
		tl, ok := s.lib.Get(name)
		if !ok {
			return library.ErrNotFound
		}
		var err error
		data, err = json.Marshal(tl)
		return err
	})
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	tl, err := timeline.Load(io.LimitReader(r.Body, maxBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	name := tl.Name()
	var duration float64
	err = s.loop.Call(r.Context(), func() error {
		duration = tl.Duration()
		return s.lib.Add(tl)
	})
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	s.log.Info("timeline uploaded", zap.String("timeline", name))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":     name,
		"duration": duration,
	})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	err := s.loop.Call(r.Context(), func() error {
		return s.lib.Remove(name)
	})
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	err := s.loop.Call(r.Context(), func() error {
		return s.lib.Play(name, nil)
	})
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]interface{}{"name": name, "playing": true})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	err := s.loop.Call(r.Context(), func() error {
		return s.lib.Stop(name)
	})
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"name": name, "playing": false})
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("preview upgrade", zap.Error(err))
		return
	}
	s.hub.serve(conn)
}
