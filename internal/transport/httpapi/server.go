// Package httpapi serves a session over JSON HTTP and a websocket feed.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/xtding233/dicestats/internal/app"
	"github.com/xtding233/dicestats/internal/preset"
)

const (
	maxBodyBytes = 1 << 20
	writeWait    = 10 * time.Second
)

type errResp struct {
	Err string `json:"err"`
}

type presetResp struct {
	Preset      preset.Preset `json:"preset"`
	Description string        `json:"description"`
}

type actionsReq struct {
	Actions json.RawMessage `json:"actions"`
}

// Server exposes one session.
type Server struct {
	session  *app.Session
	log      *slog.Logger
	upgrader websocket.Upgrader
}

func New(session *app.Session, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		session:  session,
		log:      logger,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

// Handler returns the routes:
//
//	GET  /healthz
//	GET  /api/state
//	POST /api/actions   [...], {"actions": [...]} or a single action object
//	GET  /api/presets
//	GET  /api/ws
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/state", s.handleState).Methods(http.MethodGet)
	api.HandleFunc("/actions", s.handleActions).Methods(http.MethodPost)
	api.HandleFunc("/presets", s.handlePresets).Methods(http.MethodGet)
	api.HandleFunc("/ws", s.handleWS).Methods(http.MethodGet)
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	list := s.session.State().Presets
	out := make([]presetResp, len(list))
	for i, p := range list {
		out[i] = presetResp{Preset: p, Description: p.Describe()}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleActions(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errResp{Err: "read body: " + err.Error()})
		return
	}
	actions, err := decodeBatch(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errResp{Err: err.Error()})
		return
	}
	snap, err := s.session.Dispatch(r.Context(), actions...)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, app.ErrLimit) {
			status = http.StatusBadRequest
		}
		s.log.Warn("dispatch failed", "err", err, "actions", len(actions))
		writeJSON(w, status, errResp{Err: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// decodeBatch accepts [...], {"actions": [...]} or one bare action object.
func decodeBatch(body []byte) ([]app.Action, error) {
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '[' {
		return app.DecodeActions(body)
	}
	var req actionsReq
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, err
	}
	if req.Actions != nil {
		return app.DecodeActions(req.Actions)
	}
	a, err := app.DecodeAction(body)
	if err != nil {
		return nil, err
	}
	return []app.Action{a}, nil
}

// handleWS pushes a snapshot on connect and after every dispatched batch.
// Messages from the client are action batches, same shape as POST /api/actions.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	updates, cancel := s.session.Subscribe()
	defer cancel()

	ctx, stop := context.WithCancel(r.Context())
	defer stop()

	errs := make(chan errResp, 1)
	go func() {
		defer stop()
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			actions, err := decodeBatch(msg)
			if err == nil {
				_, err = s.session.Dispatch(ctx, actions...)
			}
			if err != nil {
				select {
				case errs <- errResp{Err: err.Error()}:
				default:
				}
			}
		}
	}()

	send := func(v any) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(v); err != nil {
			s.log.Debug("websocket write failed", "err", err)
			return false
		}
		return true
	}
	if !send(s.session.Snapshot()) {
		return
	}
	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			return
		case e := <-errs:
			if !send(e) {
				return
			}
		case snap, ok := <-updates:
			if !ok || !send(snap) {
				return
			}
		}
	}
}
