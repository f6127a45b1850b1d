package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sw33tLie/estform/internal/utils"
	"github.com/sw33tLie/estform/pkg/fields"
	"github.com/sw33tLie/estform/pkg/form"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		utils.Log.Debugf("writeJSON encode error: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
		"code":  code,
	})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// lookup resolves the {id} path parameter to a session, writing the error
// response itself when it cannot.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*session, bool) {
	raw := chi.URLParam(r, "id")
	if _, err := uuid.Parse(raw); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "invalid session id: "+raw)
		return nil, false
	}
	sess, err := s.session(raw)
	if err != nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
		return nil, false
	}
	return sess, true
}

// respond writes the session state, first waiting for debounced work when
// the request asked for it with ?wait=true.
func respond(w http.ResponseWriter, r *http.Request, sess *session) {
	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); wait {
		sess.ctrl.Wait()
	}
	writeJSON(w, http.StatusOK, sess.ctrl.Snapshot())
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	sess, err := s.createSession()
	if err != nil {
		utils.Log.Errorf("create session: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "could not create session")
		return
	}
	writeJSON(w, http.StatusCreated, sess.ctrl.Snapshot())
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	respond(w, r, sess)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if err := s.deleteSession(sess.ctrl.ID); err != nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	sess.ctrl.Rescan()
	sess.publishRender()
	respond(w, r, sess)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	sess.ctrl.Reset()
	sess.publishRender()
	respond(w, r, sess)
}

type ModeRequest struct {
	Mode string `json:"mode"`
}

func (s *Server) handleMode(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req ModeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if err := sess.ctrl.SetMode(req.Mode); err != nil {
		if errors.Is(err, form.ErrUnknownMode) {
			writeError(w, http.StatusBadRequest, "UNKNOWN_MODE", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	sess.publishRender()
	respond(w, r, sess)
}

type InputRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

func parseField(w http.ResponseWriter, name string) (fields.Key, bool) {
	k, ok := fields.ParseKey(name)
	if !ok {
		writeError(w, http.StatusBadRequest, "UNKNOWN_FIELD", "unknown field: "+name)
	}
	return k, ok
}

func (s *Server) handleInput(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req InputRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	k, ok := parseField(w, req.Field)
	if !ok {
		return
	}
	if err := sess.ctrl.Input(k, req.Value); err != nil {
		writeError(w, http.StatusConflict, "FIELD_UNAVAILABLE", err.Error())
		return
	}
	sess.publishRender()
	respond(w, r, sess)
}

type BlurRequest struct {
	Field string `json:"field"`
}

func (s *Server) handleBlur(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req BlurRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	k, ok := parseField(w, req.Field)
	if !ok {
		return
	}
	if err := sess.ctrl.Blur(k); err != nil {
		writeError(w, http.StatusConflict, "FIELD_UNAVAILABLE", err.Error())
		return
	}
	sess.publishRender()
	respond(w, r, sess)
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); wait {
		sess.ctrl.Wait()
	}
	writeJSON(w, http.StatusOK, sess.ctrl.Suggestions())
}

type PickRequest struct {
	Index int `json:"index"`
}

func (s *Server) handlePick(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req PickRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if err := sess.ctrl.Pick(req.Index); err != nil {
		if errors.Is(err, form.ErrNoSuggestion) {
			writeError(w, http.StatusBadRequest, "NO_SUGGESTION", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	respond(w, r, sess)
}

func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := sess.ctrl.Render(w); err != nil {
		utils.Log.Warnf("[%s] render: %v", sess.ctrl.ID, err)
	}
}

// handleWS streams render and notice events until the client goes away or
// the session is closed.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		utils.Log.Debugf("[%s] websocket accept: %v", sess.ctrl.ID, err)
		return
	}
	defer conn.CloseNow()

	events := sess.subscribe()
	defer sess.unsubscribe(events)

	// The client never sends anything; reading only processes control frames.
	ctx := conn.CloseRead(r.Context())

	html, err := sess.ctrl.HTML()
	if err == nil {
		err = wsjson.Write(ctx, conn, Event{Type: "render", HTML: html})
	}
	if err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "session closed")
				return
			}
			if err := wsjson.Write(ctx, conn, ev); err != nil {
				utils.Log.Debugf("[%s] websocket write: %v", sess.ctrl.ID, err)
				return
			}
		}
	}
}
