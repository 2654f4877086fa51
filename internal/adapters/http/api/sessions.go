package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/okian/dojo/internal/adapters/repository"
	"github.com/okian/dojo/internal/domain/model"
	"github.com/okian/dojo/internal/domain/types"
)

// Request limits.
const (
	maxBodyBytes = 8 << 20
	maxBatch     = 1000
)

// SessionHandler handles the session lifecycle and frame ingestion.
type SessionHandler struct {
	deps Dependencies
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(deps Dependencies) *SessionHandler {
	return &SessionHandler{deps: deps}
}

// frameRequest accepts either one frame or {"frames": [...]}.
type frameRequest struct {
	types.FrameInput
	Frames []types.FrameInput `json:"frames"`
}

type eventsResponse struct {
	Events []repository.Record `json:"events"`
	Next   uint64              `json:"next"`
}

func decode(w http.ResponseWriter, r *http.Request, v any, optional bool) error {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	if optional && errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// HandleCreate handles POST /sessions.
func (h *SessionHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_session"
	var req types.CreateSessionRequest
	if err := decode(w, r, &req, true); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	id, err := h.deps.CreateSession(r.Context(), req)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, types.SessionResponse{ID: id})
}

// HandleStats handles GET /sessions/{id}.
func (h *SessionHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.deps.SessionStats(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, "api.session_stats", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// HandleDelete handles DELETE /sessions/{id}.
func (h *SessionHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.DeleteSession(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, "api.delete_session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDefender handles POST /sessions/{id}/defender.
func (h *SessionHandler) HandleDefender(w http.ResponseWriter, r *http.Request) {
	const op = "api.set_defender"
	var req types.RoleRequest
	if err := decode(w, r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if req.TrackID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("missing track_id")))
		return
	}
	if err := h.deps.SetRoles(r.Context(), r.PathValue("id"), req); err != nil {
		writeServiceError(w, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleFrames handles POST /sessions/{id}/frames.
func (h *SessionHandler) HandleFrames(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_frames"
	var req frameRequest
	if err := decode(w, r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	inputs := req.Frames
	if len(inputs) == 0 {
		inputs = []types.FrameInput{req.FrameInput}
	}
	if len(inputs) > maxBatch {
		writeError(w, http.StatusBadRequest, "bad_request",
			WrapKind(op, ErrBadRequest, fmt.Errorf("batch of %d frames exceeds %d", len(inputs), maxBatch)))
		return
	}

	frames := make([]model.Frame, len(inputs))
	for i := range inputs {
		frames[i] = inputs[i].ToFrame()
	}
	resp, err := h.deps.SubmitFrames(r.Context(), r.PathValue("id"), frames)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusAccepted, resp)
}

// HandleReset handles POST /sessions/{id}/reset.
func (h *SessionHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Reset(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, "api.reset", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleEnd handles POST /sessions/{id}/end.
func (h *SessionHandler) HandleEnd(w http.ResponseWriter, r *http.Request) {
	report, err := h.deps.End(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, "api.end", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HandleReport handles GET /sessions/{id}/report.
func (h *SessionHandler) HandleReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.deps.Report(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, "api.report", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HandleEvents handles GET /sessions/{id}/events?since=N&limit=M.
func (h *SessionHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	const op = "api.events"
	q := r.URL.Query()
	var since uint64
	if v := q.Get("since"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		since = n
	}
	var limit int
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, fmt.Errorf("invalid limit %q", v)))
			return
		}
		limit = n
	}

	recs, err := h.deps.Events(r.Context(), r.PathValue("id"), since, limit)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	next := since
	if len(recs) > 0 {
		next = recs[len(recs)-1].Seq
	}
	writeJSON(w, http.StatusOK, eventsResponse{Events: recs, Next: next})
}
