package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/mcdev12/draftcast/go/internal/draft/engine"
	"github.com/mcdev12/draftcast/go/internal/draft/orchestrator"
	"github.com/mcdev12/draftcast/go/internal/presets"
	"github.com/rs/zerolog/log"
)

const maxRequestBody = 64 << 10

// ConnectRequest is the body of POST /api/drafts/{type}/connect
type ConnectRequest struct {
	Draft string `json:"draft"`
}

// ConnectResponse reports the outcome of a connect attempt
type ConnectResponse struct {
	OK         bool                         `json:"ok"`
	Connection orchestrator.DraftConnection `json:"connection"`
}

type seriesFormatRequest struct {
	Format string `json:"format"`
}

type winnerRequest struct {
	Winner *string `json:"winner"`
}

type fieldRequest struct {
	Value *string `json:"value"`
}

type namesRequest struct {
	Host  string `json:"host"`
	Guest string `json:"guest"`
}

type scoresRequest struct {
	Host  int `json:"host"`
	Guest int `json:"guest"`
}

type colorsRequest struct {
	Host  string `json:"host"`
	Guest string `json:"guest"`
}

type presetRequest struct {
	Name string `json:"name"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// StateHandler serves the JSON control API over the session
type StateHandler struct {
	controller SessionController
}

// NewStateHandler creates a new state handler
func NewStateHandler(controller SessionController) *StateHandler {
	return &StateHandler{
		controller: controller,
	}
}

// HandleGetState handles GET /api/state
func (h *StateHandler) HandleGetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.controller.View())
}

// HandleConnect handles POST /api/drafts/{type}/connect. It answers once the snapshot is
// applied and the live channel attempt has finished.
func (h *StateHandler) HandleConnect(w http.ResponseWriter, r *http.Request) {
	scope, ok := engine.ParseScope(r.PathValue("type"))
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown draft type %q", r.PathValue("type")))
		return
	}
	var req ConnectRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Draft) == "" {
		writeError(w, http.StatusBadRequest, errors.New("draft is required"))
		return
	}

	ok = h.controller.Connect(r.Context(), req.Draft, scope)
	writeJSON(w, http.StatusOK, ConnectResponse{
		OK:         ok,
		Connection: h.controller.Connection(scope),
	})
}

// HandleDisconnect handles POST /api/drafts/{type}/disconnect
func (h *StateHandler) HandleDisconnect(w http.ResponseWriter, r *http.Request) {
	scope, ok := engine.ParseScope(r.PathValue("type"))
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown draft type %q", r.PathValue("type")))
		return
	}
	h.controller.Disconnect(scope)
	writeJSON(w, http.StatusOK, h.controller.Connection(scope))
}

// HandleSetSeriesFormat handles PUT /api/series/format
func (h *StateHandler) HandleSetSeriesFormat(w http.ResponseWriter, r *http.Request) {
	var req seriesFormatRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.respond(w, h.controller.SetSeriesFormat(req.Format))
}

// HandleSetGameWinner handles PUT /api/series/games/{index}/winner. A null winner clears it.
func (h *StateHandler) HandleSetGameWinner(w http.ResponseWriter, r *http.Request) {
	index, ok := gameIndex(w, r)
	if !ok {
		return
	}
	var req winnerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var winner *engine.Side
	if req.Winner != nil {
		side, ok := engine.ParseSide(*req.Winner)
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid winner %q", *req.Winner))
			return
		}
		winner = &side
	}
	h.respond(w, h.controller.SetGameWinner(index, winner))
}

// HandleSetGameField handles PUT /api/series/games/{index}/fields/{field}
func (h *StateHandler) HandleSetGameField(w http.ResponseWriter, r *http.Request) {
	index, ok := gameIndex(w, r)
	if !ok {
		return
	}
	var req fieldRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.respond(w, h.controller.SetGameField(index, r.PathValue("field"), req.Value))
}

// HandleSetNames handles PUT /api/session/names
func (h *StateHandler) HandleSetNames(w http.ResponseWriter, r *http.Request) {
	var req namesRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.controller.SetTeamNames(req.Host, req.Guest)
	h.respond(w, nil)
}

// HandleSetScores handles PUT /api/session/scores
func (h *StateHandler) HandleSetScores(w http.ResponseWriter, r *http.Request) {
	var req scoresRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Host < 0 || req.Guest < 0 {
		writeError(w, http.StatusBadRequest, errors.New("scores must not be negative"))
		return
	}
	h.controller.SetScores(req.Host, req.Guest)
	h.respond(w, nil)
}

// HandleSetColors handles PUT /api/session/colors
func (h *StateHandler) HandleSetColors(w http.ResponseWriter, r *http.Request) {
	var req colorsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.controller.SetColors(req.Host, req.Guest)
	h.respond(w, nil)
}

// HandleReset handles POST /api/session/reset
func (h *StateHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	h.controller.ResetSession()
	h.respond(w, nil)
}

// HandleListPresets handles GET /api/presets
func (h *StateHandler) HandleListPresets(w http.ResponseWriter, r *http.Request) {
	list, err := h.controller.ListPresets(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if list == nil {
		list = []engine.Preset{}
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleSavePreset handles POST /api/presets
func (h *StateHandler) HandleSavePreset(w http.ResponseWriter, r *http.Request) {
	var req presetRequest
	if !decodeBody(w, r, &req) {
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, errors.New("name is required"))
		return
	}
	p, err := h.controller.SaveAsPreset(r.Context(), name)
	if err != nil {
		log.Error().Err(err).Str("name", name).Msg("failed to save preset")
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// HandleLoadPreset handles POST /api/presets/{id}/load
func (h *StateHandler) HandleLoadPreset(w http.ResponseWriter, r *http.Request) {
	p, err := h.controller.LoadPreset(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleDeletePreset handles DELETE /api/presets/{id}
func (h *StateHandler) HandleDeletePreset(w http.ResponseWriter, r *http.Request) {
	if err := h.controller.DeletePreset(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RegisterStateRoutes registers the control API routes
func (h *StateHandler) RegisterStateRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/state", h.HandleGetState)

	mux.HandleFunc("POST /api/drafts/{type}/connect", h.HandleConnect)
	mux.HandleFunc("POST /api/drafts/{type}/disconnect", h.HandleDisconnect)

	mux.HandleFunc("PUT /api/series/format", h.HandleSetSeriesFormat)
	mux.HandleFunc("PUT /api/series/games/{index}/winner", h.HandleSetGameWinner)
	mux.HandleFunc("PUT /api/series/games/{index}/fields/{field}", h.HandleSetGameField)

	mux.HandleFunc("PUT /api/session/names", h.HandleSetNames)
	mux.HandleFunc("PUT /api/session/scores", h.HandleSetScores)
	mux.HandleFunc("PUT /api/session/colors", h.HandleSetColors)
	mux.HandleFunc("POST /api/session/reset", h.HandleReset)

	mux.HandleFunc("GET /api/presets", h.HandleListPresets)
	mux.HandleFunc("POST /api/presets", h.HandleSavePreset)
	mux.HandleFunc("POST /api/presets/{id}/load", h.HandleLoadPreset)
	mux.HandleFunc("DELETE /api/presets/{id}", h.HandleDeletePreset)
}

// respond answers a mutation with the resulting view, or maps err to a status.
func (h *StateHandler) respond(w http.ResponseWriter, err error) {
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, h.controller.View())
}

func gameIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid game index %q", r.PathValue("index")))
		return 0, false
	}
	return index, true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrInvalidSeriesFormat),
		errors.Is(err, engine.ErrUnknownGameField),
		errors.Is(err, engine.ErrGameIndex):
		return http.StatusBadRequest
	case errors.Is(err, presets.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, orchestrator.ErrNoPresetStore):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
