package api

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"gopress/app"
	"gopress/domain/core"
	"gopress/domain/network"
	"gopress/internal"
	"gopress/internal/errors"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// TallyRequest is the JSON body of POST /tally. Perturbation and monitoring
// map node labels to "-", "0", "+" or "?"; omitted nodes are unpressed and
// unmonitored.
type TallyRequest struct {
	Perturbation map[string]string `json:"perturbation"`
	Monitoring   map[string]string `json:"monitoring"`
	Epsilon      *float64          `json:"epsilon,omitempty"`
	Edges        []int             `json:"edges,omitempty"`
	ShowWeights  bool              `json:"show_weights"`
}

// NodesResponse describes the ensemble a tally runs against
type NodesResponse struct {
	Nodes       []string       `json:"nodes"`
	Edges       []network.Edge `json:"edges"`
	Simulations int            `json:"simulations"`
}

// Handler serves the JSON API
type Handler struct {
	service *app.TallyService
	logger  *internal.Logger
}

// NewHandler creates the handler
func NewHandler(service *app.TallyService) *Handler {
	return &Handler{service: service, logger: internal.DefaultLogger}
}

// Routes returns the API router; it is mounted under /api by the web server
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/nodes", h.handleNodes)
	r.Post("/tally", h.handleTally)
	r.Get("/runs", h.handleRecentRuns)
	r.Get("/runs/{id}", h.handleGetRun)
	return r
}

func (h *Handler) handleNodes(w http.ResponseWriter, r *http.Request) {
	ens, err := h.service.Ensemble(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, NodesResponse{
		Nodes:       ens.Nodes,
		Edges:       ens.Edges,
		Simulations: ens.Size(),
	})
}

func (h *Handler) handleTally(w http.ResponseWriter, r *http.Request) {
	var req TallyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, errors.InvalidInput(fmt.Sprintf("invalid request body: %v", err)))
		return
	}

	dialog, err := h.service.NewSelector(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := dialog.ApplyLabels(req.Perturbation, req.Monitoring); err != nil {
		h.writeError(w, errors.InvalidInput(err.Error()))
		return
	}
	for _, e := range req.Edges {
		if err := dialog.EdgeChoice.Set(e, true); err != nil {
			h.writeError(w, err)
			return
		}
	}
	dialog.ShowWeights.Checked = req.ShowWeights

	sel := dialog.Selection()
	// The API takes the tolerance as given rather than snapped to the slider
	if req.Epsilon != nil {
		if *req.Epsilon < 0 || math.IsNaN(*req.Epsilon) {
			h.writeError(w, core.NewArgumentError("epsilon", "must be non-negative"))
			return
		}
		sel.Epsilon = *req.Epsilon
	}

	tr, err := h.service.Run(r.Context(), sel)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tr)
}

func (h *Handler) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseRunID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, errors.InvalidInput(err.Error()))
		return
	}
	tr, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tr)
}

func (h *Handler) handleRecentRuns(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			h.writeError(w, errors.InvalidInput("limit must be a positive integer"))
			return
		}
		limit = n
	}
	runs, err := h.service.Recent(r.Context(), limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("[API] %v", err)
	}
	writeJSON(w, status, map[string]string{
		"error": err.Error(),
		"code":  errors.GetCode(err),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
