package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/haesinais/aisdash/internal/account"
	"github.com/haesinais/aisdash/internal/config"
	"github.com/haesinais/aisdash/internal/dashboard"
	"github.com/haesinais/aisdash/internal/vessel"
	"github.com/haesinais/aisdash/internal/websocket"
	"github.com/haesinais/aisdash/pkg/logger"
)

const (
	maxBodyBytes  = 64 << 10
	intentTimeout = 5 * time.Second
)

// Handler contains the API handlers
type Handler struct {
	home     *dashboard.Home
	accounts *account.Service
	config   *config.Config
	logger   *logger.Logger
	wsServer *websocket.Server
}

// NewHandler creates a new API handler
func NewHandler(home *dashboard.Home, accounts *account.Service, cfg *config.Config, loggerObj *logger.Logger, wsServer *websocket.Server) *Handler {
	return &Handler{
		home:     home,
		accounts: accounts,
		config:   cfg,
		logger:   loggerObj.Named("api-handler"),
		wsServer: wsServer,
	}
}

// GetHealth returns the health status of the API
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	lastPoll, ok, cycles := h.home.PollStatus()
	view := h.home.View()

	response := map[string]any{
		"status":       ok,
		"loading":      view.Loading,
		"last_poll":    lastPoll,
		"poll_cycles":  cycles,
		"vessel_count": view.TotalVessels,
	}
	if h.wsServer != nil {
		response["websocket_clients"] = h.wsServer.ClientCount()
	}

	WriteJSON(w, http.StatusOK, response)
}

// GetConfig returns the public configuration
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	opts := h.home.Options()

	publicConfig := map[string]any{
		"remote": map[string]any{
			"vessel_source":          opts.VesselSource,
			"fetch_interval_seconds": int(opts.PollInterval / time.Second),
		},
		"dashboard": map[string]any{
			"rows_per_page":  opts.RowsPerPage,
			"default_center": opts.DefaultCenter,
		},
		"prediction": map[string]any{
			"enabled": opts.PredictionEnabled,
			"shape":   opts.PredictionShape,
		},
		"websocket_updates": h.config != nil && h.config.Server.WebSocketUpdates,
	}

	WriteJSON(w, http.StatusOK, publicConfig)
}

// GetView returns the current dashboard snapshot
func (h *Handler) GetView(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.home.View())
}

// GetVessels returns the rows of the current page, or the whole working
// list with ?all=true
func (h *Handler) GetVessels(w http.ResponseWriter, r *http.Request) {
	view := h.home.View()

	if all, _ := strconv.ParseBool(r.URL.Query().Get("all")); all {
		WriteJSON(w, http.StatusOK, map[string]any{
			"vessels": view.Vessels,
			"count":   len(view.Vessels),
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"vessels": view.Rows,
		"count":   len(view.Rows),
		"page":    view.Page,
	})
}

// GetVesselByMMSI returns one vessel from the working list
func (h *Handler) GetVesselByMMSI(w http.ResponseWriter, r *http.Request) {
	mmsi, err := strconv.ParseInt(chi.URLParam(r, "mmsi"), 10, 64)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid mmsi")
		return
	}

	record, ok := h.home.Vessel(mmsi)
	if !ok {
		WriteError(w, http.StatusNotFound, "vessel not found")
		return
	}

	WriteJSON(w, http.StatusOK, record)
}

// GetCharts returns the summary charts
func (h *Handler) GetCharts(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.home.View().Charts)
}

type searchRequest struct {
	Term string `json:"term"`
}

// Search sets the search term
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !h.decode(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), intentTimeout)
	defer cancel()

	view, err := h.home.Search(ctx, req.Term)
	h.writeIntent(w, view, err)
}

type pageRequest struct {
	Direction string `json:"direction"`
	Page      *int   `json:"page"`
}

// ChangePage moves to the previous or next page, or jumps to a page
func (h *Handler) ChangePage(w http.ResponseWriter, r *http.Request) {
	var req pageRequest
	if !h.decode(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), intentTimeout)
	defer cancel()

	var (
		view dashboard.ViewState
		err  error
	)
	switch {
	case req.Page != nil:
		view, err = h.home.GoToPage(ctx, *req.Page)
	case req.Direction != "":
		view, err = h.home.ChangePage(ctx, req.Direction)
	default:
		WriteError(w, http.StatusBadRequest, "direction or page is required")
		return
	}
	h.writeIntent(w, view, err)
}

type selectRequest struct {
	MMSI   vessel.FlexibleField `json:"mmsi"`
	Source string               `json:"source"`
}

// Select selects a vessel by MMSI
func (h *Handler) Select(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if !h.decode(w, r, &req) {
		return
	}
	mmsi := req.MMSI.Int64Or(-1)
	if mmsi < 0 {
		WriteError(w, http.StatusBadRequest, "mmsi is required")
		return
	}

	source := req.Source
	if source == "" {
		source = dashboard.SourceTable
	}
	if source != dashboard.SourceTable && source != dashboard.SourceMap {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid source %q", source))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), intentTimeout)
	defer cancel()

	view, err := h.home.Select(ctx, mmsi, source)
	h.writeIntent(w, view, err)
}

type credentialsRequest struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Login authenticates against the remote API
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.accounts.Login(r.Context(), req.Username, req.Password)
	WriteJSON(w, accountStatus(err, http.StatusOK, http.StatusUnauthorized), res)
}

// Register creates a new member on the remote API
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.accounts.Register(r.Context(), req.Username, req.Password, req.ConfirmPassword)
	WriteJSON(w, accountStatus(err, http.StatusCreated, http.StatusBadRequest), res)
}

func accountStatus(err error, success, rejected int) int {
	switch {
	case err == nil:
		return success
	case errors.Is(err, account.ErrPasswordMismatch), errors.Is(err, account.ErrMissingCredentials):
		return http.StatusBadRequest
	default:
		return rejected
	}
}

// decode reads a JSON body into v, writing a 400 on failure
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.logger.Debug("Invalid request body", logger.String("path", r.URL.Path), logger.Error(err))
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (h *Handler) writeIntent(w http.ResponseWriter, view dashboard.ViewState, err error) {
	switch {
	case err == nil:
		WriteJSON(w, http.StatusOK, view)
	case errors.Is(err, dashboard.ErrVesselNotFound):
		WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, dashboard.ErrNotRunning):
		WriteError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		WriteError(w, http.StatusGatewayTimeout, "dashboard did not respond")
	default:
		h.logger.Error("Intent failed", logger.Error(err))
		WriteError(w, http.StatusInternalServerError, err.Error())
	}
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// WriteError writes {"error": message}
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}
