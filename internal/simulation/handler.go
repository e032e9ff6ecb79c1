package simulation

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/haesinais/aisdash/pkg/logger"
)

// Handler serves the remote AIS API from a simulated fleet, so the
// dashboard can be run without the real backend
type Handler struct {
	fleet  *Fleet
	logger *logger.Logger

	mu    sync.Mutex
	users map[string]string
}

// NewHandler creates a Handler for fleet
func NewHandler(fleet *Fleet, logger *logger.Logger) *Handler {
	return &Handler{
		fleet:  fleet,
		logger: logger.Named("sim-api"),
		users:  make(map[string]string),
	}
}

// Routes returns the API router
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/api/vessels/all", h.listVessels(false))
	r.Get("/api/vessels/ships-above-60", h.listVessels(true))
	r.Get("/api/predict", h.predict)
	r.Post("/login", h.login)
	r.Post("/members/join", h.join)

	return r
}

// wireVessel is a vessel as the AIS API reports it
type wireVessel struct {
	ID          int64   `json:"id"`
	MMSI        int64   `json:"mmsi"`
	ShipName    string  `json:"ship_name"`
	ShipType    int     `json:"ship_type"`
	CallSign    string  `json:"call_sign"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Speed       float64 `json:"speed"`
	Course      float64 `json:"course"`
	Heading     float64 `json:"heading"`
	Destination string  `json:"destination"`
	MMAFName    string  `json:"mmaf_name"`
	Timestamp   string  `json:"timestamp"`
}

func (h *Handler) listVessels(passengerAndAbove bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all := h.fleet.All()
		list := make([]wireVessel, 0, len(all))
		for i, v := range all {
			if passengerAndAbove && v.ShipType < passengerShipType {
				continue
			}
			list = append(list, wireVessel{
				ID:          int64(i + 1),
				MMSI:        v.MMSI,
				ShipName:    v.ShipName,
				ShipType:    v.ShipType,
				CallSign:    v.CallSign,
				Latitude:    v.Lat,
				Longitude:   v.Lon,
				Speed:       v.Speed,
				Course:      v.Course,
				Heading:     v.Course,
				Destination: v.Destination,
				MMAFName:    v.MMAFName,
				Timestamp:   v.LastUpdate.Local().Format(reportTimeLayout),
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{"response": list})
	}
}

func (h *Handler) predict(w http.ResponseWriter, r *http.Request) {
	mmsi, err := strconv.ParseInt(strings.TrimSpace(r.URL.Query().Get("mmsi")), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid mmsi"})
		return
	}

	points, ok := h.fleet.Predict(mmsi)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "vessel not found"})
		return
	}

	keys := []string{"five", "ten", "thirty"}
	resp := make(map[string]float64, 2*len(points))
	for i, p := range points {
		resp["lat_"+keys[i]] = p.Lat
		resp["lon_"+keys[i]] = p.Lon
	}
	writeJSON(w, http.StatusOK, resp)
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	h.mu.Lock()
	password, exists := h.users[creds.Username]
	h.mu.Unlock()

	if !exists || password != creds.Password {
		h.logger.Info("Rejected login", logger.String("username", creds.Username))
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"username": creds.Username})
}

func (h *Handler) join(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil || creds.Username == "" || creds.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "username and password are required"})
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.users[creds.Username]; exists {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "username already taken"})
		return
	}
	h.users[creds.Username] = creds.Password

	h.logger.Info("Registered user", logger.String("username", creds.Username))
	writeJSON(w, http.StatusCreated, map[string]string{"username": creds.Username})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
