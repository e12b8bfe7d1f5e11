package httpadapter

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/couchcryptid/crime-map-service/internal/adapter/geojson"
	"github.com/couchcryptid/crime-map-service/internal/domain"
)

type handlers struct {
	atlas        AtlasProvider
	logger       *slog.Logger
	nearestLimit int
}

// ClassificationResponse answers a classification lookup for any name.
type ClassificationResponse struct {
	Name        string                `json:"name"`
	Kind        string                `json:"kind"` // "district" or "station"
	Level       domain.Classification `json:"level"`
	Color       string                `json:"color"`
	Description string                `json:"description"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *handlers) register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/legend", h.legend)
	mux.HandleFunc("GET /api/v1/report", h.withAtlas(h.report))
	mux.HandleFunc("GET /api/v1/districts", h.withAtlas(h.districts))
	mux.HandleFunc("GET /api/v1/districts/{name}", h.withAtlas(h.district))
	mux.HandleFunc("GET /api/v1/districts/{name}/nearest", h.withAtlas(h.nearest))
	mux.HandleFunc("GET /api/v1/districts/{name}/stations", h.withAtlas(h.subdistricts))
	mux.HandleFunc("GET /api/v1/stations", h.withAtlas(h.stations))
	mux.HandleFunc("GET /api/v1/classification/{name}", h.withAtlas(h.classification))
	mux.HandleFunc("GET /api/v1/view", h.withAtlas(h.view))
	mux.HandleFunc("GET /api/v1/map", h.withAtlas(h.geoJSON))
}

type atlasHandler func(w http.ResponseWriter, r *http.Request, atlas *domain.Atlas)

// withAtlas answers 503 until the first atlas is loaded. Each request works
// on the atlas current when it started.
func (h *handlers) withAtlas(next atlasHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		atlas := h.atlas.Current()
		if atlas == nil {
			h.writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "crime data not loaded yet"})
			return
		}
		next(w, r, atlas)
	}
}

func (h *handlers) legend(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, domain.Legend())
}

func (h *handlers) report(w http.ResponseWriter, _ *http.Request, atlas *domain.Atlas) {
	h.writeJSON(w, http.StatusOK, atlas.Report())
}

func (h *handlers) districts(w http.ResponseWriter, _ *http.Request, atlas *domain.Atlas) {
	h.writeJSON(w, http.StatusOK, atlas.DistrictSummaries())
}

func (h *handlers) district(w http.ResponseWriter, r *http.Request, atlas *domain.Atlas) {
	name := r.PathValue("name")
	if !atlas.IsDistrict(name) {
		h.notFound(w, "district", name)
		return
	}
	h.writeJSON(w, http.StatusOK, atlas.DistrictView(atlas.CanonicalDistrict(name), h.nearestLimit))
}

func (h *handlers) nearest(w http.ResponseWriter, r *http.Request, atlas *domain.Atlas) {
	name := r.PathValue("name")
	if _, ok := atlas.FindDistrict(name); !ok {
		h.notFound(w, "district", name)
		return
	}
	limit := h.nearestLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = n
	}
	out := atlas.NearestStations(name, limit)
	if out == nil {
		out = []domain.NearestStation{}
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *handlers) subdistricts(w http.ResponseWriter, r *http.Request, atlas *domain.Atlas) {
	name := r.PathValue("name")
	if !atlas.IsDistrict(name) {
		h.notFound(w, "district", name)
		return
	}
	h.writeJSON(w, http.StatusOK, atlas.Subdistricts(name))
}

func (h *handlers) stations(w http.ResponseWriter, _ *http.Request, atlas *domain.Atlas) {
	h.writeJSON(w, http.StatusOK, atlas.StationMarkers())
}

func (h *handlers) classification(w http.ResponseWriter, r *http.Request, atlas *domain.Atlas) {
	name := r.PathValue("name")
	kind := "station"
	if atlas.IsDistrict(name) {
		kind = "district"
	}
	level := atlas.ClassificationFor(name)
	h.writeJSON(w, http.StatusOK, ClassificationResponse{
		Name:        name,
		Kind:        kind,
		Level:       level,
		Color:       level.Color(),
		Description: level.Describe(name),
	})
}

// view replays a selection from query parameters and returns the resulting
// view bundle. station requires district.
func (h *handlers) view(w http.ResponseWriter, r *http.Request, atlas *domain.Atlas) {
	q := r.URL.Query()
	session := domain.NewSession(atlas)
	session.SetNearestLimit(h.nearestLimit)

	if district := q.Get("district"); district != "" {
		if err := session.SelectDistrict(district); err != nil {
			h.badSelection(w, err)
			return
		}
	}
	if station := q.Get("station"); station != "" {
		if err := session.SelectSubdistrict(station); err != nil {
			h.badSelection(w, err)
			return
		}
	}
	h.writeJSON(w, http.StatusOK, session.View())
}

func (h *handlers) geoJSON(w http.ResponseWriter, _ *http.Request, atlas *domain.Atlas) {
	data, err := geojson.EncodeDistricts(atlas.Districts())
	if err != nil {
		h.logger.Error("encode district map", "error", err)
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to encode map"})
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Debug("write response", "error", err)
	}
}

func (h *handlers) badSelection(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, domain.ErrInvalidTransition) {
		status = http.StatusBadRequest
	}
	h.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (h *handlers) notFound(w http.ResponseWriter, kind, name string) {
	h.writeJSON(w, http.StatusNotFound, errorResponse{Error: kind + " not found: " + name})
}

func (h *handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Debug("write response", "error", err)
	}
}
