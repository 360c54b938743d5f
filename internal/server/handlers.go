package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/snfsearch/internal/models"
	"github.com/leapstack-labs/snfsearch/internal/search"
)

// FacilitiesResponse is the body of a successful facility search.
type FacilitiesResponse struct {
	Zip        string             `json:"zip"`
	Count      int                `json:"count"`
	Facilities []*models.Provider `json:"facilities"`
}

// HealthResponse is the body of the health check.
type HealthResponse struct {
	Status    string `json:"status"`
	Providers int    `json:"providers"`
	ZipCodes  int    `json:"zip_codes"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	ds := s.Engine().Dataset()
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Providers: ds.Providers.Len(),
		ZipCodes:  ds.ZipCodes.Len(),
	})
}

func (s *Server) handleFacilities(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	results, err := s.Engine().Search(q)
	if errors.Is(err, search.ErrInvalidQuery) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		s.logger.Error("search failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "search failed"})
		return
	}

	if results == nil {
		results = []*models.Provider{}
	}
	writeJSON(w, http.StatusOK, FacilitiesResponse{Zip: q.Zip, Count: len(results), Facilities: results})
}

// parseQuery reads a search query from the zip path parameter or the query
// string. Omitted parameters keep their defaults.
func parseQuery(r *http.Request) (search.Query, error) {
	params := r.URL.Query()

	zip := chi.URLParam(r, "zip")
	if zip == "" {
		zip = params.Get("zip")
	}
	q := search.NewQuery(zip)

	ints := []struct {
		name string
		dst  *int
	}{
		{"limit", &q.Limit},
		{"min_rating", &q.MinRating},
		{"max_deficiencies", &q.MaxDeficiencies},
		{"max_penalties", &q.MaxPenalties},
	}
	for _, p := range ints {
		raw := params.Get(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return q, fmt.Errorf("invalid %s %q: must be an integer", p.name, raw)
		}
		*p.dst = n
	}
	return q, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
