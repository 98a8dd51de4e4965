package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/opcmap/policymap/pkg/buildinfo"
	"github.com/opcmap/policymap/pkg/errors"
	"github.com/opcmap/policymap/pkg/record"
	"github.com/opcmap/policymap/pkg/search"
	"github.com/opcmap/policymap/pkg/store"
)

type policyList struct {
	Total    int             `json:"total"`
	Query    search.Query    `json:"query"`
	Policies []record.Policy `json:"policies"`
}

type policyDetail struct {
	Policy record.Policy `json:"policy"`
	Parks  []record.Park `json:"parks"`
}

type parkList struct {
	Total int           `json:"total"`
	Parks []record.Park `json:"parks"`
}

type parkDetail struct {
	Park     record.Park     `json:"park"`
	Policies []record.Policy `json:"policies"`
}

type benefitCount struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

type errorBody struct {
	Error struct {
		Code    errors.Code `json:"code"`
		Message string      `json:"message"`
	} `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.Version})
}

func (s *Server) handlePolicies(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	q := search.Query{
		Text:    params.Get("q"),
		City:    params.Get("city"),
		Status:  record.Status(params.Get("status")),
		Benefit: params.Get("benefit"),
		Tag:     params.Get("tag"),
	}
	if q.Status != "" && !q.Status.Valid() {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "unknown status %q", q.Status))
		return
	}
	limit, err := parseLimit(params.Get("limit"))
	if err != nil {
		writeError(w, err)
		return
	}

	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	policies := search.Apply(snap.Policies, q)
	total := len(policies)
	if limit > 0 && limit < total {
		policies = policies[:limit]
	}
	writeJSON(w, http.StatusOK, policyList{Total: total, Query: q, Policies: policies})
}

func (s *Server) handlePolicy(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	p, found := snap.PolicyByID(id)
	if !found {
		writeError(w, errors.New(errors.ErrCodeNotFound, "policy %q not found", id))
		return
	}
	writeJSON(w, http.StatusOK, policyDetail{Policy: p, Parks: snap.ParksFor(p)})
}

func (s *Server) handleParks(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, parkList{Total: len(snap.Parks), Parks: snap.Parks})
}

func (s *Server) handlePark(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	park, found := snap.ParkByID(id)
	if !found {
		writeError(w, errors.New(errors.ErrCodeNotFound, "park %q not found", id))
		return
	}
	writeJSON(w, http.StatusOK, parkDetail{Park: park, Policies: snap.PoliciesFor(park)})
}

func (s *Server) handleCities(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"cities": snap.Cities()})
}

func (s *Server) handleTags(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"tags": snap.Tags()})
}

func (s *Server) handleBenefits(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string][]benefitCount{"benefits": countBenefits(snap.Policies)})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, snap.SiteStats())
}

func (s *Server) handleCityStats(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, snap.CityStats())
}

// snapshot obtains the request's snapshot and handles conditional requests.
// It returns false when the response has already been written.
func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) (*store.Snapshot, bool) {
	snap, err := s.source.Snapshot(r.Context())
	if err != nil {
		s.logger.Error("Cannot load data", "err", err)
		writeError(w, err)
		return nil, false
	}

	etag := `"` + snap.Fingerprint + `"`
	w.Header().Set("ETag", etag)
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return nil, false
	}
	return snap, true
}

// countBenefits tallies policies per benefit category, known categories
// first in canonical order, then the rest by key.
func countBenefits(policies []record.Policy) []benefitCount {
	counts := make(map[string]int)
	all := record.Benefits{}
	for i := range policies {
		for key := range policies[i].Benefits {
			counts[key]++
			all[key] = record.Benefit{}
		}
	}
	out := make([]benefitCount, 0, len(counts))
	for _, key := range all.Keys() {
		out = append(out, benefitCount{Key: key, Label: record.BenefitLabel(key), Count: counts[key]})
	}
	return out
}

func pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if err := errors.ValidateID(id); err != nil {
		writeError(w, err)
		return "", false
	}
	return id, true
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New(errors.ErrCodeInvalidInput, "limit must be a non-negative integer")
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	var body errorBody
	body.Error.Code = errors.GetCode(err)
	if body.Error.Code == "" {
		body.Error.Code = errors.ErrCodeInternal
	}
	body.Error.Message = errors.UserMessage(err)
	writeJSON(w, statusFor(body.Error.Code), body)
}

func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case errors.ErrCodeDataDirNotFound:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
