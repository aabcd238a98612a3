package web

import (
	"net/http"

	"github.com/JonMunkholm/salesdash/internal/core"
)

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	rng, err := core.ParseDateRange(r.URL.Query())
	if err != nil {
		respondError(w, r, err)
		return
	}
	summary, err := s.service.Summary(r.Context(), rng)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, r, summary)
}

// handleFilter serves one page of the filtered listing.
func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	f, err := core.ParseListFilter(r.URL.Query())
	if err != nil {
		respondError(w, r, err)
		return
	}
	page, err := s.service.List(r.Context(), f)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondPage(w, r, page.Records, page.Pagination)
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	period, rng, err := core.ParseTrendParams(r.URL.Query())
	if err != nil {
		respondError(w, r, err)
		return
	}
	points, err := s.service.Trend(r.Context(), period, rng)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, r, points)
}

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	rng, err := core.ParseDateRange(r.URL.Query())
	if err != nil {
		respondError(w, r, err)
		return
	}
	products, err := s.service.ByProduct(r.Context(), rng)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, r, products)
}

func (s *Server) handleRegions(w http.ResponseWriter, r *http.Request) {
	rng, err := core.ParseDateRange(r.URL.Query())
	if err != nil {
		respondError(w, r, err)
		return
	}
	regions, err := s.service.ByRegion(r.Context(), rng)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, r, regions)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	labels, err := s.service.Categories(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, r, labels)
}

func (s *Server) handleRegionsList(w http.ResponseWriter, r *http.Request) {
	labels, err := s.service.Regions(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, r, labels)
}
