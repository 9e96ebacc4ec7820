package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/district-stress-dashboard/internal/dashboard"
	"github.com/couchcryptid/district-stress-dashboard/internal/dataset"
	"github.com/couchcryptid/district-stress-dashboard/internal/domain"
)

var errPublishDisabled = fmt.Errorf("order publishing is disabled: %w", domain.ErrNotFound)

func (s *Server) handleRegions(w http.ResponseWriter, r *http.Request) {
	regions, err := s.dashboard.Regions(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, map[string][]string{"regions": regions})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	view, err := s.dashboard.Build(r.Context(), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, view)
}

func (s *Server) handleDistrict(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	detail, err := s.dashboard.DeepDive(r.Context(), q, r.PathValue("district"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, detail)
}

func (s *Server) handleOrdersCSV(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	orders, err := s.dashboard.Schedule(r.Context(), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", OrdersFilename))
	if err := dataset.WriteCSV(w, orders.Header, orders.Records); err != nil {
		// Headers are already sent; all we can do is log.
		s.logger.Error("write orders csv", "error", err)
		return
	}
	s.metrics.OrdersExported.Add(float64(len(orders.Records)))
}

type publishResponse struct {
	Published int            `json:"published"`
	Region    string         `json:"region"`
	Outcome   domain.Outcome `json:"scenario"`
}

func (s *Server) handlePublishOrders(w http.ResponseWriter, r *http.Request) {
	if s.publisher == nil {
		s.writeError(w, r, errPublishDisabled)
		return
	}
	q, err := parseQuery(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	orders, err := s.dashboard.Schedule(r.Context(), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	region := regionOrAll(q.Region)
	n, err := s.publisher.PublishOrders(r.Context(), region, orders.Outcome.Scenario, orders.Records)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, publishResponse{Published: n, Region: region, Outcome: orders.Outcome})
}

// parseQuery reads region, mode, multiplier, kits, and staff. A stress test
// without a multiplier runs at 1.0x.
func parseQuery(r *http.Request) (dashboard.Query, error) {
	v := r.URL.Query()

	mode, err := domain.ParseMode(v.Get("mode"))
	if err != nil {
		return dashboard.Query{}, err
	}
	q := dashboard.Query{
		Region:   strings.TrimSpace(v.Get("region")),
		Scenario: domain.Scenario{Mode: mode},
	}

	if q.Scenario.Multiplier, err = parseFloatParam(v.Get("multiplier"), 1.0); err != nil {
		return dashboard.Query{}, err
	}
	if q.Scenario.Kits, err = parseIntParam("kits", v.Get("kits")); err != nil {
		return dashboard.Query{}, err
	}
	if q.Scenario.Staff, err = parseIntParam("staff", v.Get("staff")); err != nil {
		return dashboard.Query{}, err
	}
	return q, nil
}

func parseFloatParam(s string, def float64) (float64, error) {
	if s == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: multiplier %q is not a number", domain.ErrInvalidScenario, s)
	}
	return f, nil
}

func parseIntParam(name, s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not an integer", domain.ErrInvalidScenario, name, s)
	}
	return n, nil
}

func regionOrAll(region string) string {
	if region == "" {
		return domain.AllIndia
	}
	return region
}
