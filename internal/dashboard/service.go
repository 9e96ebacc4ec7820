// Package dashboard composes the region filter and the policy simulator into
// render-ready dashboard views.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/district-stress-dashboard/internal/dataset"
	"github.com/couchcryptid/district-stress-dashboard/internal/domain"
	"github.com/couchcryptid/district-stress-dashboard/internal/observability"
)

// ErrNotReady is returned when no dataset has been loaded yet.
var ErrNotReady = errors.New("dataset not loaded")

// Source provides the current dataset snapshot.
type Source interface {
	Current() *dataset.Dataset
}

// Query selects a region and a simulator setting. An empty region means
// all of India.
type Query struct {
	Region   string
	Scenario domain.Scenario
}

func (q Query) normalized() Query {
	q.Region = strings.TrimSpace(q.Region)
	if q.Region == "" {
		q.Region = domain.AllIndia
	}
	if q.Scenario.Mode == "" {
		q.Scenario.Mode = domain.ModeNone
	}
	// Parameters of the unselected mode do not change the view.
	switch q.Scenario.Mode {
	case domain.ModeStressTest:
		q.Scenario.Kits, q.Scenario.Staff = 0, 0
	case domain.ModeRelief:
		q.Scenario.Multiplier = 0
	default:
		q.Scenario.Multiplier, q.Scenario.Kits, q.Scenario.Staff = 0, 0, 0
	}
	return q
}

func (q Query) cacheKey(version uint64) string {
	return strings.Join([]string{
		strconv.FormatUint(version, 10),
		q.Region,
		string(q.Scenario.Mode),
		strconv.FormatFloat(q.Scenario.Multiplier, 'g', -1, 64),
		strconv.Itoa(q.Scenario.Kits),
		strconv.Itoa(q.Scenario.Staff),
	}, "|")
}

// View is every panel of the dashboard for one query. Panels whose source
// column is absent from the dataset are omitted.
type View struct {
	GeneratedAt    time.Time `json:"generated_at"`
	DatasetVersion uint64    `json:"dataset_version"`
	Region         string    `json:"region"`
	Regions        []string  `json:"regions"`
	Districts      []string  `json:"districts"`

	Outcome  domain.Outcome  `json:"scenario"`
	Overview domain.Overview `json:"overview"`

	Radar            []domain.RadarSeries `json:"anomaly_radar,omitempty"`
	Zones            []domain.Slice       `json:"stress_zones"`
	Sentinel         []domain.District    `json:"sentinel_alerts"`
	Board            []domain.BoardEntry  `json:"action_board,omitempty"`
	FailureThreshold float64              `json:"failure_threshold,omitempty"`
	Schedule         []domain.District    `json:"deployment_schedule"`

	// records is the filtered, simulated view backing the panels.
	records []domain.District

	// header is the source CSV header, reused by the orders export.
	header []string
}

// Service builds and caches dashboard views over a dataset source.
type Service struct {
	source  Source
	policy  domain.Policy
	cache   *viewCache
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewService creates a Service. cacheSize bounds the number of cached views;
// zero disables caching.
func NewService(source Source, policy domain.Policy, cacheSize int, metrics *observability.Metrics, logger *slog.Logger) *Service {
	return &Service{
		source:  source,
		policy:  policy,
		cache:   newViewCache(cacheSize),
		metrics: metrics,
		logger:  logger,
	}
}

// Regions returns the region selector values.
func (s *Service) Regions(_ context.Context) ([]string, error) {
	ds := s.source.Current()
	if ds == nil {
		return nil, ErrNotReady
	}
	return domain.RegionOptions(ds.Records), nil
}

// Build returns the view for q, from cache when the dataset has not changed.
func (s *Service) Build(ctx context.Context, q Query) (*View, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ds := s.source.Current()
	if ds == nil {
		return nil, ErrNotReady
	}

	q = q.normalized()
	key := q.cacheKey(ds.Version)
	if v, ok := s.cache.get(key); ok {
		s.metrics.ViewCache.WithLabelValues("hit").Inc()
		// The gauge tracks the most recently served view.
		s.metrics.CollapsedDistricts.Set(float64(v.Outcome.Collapsed))
		return v, nil
	}
	s.metrics.ViewCache.WithLabelValues("miss").Inc()

	v, err := s.build(ds, q)
	if err != nil {
		return nil, err
	}
	s.cache.put(key, v)
	return v, nil
}

func (s *Service) build(ds *dataset.Dataset, q Query) (*View, error) {
	start := time.Now()

	filtered := domain.FilterRegion(ds.Records, q.Region)
	records, outcome, err := domain.ApplyScenario(filtered, q.Scenario, s.policy)
	if err != nil {
		s.metrics.InvalidScenarios.Inc()
		return nil, err
	}

	v := &View{
		GeneratedAt:    domain.Now(),
		DatasetVersion: ds.Version,
		Region:         q.Region,
		Regions:        domain.RegionOptions(ds.Records),
		Districts:      domain.DistrictNames(records),
		Outcome:        outcome,
		Overview:       domain.Summarize(records),
		Zones:          domain.StressZones(records),
		Sentinel:       domain.SentinelAlerts(records),
		Schedule:       domain.DeploymentSchedule(records, ds.Columns.Has(domain.ColumnPreparedness)),
		records:        records,
		header:         ds.Header,
	}
	if ds.Columns.Has(domain.ColumnAcceleration) && ds.Columns.Has(domain.ColumnAdults) {
		v.Radar = domain.AnomalyRadar(records)
	}
	if ds.Columns.Has(domain.ColumnPreparedness) {
		v.Board = domain.ActionBoard(records, domain.ActionBoardSize)
		v.FailureThreshold = domain.FailureThreshold
	}

	s.metrics.ViewsBuilt.WithLabelValues(string(outcome.Mode)).Inc()
	s.metrics.CollapsedDistricts.Set(float64(outcome.Collapsed))
	s.metrics.ViewBuildDuration.Observe(time.Since(start).Seconds())
	s.logger.Debug("view built",
		"region", q.Region,
		"mode", outcome.Mode,
		"records", len(records),
		"collapsed", outcome.Collapsed,
		"version", ds.Version,
	)
	return v, nil
}

// DeepDive returns the detail card for a district within the view for q.
func (s *Service) DeepDive(ctx context.Context, q Query, district string) (domain.DistrictDetail, error) {
	v, err := s.Build(ctx, q)
	if err != nil {
		return domain.DistrictDetail{}, err
	}
	return domain.DeepDive(v.records, district, s.policy)
}

// Orders is the deployment schedule export for one query.
type Orders struct {
	// Header is the source CSV header; exports keep the source columns.
	Header  []string
	Records []domain.District
	Outcome domain.Outcome
}

// Schedule returns the deployment schedule for q together with the scenario
// outcome that produced it.
func (s *Service) Schedule(ctx context.Context, q Query) (Orders, error) {
	v, err := s.Build(ctx, q)
	if err != nil {
		return Orders{}, fmt.Errorf("build schedule: %w", err)
	}
	return Orders{Header: v.header, Records: v.Schedule, Outcome: v.Outcome}, nil
}
