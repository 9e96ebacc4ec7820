package dashboard

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/district-stress-dashboard/internal/dataset"
	"github.com/couchcryptid/district-stress-dashboard/internal/domain"
	"github.com/couchcryptid/district-stress-dashboard/internal/observability"
)

type staticSource struct {
	ds atomic.Pointer[dataset.Dataset]
}

func (s *staticSource) Current() *dataset.Dataset { return s.ds.Load() }

func fullColumns() domain.ColumnSet {
	return domain.NewColumnSet([]string{
		domain.ColumnState, domain.ColumnDistrict, domain.ColumnStress,
		domain.ColumnPriority, domain.ColumnSecurity, domain.ColumnMBUDemand,
		domain.ColumnPreparedness, domain.ColumnPlaybook,
		domain.ColumnAcceleration, domain.ColumnAdults, domain.ColumnDistrictType,
	})
}

func testRecords() []domain.District {
	return []domain.District{
		{State: "Odisha", District: "Puri", Stress: 3.0, Priority: domain.PriorityCritical, Security: domain.SecurityAlert, SecurityLabel: "Sentinel Alert: Audit Required", MBUDemand: 1200, Preparedness: 35, DistrictType: "Red Zone"},
		{State: "Odisha", District: "Cuttack", Stress: 1.0, Priority: domain.PriorityHigh, Security: domain.SecurityNormal, SecurityLabel: "Normal", MBUDemand: 800, Preparedness: 48, DistrictType: "Amber Zone"},
		{State: "West Bengal", District: "Kolkata", Stress: 4.0, Priority: domain.PriorityCritical, Security: domain.SecurityNormal, SecurityLabel: "Normal", MBUDemand: 2500, Preparedness: 22, DistrictType: "Red Zone"},
		{State: "Kerala", District: "Kochi", Stress: 0.05, Priority: domain.PriorityNormal, Security: domain.SecurityNormal, SecurityLabel: "Normal", MBUDemand: 300, Preparedness: 90, DistrictType: "Green Zone"},
	}
}

func newTestService(t *testing.T, cacheSize int) (*Service, *staticSource, *observability.Metrics) {
	t.Helper()
	src := &staticSource{}
	src.ds.Store(&dataset.Dataset{Records: testRecords(), Header: []string{domain.ColumnState, domain.ColumnDistrict}, Columns: fullColumns(), Version: 1})
	metrics := observability.NewMetricsForTesting()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(src, domain.DefaultPolicy(), cacheSize, metrics, logger), src, metrics
}

func TestBuild_AllIndia(t *testing.T) {
	generatedAt := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(generatedAt))
	t.Cleanup(func() { domain.SetClock(nil) })

	svc, _, _ := newTestService(t, 8)
	v, err := svc.Build(context.Background(), Query{})
	require.NoError(t, err)

	assert.Equal(t, generatedAt, v.GeneratedAt)
	assert.Equal(t, domain.AllIndia, v.Region)
	assert.Equal(t, []string{domain.AllIndia, "Kerala", "Odisha", "West Bengal"}, v.Regions)
	assert.Equal(t, []string{"Cuttack", "Kochi", "Kolkata", "Puri"}, v.Districts)

	want := domain.Overview{CriticalHotspots: 2, MedianStress: 2.0, MBUForecast: 4800, SentinelAlerts: 1}
	if diff := cmp.Diff(want, v.Overview); diff != "" {
		t.Errorf("overview mismatch (-want +got):\n%s", diff)
	}

	assert.False(t, v.Outcome.Active)
	assert.Equal(t, domain.ModeNone, v.Outcome.Mode)
	assert.Len(t, v.Radar, 2)
	require.Len(t, v.Sentinel, 1)
	assert.Equal(t, "Puri", v.Sentinel[0].District)
	assert.Len(t, v.Board, 4)
	assert.InDelta(t, domain.FailureThreshold, v.FailureThreshold, 1e-9)

	// Critical and High districts, least prepared first.
	require.Len(t, v.Schedule, 3)
	assert.Equal(t, "Kolkata", v.Schedule[0].District)
	assert.Equal(t, "Puri", v.Schedule[1].District)
	assert.Equal(t, "Cuttack", v.Schedule[2].District)
}

func TestBuild_RegionFilter(t *testing.T) {
	svc, _, _ := newTestService(t, 8)
	v, err := svc.Build(context.Background(), Query{Region: "Odisha"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Cuttack", "Puri"}, v.Districts)
	assert.Equal(t, 1, v.Overview.CriticalHotspots)
	assert.InDelta(t, 2.0, v.Overview.MedianStress, 1e-9)
	assert.Equal(t, int64(2000), v.Overview.MBUForecast)
	// The selector still lists every region.
	assert.Len(t, v.Regions, 4)
}

func TestBuild_UnknownRegionIsEmpty(t *testing.T) {
	svc, _, _ := newTestService(t, 8)
	v, err := svc.Build(context.Background(), Query{Region: "Atlantis"})
	require.NoError(t, err)

	assert.Empty(t, v.Districts)
	assert.Zero(t, v.Overview.MedianStress)
	assert.Empty(t, v.Schedule)
}

func TestBuild_StressTest(t *testing.T) {
	svc, src, metrics := newTestService(t, 8)
	v, err := svc.Build(context.Background(), Query{
		Scenario: domain.Scenario{Mode: domain.ModeStressTest, Multiplier: 2.0},
	})
	require.NoError(t, err)

	assert.True(t, v.Outcome.Active)
	assert.Equal(t, 2, v.Outcome.Collapsed)
	assert.Equal(t, "ALERT: 2 Districts COLLAPSE at 2.0x Load!", v.Outcome.Message)
	assert.InDelta(t, 4.0, v.Overview.MedianStress, 1e-9)

	// The cached dataset is untouched.
	assert.InDelta(t, 3.0, src.Current().Records[0].Stress, 1e-9)

	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.ViewsBuilt.WithLabelValues("stress")), 1e-9)
	assert.InDelta(t, 2.0, testutil.ToFloat64(metrics.CollapsedDistricts), 1e-9)
}

func TestBuild_CollapsedGaugeFollowsServedView(t *testing.T) {
	svc, _, metrics := newTestService(t, 8)
	stress := Query{Scenario: domain.Scenario{Mode: domain.ModeStressTest, Multiplier: 2.0}}

	_, err := svc.Build(context.Background(), stress)
	require.NoError(t, err)
	_, err = svc.Build(context.Background(), Query{})
	require.NoError(t, err)
	assert.Zero(t, testutil.ToFloat64(metrics.CollapsedDistricts))

	// Served from cache.
	_, err = svc.Build(context.Background(), stress)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.ViewCache.WithLabelValues("hit")), 1e-9)
	assert.InDelta(t, 2.0, testutil.ToFloat64(metrics.CollapsedDistricts), 1e-9)
}

func TestBuild_Relief(t *testing.T) {
	svc, _, _ := newTestService(t, 8)
	v, err := svc.Build(context.Background(), Query{
		Scenario: domain.Scenario{Mode: domain.ModeRelief, Kits: 20, Staff: 30},
	})
	require.NoError(t, err)

	assert.True(t, v.Outcome.Active)
	assert.InDelta(t, 0.7, v.Outcome.Impact, 1e-9)
	assert.Equal(t, "SUCCESS: System Stress reduced by 70%", v.Outcome.Message)

	// Kochi drops below the floor and is clamped.
	for _, r := range v.records {
		assert.GreaterOrEqual(t, r.Stress, domain.DefaultPolicy().StressFloor, r.District)
	}
}

func TestBuild_InvalidScenario(t *testing.T) {
	svc, _, metrics := newTestService(t, 8)
	_, err := svc.Build(context.Background(), Query{
		Scenario: domain.Scenario{Mode: domain.ModeStressTest, Multiplier: 9},
	})
	require.ErrorIs(t, err, domain.ErrInvalidScenario)
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.InvalidScenarios), 1e-9)
}

func TestBuild_NotReady(t *testing.T) {
	svc := NewService(&staticSource{}, domain.DefaultPolicy(), 8,
		observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := svc.Build(context.Background(), Query{})
	require.ErrorIs(t, err, ErrNotReady)

	_, err = svc.Regions(context.Background())
	require.ErrorIs(t, err, ErrNotReady)
}

func TestBuild_OmitsPanelsForAbsentColumns(t *testing.T) {
	svc, src, _ := newTestService(t, 8)
	src.ds.Store(&dataset.Dataset{
		Records: testRecords(),
		Columns: domain.NewColumnSet([]string{domain.ColumnState, domain.ColumnDistrict, domain.ColumnStress, domain.ColumnPriority}),
		Version: 2,
	})

	v, err := svc.Build(context.Background(), Query{})
	require.NoError(t, err)
	assert.Nil(t, v.Radar)
	assert.Nil(t, v.Board)
	assert.Zero(t, v.FailureThreshold)

	// Without preparedness the schedule keeps dataset order.
	require.Len(t, v.Schedule, 3)
	assert.Equal(t, "Puri", v.Schedule[0].District)
}

func TestBuild_CachesByDatasetVersion(t *testing.T) {
	svc, src, metrics := newTestService(t, 8)
	q := Query{Region: "Odisha", Scenario: domain.Scenario{Mode: domain.ModeStressTest, Multiplier: 1.5}}

	first, err := svc.Build(context.Background(), q)
	require.NoError(t, err)
	second, err := svc.Build(context.Background(), q)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.ViewCache.WithLabelValues("hit")), 1e-9)

	src.ds.Store(&dataset.Dataset{Records: testRecords(), Columns: fullColumns(), Version: 2})
	third, err := svc.Build(context.Background(), q)
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t, uint64(2), third.DatasetVersion)
	assert.InDelta(t, 2.0, testutil.ToFloat64(metrics.ViewCache.WithLabelValues("miss")), 1e-9)
}

func TestBuild_IgnoresParametersOfOtherModes(t *testing.T) {
	svc, _, _ := newTestService(t, 8)

	a, err := svc.Build(context.Background(), Query{Scenario: domain.Scenario{Mode: domain.ModeRelief, Kits: 5, Multiplier: 3}})
	require.NoError(t, err)
	b, err := svc.Build(context.Background(), Query{Scenario: domain.Scenario{Mode: domain.ModeRelief, Kits: 5}})
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestDeepDive(t *testing.T) {
	svc, _, _ := newTestService(t, 8)

	d, err := svc.DeepDive(context.Background(), Query{}, "Kolkata")
	require.NoError(t, err)
	assert.Equal(t, "West Bengal", d.State)
	assert.Equal(t, domain.DefaultPlaybook, d.Playbook)
	assert.Equal(t, "critical", d.Band.Label)
	assert.InDelta(t, 0.8, d.StressGauge, 1e-9)

	// Scenario applies to the deep dive too; the gauge caps at 1.
	d, err = svc.DeepDive(context.Background(), Query{Scenario: domain.Scenario{Mode: domain.ModeStressTest, Multiplier: 2}}, "Kolkata")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, d.StressGauge, 1e-9)

	_, err = svc.DeepDive(context.Background(), Query{Region: "Kerala"}, "Kolkata")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSchedule(t *testing.T) {
	svc, _, _ := newTestService(t, 0)

	orders, err := svc.Schedule(context.Background(), Query{Region: "West Bengal"})
	require.NoError(t, err)
	require.Len(t, orders.Records, 1)
	assert.Equal(t, "Kolkata", orders.Records[0].District)
	assert.Equal(t, domain.ModeNone, orders.Outcome.Mode)
	assert.Equal(t, []string{domain.ColumnState, domain.ColumnDistrict}, orders.Header)

	_, err = svc.Schedule(context.Background(), Query{Scenario: domain.Scenario{Mode: domain.ModeRelief, Kits: -1}})
	assert.ErrorIs(t, err, domain.ErrInvalidScenario)
}
