package service

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tsu-botforge/internal/modules/skeleton/catalog"
	"tsu-botforge/internal/pkg/log"
	"tsu-botforge/internal/pkg/metrics"
	"tsu-botforge/internal/pkg/ruleengine"
)

// MockItemResolver 是 ItemResolver 的 mock
type MockItemResolver struct {
	mock.Mock
}

func (m *MockItemResolver) ResolveItem(ctx context.Context, itemID string) (*ItemInfo, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ItemInfo), args.Error(1)
}

// steppingClock 每次调用前进一秒, 保证 LastModified 严格递增
type steppingClock struct {
	now time.Time
}

func newSteppingClock() *steppingClock {
	return &steppingClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *steppingClock) Now() time.Time {
	c.now = c.now.Add(time.Second)
	return c.now
}

func newTestMetrics() *metrics.SkeletonMetrics {
	return metrics.NewSkeletonMetricsWithRegistry("test", prometheus.NewRegistry())
}

func newTestCatalog(t *testing.T, m *metrics.SkeletonMetrics) *catalog.Catalog {
	t.Helper()
	c, err := catalog.NewCatalog(nil, log.NewNopLogger(), m)
	require.NoError(t, err)
	return c
}

type slotFixture struct {
	svc     *SlotAssignmentService
	metrics *metrics.SkeletonMetrics
	clock   *steppingClock
}

func newSlotFixture(t *testing.T, resolver ItemResolver) *slotFixture {
	t.Helper()
	m := newTestMetrics()
	svc := NewSlotAssignmentService(newTestCatalog(t, m), resolver, 100, log.NewNopLogger(), m)
	clock := newSteppingClock()
	svc.clock = clock.Now
	return &slotFixture{svc: svc, metrics: m, clock: clock}
}

func (f *slotFixture) configuration(t *testing.T, archetype catalog.Archetype) *SkeletonSlotConfiguration {
	t.Helper()
	cfg, err := f.svc.CreateConfiguration(archetype, "bot-1")
	require.NoError(t, err)
	return cfg
}

// mustExecute 执行命令并要求成功
func (f *slotFixture) mustExecute(t *testing.T, cfg *SkeletonSlotConfiguration, cmd SlotCommand) *CommandResult {
	t.Helper()
	res := f.svc.ExecuteCommand(context.Background(), cfg, cmd, "tester")
	require.True(t, res.Success, "command %s failed: %s", cmd.Kind, res.Message)
	return res
}

func newTestAssemblyService(t *testing.T) (*AssemblyValidationService, *metrics.SkeletonMetrics) {
	t.Helper()
	m := newTestMetrics()
	engine := ruleengine.NewEngine(log.NewNopLogger(), m)
	svc, err := NewAssemblyValidationService(newTestCatalog(t, m), engine, log.NewNopLogger(), m)
	require.NoError(t, err)
	return svc, m
}

// snapshotAssignments 复制分配表, 用于比较命令前后的状态
func snapshotAssignments(cfg *SkeletonSlotConfiguration) map[string]SlotAssignment {
	out := make(map[string]SlotAssignment, len(cfg.Assignments))
	for slotID, a := range cfg.Assignments {
		out[slotID] = *a.clone()
	}
	return out
}
