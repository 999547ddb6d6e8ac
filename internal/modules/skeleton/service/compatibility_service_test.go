package service

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tsu-botforge/internal/modules/skeleton/catalog"
	"tsu-botforge/internal/pkg/log"
	"tsu-botforge/internal/pkg/metrics"
	"tsu-botforge/internal/pkg/xerrors"
)

func newTestCompatibilityService(t *testing.T) (*CompatibilityService, *catalog.Catalog, *metrics.SkeletonMetrics) {
	t.Helper()
	m := newTestMetrics()
	c := newTestCatalog(t, m)
	return NewCompatibilityService(c, log.NewNopLogger(), m), c, m
}

func TestCompatibilityService_GetCompatibleSlots(t *testing.T) {
	svc, _, _ := newTestCompatibilityService(t)

	soul := svc.GetCompatibleSlots(catalog.CategorySoulChip)
	assert.Equal(t, []string{
		"light_soul_chip_1",
		"balanced_soul_chip_1",
		"heavy_soul_chip_1",
		"flying_soul_chip_1",
		"modular_soul_chip_1",
	}, soul)

	// 模块化骨架的手臂挂点同样接受腿部
	legs := svc.GetCompatibleSlots(catalog.CategoryLeg)
	assert.Len(t, legs, 18)
	assert.Contains(t, legs, "modular_arm_1")
	assert.Contains(t, legs, "modular_leg_4")
	assert.NotContains(t, legs, "light_arm_1")

	assert.Empty(t, svc.GetCompatibleSlots("unknown-category"))
}

func TestCompatibilityService_AnalyzeCategoryCompatibility(t *testing.T) {
	tests := []struct {
		name           string
		category       catalog.Category
		subset         []string
		wantCompatible []string
		wantTier       CompatibilityTier
		wantReasons    map[string]string
	}{
		{
			name:           "全部兼容",
			category:       catalog.CategoryArm,
			subset:         []string{"light_arm_1", "light_arm_2"},
			wantCompatible: []string{"light_arm_1", "light_arm_2"},
			wantTier:       TierGood,
			wantReasons:    map[string]string{},
		},
		{
			name:           "部分兼容",
			category:       catalog.CategoryArm,
			subset:         []string{"light_arm_1", "light_leg_1", "light_head_1"},
			wantCompatible: []string{"light_arm_1"},
			wantTier:       TierLimited,
			wantReasons: map[string]string{
				"light_leg_1":  "slot light_leg_1 accepts leg, not arm",
				"light_head_1": "slot light_head_1 accepts head, not arm",
			},
		},
		{
			name:           "恰好一半为good",
			category:       catalog.CategoryLeg,
			subset:         []string{"modular_arm_1", "light_head_1"},
			wantCompatible: []string{"modular_arm_1"},
			wantTier:       TierGood,
			wantReasons: map[string]string{
				"light_head_1": "slot light_head_1 accepts head, not leg",
			},
		},
		{
			name:           "未知槽位视为不兼容",
			category:       catalog.CategoryHead,
			subset:         []string{"ghost_slot_1"},
			wantCompatible: []string{},
			wantTier:       TierNone,
			wantReasons:    map[string]string{"ghost_slot_1": "unknown slot"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestCompatibilityService(t)

			got := svc.AnalyzeCategoryCompatibility(tt.category, tt.subset)

			assert.Equal(t, tt.wantCompatible, got.CompatibleSlots)
			assert.Equal(t, tt.wantTier, got.Tier)
			assert.Equal(t, tt.wantReasons, got.Reasons)
			assert.Equal(t, len(tt.subset), got.Total)
			assert.Equal(t, len(tt.subset), len(got.CompatibleSlots)+len(got.IncompatibleSlots))
		})
	}
}

func TestCompatibilityService_AnalyzeCategoryCompatibility_AllSlots(t *testing.T) {
	svc, _, _ := newTestCompatibilityService(t)

	got := svc.AnalyzeCategoryCompatibility(catalog.CategoryHead, nil)

	assert.Equal(t, 11+12+18+13+21, got.Total)
	assert.Len(t, got.CompatibleSlots, 5)
	assert.Equal(t, TierLimited, got.Tier)
	assert.InDelta(t, 5.0/75.0, got.Ratio, 1e-9)
}

func TestCompatibilityService_AnalyzeArchetypeCompatibility(t *testing.T) {
	svc, _, _ := newTestCompatibilityService(t)

	got, err := svc.AnalyzeArchetypeCompatibility(catalog.ArchetypeModular, catalog.CategoryArm)
	require.NoError(t, err)
	assert.Equal(t, 8, got.CompatibleCount)
	assert.Equal(t, 21, got.TotalSlots)
	assert.InDelta(t, 800.0/21.0, got.Percentage, 1e-9)

	_, err = svc.AnalyzeArchetypeCompatibility("spider", catalog.CategoryArm)
	assert.True(t, xerrors.Is(err, xerrors.CodeUnknownArchetype))
}

func TestCompatibilityService_RankArchetypesForCategories(t *testing.T) {
	svc, c, _ := newTestCompatibilityService(t)

	t.Run("按得分降序", func(t *testing.T) {
		ranks := svc.RankArchetypesForCategories([]catalog.Category{catalog.CategoryArm})
		require.Len(t, ranks, 5)

		order := make([]catalog.Archetype, len(ranks))
		for i, r := range ranks {
			order[i] = r.Archetype
		}
		assert.Equal(t, []catalog.Archetype{
			catalog.ArchetypeModular,
			catalog.ArchetypeHeavy,
			catalog.ArchetypeLight,
			catalog.ArchetypeBalanced,
			catalog.ArchetypeFlying,
		}, order)

		assert.Equal(t, 8, ranks[0].TotalCompatibleSlots)
		assert.InDelta(t, 800.0/21.0+16, ranks[0].Score, 1e-9)
		require.Len(t, ranks[0].Breakdown, 1)
		assert.Equal(t, catalog.CategoryArm, ranks[0].Breakdown[0].Category)
	})

	t.Run("同分保持声明顺序", func(t *testing.T) {
		ranks := svc.RankArchetypesForCategories(nil)
		require.Len(t, ranks, 5)
		for i, archetype := range c.Archetypes() {
			assert.Equal(t, archetype, ranks[i].Archetype)
			assert.Zero(t, ranks[i].Score)
		}
	})
}

func TestCompatibilityService_ValidateBulkAssignment(t *testing.T) {
	svc, _, _ := newTestCompatibilityService(t)

	t.Run("混合输入", func(t *testing.T) {
		got := svc.ValidateBulkAssignment([]BulkAssignmentEntry{
			{SlotID: "light_arm_1", Category: catalog.CategoryArm},
			{SlotID: "light_arm_2", Category: catalog.CategoryLeg},
			{SlotID: "ghost_slot_1", Category: catalog.CategoryArm},
			{SlotID: "modular_leg_2", Category: catalog.CategoryArm},
		})

		assert.Equal(t, 4, got.Total)
		assert.Equal(t, 2, got.ValidCount)
		assert.False(t, got.AllValid)
		assert.InDelta(t, 0.5, got.Ratio, 1e-9)
		require.Len(t, got.Invalid, 2)
		assert.Equal(t, "slot light_arm_2 accepts arm, not leg", got.Invalid[0].Reason)
		assert.Equal(t, "unknown slot", got.Invalid[1].Reason)
		assert.Equal(t, "ghost_slot_1", got.Invalid[1].SlotID)
	})

	t.Run("空输入", func(t *testing.T) {
		got := svc.ValidateBulkAssignment(nil)
		assert.True(t, got.AllValid)
		assert.Equal(t, float64(1), got.Ratio)
		assert.Zero(t, got.Total)
	})
}

func TestCompatibilityService_Cache(t *testing.T) {
	svc, c, m := newTestCompatibilityService(t)
	hits := func() float64 {
		return testutil.ToFloat64(m.CacheLookupsTotal.WithLabelValues("compatibility", "hit"))
	}
	misses := func() float64 {
		return testutil.ToFloat64(m.CacheLookupsTotal.WithLabelValues("compatibility", "miss"))
	}

	first := svc.GetCompatibleSlots(catalog.CategoryHead)
	first[0] = "mutated"
	second := svc.GetCompatibleSlots(catalog.CategoryHead)

	assert.Equal(t, "light_head_1", second[0], "cached result must not be shared with callers")
	assert.Equal(t, float64(1), misses())
	assert.Equal(t, float64(1), hits())

	// 目录重新定义后清空缓存, 结果反映新目录
	defs := catalog.DefaultDefinitions()
	defs.Archetypes = defs.Archetypes[:1]
	require.NoError(t, c.Reset(defs))
	svc.ClearCache()

	assert.Equal(t, []string{"light_head_1"}, svc.GetCompatibleSlots(catalog.CategoryHead))
	assert.Equal(t, float64(2), misses())
}
