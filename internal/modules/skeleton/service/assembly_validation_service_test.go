package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tsu-botforge/internal/modules/skeleton/catalog"
	"tsu-botforge/internal/pkg/log"
	"tsu-botforge/internal/pkg/ruleengine"
	"tsu-botforge/internal/pkg/xerrors"
)

// items 按类别和数量生成部件列表
func items(counts map[catalog.Category]int) []AssemblyItem {
	out := make([]AssemblyItem, 0)
	for _, category := range catalog.AllCategories() {
		for i := 0; i < counts[category]; i++ {
			out = append(out, AssemblyItem{ItemID: fmt.Sprintf("%s-%d", category, i), Category: category})
		}
	}
	return out
}

func TestValidateAssembly_Scenarios(t *testing.T) {
	tests := []struct {
		name                string
		archetype           catalog.Archetype
		counts              map[catalog.Category]int
		wantCanAssemble     bool
		wantErrors          []string
		wantRecommendations []string
	}{
		{
			name:      "轻型骨架完整组装",
			archetype: catalog.ArchetypeLight,
			counts: map[catalog.Category]int{
				catalog.CategoryHead: 1, catalog.CategoryTorso: 1, catalog.CategoryArm: 2,
				catalog.CategoryLeg: 2, catalog.CategoryExpansionChip: 1, catalog.CategorySoulChip: 1,
			},
			wantCanAssemble: true,
		},
		{
			name:      "轻型骨架装备两个头部",
			archetype: catalog.ArchetypeLight,
			counts: map[catalog.Category]int{
				catalog.CategoryHead: 2, catalog.CategoryTorso: 1, catalog.CategoryArm: 2,
				catalog.CategoryLeg: 2, catalog.CategorySoulChip: 1,
			},
			wantErrors:          []string{"head: trying to use 2 parts but only 1 slots available"},
			wantRecommendations: []string{"Remove 1 head part(s) — only 1 slots available"},
		},
		{
			name:      "重型骨架只有一条手臂",
			archetype: catalog.ArchetypeHeavy,
			counts: map[catalog.Category]int{
				catalog.CategoryHead: 1, catalog.CategoryTorso: 1, catalog.CategoryArm: 1,
				catalog.CategoryLeg: 2, catalog.CategorySoulChip: 1,
			},
			wantErrors: []string{
				"arm: requires at least 2 parts but only 1 equipped",
				"heavy skeleton: 1 arm parts equipped, at least 2 required",
			},
			wantRecommendations: []string{
				"Add 1 arm part(s) to reach the minimum of 2",
				"Heavy skeletons require at least 2 arm parts.",
			},
		},
		{
			name:      "缺少灵魂芯片",
			archetype: catalog.ArchetypeBalanced,
			counts: map[catalog.Category]int{
				catalog.CategoryHead: 1, catalog.CategoryTorso: 1, catalog.CategoryArm: 2,
				catalog.CategoryLeg: 2,
			},
			wantErrors:          []string{"soul-chip: requires at least 1 parts but only 0 equipped"},
			wantRecommendations: []string{"Add 1 soul chip — required for all bots."},
		},
		{
			name:      "飞行骨架没有配件",
			archetype: catalog.ArchetypeFlying,
			counts: map[catalog.Category]int{
				catalog.CategoryHead: 1, catalog.CategoryTorso: 1, catalog.CategorySoulChip: 1,
			},
			wantErrors: []string{"flying skeleton: 0 accessory parts equipped, at least 1 required"},
			wantRecommendations: []string{
				"Add 1 accessory part(s) to reach the minimum of 1",
				"Flying skeletons require at least 1 accessory part.",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestAssemblyService(t)

			got, err := svc.ValidateAssembly(context.Background(), AssemblyConfig{Archetype: tt.archetype, Items: items(tt.counts)})
			require.NoError(t, err)

			assert.Equal(t, tt.wantCanAssemble, got.CanAssemble)
			assert.Equal(t, got.Report.Valid, got.CanAssemble)
			if tt.wantCanAssemble {
				assert.Empty(t, got.Report.Errors)
				assert.Empty(t, got.Recommendations)
				return
			}
			for _, msg := range tt.wantErrors {
				assert.Contains(t, got.Report.Errors, msg)
			}
			for _, rec := range tt.wantRecommendations {
				assert.Contains(t, got.Recommendations, rec)
			}
		})
	}
}

func TestValidateAssembly_Warnings(t *testing.T) {
	svc, _ := newTestAssemblyService(t)

	// 手臂数量达到最小值但低于推荐值
	got, err := svc.ValidateAssembly(context.Background(), AssemblyConfig{
		Archetype: catalog.ArchetypeLight,
		Items: items(map[catalog.Category]int{
			catalog.CategoryHead: 1, catalog.CategoryTorso: 1, catalog.CategoryLeg: 2, catalog.CategorySoulChip: 1,
		}),
	})
	require.NoError(t, err)

	assert.True(t, got.CanAssemble)
	assert.Contains(t, got.Report.Warnings, "arm: using 0 parts, recommended 2")
	assert.Empty(t, got.Recommendations)
	assert.Equal(t, 0, got.Usage.Get(catalog.CategoryArm))
	assert.Equal(t, 5, got.Usage.Total())
}

func TestValidateAssembly_BudgetInvariant(t *testing.T) {
	svc, _ := newTestAssemblyService(t)
	constraints := catalog.DefaultDefinitions().Archetypes[0].Constraints

	overrides := []map[catalog.Category]int{
		nil,
		{catalog.CategoryArm: 1, catalog.CategoryExpansionChip: 0},
	}

	accepted := 0
	for _, override := range overrides {
		for head := 0; head <= 2; head++ {
			for arm := 0; arm <= 3; arm++ {
				for leg := 0; leg <= 3; leg++ {
					for accessory := 0; accessory <= 3; accessory++ {
						for expansion := 0; expansion <= 2; expansion++ {
							counts := map[catalog.Category]int{
								catalog.CategoryHead: head, catalog.CategoryTorso: 1, catalog.CategoryArm: arm,
								catalog.CategoryLeg: leg, catalog.CategoryAccessory: accessory,
								catalog.CategoryExpansionChip: expansion, catalog.CategorySoulChip: 1,
							}
							got, err := svc.ValidateAssembly(context.Background(), AssemblyConfig{
								Archetype: catalog.ArchetypeLight,
								Items:     items(counts),
								Budget:    override,
							})
							require.NoError(t, err)
							if !got.CanAssemble {
								continue
							}
							accepted++
							for category, c := range constraints {
								used := got.Usage.Get(category)
								upper := got.Budget[category]
								if !c.Unbounded() && c.Max.Int < upper {
									upper = c.Max.Int
								}
								assert.GreaterOrEqual(t, used, c.Min, "%s below minimum", category)
								assert.LessOrEqual(t, used, upper, "%s above limit", category)
							}
						}
					}
				}
			}
		}
	}
	assert.Positive(t, accepted)
}

func TestValidateAssembly_BudgetOverride(t *testing.T) {
	svc, _ := newTestAssemblyService(t)
	base := items(map[catalog.Category]int{
		catalog.CategoryHead: 1, catalog.CategoryTorso: 1, catalog.CategoryArm: 2,
		catalog.CategoryLeg: 2, catalog.CategorySoulChip: 1,
	})

	t.Run("覆盖只替换指定类别", func(t *testing.T) {
		got, err := svc.ValidateAssembly(context.Background(), AssemblyConfig{
			Archetype: catalog.ArchetypeLight,
			Items:     base,
			Budget:    map[catalog.Category]int{catalog.CategoryArm: 1},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, got.Budget[catalog.CategoryArm])
		assert.Equal(t, 2, got.Budget[catalog.CategoryLeg])
		assert.False(t, got.CanAssemble)
		assert.Contains(t, got.Recommendations, "Remove 1 arm part(s) — only 1 slots available")
	})

	t.Run("预算低于最小值", func(t *testing.T) {
		got, err := svc.ValidateAssembly(context.Background(), AssemblyConfig{
			Archetype: catalog.ArchetypeLight,
			Items:     base,
			Budget:    map[catalog.Category]int{catalog.CategorySoulChip: 0},
		})
		require.NoError(t, err)
		assert.False(t, got.CanAssemble)
		assert.Contains(t, got.Report.Errors, "soul-chip: skeleton underprovisioned, budget 0 is below minimum 1")
	})

	unknown := append([]AssemblyItem{}, base...)
	for i := 0; i < 3; i++ {
		unknown = append(unknown, AssemblyItem{ItemID: fmt.Sprintf("banana-%d", i), Category: "banana"})
	}

	tests := []struct {
		name   string
		config AssemblyConfig
		code   xerrors.ErrorCode
	}{
		{
			name:   "未知骨架类型",
			config: AssemblyConfig{Archetype: "spider", Items: base},
			code:   xerrors.CodeUnknownArchetype,
		},
		{
			name:   "覆盖未知类别",
			config: AssemblyConfig{Archetype: catalog.ArchetypeLight, Items: base, Budget: map[catalog.Category]int{"wing": 1}},
			code:   xerrors.CodeInvalidParams,
		},
		{
			name:   "部件类别未知",
			config: AssemblyConfig{Archetype: catalog.ArchetypeLight, Items: unknown},
			code:   xerrors.CodeInvalidParams,
		},
		{
			name:   "覆盖为负数",
			config: AssemblyConfig{Archetype: catalog.ArchetypeLight, Items: base, Budget: map[catalog.Category]int{catalog.CategoryArm: -1}},
			code:   xerrors.CodeInvalidParams,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.ValidateAssembly(context.Background(), tt.config)
			assert.Nil(t, got)
			assert.True(t, xerrors.Is(err, tt.code), "got %v", err)
			assert.False(t, svc.IsValidAssembly(context.Background(), tt.config))
		})
	}
}

func TestValidateAssembly_FromConfiguration(t *testing.T) {
	f := newSlotFixture(t, nil)
	cfg := f.configuration(t, catalog.ArchetypeLight)
	for _, cmd := range []SlotCommand{
		AssignCommand("light_head_1", "head-1", catalog.CategoryHead),
		AssignCommand("light_torso_1", "torso-1", catalog.CategoryTorso),
		AssignCommand("light_arm_1", "arm-1", catalog.CategoryArm),
		AssignCommand("light_arm_2", "arm-2", catalog.CategoryArm),
		AssignCommand("light_leg_1", "leg-1", catalog.CategoryLeg),
		AssignCommand("light_leg_2", "leg-2", catalog.CategoryLeg),
		AssignCommand("light_soul_chip_1", "soul-1", catalog.CategorySoulChip),
	} {
		f.mustExecute(t, cfg, cmd)
	}

	in := AssemblyConfigFromConfiguration(cfg)
	assert.Len(t, in.Items, 7)
	assert.Equal(t, "head-1", in.Items[0].ItemID)

	svc, m := newTestAssemblyService(t)
	assert.True(t, svc.IsValidAssembly(context.Background(), in))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.AssemblyValidationsTotal.WithLabelValues("light", "success")))
}

func TestAssemblyValidationService_PartLimits(t *testing.T) {
	svc, _ := newTestAssemblyService(t)

	minimum, err := svc.GetMinimumRequiredParts(catalog.ArchetypeHeavy)
	require.NoError(t, err)
	assert.Equal(t, 2, minimum[catalog.CategoryArm])
	assert.Equal(t, 0, minimum[catalog.CategoryAccessory])
	assert.Len(t, minimum, len(catalog.AllCategories()))

	maximum, err := svc.GetMaximumAllowedParts(catalog.ArchetypeLight)
	require.NoError(t, err)
	assert.False(t, maximum[catalog.CategoryArm].Valid, "light arms are unbounded")
	assert.Equal(t, 2, maximum[catalog.CategoryLeg].Int)

	_, err = svc.GetMaximumAllowedParts("spider")
	assert.True(t, xerrors.Is(err, xerrors.CodeUnknownArchetype))
}

func TestNewAssemblyValidationService_DuplicateRegistration(t *testing.T) {
	m := newTestMetrics()
	c := newTestCatalog(t, m)
	engine := ruleengine.NewEngine(log.NewNopLogger(), m)

	_, err := NewAssemblyValidationService(c, engine, log.NewNopLogger(), m)
	require.NoError(t, err)

	_, err = NewAssemblyValidationService(c, engine, log.NewNopLogger(), m)
	assert.True(t, xerrors.Is(err, xerrors.CodeDuplicateRule))
}

func TestBudgetRule_Validate(t *testing.T) {
	constraints := map[catalog.Category]catalog.CategoryConstraint{
		catalog.CategoryArm: catalog.Bounded(1, 3, 2),
	}
	tests := []struct {
		name         string
		budget       int
		used         int
		wantValid    bool
		wantMessages []string
	}{
		{name: "推荐值", budget: 3, used: 2, wantValid: true},
		{name: "低于推荐值", budget: 3, used: 1, wantValid: true, wantMessages: []string{"arm: using 1 parts, recommended 2"}},
		{name: "低于最小值", budget: 3, used: 0, wantMessages: []string{"arm: requires at least 1 parts but only 0 equipped"}},
		{
			name: "超出预算和上限", budget: 3, used: 4,
			wantMessages: []string{
				"arm: trying to use 4 parts but only 3 slots available",
				"arm: at most 3 parts allowed but 4 equipped",
			},
		},
		{
			name: "预算不足", budget: 0, used: 1,
			wantMessages: []string{
				"arm: trying to use 1 parts but only 0 slots available",
				"arm: skeleton underprovisioned, budget 0 is below minimum 1",
				"arm: using 1 parts, recommended 2",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := &BudgetCheck{
				Archetype:   catalog.ArchetypeBalanced,
				Budget:      map[catalog.Category]int{catalog.CategoryArm: tt.budget},
				Usage:       PartUsage{catalog.CategoryArm: tt.used},
				Constraints: constraints,
			}
			results, err := BudgetRule{}.Validate(context.Background(), check, nil)
			require.NoError(t, err)

			messages := make([]string, 0, len(results))
			valid := true
			for _, r := range results {
				messages = append(messages, r.Message)
				valid = valid && r.Valid
			}
			assert.Equal(t, tt.wantValid, valid)
			if tt.wantMessages == nil {
				assert.Empty(t, messages)
			} else {
				assert.Equal(t, tt.wantMessages, messages)
			}
		})
	}

	_, err := BudgetRule{}.Validate(context.Background(), "not a check", nil)
	assert.Error(t, err)
}
