package service

import (
	"context"
	"fmt"

	"tsu-botforge/internal/modules/skeleton/catalog"
	"tsu-botforge/internal/pkg/ruleengine"
	"tsu-botforge/internal/pkg/xerrors"
)

// EntityTypeBotAssembly 组装校验在规则引擎中注册的实体类型
const EntityTypeBotAssembly = "bot_assembly"

const (
	BudgetRuleName        = "category_budget"
	ArchetypeHardRuleName = "archetype_hard_requirements"
)

// detailRecommendation 规则结果中携带修复建议的 Details 键
const detailRecommendation = "recommendation"

// BudgetCheck 预算规则的输入实体
type BudgetCheck struct {
	Archetype   catalog.Archetype
	Budget      map[catalog.Category]int
	Usage       PartUsage
	Constraints map[catalog.Category]catalog.CategoryConstraint
}

func asBudgetCheck(entity interface{}) (*BudgetCheck, error) {
	check, ok := entity.(*BudgetCheck)
	if !ok || check == nil {
		return nil, fmt.Errorf("expected *BudgetCheck, got %T", entity)
	}
	return check, nil
}

// BudgetRule 按类别检查使用量与预算、最小值、最大值和推荐值
type BudgetRule struct{}

func (BudgetRule) Name() string { return BudgetRuleName }

func (BudgetRule) Description() string {
	return "per-category part usage must fit the slot budget and the archetype min/max"
}

func (BudgetRule) Required() bool { return true }

// Validate 每个类别依次检查:
// 超出预算 / 低于最小值 / 超过有限上限 / 预算本身低于最小值 均为错误;
// 达到最小值但低于推荐值为警告。
func (BudgetRule) Validate(_ context.Context, entity interface{}, _ *ruleengine.Context) ([]ruleengine.Result, error) {
	check, err := asBudgetCheck(entity)
	if err != nil {
		return nil, err
	}

	results := make([]ruleengine.Result, 0)
	fail := func(category catalog.Category, msg string) {
		results = append(results, ruleengine.Fail(BudgetRuleName, xerrors.CodeBudgetViolation, msg).
			WithDetail("category", string(category)))
	}

	for _, category := range catalog.AllCategories() {
		constraint, ok := check.Constraints[category]
		if !ok {
			continue
		}
		used := check.Usage.Get(category)
		budget := check.Budget[category]

		if used > budget {
			fail(category, fmt.Sprintf("%s: trying to use %d parts but only %d slots available", category, used, budget))
		}
		if used < constraint.Min {
			fail(category, fmt.Sprintf("%s: requires at least %d parts but only %d equipped", category, constraint.Min, used))
		}
		if !constraint.Unbounded() && used > constraint.Max.Int {
			fail(category, fmt.Sprintf("%s: at most %d parts allowed but %d equipped", category, constraint.Max.Int, used))
		}
		if budget < constraint.Min {
			fail(category, fmt.Sprintf("%s: skeleton underprovisioned, budget %d is below minimum %d", category, budget, constraint.Min))
		}
		if used >= constraint.Min && used < constraint.Default {
			results = append(results, ruleengine.Warn(BudgetRuleName,
				fmt.Sprintf("%s: using %d parts, recommended %d", category, used, constraint.Default)).
				WithDetail("category", string(category)))
		}
	}
	return results, nil
}

// hardRequirement 与预算无关的骨架类型硬性要求
type hardRequirement struct {
	category       catalog.Category
	min            int
	recommendation string
}

// ArchetypeHardRule 骨架类型特有的硬性要求, 不受预算覆盖影响
type ArchetypeHardRule struct {
	requirements map[catalog.Archetype][]hardRequirement
}

// NewArchetypeHardRule 内置的硬性要求: 重型至少 2 手 2 腿, 飞行至少 1 个配件
func NewArchetypeHardRule() *ArchetypeHardRule {
	return &ArchetypeHardRule{requirements: map[catalog.Archetype][]hardRequirement{
		catalog.ArchetypeHeavy: {
			{catalog.CategoryArm, 2, "Heavy skeletons require at least 2 arm parts."},
			{catalog.CategoryLeg, 2, "Heavy skeletons require at least 2 leg parts."},
		},
		catalog.ArchetypeFlying: {
			{catalog.CategoryAccessory, 1, "Flying skeletons require at least 1 accessory part."},
		},
	}}
}

func (r *ArchetypeHardRule) Name() string { return ArchetypeHardRuleName }

func (r *ArchetypeHardRule) Description() string {
	return "archetype specific minimums that hold regardless of the configured budget"
}

func (r *ArchetypeHardRule) Required() bool { return true }

func (r *ArchetypeHardRule) Validate(_ context.Context, entity interface{}, _ *ruleengine.Context) ([]ruleengine.Result, error) {
	check, err := asBudgetCheck(entity)
	if err != nil {
		return nil, err
	}

	results := make([]ruleengine.Result, 0)
	for _, req := range r.requirements[check.Archetype] {
		used := check.Usage.Get(req.category)
		if used >= req.min {
			continue
		}
		results = append(results, ruleengine.Fail(ArchetypeHardRuleName, xerrors.CodeBudgetViolation,
			fmt.Sprintf("%s skeleton: %d %s parts equipped, at least %d required", check.Archetype, used, req.category, req.min)).
			WithDetail("category", string(req.category)).
			WithDetail(detailRecommendation, req.recommendation))
	}
	return results, nil
}
