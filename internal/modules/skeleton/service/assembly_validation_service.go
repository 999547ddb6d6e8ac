package service

import (
	"context"
	"fmt"

	"github.com/aarondl/null/v8"

	"tsu-botforge/internal/modules/skeleton/catalog"
	"tsu-botforge/internal/pkg/log"
	"tsu-botforge/internal/pkg/metrics"
	"tsu-botforge/internal/pkg/ruleengine"
	"tsu-botforge/internal/pkg/xerrors"
)

// AssemblyItem 待组装的部件
type AssemblyItem struct {
	ItemID   string           `json:"item_id"`
	Category catalog.Category `json:"category"`
}

// AssemblyConfig 组装校验输入
type AssemblyConfig struct {
	Archetype catalog.Archetype `json:"archetype"`
	Items     []AssemblyItem    `json:"items"`
	// Budget 可选的预算覆盖, 未覆盖的类别使用布局中的槽位数量
	Budget map[catalog.Category]int `json:"budget,omitempty"`
}

// AssemblyConfigFromConfiguration 由槽位配置生成组装校验输入
func AssemblyConfigFromConfiguration(cfg *SkeletonSlotConfiguration) AssemblyConfig {
	out := AssemblyConfig{Archetype: cfg.Archetype, Items: make([]AssemblyItem, 0, len(cfg.Assignments))}
	for _, def := range cfg.Slots {
		if a := cfg.Assignment(def.ID); a != nil {
			out.Items = append(out.Items, AssemblyItem{ItemID: a.ItemID, Category: a.Category})
		}
	}
	return out
}

// AssemblyValidationResult 组装校验结果
type AssemblyValidationResult struct {
	Archetype       catalog.Archetype        `json:"archetype"`
	Report          *ruleengine.Report       `json:"report"`
	Budget          map[catalog.Category]int `json:"budget"`
	Usage           PartUsage                `json:"usage"`
	CanAssemble     bool                     `json:"can_assemble"`
	Recommendations []string                 `json:"recommendations"`
}

// AssemblyValidationService 回答 "这组部件能否组装到该骨架上"
type AssemblyValidationService struct {
	catalog SlotCatalog
	engine  *ruleengine.Engine
	logger  log.Logger
	metrics *metrics.SkeletonMetrics
}

// NewAssemblyValidationService 创建组装校验服务, 并向规则引擎注册预算规则和硬性规则
func NewAssemblyValidationService(
	slotCatalog SlotCatalog,
	engine *ruleengine.Engine,
	logger log.Logger,
	m *metrics.SkeletonMetrics,
) (*AssemblyValidationService, error) {
	for _, rule := range []ruleengine.Rule{BudgetRule{}, NewArchetypeHardRule()} {
		if err := engine.RegisterRule(EntityTypeBotAssembly, rule); err != nil {
			return nil, err
		}
	}
	return &AssemblyValidationService{
		catalog: slotCatalog,
		engine:  engine,
		logger:  log.OrDefault(logger).With("component", "assembly_validation_service"),
		metrics: metrics.OrDefault(m),
	}, nil
}

// ValidateAssembly 解析预算、统计用量、执行规则并在失败时生成修复建议
// 只有输入本身不合法 (未知骨架类型, 预算覆盖非法, 部件类别未知) 时才返回 error
func (s *AssemblyValidationService) ValidateAssembly(ctx context.Context, in AssemblyConfig) (*AssemblyValidationResult, error) {
	constraints, err := s.catalog.GetCategoryConstraints(in.Archetype)
	if err != nil {
		return nil, err
	}
	budget, err := s.resolveBudget(in)
	if err != nil {
		return nil, err
	}

	usage := make(PartUsage, len(catalog.AllCategories()))
	for _, category := range catalog.AllCategories() {
		usage[category] = 0
	}
	for _, item := range in.Items {
		if !item.Category.IsKnown() {
			return nil, xerrors.Newf(xerrors.CodeInvalidParams, "item %s has unknown category %q", item.ItemID, item.Category).
				WithMetadata("item_id", item.ItemID)
		}
		usage[item.Category]++
	}

	check := &BudgetCheck{Archetype: in.Archetype, Budget: budget, Usage: usage, Constraints: constraints}
	vctx := ruleengine.NewContext(EntityTypeBotAssembly).Set("archetype", string(in.Archetype))
	report := s.engine.ValidateEntity(ctx, EntityTypeBotAssembly, check, vctx, nil)

	result := &AssemblyValidationResult{
		Archetype:       in.Archetype,
		Report:          report,
		Budget:          budget,
		Usage:           usage,
		CanAssemble:     report.Valid,
		Recommendations: make([]string, 0),
	}
	if !report.Valid {
		result.Recommendations = recommend(check, report)
	}

	s.metrics.RecordAssemblyValidation(string(in.Archetype), result.CanAssemble)
	log.LogOperation(ctx, s.logger, "validate_assembly", resultWord(result.CanAssemble), map[string]interface{}{
		"archetype":       string(in.Archetype),
		"items":           len(in.Items),
		"errors":          len(report.Errors),
		"warnings":        len(report.Warnings),
		"recommendations": len(result.Recommendations),
	})
	return result, nil
}

// IsValidAssembly 布尔便捷封装, 非法输入视为不可组装
func (s *AssemblyValidationService) IsValidAssembly(ctx context.Context, in AssemblyConfig) bool {
	result, err := s.ValidateAssembly(ctx, in)
	return err == nil && result.CanAssemble
}

// GetMinimumRequiredParts 每个类别的最小数量
func (s *AssemblyValidationService) GetMinimumRequiredParts(archetype catalog.Archetype) (map[catalog.Category]int, error) {
	constraints, err := s.catalog.GetCategoryConstraints(archetype)
	if err != nil {
		return nil, err
	}
	out := make(map[catalog.Category]int, len(constraints))
	for category, c := range constraints {
		out[category] = c.Min
	}
	return out, nil
}

// GetMaximumAllowedParts 每个类别的最大数量, 无上限时为无效值
func (s *AssemblyValidationService) GetMaximumAllowedParts(archetype catalog.Archetype) (map[catalog.Category]null.Int, error) {
	constraints, err := s.catalog.GetCategoryConstraints(archetype)
	if err != nil {
		return nil, err
	}
	out := make(map[catalog.Category]null.Int, len(constraints))
	for category, c := range constraints {
		out[category] = c.Max
	}
	return out, nil
}

// resolveBudget 布局槽位数量为默认预算, 显式覆盖逐类别替换
func (s *AssemblyValidationService) resolveBudget(in AssemblyConfig) (map[catalog.Category]int, error) {
	budget, err := s.catalog.GetSlotCounts(in.Archetype)
	if err != nil {
		return nil, err
	}
	for category, n := range in.Budget {
		if !category.IsKnown() {
			return nil, xerrors.Newf(xerrors.CodeInvalidParams, "budget override names unknown category %q", category)
		}
		if n < 0 {
			return nil, xerrors.Newf(xerrors.CodeInvalidParams, "budget override for %s is negative (%d)", category, n)
		}
		budget[category] = n
	}
	return budget, nil
}

// recommend 按类别对比用量和预算, 再附加硬性规则给出的建议
func recommend(check *BudgetCheck, report *ruleengine.Report) []string {
	out := make([]string, 0)
	seen := make(map[string]bool)
	add := func(text string) {
		if !seen[text] {
			seen[text] = true
			out = append(out, text)
		}
	}

	for _, category := range catalog.AllCategories() {
		constraint, ok := check.Constraints[category]
		if !ok {
			continue
		}
		used := check.Usage.Get(category)
		budget := check.Budget[category]

		switch {
		case used > budget:
			add(fmt.Sprintf("Remove %d %s part(s) — only %d slots available", used-budget, category.DisplayName(), budget))
		case !constraint.Unbounded() && used > constraint.Max.Int:
			add(fmt.Sprintf("Remove %d %s part(s) — at most %d allowed", used-constraint.Max.Int, category.DisplayName(), constraint.Max.Int))
		}

		if used < constraint.Min {
			if category == catalog.CategorySoulChip && used == 0 && constraint.Min == 1 {
				add("Add 1 soul chip — required for all bots.")
				continue
			}
			add(fmt.Sprintf("Add %d %s part(s) to reach the minimum of %d", constraint.Min-used, category.DisplayName(), constraint.Min))
		}
	}

	for _, r := range report.ResultsForRule(ArchetypeHardRuleName) {
		if r.Valid {
			continue
		}
		if text, ok := r.Details[detailRecommendation].(string); ok {
			add(text)
		}
	}
	return out
}

func resultWord(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
