package service

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"tsu-botforge/internal/modules/skeleton/catalog"
	"tsu-botforge/internal/pkg/log"
	"tsu-botforge/internal/pkg/metrics"
)

// CompatibilityTier 兼容程度
type CompatibilityTier string

const (
	TierNone    CompatibilityTier = "none"
	TierLimited CompatibilityTier = "limited"
	TierGood    CompatibilityTier = "good"
)

// tierFor 根据 compatible/total 比例分级: 0 为 none, 低于一半为 limited
func tierFor(compatible, total int) (float64, CompatibilityTier) {
	if total == 0 || compatible == 0 {
		return 0, TierNone
	}
	ratio := float64(compatible) / float64(total)
	if ratio < 0.5 {
		return ratio, TierLimited
	}
	return ratio, TierGood
}

// CategoryCompatibility 类别在一组槽位上的兼容性分析
type CategoryCompatibility struct {
	Category          catalog.Category  `json:"category"`
	CompatibleSlots   []string          `json:"compatible_slots"`
	IncompatibleSlots []string          `json:"incompatible_slots"`
	Reasons           map[string]string `json:"reasons"`
	Total             int               `json:"total"`
	Ratio             float64           `json:"ratio"`
	Tier              CompatibilityTier `json:"tier"`
}

func (c *CategoryCompatibility) clone() *CategoryCompatibility {
	out := *c
	out.CompatibleSlots = append([]string{}, c.CompatibleSlots...)
	out.IncompatibleSlots = append([]string{}, c.IncompatibleSlots...)
	out.Reasons = make(map[string]string, len(c.Reasons))
	for k, v := range c.Reasons {
		out.Reasons[k] = v
	}
	return &out
}

// ArchetypeCompatibility 单个骨架类型对某类别的兼容情况
type ArchetypeCompatibility struct {
	Archetype       catalog.Archetype `json:"archetype"`
	Category        catalog.Category  `json:"category"`
	CompatibleSlots []string          `json:"compatible_slots"`
	CompatibleCount int               `json:"compatible_count"`
	TotalSlots      int               `json:"total_slots"`
	Percentage      float64           `json:"percentage"`
}

func (a *ArchetypeCompatibility) clone() *ArchetypeCompatibility {
	out := *a
	out.CompatibleSlots = append([]string{}, a.CompatibleSlots...)
	return &out
}

// ArchetypeRank 骨架类型排名
type ArchetypeRank struct {
	Archetype            catalog.Archetype        `json:"archetype"`
	Score                float64                  `json:"score"`
	AveragePercentage    float64                  `json:"average_percentage"`
	TotalCompatibleSlots int                      `json:"total_compatible_slots"`
	Breakdown            []ArchetypeCompatibility `json:"breakdown"`
}

// BulkAssignmentEntry 批量校验的单条输入
type BulkAssignmentEntry struct {
	SlotID   string           `json:"slot_id"`
	Category catalog.Category `json:"category"`
}

// InvalidBulkEntry 未通过校验的条目
type InvalidBulkEntry struct {
	BulkAssignmentEntry
	Reason string `json:"reason"`
}

// BulkValidationResult 批量校验结果
type BulkValidationResult struct {
	Valid      []BulkAssignmentEntry `json:"valid"`
	Invalid    []InvalidBulkEntry    `json:"invalid"`
	Total      int                   `json:"total"`
	ValidCount int                   `json:"valid_count"`
	// Ratio 通过比例, 空输入为 1
	Ratio    float64 `json:"ratio"`
	AllValid bool    `json:"all_valid"`
}

// CompatibilityService 基于目录的只读兼容性分析, 结果按输入签名缓存
type CompatibilityService struct {
	catalog SlotCatalog
	logger  log.Logger
	metrics *metrics.SkeletonMetrics

	mu    sync.RWMutex
	cache map[string]interface{}
}

// NewCompatibilityService 创建兼容性服务
func NewCompatibilityService(slotCatalog SlotCatalog, logger log.Logger, m *metrics.SkeletonMetrics) *CompatibilityService {
	return &CompatibilityService{
		catalog: slotCatalog,
		logger:  log.OrDefault(logger).With("component", "compatibility_service"),
		metrics: metrics.OrDefault(m),
		cache:   make(map[string]interface{}),
	}
}

// ClearCache 清空结果缓存; 目录重新定义后必须调用
func (s *CompatibilityService) ClearCache() {
	s.mu.Lock()
	n := len(s.cache)
	s.cache = make(map[string]interface{})
	s.mu.Unlock()

	s.logger.Debug("compatibility cache cleared", log.Int("entries", n))
}

// cached 读取或计算缓存结果; 返回值经过 clone, 调用方可以自由修改
func cached[T any](s *CompatibilityService, key string, compute func() T, clone func(T) T) T {
	s.mu.RLock()
	value, ok := s.cache[key]
	s.mu.RUnlock()
	if ok {
		s.metrics.RecordCacheLookup("compatibility", true)
		return clone(value.(T))
	}

	s.metrics.RecordCacheLookup("compatibility", false)
	result := compute()

	s.mu.Lock()
	s.cache[key] = result
	s.mu.Unlock()
	return clone(result)
}

// GetCompatibleSlots 所有骨架类型中接受该类别的槽位ID (按声明顺序)
func (s *CompatibilityService) GetCompatibleSlots(category catalog.Category) []string {
	return cached(s, "slots|"+string(category), func() []string {
		out := make([]string, 0)
		for _, archetype := range s.catalog.Archetypes() {
			layout, err := s.catalog.GetSlotLayout(archetype)
			if err != nil {
				continue
			}
			for _, def := range layout {
				if def.Accepts(category) {
					out = append(out, def.ID)
				}
			}
		}
		return out
	}, cloneStrings)
}

// AnalyzeCategoryCompatibility 分析类别在槽位子集上的兼容性; 子集为空时使用全部槽位
func (s *CompatibilityService) AnalyzeCategoryCompatibility(category catalog.Category, slotSubset []string) *CategoryCompatibility {
	key := "category|" + string(category) + "|" + strings.Join(slotSubset, ",")
	return cached(s, key, func() *CategoryCompatibility {
		slotIDs := slotSubset
		if len(slotIDs) == 0 {
			slotIDs = s.allSlotIDs()
		}

		result := &CategoryCompatibility{
			Category:          category,
			CompatibleSlots:   make([]string, 0),
			IncompatibleSlots: make([]string, 0),
			Reasons:           make(map[string]string),
			Total:             len(slotIDs),
		}
		for _, slotID := range slotIDs {
			def, err := s.catalog.GetSlotDefinition(slotID)
			if err != nil {
				result.IncompatibleSlots = append(result.IncompatibleSlots, slotID)
				result.Reasons[slotID] = "unknown slot"
				continue
			}
			if def.Accepts(category) {
				result.CompatibleSlots = append(result.CompatibleSlots, slotID)
				continue
			}
			result.IncompatibleSlots = append(result.IncompatibleSlots, slotID)
			result.Reasons[slotID] = fmt.Sprintf("slot %s accepts %s, not %s",
				slotID, joinCategories(def.AcceptedCategories()), category)
		}
		result.Ratio, result.Tier = tierFor(len(result.CompatibleSlots), result.Total)
		return result
	}, (*CategoryCompatibility).clone)
}

// AnalyzeArchetypeCompatibility 单个骨架类型中接受该类别的槽位数量和百分比
func (s *CompatibilityService) AnalyzeArchetypeCompatibility(archetype catalog.Archetype, category catalog.Category) (*ArchetypeCompatibility, error) {
	// 未知类型不进入缓存
	layout, err := s.catalog.GetSlotLayout(archetype)
	if err != nil {
		return nil, err
	}

	key := "archetype|" + string(archetype) + "|" + string(category)
	return cached(s, key, func() *ArchetypeCompatibility {
		return analyzeLayout(archetype, category, layout)
	}, (*ArchetypeCompatibility).clone), nil
}

func analyzeLayout(archetype catalog.Archetype, category catalog.Category, layout []catalog.SlotDefinition) *ArchetypeCompatibility {
	result := &ArchetypeCompatibility{
		Archetype:       archetype,
		Category:        category,
		CompatibleSlots: make([]string, 0),
		TotalSlots:      len(layout),
	}
	for _, def := range layout {
		if def.Accepts(category) {
			result.CompatibleSlots = append(result.CompatibleSlots, def.ID)
		}
	}
	result.CompatibleCount = len(result.CompatibleSlots)
	if result.TotalSlots > 0 {
		result.Percentage = float64(result.CompatibleCount) / float64(result.TotalSlots) * 100
	}
	return result
}

// RankArchetypesForCategories 按 平均兼容百分比 + 2 × 兼容槽位总数 降序排列骨架类型,
// 同分时保持声明顺序
func (s *CompatibilityService) RankArchetypesForCategories(categories []catalog.Category) []ArchetypeRank {
	parts := make([]string, len(categories))
	for i, c := range categories {
		parts[i] = string(c)
	}
	key := "rank|" + strings.Join(parts, ",")

	return cached(s, key, func() []ArchetypeRank {
		ranks := make([]ArchetypeRank, 0)
		for _, archetype := range s.catalog.Archetypes() {
			layout, err := s.catalog.GetSlotLayout(archetype)
			if err != nil {
				continue
			}
			rank := ArchetypeRank{Archetype: archetype, Breakdown: make([]ArchetypeCompatibility, 0, len(categories))}
			var percentageSum float64
			for _, category := range categories {
				analysis := analyzeLayout(archetype, category, layout)
				rank.Breakdown = append(rank.Breakdown, *analysis)
				rank.TotalCompatibleSlots += analysis.CompatibleCount
				percentageSum += analysis.Percentage
			}
			if len(categories) > 0 {
				rank.AveragePercentage = percentageSum / float64(len(categories))
			}
			rank.Score = rank.AveragePercentage + 2*float64(rank.TotalCompatibleSlots)
			ranks = append(ranks, rank)
		}
		sort.SliceStable(ranks, func(i, j int) bool {
			return ranks[i].Score > ranks[j].Score
		})
		return ranks
	}, cloneRanks)
}

// ValidateBulkAssignment 逐条检查 {slot, category} 是否兼容
func (s *CompatibilityService) ValidateBulkAssignment(entries []BulkAssignmentEntry) *BulkValidationResult {
	result := &BulkValidationResult{
		Valid:   make([]BulkAssignmentEntry, 0, len(entries)),
		Invalid: make([]InvalidBulkEntry, 0),
		Total:   len(entries),
	}
	for _, entry := range entries {
		def, err := s.catalog.GetSlotDefinition(entry.SlotID)
		switch {
		case err != nil:
			result.Invalid = append(result.Invalid, InvalidBulkEntry{BulkAssignmentEntry: entry, Reason: "unknown slot"})
		case !def.Accepts(entry.Category):
			result.Invalid = append(result.Invalid, InvalidBulkEntry{
				BulkAssignmentEntry: entry,
				Reason: fmt.Sprintf("slot %s accepts %s, not %s",
					entry.SlotID, joinCategories(def.AcceptedCategories()), entry.Category),
			})
		default:
			result.Valid = append(result.Valid, entry)
		}
	}

	result.ValidCount = len(result.Valid)
	result.AllValid = len(result.Invalid) == 0
	result.Ratio = 1
	if result.Total > 0 {
		result.Ratio = float64(result.ValidCount) / float64(result.Total)
	}
	return result
}

func (s *CompatibilityService) allSlotIDs() []string {
	out := make([]string, 0)
	for _, archetype := range s.catalog.Archetypes() {
		layout, err := s.catalog.GetSlotLayout(archetype)
		if err != nil {
			continue
		}
		for _, def := range layout {
			out = append(out, def.ID)
		}
	}
	return out
}

func joinCategories(categories []catalog.Category) string {
	parts := make([]string, len(categories))
	for i, c := range categories {
		parts[i] = string(c)
	}
	return strings.Join(parts, "|")
}

func cloneStrings(in []string) []string {
	return append([]string{}, in...)
}

func cloneRanks(in []ArchetypeRank) []ArchetypeRank {
	out := make([]ArchetypeRank, len(in))
	for i, rank := range in {
		out[i] = rank
		out[i].Breakdown = make([]ArchetypeCompatibility, len(rank.Breakdown))
		for j, b := range rank.Breakdown {
			out[i].Breakdown[j] = *b.clone()
		}
	}
	return out
}
