// Package catalog 骨架槽位目录: 每种骨架类型的槽位布局与类别数量约束。
//
// 所有派生表在构造时预加载, 之后只读; Reset 是唯一的修改途径,
// 仅在配置加载阶段重新定义目录时使用。
package catalog

import (
	"context"
	"fmt"
	"sync"

	"tsu-botforge/internal/pkg/log"
	"tsu-botforge/internal/pkg/metrics"
	"tsu-botforge/internal/pkg/validator"
	"tsu-botforge/internal/pkg/xerrors"
)

// Catalog 槽位目录
type Catalog struct {
	mu      sync.RWMutex
	state   *catalogState
	logger  log.Logger
	metrics *metrics.SkeletonMetrics
}

// catalogState 一次加载得到的全部派生表, 构建完成后不再修改
type catalogState struct {
	archetypes   []Archetype
	descriptions map[Archetype]string
	layouts      map[Archetype][]SlotDefinition
	constraints  map[Archetype]map[Category]CategoryConstraint
	slotCounts   map[Archetype]map[Category]int
	slots        map[string]SlotDefinition
	slotOwner    map[string]Archetype
}

// NewCatalog 校验定义并预加载派生表; defs 为 nil 时使用内置定义
func NewCatalog(defs *Definitions, logger log.Logger, m *metrics.SkeletonMetrics) (*Catalog, error) {
	c := &Catalog{
		logger:  log.OrDefault(logger).With("component", "slot_catalog"),
		metrics: metrics.OrDefault(m),
	}
	if err := c.Reset(defs); err != nil {
		return nil, err
	}
	return c, nil
}

// Reset 清空并重建所有缓存; 校验失败时保留原有目录
func (c *Catalog) Reset(defs *Definitions) error {
	if defs == nil {
		defs = DefaultDefinitions()
	}

	state, err := buildState(defs)
	if err != nil {
		c.metrics.RecordCatalogReload(false)
		if appErr, ok := err.(*xerrors.AppError); ok {
			c.metrics.RecordError("slot_catalog", appErr)
		}
		c.logger.Error("catalog definitions rejected", err)
		return err
	}

	c.mu.Lock()
	c.state = state
	c.mu.Unlock()

	c.metrics.RecordCatalogReload(true)
	c.logger.Info("catalog loaded",
		log.Int("archetypes", len(state.archetypes)),
		log.Int("slots", len(state.slots)))
	return nil
}

func (c *Catalog) snapshot() *catalogState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Archetypes 按声明顺序返回骨架类型
func (c *Catalog) Archetypes() []Archetype {
	s := c.snapshot()
	out := make([]Archetype, len(s.archetypes))
	copy(out, s.archetypes)
	return out
}

// IsKnownArchetype 骨架类型是否存在
func (c *Catalog) IsKnownArchetype(archetype Archetype) bool {
	_, ok := c.snapshot().layouts[archetype]
	return ok
}

// Description 骨架类型描述
func (c *Catalog) Description(archetype Archetype) (string, error) {
	s := c.snapshot()
	if _, ok := s.layouts[archetype]; !ok {
		return "", xerrors.NewUnknownArchetypeError(string(archetype))
	}
	return s.descriptions[archetype], nil
}

// GetSlotLayout 有序槽位布局
func (c *Catalog) GetSlotLayout(archetype Archetype) ([]SlotDefinition, error) {
	layout, ok := c.snapshot().layouts[archetype]
	if !ok {
		return nil, xerrors.NewUnknownArchetypeError(string(archetype))
	}
	out := make([]SlotDefinition, len(layout))
	for i, def := range layout {
		out[i] = def.clone()
	}
	return out, nil
}

// GetSlotDefinition 按槽位ID查找定义
func (c *Catalog) GetSlotDefinition(slotID string) (SlotDefinition, error) {
	def, ok := c.snapshot().slots[slotID]
	if !ok {
		return SlotDefinition{}, xerrors.NewUnknownSlotError(slotID)
	}
	return def.clone(), nil
}

// SlotArchetype 槽位所属的骨架类型
func (c *Catalog) SlotArchetype(slotID string) (Archetype, error) {
	archetype, ok := c.snapshot().slotOwner[slotID]
	if !ok {
		return "", xerrors.NewUnknownSlotError(slotID)
	}
	return archetype, nil
}

// GetCategoryConstraints 每个类别的 {min, max, default}, 包含两种芯片类别
func (c *Catalog) GetCategoryConstraints(archetype Archetype) (map[Category]CategoryConstraint, error) {
	table, ok := c.snapshot().constraints[archetype]
	if !ok {
		return nil, xerrors.NewUnknownArchetypeError(string(archetype))
	}
	out := make(map[Category]CategoryConstraint, len(table))
	for category, constraint := range table {
		out[category] = constraint
	}
	return out, nil
}

// GetDefaultSlotCounts 标准类别的推荐数量
func (c *Catalog) GetDefaultSlotCounts(archetype Archetype) (map[Category]int, error) {
	table, ok := c.snapshot().constraints[archetype]
	if !ok {
		return nil, xerrors.NewUnknownArchetypeError(string(archetype))
	}
	out := make(map[Category]int, len(StandardCategories()))
	for _, category := range StandardCategories() {
		out[category] = table[category].Default
	}
	return out, nil
}

// GetSlotCounts 布局中每个类别的槽位数量 (全部类别), 即默认预算
func (c *Catalog) GetSlotCounts(archetype Archetype) (map[Category]int, error) {
	counts, ok := c.snapshot().slotCounts[archetype]
	if !ok {
		return nil, xerrors.NewUnknownArchetypeError(string(archetype))
	}
	out := make(map[Category]int, len(counts))
	for category, n := range counts {
		out[category] = n
	}
	return out, nil
}

// IsCategoryCompatibleWithSlot 从不返回错误: 槽位不存在时记录日志并返回 false
func (c *Catalog) IsCategoryCompatibleWithSlot(slotID string, category Category) bool {
	def, ok := c.snapshot().slots[slotID]
	if !ok {
		c.logger.WarnContext(context.Background(), "compatibility lookup on unknown slot",
			log.String("slot_id", slotID),
			log.String("category", string(category)))
		return false
	}
	return def.Accepts(category)
}

// buildState 校验定义并生成派生表
func buildState(defs *Definitions) (*catalogState, error) {
	if err := validator.Default().Validate(defs); err != nil {
		return nil, xerrors.NewWithError(xerrors.CodeInvalidCatalog, "catalog definitions failed validation", err).
			WithMetadata("violations", validator.Messages(err))
	}

	problems := xerrors.NewErrorList()
	state := &catalogState{
		archetypes:   make([]Archetype, 0, len(defs.Archetypes)),
		descriptions: make(map[Archetype]string, len(defs.Archetypes)),
		layouts:      make(map[Archetype][]SlotDefinition, len(defs.Archetypes)),
		constraints:  make(map[Archetype]map[Category]CategoryConstraint, len(defs.Archetypes)),
		slotCounts:   make(map[Archetype]map[Category]int, len(defs.Archetypes)),
		slots:        make(map[string]SlotDefinition),
		slotOwner:    make(map[string]Archetype),
	}

	for _, archetypeDef := range defs.Archetypes {
		archetype := archetypeDef.Archetype
		if _, dup := state.layouts[archetype]; dup {
			problems.Add(xerrors.NewInvalidCatalogError(fmt.Sprintf("archetype %q declared twice", archetype)))
			continue
		}

		table := make(map[Category]CategoryConstraint, len(archetypeDef.Constraints))
		for category, constraint := range archetypeDef.Constraints {
			if !category.IsKnown() {
				problems.Add(xerrors.NewInvalidCatalogError(fmt.Sprintf("%s: unknown category %q in constraints", archetype, category)))
				continue
			}
			if reason := checkConstraint(constraint); reason != "" {
				problems.Add(xerrors.NewInvalidCatalogError(fmt.Sprintf("%s/%s: %s", archetype, category, reason)))
			}
			table[category] = constraint
		}
		for _, category := range AllCategories() {
			if _, ok := table[category]; !ok {
				problems.Add(xerrors.NewInvalidCatalogError(fmt.Sprintf("%s: missing constraint for %s", archetype, category)))
			}
		}

		counts := make(map[Category]int, len(AllCategories()))
		for _, category := range AllCategories() {
			counts[category] = 0
		}
		indices := make(map[Category]map[int]bool)
		layout := make([]SlotDefinition, 0, len(archetypeDef.Slots))

		for _, slot := range archetypeDef.Slots {
			if !slot.Category.IsKnown() {
				problems.Add(xerrors.NewInvalidCatalogError(fmt.Sprintf("slot %s: unknown category %q", slot.ID, slot.Category)))
				continue
			}
			if owner, dup := state.slotOwner[slot.ID]; dup {
				problems.Add(xerrors.NewInvalidCatalogError(fmt.Sprintf("slot %s declared by both %s and %s", slot.ID, owner, archetype)))
				continue
			}
			for _, compatible := range slot.CompatibleCategories {
				if !compatible.IsKnown() {
					problems.Add(xerrors.NewInvalidCatalogError(fmt.Sprintf("slot %s: unknown compatible category %q", slot.ID, compatible)))
				}
			}
			if !slot.Accepts(slot.Category) {
				problems.Add(xerrors.NewInvalidCatalogError(fmt.Sprintf("slot %s does not accept its own category", slot.ID)))
			}
			if indices[slot.Category] == nil {
				indices[slot.Category] = make(map[int]bool)
			}
			if indices[slot.Category][slot.Index] {
				problems.Add(xerrors.NewInvalidCatalogError(fmt.Sprintf("slot %s: index %d reused within %s", slot.ID, slot.Index, slot.Category)))
			}
			indices[slot.Category][slot.Index] = true

			def := slot.clone()
			layout = append(layout, def)
			counts[slot.Category]++
			state.slots[slot.ID] = def
			state.slotOwner[slot.ID] = archetype
		}

		state.archetypes = append(state.archetypes, archetype)
		state.descriptions[archetype] = archetypeDef.Description
		state.layouts[archetype] = layout
		state.constraints[archetype] = table
		state.slotCounts[archetype] = counts
	}

	if problems.HasErrors() {
		first := problems.First()
		if len(problems.Errors) > 1 {
			first.WithMetadata("additional_problems", len(problems.Errors)-1)
		}
		return nil, first
	}
	return state, nil
}

// checkConstraint 返回约束表中自相矛盾之处, 合法时返回空字符串
func checkConstraint(c CategoryConstraint) string {
	switch {
	case c.Min > c.Default:
		return fmt.Sprintf("min %d exceeds default %d", c.Min, c.Default)
	case c.Max.Valid && c.Max.Int < 0:
		return fmt.Sprintf("max %d is negative", c.Max.Int)
	case c.Max.Valid && c.Min > c.Max.Int:
		return fmt.Sprintf("min %d exceeds max %d", c.Min, c.Max.Int)
	case c.Max.Valid && c.Default > c.Max.Int:
		return fmt.Sprintf("default %d exceeds max %d", c.Default, c.Max.Int)
	}
	return ""
}
