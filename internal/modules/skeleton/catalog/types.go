package catalog

import (
	"fmt"
	"math"

	"github.com/aarondl/null/v8"
)

// Category 部件类别
type Category string

const (
	CategoryHead          Category = "head"
	CategoryTorso         Category = "torso"
	CategoryArm           Category = "arm"
	CategoryLeg           Category = "leg"
	CategoryAccessory     Category = "accessory"
	CategoryExpansionChip Category = "expansion-chip"
	CategorySoulChip      Category = "soul-chip"
)

// StandardCategories 标准部件类别 (声明顺序)
func StandardCategories() []Category {
	return []Category{CategoryHead, CategoryTorso, CategoryArm, CategoryLeg, CategoryAccessory}
}

// AllCategories 全部类别, 包括两个特殊芯片类别
func AllCategories() []Category {
	return append(StandardCategories(), CategoryExpansionChip, CategorySoulChip)
}

// IsSpecial 扩展芯片 / 灵魂芯片
func (c Category) IsSpecial() bool {
	return c == CategoryExpansionChip || c == CategorySoulChip
}

// IsKnown 是否为已定义的类别
func (c Category) IsKnown() bool {
	for _, known := range AllCategories() {
		if c == known {
			return true
		}
	}
	return false
}

// SlotToken 槽位ID中使用的类别片段
func (c Category) SlotToken() string {
	switch c {
	case CategoryExpansionChip:
		return "expansion"
	case CategorySoulChip:
		return "soul_chip"
	default:
		return string(c)
	}
}

// DisplayName 用于提示文案的类别名称
func (c Category) DisplayName() string {
	switch c {
	case CategoryExpansionChip:
		return "expansion chip"
	case CategorySoulChip:
		return "soul chip"
	default:
		return string(c)
	}
}

// SubType 部件子类型标签, 替代对类别名称做子串匹配
type SubType string

const (
	SubTypeHeavy    SubType = "heavy"
	SubTypeWing     SubType = "wing"
	SubTypeThruster SubType = "thruster"
	SubTypeSensor   SubType = "sensor"
)

// Archetype 骨架类型
type Archetype string

const (
	ArchetypeLight    Archetype = "light"
	ArchetypeBalanced Archetype = "balanced"
	ArchetypeHeavy    Archetype = "heavy"
	ArchetypeFlying   Archetype = "flying"
	ArchetypeModular  Archetype = "modular"
)

// Placement 槽位在展示层中的位置
type Placement struct {
	X     int `json:"x"`
	Y     int `json:"y"`
	Layer int `json:"layer" validate:"display_order"`
}

// SlotConstraints 槽位附加约束
type SlotConstraints struct {
	AcceptedSubTypes []SubType  `json:"accepted_sub_types,omitempty" validate:"omitempty,unique,dive,code"`
	MaxSize          null.Int   `json:"max_size"`
	Placement        *Placement `json:"placement,omitempty"`
}

// AcceptsSubType 子类型是否被接受; 没有限制时总是接受
func (c SlotConstraints) AcceptsSubType(subType SubType) bool {
	if len(c.AcceptedSubTypes) == 0 {
		return true
	}
	for _, accepted := range c.AcceptedSubTypes {
		if accepted == subType {
			return true
		}
	}
	return false
}

// FitsSize 尺寸是否在限制内; 未设置限制或未提供尺寸时视为满足
func (c SlotConstraints) FitsSize(size null.Int) bool {
	if !c.MaxSize.Valid || !size.Valid {
		return true
	}
	return size.Int <= c.MaxSize.Int
}

// SlotDefinition 槽位定义, 加载后不可变
type SlotDefinition struct {
	ID                   string          `json:"id" validate:"required,slot_id"`
	Category             Category        `json:"category" validate:"required,code"`
	Position             string          `json:"position" validate:"required,max=64"`
	Index                int             `json:"index" validate:"gte=0"`
	Required             bool            `json:"required"`
	CompatibleCategories []Category      `json:"compatible_categories,omitempty" validate:"omitempty,unique,dive,code"`
	Constraints          SlotConstraints `json:"constraints"`
}

// Accepts 类别是否在槽位的兼容集合内
func (d SlotDefinition) Accepts(category Category) bool {
	if len(d.CompatibleCategories) == 0 {
		return d.Category == category
	}
	for _, c := range d.CompatibleCategories {
		if c == category {
			return true
		}
	}
	return false
}

// AcceptedCategories 兼容类别集合 (至少包含槽位本身的类别)
func (d SlotDefinition) AcceptedCategories() []Category {
	if len(d.CompatibleCategories) == 0 {
		return []Category{d.Category}
	}
	out := make([]Category, len(d.CompatibleCategories))
	copy(out, d.CompatibleCategories)
	return out
}

// clone 深拷贝, 防止调用方修改目录内部状态
func (d SlotDefinition) clone() SlotDefinition {
	out := d
	if d.CompatibleCategories != nil {
		out.CompatibleCategories = append([]Category(nil), d.CompatibleCategories...)
	}
	if d.Constraints.AcceptedSubTypes != nil {
		out.Constraints.AcceptedSubTypes = append([]SubType(nil), d.Constraints.AcceptedSubTypes...)
	}
	if d.Constraints.Placement != nil {
		p := *d.Constraints.Placement
		out.Constraints.Placement = &p
	}
	return out
}

// CategoryConstraint 类别数量约束 {min, max, default}; Max 无效表示无上限
type CategoryConstraint struct {
	Min     int      `json:"min" validate:"gte=0"`
	Max     null.Int `json:"max"`
	Default int      `json:"default" validate:"gte=0"`
}

// Unbounded 无上限
func (c CategoryConstraint) Unbounded() bool {
	return !c.Max.Valid
}

// MaxOrInf 上限, 无上限时返回 math.MaxInt
func (c CategoryConstraint) MaxOrInf() int {
	if !c.Max.Valid {
		return math.MaxInt
	}
	return c.Max.Int
}

func (c CategoryConstraint) String() string {
	if c.Unbounded() {
		return fmt.Sprintf("%d..∞ (default %d)", c.Min, c.Default)
	}
	return fmt.Sprintf("%d..%d (default %d)", c.Min, c.Max.Int, c.Default)
}

// Bounded 构造有上限的约束
func Bounded(min, max, def int) CategoryConstraint {
	return CategoryConstraint{Min: min, Max: null.IntFrom(max), Default: def}
}

// Open 构造无上限的约束
func Open(min, def int) CategoryConstraint {
	return CategoryConstraint{Min: min, Default: def}
}
