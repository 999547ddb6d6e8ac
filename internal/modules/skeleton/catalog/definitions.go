package catalog

import (
	"fmt"

	"github.com/aarondl/null/v8"
)

// ArchetypeDefinition 单个骨架类型的槽位布局和类别约束表
type ArchetypeDefinition struct {
	Archetype   Archetype                       `json:"archetype" validate:"required,code"`
	Description string                          `json:"description,omitempty" validate:"max=256"`
	Slots       []SlotDefinition                `json:"slots" validate:"required,min=1,dive"`
	Constraints map[Category]CategoryConstraint `json:"constraints" validate:"required,dive,keys,code,endkeys"`
}

// Definitions 槽位目录的全部静态输入, 数组顺序即骨架类型的声明顺序
type Definitions struct {
	Archetypes []ArchetypeDefinition `json:"archetypes" validate:"required,min=1,dive"`
}

// slotGroup 描述布局中同一类别的一组槽位
type slotGroup struct {
	category   Category
	positions  []string
	compatible []Category
	// subTypes 按组内下标限制可接受的子类型
	subTypes map[int][]SubType
	maxSize  null.Int
}

// group 构造槽位组
func group(category Category, positions ...string) slotGroup {
	return slotGroup{category: category, positions: positions}
}

func (g slotGroup) accepting(categories ...Category) slotGroup {
	g.compatible = categories
	return g
}

func (g slotGroup) restrict(subTypes []SubType, indices ...int) slotGroup {
	if g.subTypes == nil {
		g.subTypes = make(map[int][]SubType)
	}
	for _, i := range indices {
		g.subTypes[i] = subTypes
	}
	return g
}

func (g slotGroup) maxSized(size int) slotGroup {
	g.maxSize = null.IntFrom(size)
	return g
}

// buildLayout 按组生成槽位; 每个类别的前 Min 个槽位为必需槽位
func buildLayout(archetype Archetype, constraints map[Category]CategoryConstraint, groups ...slotGroup) []SlotDefinition {
	slots := make([]SlotDefinition, 0)
	for row, g := range groups {
		required := constraints[g.category].Min
		for i, position := range g.positions {
			def := SlotDefinition{
				ID:       fmt.Sprintf("%s_%s_%d", archetype, g.category.SlotToken(), i+1),
				Category: g.category,
				Position: position,
				Index:    i,
				Required: i < required,
				Constraints: SlotConstraints{
					MaxSize:   g.maxSize,
					Placement: &Placement{X: i, Y: row, Layer: row},
				},
			}
			if len(g.compatible) > 0 {
				def.CompatibleCategories = append([]Category(nil), g.compatible...)
			}
			if subTypes, ok := g.subTypes[i]; ok {
				def.Constraints.AcceptedSubTypes = append([]SubType(nil), subTypes...)
			}
			slots = append(slots, def)
		}
	}
	return slots
}

// DefaultDefinitions 内置的五种骨架类型
func DefaultDefinitions() *Definitions {
	light := map[Category]CategoryConstraint{
		CategoryHead:          Bounded(1, 1, 1),
		CategoryTorso:         Bounded(1, 1, 1),
		CategoryArm:           Open(0, 2),
		CategoryLeg:           Bounded(1, 2, 2),
		CategoryAccessory:     Bounded(0, 2, 0),
		CategoryExpansionChip: Open(0, 0),
		CategorySoulChip:      Bounded(1, 1, 1),
	}
	balanced := map[Category]CategoryConstraint{
		CategoryHead:          Bounded(1, 1, 1),
		CategoryTorso:         Bounded(1, 1, 1),
		CategoryArm:           Bounded(1, 2, 2),
		CategoryLeg:           Bounded(2, 2, 2),
		CategoryAccessory:     Bounded(0, 2, 1),
		CategoryExpansionChip: Bounded(0, 3, 1),
		CategorySoulChip:      Bounded(1, 1, 1),
	}
	heavy := map[Category]CategoryConstraint{
		CategoryHead:          Bounded(1, 1, 1),
		CategoryTorso:         Bounded(1, 1, 1),
		CategoryArm:           Bounded(2, 4, 2),
		CategoryLeg:           Bounded(2, 4, 2),
		CategoryAccessory:     Bounded(0, 3, 1),
		CategoryExpansionChip: Open(0, 2),
		CategorySoulChip:      Bounded(1, 1, 1),
	}
	flying := map[Category]CategoryConstraint{
		CategoryHead:          Bounded(1, 1, 1),
		CategoryTorso:         Bounded(1, 1, 1),
		CategoryArm:           Bounded(0, 2, 2),
		CategoryLeg:           Bounded(0, 2, 0),
		CategoryAccessory:     Bounded(1, 4, 2),
		CategoryExpansionChip: Bounded(0, 2, 1),
		CategorySoulChip:      Bounded(1, 1, 1),
	}
	modular := map[Category]CategoryConstraint{
		CategoryHead:          Bounded(0, 1, 1),
		CategoryTorso:         Bounded(1, 1, 1),
		CategoryArm:           Bounded(0, 4, 2),
		CategoryLeg:           Bounded(0, 4, 2),
		CategoryAccessory:     Bounded(0, 4, 1),
		CategoryExpansionChip: Open(0, 2),
		CategorySoulChip:      Bounded(1, 1, 1),
	}

	heavyOnly := []SubType{SubTypeHeavy}
	lift := []SubType{SubTypeWing, SubTypeThruster, SubTypeSensor}

	return &Definitions{Archetypes: []ArchetypeDefinition{
		{
			Archetype:   ArchetypeLight,
			Description: "Fast scout frame with minimal plating",
			Constraints: light,
			Slots: buildLayout(ArchetypeLight, light,
				group(CategoryHead, "head"),
				group(CategoryTorso, "core"),
				group(CategoryArm, "left-arm", "right-arm"),
				group(CategoryLeg, "left-leg", "right-leg"),
				group(CategoryAccessory, "back", "hip").maxSized(2),
				group(CategoryExpansionChip, "chip-bay-1", "chip-bay-2"),
				group(CategorySoulChip, "soul-socket"),
			),
		},
		{
			Archetype:   ArchetypeBalanced,
			Description: "General purpose humanoid frame",
			Constraints: balanced,
			Slots: buildLayout(ArchetypeBalanced, balanced,
				group(CategoryHead, "head"),
				group(CategoryTorso, "core"),
				group(CategoryArm, "left-arm", "right-arm"),
				group(CategoryLeg, "left-leg", "right-leg"),
				group(CategoryAccessory, "back", "shoulder"),
				group(CategoryExpansionChip, "chip-bay-1", "chip-bay-2", "chip-bay-3"),
				group(CategorySoulChip, "soul-socket"),
			),
		},
		{
			Archetype:   ArchetypeHeavy,
			Description: "Armoured siege frame with auxiliary heavy mounts",
			Constraints: heavy,
			Slots: buildLayout(ArchetypeHeavy, heavy,
				group(CategoryHead, "head"),
				group(CategoryTorso, "core"),
				group(CategoryArm, "left-arm", "right-arm", "aux-left-arm", "aux-right-arm").restrict(heavyOnly, 2, 3),
				group(CategoryLeg, "front-left-leg", "front-right-leg", "rear-left-leg", "rear-right-leg").restrict(heavyOnly, 2, 3),
				group(CategoryAccessory, "back", "left-shoulder", "right-shoulder"),
				group(CategoryExpansionChip, "chip-bay-1", "chip-bay-2", "chip-bay-3", "chip-bay-4"),
				group(CategorySoulChip, "soul-socket"),
			),
		},
		{
			Archetype:   ArchetypeFlying,
			Description: "Aerial frame relying on lift accessories",
			Constraints: flying,
			Slots: buildLayout(ArchetypeFlying, flying,
				group(CategoryHead, "head"),
				group(CategoryTorso, "core"),
				group(CategoryArm, "left-arm", "right-arm"),
				group(CategoryLeg, "left-landing-gear", "right-landing-gear"),
				group(CategoryAccessory, "left-wing", "right-wing", "tail", "dorsal").restrict(lift, 0, 1, 2, 3),
				group(CategoryExpansionChip, "chip-bay-1", "chip-bay-2"),
				group(CategorySoulChip, "soul-socket"),
			),
		},
		{
			Archetype:   ArchetypeModular,
			Description: "Reconfigurable frame with hybrid limb mounts",
			Constraints: modular,
			Slots: buildLayout(ArchetypeModular, modular,
				group(CategoryHead, "head"),
				group(CategoryTorso, "core"),
				group(CategoryArm, "mount-a1", "mount-a2", "mount-a3", "mount-a4").accepting(CategoryArm, CategoryLeg),
				group(CategoryLeg, "mount-l1", "mount-l2", "mount-l3", "mount-l4").accepting(CategoryLeg, CategoryArm),
				group(CategoryAccessory, "rail-1", "rail-2", "rail-3", "rail-4"),
				group(CategoryExpansionChip, "chip-bay-1", "chip-bay-2", "chip-bay-3", "chip-bay-4", "chip-bay-5", "chip-bay-6"),
				group(CategorySoulChip, "soul-socket"),
			),
		},
	}}
}
