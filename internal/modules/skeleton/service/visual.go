package service

import (
	"time"

	"github.com/aarondl/null/v8"

	"tsu-botforge/internal/modules/skeleton/catalog"
	"tsu-botforge/internal/pkg/i18n"
)

// VisualAssignment 槽位中物品的展示数据
type VisualAssignment struct {
	ItemID      string           `json:"item_id"`
	Category    catalog.Category `json:"category"`
	SubType     catalog.SubType  `json:"sub_type,omitempty"`
	DisplayName null.String      `json:"display_name"`
	Color       null.String      `json:"color"`
	Icon        null.String      `json:"icon"`
	AssignedAt  time.Time        `json:"assigned_at"`
}

// VisualSlot 单个槽位的展示状态
type VisualSlot struct {
	SlotID             string             `json:"slot_id"`
	Category           catalog.Category   `json:"category"`
	CategoryName       string             `json:"category_name"`
	Position           string             `json:"position"`
	Index              int                `json:"index"`
	Required           bool               `json:"required"`
	AcceptedCategories []catalog.Category `json:"accepted_categories"`
	Placement          *catalog.Placement `json:"placement,omitempty"`
	Occupied           bool               `json:"occupied"`
	Assignment         *VisualAssignment  `json:"assignment,omitempty"`
}

// VisualRepresentation 配置的只读投影, 槽位按目录顺序排列
type VisualRepresentation struct {
	ConfigurationID string            `json:"configuration_id"`
	BotID           string            `json:"bot_id"`
	Archetype       catalog.Archetype `json:"archetype"`
	ArchetypeName   string            `json:"archetype_name"`
	Slots           []VisualSlot      `json:"slots"`
	OccupiedCount   int               `json:"occupied_count"`
	TotalSlots      int               `json:"total_slots"`
	LastModified    time.Time         `json:"last_modified"`
}

// GetVisualRepresentation 生成展示投影, 不修改配置
func (s *SlotAssignmentService) GetVisualRepresentation(cfg *SkeletonSlotConfiguration) *VisualRepresentation {
	out := &VisualRepresentation{
		ConfigurationID: cfg.ID,
		BotID:           cfg.BotID,
		Archetype:       cfg.Archetype,
		ArchetypeName:   i18n.Title(string(cfg.Archetype)),
		Slots:           make([]VisualSlot, 0, len(cfg.Slots)),
		TotalSlots:      len(cfg.Slots),
		LastModified:    cfg.LastModified,
	}

	for _, def := range cfg.Slots {
		slot := VisualSlot{
			SlotID:             def.ID,
			Category:           def.Category,
			CategoryName:       i18n.Title(string(def.Category)),
			Position:           def.Position,
			Index:              def.Index,
			Required:           def.Required,
			AcceptedCategories: def.AcceptedCategories(),
		}
		if def.Constraints.Placement != nil {
			p := *def.Constraints.Placement
			slot.Placement = &p
		}
		if a := cfg.Assignment(def.ID); a != nil {
			slot.Occupied = true
			slot.Assignment = &VisualAssignment{
				ItemID:      a.ItemID,
				Category:    a.Category,
				SubType:     a.SubType,
				DisplayName: a.Metadata.DisplayName,
				Color:       a.Metadata.Color,
				Icon:        a.Metadata.Icon,
				AssignedAt:  a.AssignedAt,
			}
			out.OccupiedCount++
		}
		out.Slots = append(out.Slots, slot)
	}
	return out
}
