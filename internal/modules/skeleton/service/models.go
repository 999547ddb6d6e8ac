package service

import (
	"context"
	"sort"
	"time"

	"github.com/aarondl/null/v8"

	"tsu-botforge/internal/modules/skeleton/catalog"
	"tsu-botforge/internal/pkg/ruleengine"
	"tsu-botforge/internal/pkg/xerrors"
)

// SlotCatalog 服务层依赖的目录能力（在消费端定义）
type SlotCatalog interface {
	Archetypes() []catalog.Archetype
	GetSlotLayout(archetype catalog.Archetype) ([]catalog.SlotDefinition, error)
	GetSlotDefinition(slotID string) (catalog.SlotDefinition, error)
	GetCategoryConstraints(archetype catalog.Archetype) (map[catalog.Category]catalog.CategoryConstraint, error)
	GetSlotCounts(archetype catalog.Archetype) (map[catalog.Category]int, error)
	IsCategoryCompatibleWithSlot(slotID string, category catalog.Category) bool
}

// ItemInfo 上游物品目录返回的物品信息
type ItemInfo struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Category catalog.Category `json:"category"`
}

// ItemResolver 上游物品目录, 仅用于丰富历史记录, 查询失败不影响命令执行
type ItemResolver interface {
	ResolveItem(ctx context.Context, itemID string) (*ItemInfo, error)
}

// AssignmentMetadata 分配的展示信息
type AssignmentMetadata struct {
	DisplayName null.String            `json:"display_name"`
	Color       null.String            `json:"color"`
	Icon        null.String            `json:"icon"`
	Extra       map[string]interface{} `json:"extra,omitempty"`
}

// merge overlay 中有效的字段覆盖当前值
func (m AssignmentMetadata) merge(overlay *AssignmentMetadata) AssignmentMetadata {
	out := m.clone()
	if overlay == nil {
		return out
	}
	if overlay.DisplayName.Valid {
		out.DisplayName = overlay.DisplayName
	}
	if overlay.Color.Valid {
		out.Color = overlay.Color
	}
	if overlay.Icon.Valid {
		out.Icon = overlay.Icon
	}
	for k, v := range overlay.Extra {
		if out.Extra == nil {
			out.Extra = make(map[string]interface{}, len(overlay.Extra))
		}
		out.Extra[k] = v
	}
	return out
}

func (m AssignmentMetadata) clone() AssignmentMetadata {
	out := m
	if m.Extra != nil {
		out.Extra = make(map[string]interface{}, len(m.Extra))
		for k, v := range m.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// SlotAssignment 槽位与物品的绑定, 每个槽位最多一个
type SlotAssignment struct {
	SlotID     string             `json:"slot_id"`
	ItemID     string             `json:"item_id"`
	Category   catalog.Category   `json:"category"`
	SubType    catalog.SubType    `json:"sub_type,omitempty"`
	Size       null.Int           `json:"size"`
	AssignedAt time.Time          `json:"assigned_at"`
	Metadata   AssignmentMetadata `json:"metadata"`
}

func (a *SlotAssignment) clone() *SlotAssignment {
	if a == nil {
		return nil
	}
	out := *a
	out.Metadata = a.Metadata.clone()
	return &out
}

// PartUsage 按类别统计的已装备数量
type PartUsage map[catalog.Category]int

// Get 读取类别数量, 缺失视为 0
func (u PartUsage) Get(category catalog.Category) int {
	return u[category]
}

// Total 全部类别数量之和
func (u PartUsage) Total() int {
	total := 0
	for _, n := range u {
		total += n
	}
	return total
}

// SkeletonSlotConfiguration 一个机器人的槽位配置 (聚合根)
//
// 只能通过 SlotAssignmentService 的命令修改; 单一所有者, 内部不加锁。
type SkeletonSlotConfiguration struct {
	ID           string                     `json:"id"`
	BotID        string                     `json:"bot_id"`
	Archetype    catalog.Archetype          `json:"archetype"`
	Slots        []catalog.SlotDefinition   `json:"slots"`
	Assignments  map[string]*SlotAssignment `json:"assignments"`
	CreatedAt    time.Time                  `json:"created_at"`
	LastModified time.Time                  `json:"last_modified"`
}

// SlotDefinition 在配置自身的目录快照中查找槽位
func (c *SkeletonSlotConfiguration) SlotDefinition(slotID string) (catalog.SlotDefinition, bool) {
	for _, def := range c.Slots {
		if def.ID == slotID {
			return def, true
		}
	}
	return catalog.SlotDefinition{}, false
}

// Assignment 槽位当前的分配, 空槽位返回 nil
func (c *SkeletonSlotConfiguration) Assignment(slotID string) *SlotAssignment {
	if c.Assignments == nil {
		return nil
	}
	return c.Assignments[slotID]
}

// SlotsHoldingItem 持有该物品的槽位 (按目录顺序, 目录外的槽位按ID排序追加)
func (c *SkeletonSlotConfiguration) SlotsHoldingItem(itemID string) []string {
	out := make([]string, 0, 1)
	seen := make(map[string]bool, len(c.Slots))
	for _, def := range c.Slots {
		seen[def.ID] = true
		if a := c.Assignment(def.ID); a != nil && a.ItemID == itemID {
			out = append(out, def.ID)
		}
	}
	for _, slotID := range sortedKeys(c.Assignments) {
		if seen[slotID] {
			continue
		}
		if c.Assignments[slotID].ItemID == itemID {
			out = append(out, slotID)
		}
	}
	return out
}

// PartUsage 按类别统计当前装备数量
func (c *SkeletonSlotConfiguration) PartUsage() PartUsage {
	usage := make(PartUsage, len(catalog.AllCategories()))
	for _, category := range catalog.AllCategories() {
		usage[category] = 0
	}
	for _, a := range c.Assignments {
		if a != nil {
			usage[a.Category]++
		}
	}
	return usage
}

func sortedKeys(m map[string]*SlotAssignment) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CommandKind 槽位命令类型
type CommandKind string

const (
	CommandAssign   CommandKind = "assign"
	CommandUnassign CommandKind = "unassign"
	CommandSwap     CommandKind = "swap"
	CommandMove     CommandKind = "move"
)

// IsKnown 是否为支持的命令
func (k CommandKind) IsKnown() bool {
	switch k {
	case CommandAssign, CommandUnassign, CommandSwap, CommandMove:
		return true
	}
	return false
}

// SlotCommand 修改配置的命令
type SlotCommand struct {
	Kind         CommandKind         `json:"kind" validate:"required"`
	SlotID       string              `json:"slot_id" validate:"required,max=64"`
	ItemID       string              `json:"item_id,omitempty" validate:"required_if=Kind assign,max=128"`
	Category     catalog.Category    `json:"category,omitempty" validate:"required_if=Kind assign"`
	SubType      catalog.SubType     `json:"sub_type,omitempty"`
	Size         null.Int            `json:"size"`
	TargetSlotID string              `json:"target_slot_id,omitempty" validate:"required_if=Kind swap,required_if=Kind move,max=64"`
	Metadata     *AssignmentMetadata `json:"metadata,omitempty"`
}

// AssignCommand 构造 ASSIGN 命令
func AssignCommand(slotID, itemID string, category catalog.Category) SlotCommand {
	return SlotCommand{Kind: CommandAssign, SlotID: slotID, ItemID: itemID, Category: category}
}

// UnassignCommand 构造 UNASSIGN 命令
func UnassignCommand(slotID string) SlotCommand {
	return SlotCommand{Kind: CommandUnassign, SlotID: slotID}
}

// SwapCommand 构造 SWAP 命令
func SwapCommand(slotID, swapWithSlotID string) SlotCommand {
	return SlotCommand{Kind: CommandSwap, SlotID: slotID, TargetSlotID: swapWithSlotID}
}

// MoveCommand 构造 MOVE 命令
func MoveCommand(slotID, targetSlotID string) SlotCommand {
	return SlotCommand{Kind: CommandMove, SlotID: slotID, TargetSlotID: targetSlotID}
}

// AssignmentHistoryEntry 一次命令效果的不可变记录
type AssignmentHistoryEntry struct {
	ID              string          `json:"id"`
	ConfigurationID string          `json:"configuration_id"`
	Operation       CommandKind     `json:"operation"`
	SlotID          string          `json:"slot_id"`
	ItemID          string          `json:"item_id"`
	ItemName        string          `json:"item_name"`
	Previous        *SlotAssignment `json:"previous,omitempty"`
	Next            *SlotAssignment `json:"next,omitempty"`
	ActorID         string          `json:"actor_id"`
	Timestamp       time.Time       `json:"timestamp"`
}

// AssignmentValidation 单个分配的结构性预检结果
type AssignmentValidation struct {
	Valid       bool              `json:"valid"`
	Errors      []string          `json:"errors"`
	Warnings    []string          `json:"warnings"`
	Suggestions []string          `json:"suggestions"`
	Code        xerrors.ErrorCode `json:"code,omitempty"` // 第一条错误对应的错误码
}

// SlotValidationDetail 单个槽位的校验详情
type SlotValidationDetail struct {
	SlotID   string           `json:"slot_id"`
	Category catalog.Category `json:"category"`
	Required bool             `json:"required"`
	Assigned bool             `json:"assigned"`
	ItemID   string           `json:"item_id,omitempty"`
	Valid    bool             `json:"valid"`
	Errors   []string         `json:"errors"`
}

// ConfigurationSummary 配置统计
type ConfigurationSummary struct {
	Total     int `json:"total"`
	Assigned  int `json:"assigned"`
	Required  int `json:"required"`
	Optional  int `json:"optional"`
	Conflicts int `json:"conflicts"`
}

// ConfigurationValidation 完整配置的校验结果
type ConfigurationValidation struct {
	Valid            bool                   `json:"valid"`
	Slots            []SlotValidationDetail `json:"slots"`
	ConflictingSlots []string               `json:"conflicting_slots"`
	UnfilledRequired []string               `json:"unfilled_required"`
	Errors           []string               `json:"errors"`
	Summary          ConfigurationSummary   `json:"summary"`
}

// CommandResult 命令执行结果; 失败时配置保持不变
type CommandResult struct {
	Success   bool                     `json:"success"`
	Operation CommandKind              `json:"operation"`
	Message   string                   `json:"message"`
	Severity  ruleengine.Severity      `json:"severity"`
	Error     *xerrors.AppError        `json:"error,omitempty"`
	Warnings  []string                 `json:"warnings"`
	History   []AssignmentHistoryEntry `json:"history,omitempty"`
	// Displaced 被覆盖的原分配 (ASSIGN 到已占用槽位或 MOVE 到已占用目标)
	Displaced *SlotAssignment `json:"displaced,omitempty"`
}

// Code 失败时的错误码, 成功返回 CodeSuccess
func (r *CommandResult) Code() xerrors.ErrorCode {
	if r == nil || r.Error == nil {
		return xerrors.CodeSuccess
	}
	return r.Error.Code
}
