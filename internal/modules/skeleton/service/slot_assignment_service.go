package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/google/uuid"
	"golang.org/x/text/language"

	"tsu-botforge/internal/modules/skeleton/catalog"
	"tsu-botforge/internal/pkg/config"
	"tsu-botforge/internal/pkg/ctxkey"
	"tsu-botforge/internal/pkg/i18n"
	"tsu-botforge/internal/pkg/log"
	"tsu-botforge/internal/pkg/metrics"
	"tsu-botforge/internal/pkg/ringbuffer"
	"tsu-botforge/internal/pkg/ruleengine"
	"tsu-botforge/internal/pkg/validator"
	"tsu-botforge/internal/pkg/xerrors"
)

// SlotAssignmentService 槽位配置的唯一修改入口
//
// 配置本身不加锁, 同一配置的命令需要调用方串行执行;
// 历史记录表由互斥锁保护, 以便 ForgetConfiguration 可以随时调用。
type SlotAssignmentService struct {
	catalog         SlotCatalog
	resolver        ItemResolver
	logger          log.Logger
	metrics         *metrics.SkeletonMetrics
	clock           func() time.Time
	historyCapacity int

	mu      sync.Mutex
	history map[string]*ringbuffer.Ring[AssignmentHistoryEntry]
}

// NewSlotAssignmentService 创建槽位分配服务
// resolver 为可选依赖; historyCapacity <= 0 时使用默认容量
func NewSlotAssignmentService(
	slotCatalog SlotCatalog,
	resolver ItemResolver,
	historyCapacity int,
	logger log.Logger,
	m *metrics.SkeletonMetrics,
) *SlotAssignmentService {
	if historyCapacity <= 0 {
		historyCapacity = config.DefaultHistoryCapacity
	}
	return &SlotAssignmentService{
		catalog:         slotCatalog,
		resolver:        resolver,
		logger:          log.OrDefault(logger).With("component", "slot_assignment_service"),
		metrics:         metrics.OrDefault(m),
		clock:           time.Now,
		historyCapacity: historyCapacity,
		history:         make(map[string]*ringbuffer.Ring[AssignmentHistoryEntry]),
	}
}

// CreateConfiguration 以骨架类型的布局创建空配置
func (s *SlotAssignmentService) CreateConfiguration(archetype catalog.Archetype, botID string) (*SkeletonSlotConfiguration, error) {
	layout, err := s.catalog.GetSlotLayout(archetype)
	if err != nil {
		return nil, err
	}
	now := s.clock()
	cfg := &SkeletonSlotConfiguration{
		ID:           uuid.NewString(),
		BotID:        botID,
		Archetype:    archetype,
		Slots:        layout,
		Assignments:  make(map[string]*SlotAssignment),
		CreatedAt:    now,
		LastModified: now,
	}
	s.logger.Debug("skeleton configuration created",
		log.String("configuration_id", cfg.ID),
		log.String("bot_id", botID),
		log.String("archetype", string(archetype)))
	return cfg, nil
}

// PlacementOption 补充物品的子类型、尺寸等放置属性
type PlacementOption func(*placement)

type placement struct {
	subType catalog.SubType
	size    null.Int
}

// WithSubType 物品子类型
func WithSubType(subType catalog.SubType) PlacementOption {
	return func(p *placement) { p.subType = subType }
}

// WithSize 物品尺寸
func WithSize(size int) PlacementOption {
	return func(p *placement) { p.size = null.IntFrom(size) }
}

// checkPlacement 槽位是否能容纳该物品; 通过时返回 CodeSuccess
func checkPlacement(def catalog.SlotDefinition, category catalog.Category, subType catalog.SubType, size null.Int) (xerrors.ErrorCode, string) {
	if !def.Accepts(category) {
		return xerrors.CodeIncompatibleCategory, fmt.Sprintf("%s parts cannot be placed in slot %s (accepts %s)",
			category, def.ID, joinCategories(def.AcceptedCategories()))
	}
	if !def.Constraints.AcceptsSubType(subType) {
		accepted := make([]string, len(def.Constraints.AcceptedSubTypes))
		for i, st := range def.Constraints.AcceptedSubTypes {
			accepted[i] = string(st)
		}
		return xerrors.CodeSubTypeRejected, fmt.Sprintf("slot %s only accepts %s parts", def.ID, strings.Join(accepted, "|"))
	}
	if !def.Constraints.FitsSize(size) {
		return xerrors.CodeSizeLimitExceeded, fmt.Sprintf("item size %d exceeds the limit of %d for slot %s",
			size.Int, def.Constraints.MaxSize.Int, def.ID)
	}
	return xerrors.CodeSuccess, ""
}

// ValidateSingleAssignment 结构性预检; Valid 当且仅当没有错误
func (s *SlotAssignmentService) ValidateSingleAssignment(
	cfg *SkeletonSlotConfiguration,
	slotID, itemID string,
	category catalog.Category,
	opts ...PlacementOption,
) *AssignmentValidation {
	p := placement{}
	for _, opt := range opts {
		opt(&p)
	}

	result := &AssignmentValidation{
		Errors:      make([]string, 0),
		Warnings:    make([]string, 0),
		Suggestions: make([]string, 0),
	}
	fail := func(code xerrors.ErrorCode, msg string) {
		if result.Code == 0 {
			result.Code = code
		}
		result.Errors = append(result.Errors, msg)
	}

	def, ok := cfg.SlotDefinition(slotID)
	if !ok {
		fail(xerrors.CodeUnknownSlot, fmt.Sprintf("slot %s is not part of the %s skeleton", slotID, cfg.Archetype))
		return result
	}

	if code, msg := checkPlacement(def, category, p.subType, p.size); code != xerrors.CodeSuccess {
		fail(code, msg)
	}

	if current := cfg.Assignment(slotID); current != nil && current.ItemID != itemID {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("slot %s is already occupied by %s and will be overwritten", slotID, current.ItemID))
		result.Suggestions = append(result.Suggestions, "Use SWAP to exchange items between slots instead")
	}

	for _, other := range cfg.SlotsHoldingItem(itemID) {
		if other == slotID {
			continue
		}
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("item %s is already assigned to slot %s and will be moved", itemID, other))
		result.Suggestions = append(result.Suggestions, fmt.Sprintf("Use MOVE to relocate the item from %s", other))
	}

	result.Valid = len(result.Errors) == 0
	return result
}

// ValidateFullConfiguration 重新校验所有分配; 对未改变的配置结果稳定
func (s *SlotAssignmentService) ValidateFullConfiguration(cfg *SkeletonSlotConfiguration) *ConfigurationValidation {
	result := &ConfigurationValidation{
		Slots:            make([]SlotValidationDetail, 0, len(cfg.Slots)),
		ConflictingSlots: make([]string, 0),
		UnfilledRequired: make([]string, 0),
		Errors:           make([]string, 0),
	}

	holders := make(map[string]int)
	for _, a := range cfg.Assignments {
		if a != nil {
			holders[a.ItemID]++
		}
	}

	known := make(map[string]bool, len(cfg.Slots))
	for _, def := range cfg.Slots {
		known[def.ID] = true
		detail := SlotValidationDetail{
			SlotID:   def.ID,
			Category: def.Category,
			Required: def.Required,
			Valid:    true,
			Errors:   make([]string, 0),
		}
		result.Summary.Total++
		if def.Required {
			result.Summary.Required++
		}

		a := cfg.Assignment(def.ID)
		if a == nil {
			if def.Required {
				detail.Valid = false
				detail.Errors = append(detail.Errors, fmt.Sprintf("required slot %s is empty", def.ID))
				result.UnfilledRequired = append(result.UnfilledRequired, def.ID)
			}
			result.Slots = append(result.Slots, detail)
			continue
		}

		detail.Assigned = true
		detail.ItemID = a.ItemID
		result.Summary.Assigned++

		if code, msg := checkPlacement(def, a.Category, a.SubType, a.Size); code != xerrors.CodeSuccess {
			detail.Errors = append(detail.Errors, msg)
		}
		if holders[a.ItemID] > 1 {
			detail.Errors = append(detail.Errors, fmt.Sprintf("item %s is assigned to more than one slot", a.ItemID))
		}
		if len(detail.Errors) > 0 {
			detail.Valid = false
			result.ConflictingSlots = append(result.ConflictingSlots, def.ID)
		}
		result.Slots = append(result.Slots, detail)
	}

	// 目录快照之外的分配只可能来自外部构造的数据
	for _, slotID := range sortedKeys(cfg.Assignments) {
		if known[slotID] || cfg.Assignments[slotID] == nil {
			continue
		}
		result.ConflictingSlots = append(result.ConflictingSlots, slotID)
		result.Errors = append(result.Errors, fmt.Sprintf("slot %s is not part of the %s skeleton", slotID, cfg.Archetype))
	}

	for _, detail := range result.Slots {
		result.Errors = append(result.Errors, detail.Errors...)
	}
	result.Summary.Optional = result.Summary.Total - result.Summary.Required
	result.Summary.Conflicts = len(result.ConflictingSlots)
	result.Valid = len(result.ConflictingSlots) == 0 && len(result.UnfilledRequired) == 0
	return result
}

// ExecuteCommand 执行槽位命令; 失败时配置保持原样, 不会 panic
func (s *SlotAssignmentService) ExecuteCommand(ctx context.Context, cfg *SkeletonSlotConfiguration, cmd SlotCommand, actorID string) (result *CommandResult) {
	if cfg != nil {
		ctx = ctxkey.WithValue(ctx, ctxkey.ConfigurationID, cfg.ID)
		ctx = ctxkey.WithValue(ctx, ctxkey.BotID, cfg.BotID)
	}
	ctx = ctxkey.WithValue(ctx, ctxkey.ActorID, actorID)

	defer func() {
		if recovered := recover(); recovered != nil {
			result = s.failure(cmd.Kind, xerrors.Newf(xerrors.CodeInternalError,
				"unexpected failure while executing %s: %v", cmd.Kind, recovered))
		}
		s.observe(ctx, cfg, cmd, actorID, result)
	}()

	if cfg == nil {
		return s.failure(cmd.Kind, xerrors.New(xerrors.CodeInvalidParams, "configuration must not be nil"))
	}
	if !cmd.Kind.IsKnown() {
		return s.failure(cmd.Kind, xerrors.Newf(xerrors.CodeUnsupportedOperation, "unsupported operation: %q", cmd.Kind))
	}
	if err := validator.Default().Validate(cmd); err != nil {
		return s.failure(cmd.Kind, xerrors.NewWithError(xerrors.CodeInvalidParams,
			"invalid command: "+strings.Join(validator.Messages(err), "; "), err))
	}

	switch cmd.Kind {
	case CommandAssign:
		return s.assign(ctx, cfg, cmd, actorID)
	case CommandUnassign:
		return s.unassign(ctx, cfg, cmd, actorID)
	case CommandSwap:
		return s.swap(ctx, cfg, cmd, actorID)
	default:
		return s.move(ctx, cfg, cmd, actorID)
	}
}

func (s *SlotAssignmentService) assign(ctx context.Context, cfg *SkeletonSlotConfiguration, cmd SlotCommand, actorID string) *CommandResult {
	opts := []PlacementOption{WithSubType(cmd.SubType)}
	if cmd.Size.Valid {
		opts = append(opts, WithSize(cmd.Size.Int))
	}
	check := s.ValidateSingleAssignment(cfg, cmd.SlotID, cmd.ItemID, cmd.Category, opts...)
	if !check.Valid {
		res := s.failure(cmd.Kind, xerrors.New(check.Code, check.Errors[0]).WithMetadata("slot_id", cmd.SlotID))
		res.Warnings = check.Warnings
		return res
	}

	// 物品已在其他槽位时随本次分配一并移出; 任一来源为必需槽位则整体拒绝
	vacatedSlots := make([]string, 0)
	for _, other := range cfg.SlotsHoldingItem(cmd.ItemID) {
		if other == cmd.SlotID {
			continue
		}
		if def, ok := cfg.SlotDefinition(other); ok && def.Required {
			res := s.failure(cmd.Kind, xerrors.Newf(xerrors.CodeRequiredSlot,
				"item %s is held by required slot %s and cannot be moved out", cmd.ItemID, other).
				WithMetadata("slot_id", other))
			res.Warnings = check.Warnings
			return res
		}
		vacatedSlots = append(vacatedSlots, other)
	}

	now := s.clock()
	previous := cfg.Assignment(cmd.SlotID).clone()
	next := &SlotAssignment{
		SlotID:     cmd.SlotID,
		ItemID:     cmd.ItemID,
		Category:   cmd.Category,
		SubType:    cmd.SubType,
		Size:       cmd.Size,
		AssignedAt: now,
		Metadata:   AssignmentMetadata{}.merge(cmd.Metadata),
	}

	vacated := make([]*SlotAssignment, len(vacatedSlots))
	for i, slotID := range vacatedSlots {
		vacated[i] = cfg.Assignment(slotID).clone()
		delete(cfg.Assignments, slotID)
	}
	cfg.Assignments[cmd.SlotID] = next
	cfg.LastModified = now

	res := s.success(cmd.Kind, fmt.Sprintf("Assigned %s to %s", cmd.ItemID, cmd.SlotID))
	res.Warnings = check.Warnings
	res.Displaced = previous
	res.History = make([]AssignmentHistoryEntry, 0, len(vacated)+1)
	for i, a := range vacated {
		res.History = append(res.History, s.record(ctx, cfg, cmd.Kind, vacatedSlots[i], a, nil, actorID, now))
	}
	res.History = append(res.History, s.record(ctx, cfg, cmd.Kind, cmd.SlotID, previous, next.clone(), actorID, now))
	return res
}

func (s *SlotAssignmentService) unassign(ctx context.Context, cfg *SkeletonSlotConfiguration, cmd SlotCommand, actorID string) *CommandResult {
	def, ok := cfg.SlotDefinition(cmd.SlotID)
	if !ok {
		return s.failure(cmd.Kind, s.unknownSlot(cfg, cmd.SlotID))
	}
	if def.Required {
		return s.failure(cmd.Kind, xerrors.Newf(xerrors.CodeRequiredSlot,
			"slot %s is required and cannot be emptied", cmd.SlotID).WithMetadata("slot_id", cmd.SlotID))
	}
	current := cfg.Assignment(cmd.SlotID)
	if current == nil {
		return s.failure(cmd.Kind, xerrors.Newf(xerrors.CodeSlotEmpty,
			"slot %s is already empty", cmd.SlotID).WithMetadata("slot_id", cmd.SlotID))
	}

	now := s.clock()
	previous := current.clone()
	delete(cfg.Assignments, cmd.SlotID)
	cfg.LastModified = now

	res := s.success(cmd.Kind, fmt.Sprintf("Removed %s from %s", previous.ItemID, cmd.SlotID))
	res.History = []AssignmentHistoryEntry{
		s.record(ctx, cfg, cmd.Kind, cmd.SlotID, previous, nil, actorID, now),
	}
	return res
}

// swap 两阶段: 先校验双方在对方槽位中的放置, 全部通过后才修改
func (s *SlotAssignmentService) swap(ctx context.Context, cfg *SkeletonSlotConfiguration, cmd SlotCommand, actorID string) *CommandResult {
	first, second := cmd.SlotID, cmd.TargetSlotID
	if first == second {
		return s.failure(cmd.Kind, xerrors.Newf(xerrors.CodeInvalidParams, "cannot swap slot %s with itself", first))
	}
	firstDef, ok := cfg.SlotDefinition(first)
	if !ok {
		return s.failure(cmd.Kind, s.unknownSlot(cfg, first))
	}
	secondDef, ok := cfg.SlotDefinition(second)
	if !ok {
		return s.failure(cmd.Kind, s.unknownSlot(cfg, second))
	}

	a, b := cfg.Assignment(first), cfg.Assignment(second)
	for _, slotID := range []string{first, second} {
		if cfg.Assignment(slotID) == nil {
			return s.failure(cmd.Kind, xerrors.Newf(xerrors.CodeSlotEmpty,
				"cannot swap: slot %s is empty", slotID).WithMetadata("slot_id", slotID))
		}
	}

	if code, msg := checkPlacement(secondDef, a.Category, a.SubType, a.Size); code != xerrors.CodeSuccess {
		return s.failure(cmd.Kind, xerrors.New(code, "cannot swap: "+msg))
	}
	if code, msg := checkPlacement(firstDef, b.Category, b.SubType, b.Size); code != xerrors.CodeSuccess {
		return s.failure(cmd.Kind, xerrors.New(code, "cannot swap: "+msg))
	}

	now := s.clock()
	prevFirst, prevSecond := a.clone(), b.clone()
	nextFirst, nextSecond := b.clone(), a.clone()
	nextFirst.SlotID, nextFirst.AssignedAt = first, now
	nextSecond.SlotID, nextSecond.AssignedAt = second, now

	cfg.Assignments[first] = nextFirst
	cfg.Assignments[second] = nextSecond
	cfg.LastModified = now

	res := s.success(cmd.Kind, fmt.Sprintf("Swapped %s and %s", first, second))
	res.History = []AssignmentHistoryEntry{
		s.record(ctx, cfg, cmd.Kind, first, prevFirst, nextFirst.clone(), actorID, now),
		s.record(ctx, cfg, cmd.Kind, second, prevSecond, nextSecond.clone(), actorID, now),
	}
	return res
}

// move 目标已占用时覆盖原物品, 被覆盖的分配通过 Displaced 返回
func (s *SlotAssignmentService) move(ctx context.Context, cfg *SkeletonSlotConfiguration, cmd SlotCommand, actorID string) *CommandResult {
	source, target := cmd.SlotID, cmd.TargetSlotID
	if source == target {
		return s.failure(cmd.Kind, xerrors.Newf(xerrors.CodeInvalidParams, "cannot move slot %s onto itself", source))
	}
	sourceDef, ok := cfg.SlotDefinition(source)
	if !ok {
		return s.failure(cmd.Kind, s.unknownSlot(cfg, source))
	}
	targetDef, ok := cfg.SlotDefinition(target)
	if !ok {
		return s.failure(cmd.Kind, s.unknownSlot(cfg, target))
	}

	if sourceDef.Required {
		return s.failure(cmd.Kind, xerrors.Newf(xerrors.CodeRequiredSlot,
			"slot %s is required; its item cannot be moved out", source).WithMetadata("slot_id", source))
	}
	current := cfg.Assignment(source)
	if current == nil {
		return s.failure(cmd.Kind, xerrors.Newf(xerrors.CodeSlotEmpty,
			"cannot move: slot %s is empty", source).WithMetadata("slot_id", source))
	}
	if code, msg := checkPlacement(targetDef, current.Category, current.SubType, current.Size); code != xerrors.CodeSuccess {
		return s.failure(cmd.Kind, xerrors.New(code, "cannot move: "+msg))
	}

	now := s.clock()
	previous := current.clone()
	displaced := cfg.Assignment(target).clone()
	next := current.clone()
	next.SlotID = target
	next.AssignedAt = now
	next.Metadata = next.Metadata.merge(cmd.Metadata)

	delete(cfg.Assignments, source)
	cfg.Assignments[target] = next
	cfg.LastModified = now

	res := s.success(cmd.Kind, fmt.Sprintf("Moved %s from %s to %s", next.ItemID, source, target))
	if displaced != nil {
		res.Displaced = displaced
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("slot %s was occupied by %s, which has been displaced", target, displaced.ItemID))
	}
	res.History = []AssignmentHistoryEntry{
		s.record(ctx, cfg, cmd.Kind, source, previous, nil, actorID, now),
		s.record(ctx, cfg, cmd.Kind, target, displaced.clone(), next.clone(), actorID, now),
	}
	return res
}

// record 追加历史记录; 环形缓冲写满时淘汰最旧的条目, 不会阻塞命令
func (s *SlotAssignmentService) record(
	ctx context.Context,
	cfg *SkeletonSlotConfiguration,
	op CommandKind,
	slotID string,
	previous, next *SlotAssignment,
	actorID string,
	now time.Time,
) AssignmentHistoryEntry {
	subject := next
	if subject == nil {
		subject = previous
	}
	entry := AssignmentHistoryEntry{
		ID:              uuid.NewString(),
		ConfigurationID: cfg.ID,
		Operation:       op,
		SlotID:          slotID,
		Previous:        previous,
		Next:            next,
		ActorID:         actorID,
		Timestamp:       now,
	}
	if subject != nil {
		entry.ItemID = subject.ItemID
		entry.ItemName = s.itemName(ctx, subject)
	}

	s.mu.Lock()
	ring, ok := s.history[cfg.ID]
	if !ok {
		ring = ringbuffer.New[AssignmentHistoryEntry](s.historyCapacity)
		s.history[cfg.ID] = ring
	}
	evicted := ring.Push(entry)
	s.mu.Unlock()

	if evicted {
		s.metrics.RecordHistoryEviction(1)
	}
	return entry
}

// itemName 上游目录 > 分配元数据 > 占位名称
func (s *SlotAssignmentService) itemName(ctx context.Context, a *SlotAssignment) string {
	if s.resolver != nil {
		info, err := s.resolveItem(ctx, a.ItemID)
		if err == nil && info != nil && info.Name != "" {
			return info.Name
		}
		s.logger.DebugContext(ctx, "item name unresolved",
			log.String("item_id", a.ItemID),
			log.Any("error", err))
	}
	if a.Metadata.DisplayName.Valid && a.Metadata.DisplayName.String != "" {
		return a.Metadata.DisplayName.String
	}
	return fmt.Sprintf("Unknown item (%s)", a.ItemID)
}

// resolveItem 历史记录写入时配置已经修改, 上游的 panic 只能降级为查询失败
func (s *SlotAssignmentService) resolveItem(ctx context.Context, itemID string) (info *ItemInfo, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			info, err = nil, fmt.Errorf("item resolver panicked: %v", recovered)
		}
	}()
	return s.resolver.ResolveItem(ctx, itemID)
}

// GetAssignmentHistory 最近的历史记录, 从旧到新
func (s *SlotAssignmentService) GetAssignmentHistory(configID string) []AssignmentHistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	ring, ok := s.history[configID]
	if !ok {
		return []AssignmentHistoryEntry{}
	}
	return ring.Snapshot()
}

// ForgetConfiguration 机器人拆解后丢弃其历史记录
func (s *SlotAssignmentService) ForgetConfiguration(configID string) bool {
	s.mu.Lock()
	_, ok := s.history[configID]
	delete(s.history, configID)
	s.mu.Unlock()

	if ok {
		s.logger.Debug("assignment history dropped", log.String("configuration_id", configID))
	}
	return ok
}

func (s *SlotAssignmentService) unknownSlot(cfg *SkeletonSlotConfiguration, slotID string) *xerrors.AppError {
	return xerrors.Newf(xerrors.CodeUnknownSlot, "slot %s is not part of the %s skeleton", slotID, cfg.Archetype).
		WithMetadata("slot_id", slotID)
}

func (s *SlotAssignmentService) success(op CommandKind, msg string) *CommandResult {
	return &CommandResult{
		Success:   true,
		Operation: op,
		Message:   msg,
		Severity:  ruleengine.SeverityInfo,
		Warnings:  make([]string, 0),
	}
}

func (s *SlotAssignmentService) failure(op CommandKind, appErr *xerrors.AppError) *CommandResult {
	severity := ruleengine.SeverityError
	if appErr.Level == xerrors.LevelWarn {
		severity = ruleengine.SeverityWarning
	}
	return &CommandResult{
		Success:   false,
		Operation: op,
		Message:   appErr.Message,
		Severity:  severity,
		Error:     appErr.WithService("slot_assignment_service", string(op)),
		Warnings:  make([]string, 0),
	}
}

// observe 命令结束后统一记录日志和指标
func (s *SlotAssignmentService) observe(ctx context.Context, cfg *SkeletonSlotConfiguration, cmd SlotCommand, actorID string, result *CommandResult) {
	if result == nil {
		return
	}
	s.metrics.RecordSlotCommand(string(cmd.Kind), result.Success)

	if !result.Success {
		result.Error.WithActor(actorID)
		s.metrics.RecordError("slot_assignment_service", result.Error)
		log.LogAppError(ctx, s.logger, "slot command rejected", result.Error)
		return
	}

	log.LogBusinessEvent(ctx, s.logger, "slot_command_executed", "skeleton_configuration", cfg.ID, map[string]interface{}{
		"operation":      string(cmd.Kind),
		"slot_id":        cmd.SlotID,
		"target_slot_id": cmd.TargetSlotID,
		"history":        len(result.History),
		"warnings":       len(result.Warnings),
	})
}

// LocalizedMessage 失败时返回错误码对应语言的文案, 成功时返回原消息
func (r *CommandResult) LocalizedMessage(lang language.Tag) string {
	if r == nil {
		return ""
	}
	if r.Success || r.Error == nil {
		return r.Message
	}
	return i18n.GetErrorMessage(r.Error.Code, lang)
}
