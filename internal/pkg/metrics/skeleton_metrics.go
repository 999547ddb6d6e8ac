package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"tsu-botforge/internal/pkg/xerrors"
)

// SkeletonMetrics 骨架槽位与组装校验相关指标
type SkeletonMetrics struct {
	// 槽位命令执行次数（按操作和结果分组）
	SlotCommandsTotal *prometheus.CounterVec

	// 历史记录环形缓冲淘汰条数
	HistoryEvictionsTotal prometheus.Counter

	// 组装校验次数（按骨架类型和结果分组）
	AssemblyValidationsTotal *prometheus.CounterVec

	// 规则执行次数（按规则名和结果分组）
	RuleExecutionsTotal *prometheus.CounterVec

	// 缓存查询次数（按缓存名和 hit/miss 分组）
	CacheLookupsTotal *prometheus.CounterVec

	// 槽位目录重建次数
	CatalogReloadsTotal *prometheus.CounterVec

	// 领域错误（按组件、错误码、分类、级别）
	ErrorsTotal *prometheus.CounterVec
}

var (
	// DefaultSkeletonMetrics 默认的骨架指标实例
	DefaultSkeletonMetrics *SkeletonMetrics
)

func init() {
	DefaultSkeletonMetrics = NewSkeletonMetrics(DefaultNamespace)
}

// NewSkeletonMetrics 使用全局 Registerer 创建指标收集器
func NewSkeletonMetrics(namespace string) *SkeletonMetrics {
	return NewSkeletonMetricsWithRegistry(namespace, GetRegisterer())
}

// NewSkeletonMetricsWithRegistry 创建指标收集器（使用自定义注册表）
func NewSkeletonMetricsWithRegistry(namespace string, registerer prometheus.Registerer) *SkeletonMetrics {
	if registerer == nil {
		registerer = GetRegisterer()
	}
	factory := promauto.With(registerer)

	return &SkeletonMetrics{
		SlotCommandsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "skeleton",
				Name:      "slot_commands_total",
				Help:      "Total number of slot commands by operation and result",
			},
			[]string{"operation", "result"},
		),

		HistoryEvictionsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "skeleton",
				Name:      "history_evictions_total",
				Help:      "Total number of assignment history entries evicted from full rings",
			},
		),

		AssemblyValidationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "skeleton",
				Name:      "assembly_validations_total",
				Help:      "Total number of bot assembly validations by archetype and result",
			},
			[]string{"archetype", "result"},
		),

		RuleExecutionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "rules",
				Name:      "executions_total",
				Help:      "Total number of validation rule executions by rule and result (passed/failed/panicked)",
			},
			[]string{"rule", "result"},
		),

		CacheLookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "skeleton",
				Name:      "cache_lookups_total",
				Help:      "Total number of memoized analysis lookups by cache and outcome (hit/miss)",
			},
			[]string{"cache", "outcome"},
		),

		CatalogReloadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "skeleton",
				Name:      "catalog_reloads_total",
				Help:      "Total number of slot catalog rebuilds by result",
			},
			[]string{"result"},
		),

		ErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total number of domain errors by component and error code",
			},
			[]string{"component", "code", "category", "level"},
		),
	}
}

// OrDefault nil 时回退到默认实例
func OrDefault(m *SkeletonMetrics) *SkeletonMetrics {
	if m == nil {
		return DefaultSkeletonMetrics
	}
	return m
}

// RecordSlotCommand 记录槽位命令
//
// 参数:
//   - operation: 命令类型 ("assign", "unassign", "swap", "move")
//   - success: 是否执行成功
func (m *SkeletonMetrics) RecordSlotCommand(operation string, success bool) {
	m.SlotCommandsTotal.WithLabelValues(normalizeLabel(operation), resultLabel(success)).Inc()
}

// RecordHistoryEviction 记录历史淘汰
func (m *SkeletonMetrics) RecordHistoryEviction(count int) {
	if count <= 0 {
		return
	}
	m.HistoryEvictionsTotal.Add(float64(count))
}

// RecordAssemblyValidation 记录组装校验结果
func (m *SkeletonMetrics) RecordAssemblyValidation(archetype string, canAssemble bool) {
	m.AssemblyValidationsTotal.WithLabelValues(normalizeLabel(archetype), resultLabel(canAssemble)).Inc()
}

// RecordRuleExecution 记录规则执行
//
// 参数:
//   - result: "passed" / "failed" / "panicked"
func (m *SkeletonMetrics) RecordRuleExecution(rule, result string) {
	m.RuleExecutionsTotal.WithLabelValues(normalizeLabel(rule), normalizeLabel(result)).Inc()
}

// RecordCacheLookup 记录缓存命中情况
func (m *SkeletonMetrics) RecordCacheLookup(cache string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.CacheLookupsTotal.WithLabelValues(normalizeLabel(cache), outcome).Inc()
}

// RecordCatalogReload 记录目录重建
func (m *SkeletonMetrics) RecordCatalogReload(success bool) {
	m.CatalogReloadsTotal.WithLabelValues(resultLabel(success)).Inc()
}

// RecordError 记录领域错误
func (m *SkeletonMetrics) RecordError(component string, appErr *xerrors.AppError) {
	if appErr == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(
		normalizeLabel(component),
		strconv.Itoa(appErr.Code.ToInt()),
		normalizeLabel(appErr.Category),
		appErr.Level.String(),
	).Inc()
}

func resultLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
