package ruleengine

import (
	"context"
	"fmt"
	"sync"

	"tsu-botforge/internal/pkg/log"
	"tsu-botforge/internal/pkg/metrics"
	"tsu-botforge/internal/pkg/xerrors"
)

// engineRuleName 引擎自身产生的结果使用的规则名
const engineRuleName = "rule_engine"

// Options 执行选项
type Options struct {
	StopOnFirstError  bool // 遇到第一个无效结果即停止
	IncludeWarnings   bool // 警告是否进入扁平化消息列表
	IncludeInfo       bool // 提示是否进入扁平化消息列表
	SkipOptionalRules bool // 跳过非必需规则
}

// DefaultOptions 默认选项: 收集警告和提示, 执行全部规则
func DefaultOptions() Options {
	return Options{IncludeWarnings: true, IncludeInfo: true}
}

// Summary 执行统计
type Summary struct {
	Total    int `json:"total"`
	Passed   int `json:"passed"`
	Failed   int `json:"failed"`
	Warnings int `json:"warnings"`
}

// Report 汇总后的校验报告
type Report struct {
	Valid    bool     `json:"valid"`
	Results  []Result `json:"results"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
	Infos    []string `json:"infos"`
	Summary  Summary  `json:"summary"`
}

// Engine 规则注册表与执行器
type Engine struct {
	mu       sync.RWMutex
	registry map[string][]Rule
	logger   log.Logger
	metrics  *metrics.SkeletonMetrics
}

// NewEngine 创建规则引擎
func NewEngine(logger log.Logger, m *metrics.SkeletonMetrics) *Engine {
	return &Engine{
		registry: make(map[string][]Rule),
		logger:   log.OrDefault(logger).With("component", "rule_engine"),
		metrics:  metrics.OrDefault(m),
	}
}

// RegisterRule 为实体类型注册规则, 同名规则重复注册返回错误
func (e *Engine) RegisterRule(entityType string, rule Rule) error {
	if rule == nil {
		return xerrors.New(xerrors.CodeInvalidParams, "rule must not be nil")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, existing := range e.registry[entityType] {
		if existing.Name() == rule.Name() {
			return xerrors.NewDuplicateRuleError(entityType, rule.Name())
		}
	}
	e.registry[entityType] = append(e.registry[entityType], rule)

	e.logger.Debug("rule registered",
		log.String("entity_type", entityType),
		log.String("rule", rule.Name()),
		log.Bool("required", rule.Required()))
	return nil
}

// UnregisterRule 移除规则; 实体类型下没有规则时整体删除
func (e *Engine) UnregisterRule(entityType, ruleName string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	rules, ok := e.registry[entityType]
	if !ok {
		return false
	}
	for i, rule := range rules {
		if rule.Name() != ruleName {
			continue
		}
		remaining := make([]Rule, 0, len(rules)-1)
		remaining = append(remaining, rules[:i]...)
		remaining = append(remaining, rules[i+1:]...)
		if len(remaining) == 0 {
			delete(e.registry, entityType)
		} else {
			e.registry[entityType] = remaining
		}
		return true
	}
	return false
}

// Rules 返回实体类型已注册规则的副本 (注册顺序)
func (e *Engine) Rules(entityType string) []Rule {
	e.mu.RLock()
	defer e.mu.RUnlock()

	rules := e.registry[entityType]
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// HasEntityType 实体类型是否有已注册的规则
func (e *Engine) HasEntityType(entityType string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.registry[entityType]
	return ok
}

// ValidateEntity 使用注册表中的规则校验实体
func (e *Engine) ValidateEntity(ctx context.Context, entityType string, entity interface{}, vctx *Context, opts *Options) *Report {
	rules := e.Rules(entityType)
	if len(rules) == 0 {
		msg := fmt.Sprintf("no rules registered for entity type %q", entityType)
		e.logger.WarnContext(ctx, "validate entity without rules", log.String("entity_type", entityType))
		return &Report{
			Valid:    true,
			Results:  []Result{Warn(engineRuleName, msg)},
			Errors:   []string{},
			Warnings: []string{msg},
			Infos:    []string{},
			Summary:  Summary{Total: 1, Passed: 1, Warnings: 1},
		}
	}

	if vctx == nil {
		vctx = NewContext(entityType)
	} else if vctx.EntityType == "" {
		vctx.EntityType = entityType
	}
	return e.execute(ctx, rules, entity, vctx, opts)
}

// ValidateWithRules 绕过注册表, 直接使用给定规则校验
func (e *Engine) ValidateWithRules(ctx context.Context, rules []Rule, entity interface{}, vctx *Context, opts *Options) *Report {
	if vctx == nil {
		vctx = NewContext("")
	}
	return e.execute(ctx, rules, entity, vctx, opts)
}

func (e *Engine) execute(ctx context.Context, rules []Rule, entity interface{}, vctx *Context, opts *Options) *Report {
	options := DefaultOptions()
	if opts != nil {
		options = *opts
	}

	report := &Report{
		Valid:    true,
		Results:  make([]Result, 0, len(rules)),
		Errors:   []string{},
		Warnings: []string{},
		Infos:    []string{},
	}

	for _, rule := range rules {
		if rule == nil {
			continue
		}
		if options.SkipOptionalRules && !rule.Required() {
			continue
		}

		results := e.runRule(ctx, rule, entity, vctx)

		stop := false
		for _, result := range results {
			report.add(result, options)
			if !result.Valid && options.StopOnFirstError {
				stop = true
				break
			}
		}
		if stop {
			break
		}
	}

	return report
}

// runRule 执行单条规则, 将 error / panic 转换为 ERROR 结果
func (e *Engine) runRule(ctx context.Context, rule Rule, entity interface{}, vctx *Context) (results []Result) {
	name := rule.Name()

	defer func() {
		if recovered := recover(); recovered != nil {
			appErr := xerrors.Newf(xerrors.CodeRuleExecutionFailed, "rule execution failed: %v", recovered).
				WithMetadata("rule", name)
			log.LogAppError(ctx, e.logger, "rule panicked", appErr)
			e.metrics.RecordRuleExecution(name, "panicked")
			e.metrics.RecordError("rule_engine", appErr)
			results = []Result{Fail(name, xerrors.CodeRuleExecutionFailed, appErr.Message)}
		}
	}()

	out, err := rule.Validate(ctx, entity, vctx)
	if err != nil {
		appErr := xerrors.Wrap(err, xerrors.CodeRuleExecutionFailed, "rule execution failed")
		e.logger.ErrorContext(ctx, "rule returned error",
			log.String("rule", name),
			log.Any("error", err))
		e.metrics.RecordRuleExecution(name, "failed")
		e.metrics.RecordError("rule_engine", appErr)
		return []Result{Fail(name, xerrors.CodeRuleExecutionFailed, fmt.Sprintf("rule execution failed: %v", err))}
	}

	if len(out) == 0 {
		e.metrics.RecordRuleExecution(name, "passed")
		return []Result{Pass(name, fmt.Sprintf("%s passed", name))}
	}

	passed := true
	for i := range out {
		if out[i].RuleName == "" {
			out[i].RuleName = name
		}
		if out[i].Severity == "" {
			if out[i].Valid {
				out[i].Severity = SeverityInfo
			} else {
				out[i].Severity = SeverityError
			}
		}
		if !out[i].Valid {
			passed = false
		}
	}
	if passed {
		e.metrics.RecordRuleExecution(name, "passed")
	} else {
		e.metrics.RecordRuleExecution(name, "failed")
	}
	return out
}

// add 累加一条结果; 结构化结果总是保留, 扁平化列表受选项控制
func (r *Report) add(result Result, options Options) {
	r.Results = append(r.Results, result)
	r.Summary.Total++

	if result.Valid {
		r.Summary.Passed++
	} else {
		r.Summary.Failed++
		r.Valid = false
	}

	switch result.Severity {
	case SeverityError:
		r.Errors = append(r.Errors, result.Message)
	case SeverityWarning:
		r.Summary.Warnings++
		if options.IncludeWarnings {
			r.Warnings = append(r.Warnings, result.Message)
		}
	default:
		if options.IncludeInfo {
			r.Infos = append(r.Infos, result.Message)
		}
	}
}

// ResultsBySeverity 按级别过滤结构化结果
func (r *Report) ResultsBySeverity(severity Severity) []Result {
	out := make([]Result, 0)
	for _, result := range r.Results {
		if result.Severity == severity {
			out = append(out, result)
		}
	}
	return out
}

// ResultsForRule 返回某条规则产生的结果
func (r *Report) ResultsForRule(ruleName string) []Result {
	out := make([]Result, 0)
	for _, result := range r.Results {
		if result.RuleName == ruleName {
			out = append(out, result)
		}
	}
	return out
}
