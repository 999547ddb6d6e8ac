// Package ruleengine 通用的校验规则执行框架。
//
// 规则只描述"什么必须成立", 结果如何汇总由 Engine 负责。
// 新规则通过实现 Rule 接口接入, 不需要修改引擎本身。
package ruleengine

import (
	"context"
	"fmt"

	"tsu-botforge/internal/pkg/xerrors"
)

// Severity 校验结果级别
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Result 单条校验结果
type Result struct {
	Valid    bool                   `json:"valid"`
	Severity Severity               `json:"severity"`
	RuleName string                 `json:"rule_name"`
	Message  string                 `json:"message"`
	Code     xerrors.ErrorCode      `json:"code,omitempty"`
	Details  map[string]interface{} `json:"details,omitempty"`
}

// Pass 构造通过结果
func Pass(rule, message string) Result {
	return Result{Valid: true, Severity: SeverityInfo, RuleName: rule, Message: message}
}

// Fail 构造错误结果
func Fail(rule string, code xerrors.ErrorCode, message string) Result {
	return Result{Valid: false, Severity: SeverityError, RuleName: rule, Message: message, Code: code}
}

// Warn 构造警告结果 (不影响整体有效性)
func Warn(rule, message string) Result {
	return Result{Valid: true, Severity: SeverityWarning, RuleName: rule, Message: message}
}

// WithDetail 附加结构化细节
func (r Result) WithDetail(key string, value interface{}) Result {
	details := make(map[string]interface{}, len(r.Details)+1)
	for k, v := range r.Details {
		details[k] = v
	}
	details[key] = value
	r.Details = details
	return r
}

// Context 规则执行上下文
type Context struct {
	EntityType string
	Values     map[string]interface{}
}

// NewContext 创建执行上下文
func NewContext(entityType string) *Context {
	return &Context{EntityType: entityType, Values: make(map[string]interface{})}
}

// Set 写入上下文值
func (c *Context) Set(key string, value interface{}) *Context {
	if c.Values == nil {
		c.Values = make(map[string]interface{})
	}
	c.Values[key] = value
	return c
}

// Get 读取上下文值
func (c *Context) Get(key string) (interface{}, bool) {
	if c == nil || c.Values == nil {
		return nil, false
	}
	v, ok := c.Values[key]
	return v, ok
}

// Rule 校验规则契约
type Rule interface {
	Name() string
	Description() string
	// Required 为 false 的规则可以通过 Options.SkipOptionalRules 跳过
	Required() bool
	// Validate 返回的 error 和 panic 都会被引擎转换为 ERROR 结果
	Validate(ctx context.Context, entity interface{}, vctx *Context) ([]Result, error)
}

// RuleFunc 用函数快速实现 Rule
type RuleFunc struct {
	RuleName        string
	RuleDescription string
	IsRequired      bool
	Fn              func(ctx context.Context, entity interface{}, vctx *Context) ([]Result, error)
}

func (f RuleFunc) Name() string        { return f.RuleName }
func (f RuleFunc) Description() string { return f.RuleDescription }
func (f RuleFunc) Required() bool      { return f.IsRequired }

func (f RuleFunc) Validate(ctx context.Context, entity interface{}, vctx *Context) ([]Result, error) {
	if f.Fn == nil {
		return nil, fmt.Errorf("rule %q has no validation function", f.RuleName)
	}
	return f.Fn(ctx, entity, vctx)
}
