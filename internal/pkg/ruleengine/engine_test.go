package ruleengine

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tsu-botforge/internal/pkg/log"
	"tsu-botforge/internal/pkg/metrics"
	"tsu-botforge/internal/pkg/xerrors"
)

func newTestEngine(t *testing.T) (*Engine, *metrics.SkeletonMetrics) {
	t.Helper()
	m := metrics.NewSkeletonMetricsWithRegistry("test", prometheus.NewRegistry())
	return NewEngine(log.NewNopLogger(), m), m
}

func staticRule(name string, required bool, results ...Result) Rule {
	return RuleFunc{
		RuleName:   name,
		IsRequired: required,
		Fn: func(context.Context, interface{}, *Context) ([]Result, error) {
			return results, nil
		},
	}
}

func TestEngine_RegisterRule_Duplicate(t *testing.T) {
	engine, _ := newTestEngine(t)

	require.NoError(t, engine.RegisterRule("bot", staticRule("budget", true)))
	err := engine.RegisterRule("bot", staticRule("budget", true))

	require.Error(t, err)
	assert.True(t, xerrors.Is(err, xerrors.CodeDuplicateRule))

	// 不同实体类型允许同名规则
	assert.NoError(t, engine.RegisterRule("slot", staticRule("budget", true)))
	assert.Error(t, engine.RegisterRule("slot", nil))
}

func TestEngine_UnregisterRule_PrunesEmptyEntityType(t *testing.T) {
	engine, _ := newTestEngine(t)
	require.NoError(t, engine.RegisterRule("bot", staticRule("a", true)))
	require.NoError(t, engine.RegisterRule("bot", staticRule("b", true)))

	assert.True(t, engine.UnregisterRule("bot", "a"))
	assert.False(t, engine.UnregisterRule("bot", "a"))
	assert.True(t, engine.HasEntityType("bot"))
	require.Len(t, engine.Rules("bot"), 1)
	assert.Equal(t, "b", engine.Rules("bot")[0].Name())

	assert.True(t, engine.UnregisterRule("bot", "b"))
	assert.False(t, engine.HasEntityType("bot"))
	assert.False(t, engine.UnregisterRule("missing", "b"))
}

func TestEngine_ValidateEntity_NoRules(t *testing.T) {
	engine, _ := newTestEngine(t)

	report := engine.ValidateEntity(context.Background(), "bot", struct{}{}, nil, nil)

	assert.True(t, report.Valid)
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "no rules registered")
	assert.Empty(t, report.Errors)
}

func TestEngine_ValidateEntity_RegistrationOrderAndAggregation(t *testing.T) {
	engine, _ := newTestEngine(t)
	require.NoError(t, engine.RegisterRule("bot", staticRule("first", true, Pass("", "first ok"))))
	require.NoError(t, engine.RegisterRule("bot", staticRule("second", true,
		Fail("", xerrors.CodeBudgetViolation, "too many heads"),
		Warn("", "few accessories"))))
	require.NoError(t, engine.RegisterRule("bot", staticRule("third", false)))

	report := engine.ValidateEntity(context.Background(), "bot", nil, nil, nil)

	assert.False(t, report.Valid)
	require.Len(t, report.Results, 4)
	assert.Equal(t, []string{"first", "second", "second", "third"}, []string{
		report.Results[0].RuleName, report.Results[1].RuleName,
		report.Results[2].RuleName, report.Results[3].RuleName,
	})
	assert.Equal(t, []string{"too many heads"}, report.Errors)
	assert.Equal(t, []string{"few accessories"}, report.Warnings)
	assert.Equal(t, []string{"first ok", "third passed"}, report.Infos)
	assert.Equal(t, Summary{Total: 4, Passed: 3, Failed: 1, Warnings: 1}, report.Summary)
}

func TestEngine_Options(t *testing.T) {
	rules := []Rule{
		staticRule("optional_fail", false, Fail("", xerrors.CodeBudgetViolation, "optional failed")),
		staticRule("required_fail", true,
			Fail("", xerrors.CodeBudgetViolation, "required failed 1"),
			Fail("", xerrors.CodeBudgetViolation, "required failed 2")),
		staticRule("warn", true, Warn("", "just a warning"), Pass("", "info")),
	}

	tests := []struct {
		name         string
		opts         Options
		wantErrors   []string
		wantWarnings []string
		wantInfos    []string
		wantResults  int
	}{
		{
			name:         "默认选项",
			opts:         DefaultOptions(),
			wantErrors:   []string{"optional failed", "required failed 1", "required failed 2"},
			wantWarnings: []string{"just a warning"},
			wantInfos:    []string{"info"},
			wantResults:  5,
		},
		{
			name:         "遇到第一个错误停止",
			opts:         Options{StopOnFirstError: true, IncludeWarnings: true},
			wantErrors:   []string{"optional failed"},
			wantWarnings: []string{},
			wantInfos:    []string{},
			wantResults:  1,
		},
		{
			name:         "跳过可选规则并停止",
			opts:         Options{StopOnFirstError: true, SkipOptionalRules: true},
			wantErrors:   []string{"required failed 1"},
			wantWarnings: []string{},
			wantInfos:    []string{},
			wantResults:  1,
		},
		{
			name:         "不收集警告和提示但保留结构化结果",
			opts:         Options{},
			wantErrors:   []string{"optional failed", "required failed 1", "required failed 2"},
			wantWarnings: []string{},
			wantInfos:    []string{},
			wantResults:  5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, _ := newTestEngine(t)
			opts := tt.opts
			report := engine.ValidateWithRules(context.Background(), rules, nil, nil, &opts)

			assert.False(t, report.Valid)
			assert.Equal(t, tt.wantErrors, report.Errors)
			assert.Equal(t, tt.wantWarnings, report.Warnings)
			assert.Equal(t, tt.wantInfos, report.Infos)
			assert.Len(t, report.Results, tt.wantResults)
		})
	}
}

func TestEngine_RuleFailuresBecomeErrorResults(t *testing.T) {
	engine, m := newTestEngine(t)

	panicking := RuleFunc{
		RuleName:   "panicky",
		IsRequired: true,
		Fn: func(context.Context, interface{}, *Context) ([]Result, error) {
			panic("nil map")
		},
	}
	failing := RuleFunc{
		RuleName:   "erroring",
		IsRequired: true,
		Fn: func(context.Context, interface{}, *Context) ([]Result, error) {
			return nil, errors.New("lookup failed")
		},
	}
	after := staticRule("after", true, Pass("", "still executed"))

	report := engine.ValidateWithRules(context.Background(), []Rule{panicking, failing, after}, nil, nil, nil)

	assert.False(t, report.Valid)
	require.Len(t, report.Results, 3)
	assert.Equal(t, xerrors.CodeRuleExecutionFailed, report.Results[0].Code)
	assert.Contains(t, report.Results[0].Message, "rule execution failed")
	assert.Contains(t, report.Results[1].Message, "lookup failed")
	assert.Equal(t, "still executed", report.Results[2].Message)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.RuleExecutionsTotal.WithLabelValues("panicky", "panicked")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RuleExecutionsTotal.WithLabelValues("erroring", "failed")))
}

func TestEngine_ContextIsPassedToRules(t *testing.T) {
	engine, _ := newTestEngine(t)
	var seen interface{}
	rule := RuleFunc{
		RuleName:   "ctx",
		IsRequired: true,
		Fn: func(_ context.Context, _ interface{}, vctx *Context) ([]Result, error) {
			seen, _ = vctx.Get("archetype")
			assert.Equal(t, "bot", vctx.EntityType)
			return nil, nil
		},
	}
	require.NoError(t, engine.RegisterRule("bot", rule))

	report := engine.ValidateEntity(context.Background(), "bot", nil, (&Context{}).Set("archetype", "heavy"), nil)

	assert.True(t, report.Valid)
	assert.Equal(t, "heavy", seen)
}

func TestResult_WithDetailDoesNotShareMaps(t *testing.T) {
	base := Fail("r", xerrors.CodeBudgetViolation, "x").WithDetail("a", 1)
	derived := base.WithDetail("b", 2)

	assert.Len(t, base.Details, 1)
	assert.Len(t, derived.Details, 2)
}
