package validator

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	// 槽位ID: 小写字母开头, 仅包含小写字母、数字和下划线
	slotIDPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
	// 标识符代码: 小写字母开头, 允许连字符 (archetype / category / sub_type)
	codePattern = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)
)

// BusinessValidator 业务规则验证器
type BusinessValidator struct {
	validator *validator.Validate
}

var (
	defaultOnce      sync.Once
	defaultValidator *BusinessValidator
)

// Default 返回共享的验证器实例（validator.Validate 内部缓存结构体元数据, 并发安全）
func Default() *BusinessValidator {
	defaultOnce.Do(func() {
		defaultValidator = NewBusinessValidator()
	})
	return defaultValidator
}

// NewBusinessValidator 创建新的业务验证器
func NewBusinessValidator() *BusinessValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// 错误信息中使用 json/yaml 字段名
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		for _, tagKey := range []string{"json", "yaml"} {
			name := strings.SplitN(field.Tag.Get(tagKey), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return field.Name
	})

	// 注册自定义验证规则
	_ = v.RegisterValidation("slot_id", validateSlotID)
	_ = v.RegisterValidation("code", validateCode)
	_ = v.RegisterValidation("display_order", validateDisplayOrder)

	return &BusinessValidator{
		validator: v,
	}
}

// Validate 验证结构体
func (bv *BusinessValidator) Validate(i interface{}) error {
	return bv.validator.Struct(i)
}

// validateSlotID 验证槽位ID格式
func validateSlotID(fl validator.FieldLevel) bool {
	id := fl.Field().String()

	// 槽位ID规则：
	// 1. 长度 1-64 字符
	// 2. 小写字母开头, 只能包含小写字母、数字和下划线
	if len(id) == 0 || len(id) > 64 {
		return false
	}
	return slotIDPattern.MatchString(id)
}

// validateCode 验证代码格式 (骨架类型、部件类别、子类型)
func validateCode(fl validator.FieldLevel) bool {
	code := fl.Field().String()
	if len(code) == 0 || len(code) > 32 {
		return false
	}
	return codePattern.MatchString(code)
}

// validateDisplayOrder 验证显示顺序
func validateDisplayOrder(fl validator.FieldLevel) bool {
	order := fl.Field().Int()
	// 显示顺序范围：0-9999
	return order >= 0 && order <= 9999
}
