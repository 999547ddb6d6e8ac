// File: internal/pkg/xerrors/codes.go
package xerrors

import "fmt"

// ErrorCode 错误码类型（类型安全）
type ErrorCode int

// IsValid 检查错误码是否在预定义列表中
func (c ErrorCode) IsValid() bool {
	_, exists := codeMessages[c]
	return exists
}

// String 返回错误码的字符串表示
func (c ErrorCode) String() string {
	if msg, ok := codeMessages[c]; ok {
		return fmt.Sprintf("%d (%s)", c, msg)
	}
	return fmt.Sprintf("%d (未定义的错误码)", c)
}

// Message 返回错误码对应的消息
func (c ErrorCode) Message() string {
	if msg, ok := codeMessages[c]; ok {
		return msg
	}
	return "未知错误"
}

// ToInt 转换为 int（用于 JSON 序列化等场景）
func (c ErrorCode) ToInt() int {
	return int(c)
}

// -----------------------------------------------------------------------------
// 业务错误码统一定义
// 按模块或领域对错误码进行分段，便于管理。
// -----------------------------------------------------------------------------
const (
	// 1xxxxx: 通用错误码
	CodeSuccess           ErrorCode = 100000 // 操作成功
	CodeInternalError     ErrorCode = 100001 // 内部服务错误
	CodeInvalidParams     ErrorCode = 100002 // 参数错误
	CodeResourceNotFound  ErrorCode = 100404 // 资源不存在
	CodeDuplicateResource ErrorCode = 100409 // 资源已存在

	// 6xxxxx: 业务逻辑错误码
	CodeBusinessLogicError  ErrorCode = 600001 // 业务逻辑错误
	CodeDataIntegrityError  ErrorCode = 600002 // 数据完整性错误
	CodeOperationNotAllowed ErrorCode = 600003 // 操作不被允许

	// 9xxxxx: 骨架槽位业务错误码
	// 目录相关 (90xxxx)
	CodeUnknownArchetype ErrorCode = 900001 // 未知骨架类型
	CodeUnknownSlot      ErrorCode = 900002 // 未知槽位
	CodeInvalidCatalog   ErrorCode = 900003 // 槽位目录定义无效

	// 槽位命令相关 (91xxxx)
	CodeIncompatibleCategory ErrorCode = 910001 // 部件类别与槽位不兼容
	CodeRequiredSlot         ErrorCode = 910002 // 必需槽位不可清空
	CodeSlotEmpty            ErrorCode = 910003 // 槽位为空
	CodeSlotOccupied         ErrorCode = 910004 // 槽位已被占用
	CodeUnsupportedOperation ErrorCode = 910005 // 不支持的操作
	CodeSubTypeRejected      ErrorCode = 910006 // 部件子类型不被槽位接受
	CodeSizeLimitExceeded    ErrorCode = 910007 // 部件尺寸超出槽位限制

	// 组装校验相关 (92xxxx)
	CodeBudgetViolation     ErrorCode = 920001 // 部件预算违规
	CodeDuplicateRule       ErrorCode = 920002 // 规则重复注册
	CodeRuleExecutionFailed ErrorCode = 920003 // 规则执行失败
)

// -----------------------------------------------------------------------------
// 错误消息映射
// -----------------------------------------------------------------------------
var codeMessages = map[ErrorCode]string{
	CodeSuccess:           "操作成功",
	CodeInternalError:     "内部服务错误",
	CodeInvalidParams:     "参数错误",
	CodeResourceNotFound:  "资源不存在",
	CodeDuplicateResource: "资源已存在",

	CodeBusinessLogicError:  "业务逻辑错误",
	CodeDataIntegrityError:  "数据完整性错误",
	CodeOperationNotAllowed: "操作不被允许",

	CodeUnknownArchetype: "未知骨架类型",
	CodeUnknownSlot:      "未知槽位",
	CodeInvalidCatalog:   "槽位目录定义无效",

	CodeIncompatibleCategory: "部件类别与槽位不兼容",
	CodeRequiredSlot:         "必需槽位不可清空",
	CodeSlotEmpty:            "槽位为空",
	CodeSlotOccupied:         "槽位已被占用",
	CodeUnsupportedOperation: "不支持的操作",
	CodeSubTypeRejected:      "部件子类型不被槽位接受",
	CodeSizeLimitExceeded:    "部件尺寸超出槽位限制",

	CodeBudgetViolation:     "部件预算违规",
	CodeDuplicateRule:       "规则重复注册",
	CodeRuleExecutionFailed: "规则执行失败",
}

// getLevelByCode 根据错误码推断错误级别
func getLevelByCode(code ErrorCode) ErrorLevel {
	switch code {
	case CodeSuccess:
		return LevelInfo
	case CodeSlotOccupied, CodeSlotEmpty:
		return LevelWarn
	case CodeInternalError, CodeRuleExecutionFailed:
		return LevelCritical
	default:
		return LevelError
	}
}

// getCategoryByCode 根据错误码推断错误分类
func getCategoryByCode(code ErrorCode) string {
	switch {
	case code >= 100000 && code < 200000:
		return "system"
	case code >= 600000 && code < 700000:
		return "business"
	case code >= 900000 && code < 910000:
		return "catalog"
	case code >= 910000 && code < 920000:
		return "slot_command"
	case code >= 920000 && code < 930000:
		return "assembly"
	default:
		return "unknown"
	}
}
