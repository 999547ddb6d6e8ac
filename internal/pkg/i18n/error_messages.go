// File: internal/pkg/i18n/error_messages.go
package i18n

import (
	"tsu-botforge/internal/pkg/xerrors"

	"golang.org/x/text/language"
)

// ErrorMessages 错误消息的多语言映射
var ErrorMessages = map[xerrors.ErrorCode]map[language.Tag]string{
	// 1xxxxx: 通用错误码
	xerrors.CodeSuccess:           {language.Chinese: "操作成功", language.English: "Operation successful"},
	xerrors.CodeInternalError:     {language.Chinese: "内部服务错误", language.English: "Internal error"},
	xerrors.CodeInvalidParams:     {language.Chinese: "参数错误", language.English: "Invalid parameters"},
	xerrors.CodeResourceNotFound:  {language.Chinese: "资源不存在", language.English: "Resource not found"},
	xerrors.CodeDuplicateResource: {language.Chinese: "资源已存在", language.English: "Resource already exists"},

	// 6xxxxx: 业务逻辑错误码
	xerrors.CodeBusinessLogicError:  {language.Chinese: "业务逻辑错误", language.English: "Business logic error"},
	xerrors.CodeDataIntegrityError:  {language.Chinese: "数据完整性错误", language.English: "Data integrity error"},
	xerrors.CodeOperationNotAllowed: {language.Chinese: "操作不被允许", language.English: "Operation not allowed"},

	// 90xxxx: 目录
	xerrors.CodeUnknownArchetype: {language.Chinese: "未知骨架类型", language.English: "Unknown archetype"},
	xerrors.CodeUnknownSlot:      {language.Chinese: "未知槽位", language.English: "Unknown slot"},
	xerrors.CodeInvalidCatalog:   {language.Chinese: "槽位目录定义无效", language.English: "Invalid slot catalog"},

	// 91xxxx: 槽位命令
	xerrors.CodeIncompatibleCategory: {language.Chinese: "部件类别与槽位不兼容", language.English: "Part category is not compatible with the slot"},
	xerrors.CodeRequiredSlot:         {language.Chinese: "必需槽位不可清空", language.English: "Required slot cannot be vacated"},
	xerrors.CodeSlotEmpty:            {language.Chinese: "槽位为空", language.English: "Slot is empty"},
	xerrors.CodeSlotOccupied:         {language.Chinese: "槽位已被占用", language.English: "Slot is already occupied"},
	xerrors.CodeUnsupportedOperation: {language.Chinese: "不支持的操作", language.English: "Unsupported operation"},
	xerrors.CodeSubTypeRejected:      {language.Chinese: "部件子类型不被槽位接受", language.English: "Part sub-type is not accepted by the slot"},
	xerrors.CodeSizeLimitExceeded:    {language.Chinese: "部件尺寸超出槽位限制", language.English: "Part exceeds the slot size limit"},

	// 92xxxx: 组装校验
	xerrors.CodeBudgetViolation:     {language.Chinese: "部件预算违规", language.English: "Part budget violated"},
	xerrors.CodeDuplicateRule:       {language.Chinese: "规则重复注册", language.English: "Rule already registered"},
	xerrors.CodeRuleExecutionFailed: {language.Chinese: "规则执行失败", language.English: "Rule execution failed"},
}

// GetErrorMessage 获取错误码对应语言的消息
func GetErrorMessage(code xerrors.ErrorCode, lang language.Tag) string {
	lang = Match(lang)
	if messages, ok := ErrorMessages[code]; ok {
		if msg, ok := messages[lang]; ok {
			return msg
		}
		// 如果指定语言没有翻译，返回中文（默认）
		if msg, ok := messages[language.Chinese]; ok {
			return msg
		}
	}
	// 如果完全没有定义，返回通用错误消息
	if lang == language.English {
		return "Unknown error"
	}
	return "未知错误"
}
