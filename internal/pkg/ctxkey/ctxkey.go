// File: internal/pkg/ctxkey/ctxkey.go
package ctxkey

import "context"

// ContextKey 统一的 context key 类型
type ContextKey string

const (
	// Language 语言偏好
	Language ContextKey = "language"

	// TraceID 调用链追踪 ID
	TraceID ContextKey = "trace_id"

	// ActorID 发起槽位命令的操作者 ID (仅用于审计)
	ActorID ContextKey = "actor_id"

	// ConfigurationID 当前操作的骨架槽位配置 ID
	ConfigurationID ContextKey = "configuration_id"

	// BotID 配置所属的机器人 ID
	BotID ContextKey = "bot_id"
)

// WithValue 在 context 中设置指定 key 的值
func WithValue(ctx context.Context, key ContextKey, value interface{}) context.Context {
	return context.WithValue(ctx, key, value)
}

// GetString 从 context 中获取字符串类型的值
func GetString(ctx context.Context, key ContextKey) string {
	if ctx == nil {
		return ""
	}
	if value, ok := ctx.Value(key).(string); ok {
		return value
	}
	return ""
}
