// Package log 提供 lxp2p 统一日志接口
//
// 基于 Go 标准库 log/slog 封装，提供简洁的日志 API。
// 直接使用，无需抽象接口。
//
// 支持通过环境变量配置：
//   - LXP2P_LOG_LEVEL: debug / info / warn / error（默认 info）
//   - LXP2P_LOG_FORMAT: text 或 json（默认 text）
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// 日志级别常量（从 slog 导出，方便使用）
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// Format 日志输出格式
type Format int

const (
	// FormatText 文本格式（默认）
	FormatText Format = iota
	// FormatJSON JSON 格式
	FormatJSON
)

// Setup 重新创建默认 logger
//
// 将输出重定向到 w，并使用指定的级别和格式。
// 常用于命令行入口根据参数配置日志。
func Setup(w io.Writer, level slog.Level, format Format) {
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if format == FormatJSON {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(h))
}

// SetLevel 设置日志级别（输出到 stderr，文本格式）
func SetLevel(level slog.Level) {
	Setup(os.Stderr, level, FormatText)
}

// ParseLevel 解析日志级别名称
//
// 无法识别时返回 LevelInfo 和 false。
func ParseLevel(name string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// ParseFormat 解析日志格式名称（json 以外均视为 text）
func ParseFormat(name string) Format {
	if strings.EqualFold(strings.TrimSpace(name), "json") {
		return FormatJSON
	}
	return FormatText
}

// ============================================================================
//                              LazyLogger
// ============================================================================

// LazyLogger 懒加载 logger
//
// 每次日志调用时都从 slog.Default() 获取最新的 handler，
// 支持在运行时动态切换日志输出目标。
//
// 使用方式：
//
//	var logger = log.Logger("core/session")  // 返回 *LazyLogger
//	logger.Info("hello")                      // 动态使用当前的 default logger
type LazyLogger struct {
	component string
}

// Logger 返回带组件名的 LazyLogger
func Logger(component string) *LazyLogger {
	return &LazyLogger{component: component}
}

func (l *LazyLogger) base() *slog.Logger {
	return slog.Default().With("component", l.component)
}

// Debug 输出 Debug 级别日志
func (l *LazyLogger) Debug(msg string, args ...any) {
	l.base().Debug(msg, args...)
}

// Info 输出 Info 级别日志
func (l *LazyLogger) Info(msg string, args ...any) {
	l.base().Info(msg, args...)
}

// Warn 输出 Warn 级别日志
func (l *LazyLogger) Warn(msg string, args ...any) {
	l.base().Warn(msg, args...)
}

// Error 输出 Error 级别日志
func (l *LazyLogger) Error(msg string, args ...any) {
	l.base().Error(msg, args...)
}

// DebugContext 带 context 的 Debug 日志
func (l *LazyLogger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.base().DebugContext(ctx, msg, args...)
}

// WarnContext 带 context 的 Warn 日志
func (l *LazyLogger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.base().WarnContext(ctx, msg, args...)
}

// With 添加额外的属性
func (l *LazyLogger) With(args ...any) *slog.Logger {
	return l.base().With(args...)
}

// ============================================================================
//                              BadgerAdapter
// ============================================================================

// BadgerAdapter 将 LazyLogger 适配为 printf 风格接口（BadgerDB 日志）
//
// Badger 的 Info 日志非常频繁，统一降为 Debug。
type BadgerAdapter struct {
	L *LazyLogger
}

// Errorf 输出错误日志
func (a BadgerAdapter) Errorf(format string, args ...interface{}) {
	a.L.Error(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// Warningf 输出警告日志
func (a BadgerAdapter) Warningf(format string, args ...interface{}) {
	a.L.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// Infof 输出信息日志
func (a BadgerAdapter) Infof(format string, args ...interface{}) {
	a.L.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// Debugf 输出调试日志
func (a BadgerAdapter) Debugf(format string, args ...interface{}) {
	a.L.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// ============================================================================
//                              工具函数
// ============================================================================

// TruncateID 安全截取 ID 用于日志显示
func TruncateID(id string, maxLen int) string {
	if len(id) <= maxLen {
		return id
	}
	return id[:maxLen]
}

// ============================================================================
//                              初始化
// ============================================================================

func init() {
	level, _ := ParseLevel(os.Getenv("LXP2P_LOG_LEVEL"))
	Setup(os.Stderr, level, ParseFormat(os.Getenv("LXP2P_LOG_FORMAT")))
}
