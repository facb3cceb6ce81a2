// Package lib 包含与架构组件无关的工具库
//
//   - log: 基于 log/slog 的分组件日志
package lib
