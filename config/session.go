package config

import (
	"errors"
	"time"
)

// SessionConfig 会话层配置
type SessionConfig struct {
	// MaxConnections 连接注册表容量，超出时淘汰最久未用的连接
	MaxConnections int `json:"max_connections"`

	// DatagramQueueSize 每连接数据报队列长度，队列满时丢弃新数据报
	DatagramQueueSize int `json:"datagram_queue_size"`

	// EventBufferSize 事件总线订阅缓冲区大小
	EventBufferSize int `json:"event_buffer_size"`

	// ShutdownTimeout 关闭时等待处理器完成的最长时间
	ShutdownTimeout Duration `json:"shutdown_timeout"`
}

// DefaultSessionConfig 返回默认会话配置
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		MaxConnections:    128,
		DatagramQueueSize: 256,
		EventBufferSize:   256,
		ShutdownTimeout:   Duration(5 * time.Second),
	}
}

// Validate 验证会话配置
func (c SessionConfig) Validate() error {
	if c.MaxConnections <= 0 {
		return errors.New("max_connections must be positive")
	}
	if c.DatagramQueueSize <= 0 {
		return errors.New("datagram_queue_size must be positive")
	}
	if c.EventBufferSize <= 0 {
		return errors.New("event_buffer_size must be positive")
	}
	if c.ShutdownTimeout < 0 {
		return errors.New("shutdown_timeout cannot be negative")
	}
	return nil
}
