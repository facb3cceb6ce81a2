package storage

import "errors"

var (
	// ErrNotFound 键不存在
	ErrNotFound = errors.New("storage: key not found")

	// ErrClosed 数据库已关闭
	ErrClosed = errors.New("storage: closed")

	// ErrConflict 事务提交时发生写冲突
	ErrConflict = errors.New("storage: transaction conflict")

	// ErrInvalidOptions 无效选项
	ErrInvalidOptions = errors.New("storage: invalid options")
)

// IsNotFound 检查是否为键不存在
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
