package storage

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// Bucket 数据库中一个键前缀下的命名空间
type Bucket struct {
	db     *DB
	prefix []byte
}

func (b *Bucket) key(k []byte) []byte {
	full := make([]byte, 0, len(b.prefix)+len(k))
	full = append(full, b.prefix...)
	return append(full, k...)
}

// Get 读取值，不存在时返回 ErrNotFound
func (b *Bucket) Get(k []byte) ([]byte, error) {
	return b.db.Get(b.key(k))
}

// Put 直接覆盖写入
func (b *Bucket) Put(k, value []byte) error {
	full := b.key(k)
	return b.db.update(func(txn *badger.Txn) error {
		return txn.Set(full, value)
	})
}

// MutateFunc 由当前值计算新值
//
// found 为 false 时 cur 为 nil。可能因写冲突被多次调用，不得有副作用。
type MutateFunc func(cur []byte, found bool) ([]byte, error)

// Mutate 在事务中对单个键做读-改-写
//
// 提交冲突时重新读取并调用 fn，最多 MaxRetries 次。
func (b *Bucket) Mutate(k []byte, fn MutateFunc) error {
	full := b.key(k)
	attempts := b.db.opts.MaxRetries

	for attempt := 1; ; attempt++ {
		err := b.db.update(func(txn *badger.Txn) error {
			var cur []byte
			found := false
			item, err := txn.Get(full)
			switch {
			case errors.Is(err, badger.ErrKeyNotFound):
			case err != nil:
				return err
			default:
				if cur, err = item.ValueCopy(nil); err != nil {
					return err
				}
				found = true
			}

			next, err := fn(cur, found)
			if err != nil {
				return err
			}
			return txn.Set(full, next)
		})
		if !errors.Is(err, ErrConflict) {
			return err
		}
		if attempt >= attempts {
			return fmt.Errorf("storage: giving up after %d attempts: %w", attempt, err)
		}
		logger.Debug("写冲突，重试", "attempt", attempt)
	}
}
