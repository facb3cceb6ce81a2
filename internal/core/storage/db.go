package storage

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/Lejla94/lxp2p/pkg/lib/log"
)

var logger = log.Logger("core/storage")

// DB BadgerDB 数据库
type DB struct {
	db     *badger.DB
	opts   Options
	closed atomic.Bool

	// gcMu 保护 GC 状态，StartGC 与 Close 可能并发调用
	gcMu     sync.Mutex
	gcCancel context.CancelFunc
	gcDone   chan struct{}
}

// Open 打开数据库
func Open(opts Options) (*DB, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	var bopts badger.Options
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(opts.Path, 0o700); err != nil {
			return nil, err
		}
		bopts = badger.DefaultOptions(opts.Path)
	}
	bopts = bopts.
		WithSyncWrites(opts.SyncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(log.BadgerAdapter{L: log.Logger("storage/badger")})

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, err
	}
	logger.Debug("数据库已打开", "path", opts.Path, "inMemory", opts.InMemory)
	return &DB{db: db, opts: opts}, nil
}

// New 以默认选项打开 path 上的数据库
func New(path string) (*DB, error) {
	return Open(DefaultOptions(path))
}

// Get 读取原始键（不加前缀）
func (d *DB) Get(key []byte) ([]byte, error) {
	if d.closed.Load() {
		return nil, ErrClosed
	}
	var value []byte
	err := d.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, convertError(err)
	}
	return value, nil
}

// update 执行一次读写事务，冲突时返回 ErrConflict
func (d *DB) update(fn func(txn *badger.Txn) error) error {
	if d.closed.Load() {
		return ErrClosed
	}
	return convertError(d.db.Update(fn))
}

// StartGC 启动值日志 GC（内存模式或 GCInterval 为 0 时无操作）
func (d *DB) StartGC() {
	if d.opts.InMemory || d.opts.GCInterval <= 0 {
		return
	}

	d.gcMu.Lock()
	defer d.gcMu.Unlock()
	if d.closed.Load() || d.gcCancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	d.gcCancel = cancel
	d.gcDone = make(chan struct{})
	go d.gcLoop(ctx, d.gcDone)
}

func (d *DB) gcLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(d.opts.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// 一次调用最多回收一个文件，直到没有可回收的为止
			for !d.closed.Load() {
				if err := d.db.RunValueLogGC(d.opts.GCDiscardRatio); err != nil {
					if !errors.Is(err, badger.ErrNoRewrite) {
						logger.Debug("值日志 GC 结束", "error", err)
					}
					break
				}
			}
		}
	}
}

// Close 关闭数据库，可重复调用
func (d *DB) Close() error {
	d.gcMu.Lock()
	if d.closed.Swap(true) {
		d.gcMu.Unlock()
		return nil
	}
	cancel, done := d.gcCancel, d.gcDone
	d.gcMu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	return d.db.Close()
}

// Bucket 返回带前缀的命名空间
func (d *DB) Bucket(prefix string) *Bucket {
	return &Bucket{db: d, prefix: []byte(prefix)}
}

func convertError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, badger.ErrKeyNotFound):
		return ErrNotFound
	case errors.Is(err, badger.ErrConflict):
		return ErrConflict
	case errors.Is(err, badger.ErrDBClosed):
		return ErrClosed
	default:
		return err
	}
}
