package peerstore

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/Lejla94/lxp2p/internal/core/storage"
	pkgif "github.com/Lejla94/lxp2p/pkg/interfaces"
	"github.com/Lejla94/lxp2p/pkg/lib/log"
	"github.com/Lejla94/lxp2p/pkg/types"
)

var logger = log.Logger("core/peerstore")

// KeyPrefix 节点记录的键前缀
const KeyPrefix = "peer:"

// Directory 持久化节点目录
type Directory struct {
	store *storage.Bucket
	clock clock.Clock

	locksMu sync.Mutex
	locks   map[types.NodeID]*keyLock
}

// keyLock 单个节点记录的写锁，refs 为持有或等待者数量
type keyLock struct {
	mu   sync.Mutex
	refs int
}

var _ pkgif.PeerDirectory = (*Directory)(nil)

// Option 目录选项
type Option func(*Directory)

// WithClock 设置时钟（测试中使用 clock.NewMock()）
func WithClock(c clock.Clock) Option {
	return func(d *Directory) {
		d.clock = c
	}
}

// NewDirectory 在数据库上创建节点目录
func NewDirectory(db *storage.DB, opts ...Option) *Directory {
	d := &Directory{
		store: db.Bucket(KeyPrefix),
		clock: clock.New(),
		locks: make(map[types.NodeID]*keyLock),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func recordKey(id types.NodeID) []byte {
	return []byte(id.String())
}

// lock 获取 id 的写锁，返回解锁函数
//
// 只串行化同一节点的写入，locksMu 仅在查表时短暂持有。
func (d *Directory) lock(id types.NodeID) func() {
	d.locksMu.Lock()
	l, ok := d.locks[id]
	if !ok {
		l = &keyLock{}
		d.locks[id] = l
	}
	l.refs++
	d.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		d.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(d.locks, id)
		}
		d.locksMu.Unlock()
	}
}

func (d *Directory) now() time.Time {
	return d.clock.Now().UTC()
}

// ============================================================================
//                              读取
// ============================================================================

// Get 读取节点记录
func (d *Directory) Get(id types.NodeID) (*types.PeerRecord, bool, error) {
	data, err := d.store.Get(recordKey(id))
	if storage.IsNotFound(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrDirectory, err)
	}

	rec, err := decodeRecord(id, data)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrDirectory, err)
	}
	return rec, true, nil
}

func decodeRecord(id types.NodeID, data []byte) (*types.PeerRecord, error) {
	var rec types.PeerRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptRecord, id.ShortString(), err)
	}
	if rec.PeerID != id {
		return nil, fmt.Errorf("%w: stored peer_id %s under key %s", ErrCorruptRecord, rec.PeerID.ShortString(), id.ShortString())
	}
	return &rec, nil
}

// ============================================================================
//                              写入
// ============================================================================

// Upsert 对节点记录执行原子读-改-写
//
// 记录不存在时先以 MessageCount = 0、AddressHint = "<relay>" 创建。
// fn 可能因事务冲突被多次调用，不得有副作用。
// fn 返回后 LastSeen 与 MessageCount 不会低于存储中的旧值，PeerID 不可修改。
func (d *Directory) Upsert(id types.NodeID, fn func(rec *types.PeerRecord)) (*types.PeerRecord, error) {
	key := recordKey(id)

	unlock := d.lock(id)
	defer unlock()

	var result *types.PeerRecord
	err := d.store.Mutate(key, func(cur []byte, found bool) ([]byte, error) {
		prev := &types.PeerRecord{
			PeerID:      id,
			AddressHint: types.RelayAddressHint,
			LastSeen:    d.now(),
		}
		if found {
			var err error
			if prev, err = decodeRecord(id, cur); err != nil {
				return nil, err
			}
		} else {
			logger.Debug("创建节点记录", "peer", id.ShortString())
		}

		next := prev.Clone()
		if fn != nil {
			fn(next)
		}
		next.PeerID = id
		if next.LastSeen.Before(prev.LastSeen) {
			next.LastSeen = prev.LastSeen
		}
		if next.MessageCount < prev.MessageCount {
			next.MessageCount = prev.MessageCount
		}
		if next.AddressHint == "" {
			next.AddressHint = types.RelayAddressHint
		}

		data, err := json.Marshal(next)
		if err != nil {
			return nil, err
		}
		result = next
		return data, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDirectory, err)
	}
	return result, nil
}

// TouchLastSeen 将 LastSeen 推进到当前时间
func (d *Directory) TouchLastSeen(id types.NodeID) error {
	now := d.now()
	_, err := d.Upsert(id, func(rec *types.PeerRecord) {
		rec.LastSeen = now
	})
	return err
}

// IncrementMessageCount 消息计数加 by，并推进 LastSeen
func (d *Directory) IncrementMessageCount(id types.NodeID, by uint64) error {
	now := d.now()
	_, err := d.Upsert(id, func(rec *types.PeerRecord) {
		rec.MessageCount += by
		rec.LastSeen = now
	})
	return err
}

// Observe 记录一次连接事件
//
// hint 为空时保留已有地址提示。
func (d *Directory) Observe(id types.NodeID, hint string) error {
	now := d.now()
	_, err := d.Upsert(id, func(rec *types.PeerRecord) {
		rec.LastSeen = now
		if hint != "" {
			rec.AddressHint = hint
		}
	})
	return err
}
