package mocks

import (
	"sync"
	"time"

	"github.com/Lejla94/lxp2p/pkg/interfaces"
	"github.com/Lejla94/lxp2p/pkg/types"
)

// MockDirectory 内存中的节点目录
type MockDirectory struct {
	mu      sync.Mutex
	records map[types.NodeID]*types.PeerRecord

	// Err 非 nil 时所有写操作返回该错误
	Err error

	IncrementCalls int
	ObserveCalls   int
	TouchCalls     int
}

// NewMockDirectory 创建目录
func NewMockDirectory() *MockDirectory {
	return &MockDirectory{records: make(map[types.NodeID]*types.PeerRecord)}
}

// Get 读取记录
func (d *MockDirectory) Get(id types.NodeID) (*types.PeerRecord, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	rec, ok := d.records[id]
	if !ok {
		return nil, false, nil
	}
	return rec.Clone(), true, nil
}

// Put 预置一条记录
func (d *MockDirectory) Put(rec types.PeerRecord) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.records[rec.PeerID] = &rec
}

func (d *MockDirectory) upsert(id types.NodeID, fn func(*types.PeerRecord)) error {
	if d.Err != nil {
		return d.Err
	}
	rec, ok := d.records[id]
	if !ok {
		rec = &types.PeerRecord{PeerID: id, AddressHint: types.RelayAddressHint}
		d.records[id] = rec
	}
	rec.LastSeen = time.Now()
	fn(rec)
	return nil
}

// TouchLastSeen 推进 LastSeen
func (d *MockDirectory) TouchLastSeen(id types.NodeID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.TouchCalls++
	return d.upsert(id, func(*types.PeerRecord) {})
}

// IncrementMessageCount 增加消息计数
func (d *MockDirectory) IncrementMessageCount(id types.NodeID, by uint64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.IncrementCalls++
	return d.upsert(id, func(r *types.PeerRecord) { r.MessageCount += by })
}

// Observe 记录连接事件
func (d *MockDirectory) Observe(id types.NodeID, hint string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ObserveCalls++
	return d.upsert(id, func(r *types.PeerRecord) {
		if hint != "" {
			r.AddressHint = hint
		}
	})
}

// Count 返回节点的消息计数
func (d *MockDirectory) Count(id types.NodeID) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if rec, ok := d.records[id]; ok {
		return rec.MessageCount
	}
	return 0
}

var _ interfaces.PeerDirectory = (*MockDirectory)(nil)
