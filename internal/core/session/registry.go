package session

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Lejla94/lxp2p/pkg/interfaces"
	"github.com/Lejla94/lxp2p/pkg/types"
)

// registry 按节点缓存活跃连接
//
// 容量有限，超出时淘汰最久未使用的连接并以 CloseCodeEvicted 关闭。
// 同一节点的新连接覆盖旧条目，旧连接保持打开直到自然关闭。
type registry struct {
	mu    sync.Mutex
	conns *lru.Cache[types.NodeID, interfaces.Connection]
}

func newRegistry(size int) (*registry, error) {
	conns, err := lru.NewWithEvict(size, func(peer types.NodeID, conn interfaces.Connection) {
		logger.Debug("连接被移出注册表", "peer", peer.ShortString())
		_ = conn.CloseWithError(interfaces.CloseCodeEvicted, "evicted")
	})
	if err != nil {
		return nil, err
	}
	return &registry{conns: conns}, nil
}

// get 返回节点的活跃连接，已关闭的连接会被移除
func (r *registry) get(peer types.NodeID) (interfaces.Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.conns.Get(peer)
	if !ok {
		return nil, false
	}
	if isDone(conn) {
		r.conns.Remove(peer)
		return nil, false
	}
	return conn, true
}

func (r *registry) add(peer types.NodeID, conn interfaces.Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns.Add(peer, conn)
}

// remove 仅当条目仍指向 conn 时移除（并关闭 conn）
func (r *registry) remove(peer types.NodeID, conn interfaces.Connection) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.conns.Peek(peer)
	if !ok || cur != conn {
		return false
	}
	return r.conns.Remove(peer)
}

// closeAll 关闭并清空所有连接
func (r *registry) closeAll(code uint64, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, conn := range r.conns.Values() {
		_ = conn.CloseWithError(code, reason)
	}
	r.conns.Purge()
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conns.Len()
}

func isDone(conn interfaces.Connection) bool {
	select {
	case <-conn.Done():
		return true
	default:
		return false
	}
}
