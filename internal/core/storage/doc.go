// Package storage 提供节点目录的持久化存储
//
// 底层是单个 BadgerDB 数据库（${DataDir}/peers.db）。组件通过 Bucket
// 获得独立的键前缀，并用 Mutate 做带冲突重试的读-改-写：
//
//	db, err := storage.Open(storage.Options{Path: "/data/peers.db"})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	peers := db.Bucket("peer:")
//	err = peers.Mutate(key, func(cur []byte, found bool) ([]byte, error) {
//	    ...
//	})
//
// Badger 采用乐观并发控制，并发修改同一键的事务只有一个能提交成功，
// 其余返回 ErrConflict，由 Mutate 重新执行。
package storage
