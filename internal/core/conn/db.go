package conn

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"

	"github.com/dep2p/go-roomclient/pkg/types"
)

// addrPrefix 地址记录的键前缀
var addrPrefix = []byte("addr/")

// maxConflictRetries 事务冲突重试次数
const maxConflictRetries = 3

// DBOptions 地址库选项
type DBOptions struct {
	// Path 数据目录，InMemory 时忽略
	Path string

	// InMemory 使用内存模式
	InMemory bool

	// SyncWrites 每次写入是否同步落盘
	SyncWrites bool
}

// BadgerDB 基于 BadgerDB 的持久化地址库
//
// 每条记录以 "addr/<地址>" 为键，PeerData 的 JSON 为值。
// ConnDB 接口不返回错误，读写失败记录日志后按不存在处理。
type BadgerDB struct {
	db     *badger.DB
	closed atomic.Bool
}

// OpenBadgerDB 打开地址库
func OpenBadgerDB(opts DBOptions) (*BadgerDB, error) {
	var bopts badger.Options
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if opts.Path == "" {
			return nil, fmt.Errorf("conn: db path cannot be empty")
		}
		if err := os.MkdirAll(opts.Path, 0o755); err != nil {
			return nil, fmt.Errorf("conn: create db dir: %w", err)
		}
		bopts = badger.DefaultOptions(opts.Path).WithSyncWrites(opts.SyncWrites)
	}
	bopts = bopts.WithLogger(badgerLogger{})

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("conn: open db: %w", err)
	}
	logger.Debug("地址库已打开", "path", opts.Path, "inMemory", opts.InMemory)
	return &BadgerDB{db: db}, nil
}

func addrKey(addr string) []byte {
	return append(append([]byte(nil), addrPrefix...), addr...)
}

// Get 读取地址记录
func (d *BadgerDB) Get(addr string) (types.PeerData, bool) {
	data, ok, err := d.get(addr)
	if err != nil {
		logger.Warn("读取地址记录失败", "addr", addr, "error", err)
		return types.PeerData{}, false
	}
	return data, ok
}

func (d *BadgerDB) get(addr string) (types.PeerData, bool, error) {
	if d.closed.Load() {
		return types.PeerData{}, false, ErrClosed
	}
	var data types.PeerData
	err := d.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(addrKey(addr))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &data)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return types.PeerData{}, false, nil
	}
	if err != nil {
		return types.PeerData{}, false, err
	}
	return data, true, nil
}

// Update 在一个事务中修改地址记录，不存在时创建
func (d *BadgerDB) Update(addr string, patches ...types.Patch) {
	if err := d.update(addr, patches...); err != nil {
		logger.Warn("更新地址记录失败", "addr", addr, "error", err)
	}
}

func (d *BadgerDB) update(addr string, patches ...types.Patch) error {
	if d.closed.Load() {
		return ErrClosed
	}
	key := addrKey(addr)
	var err error
	for i := 0; i < maxConflictRetries; i++ {
		err = d.db.Update(func(txn *badger.Txn) error {
			var data types.PeerData
			item, err := txn.Get(key)
			switch {
			case err == nil:
				if err := item.Value(func(val []byte) error {
					return json.Unmarshal(val, &data)
				}); err != nil {
					return err
				}
			case !errors.Is(err, badger.ErrKeyNotFound):
				return err
			}
			data.Apply(patches...)
			val, err := json.Marshal(data)
			if err != nil {
				return err
			}
			return txn.Set(key, val)
		})
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

// Remember 持久化一条地址记录，覆盖已有记录
func (d *BadgerDB) Remember(addr string, data types.PeerData) {
	d.Update(addr, func(p *types.PeerData) { *p = data })
}

// Delete 删除地址记录
func (d *BadgerDB) Delete(addr string) error {
	if d.closed.Load() {
		return ErrClosed
	}
	return d.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(addrKey(addr))
	})
}

// GetAddressForID 查找身份对应的第一个地址
func (d *BadgerDB) GetAddressForID(id types.FeedID) (string, bool) {
	for _, e := range d.Entries() {
		if e.Data.Key == id {
			return e.Address, true
		}
	}
	return "", false
}

// Entries 按地址排序返回全部记录
func (d *BadgerDB) Entries() []types.PeerEntry {
	if d.closed.Load() {
		return nil
	}
	var out []types.PeerEntry
	err := d.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = addrPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			addr := strings.TrimPrefix(string(item.Key()), string(addrPrefix))
			var data types.PeerData
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &data)
			}); err != nil {
				logger.Debug("跳过损坏的地址记录", "addr", addr, "error", err)
				continue
			}
			out = append(out, types.PeerEntry{Address: addr, Data: data})
		}
		return nil
	})
	if err != nil {
		logger.Warn("遍历地址库失败", "error", err)
	}
	return out
}

// Close 关闭地址库
func (d *BadgerDB) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return nil
	}
	return d.db.Close()
}

// ============================================================================
//                              日志适配
// ============================================================================

// badgerLogger 将 BadgerDB 日志转到组件日志
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{}) {
	logger.Error(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (badgerLogger) Warningf(format string, args ...interface{}) {
	logger.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (badgerLogger) Infof(format string, args ...interface{}) {
	logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (badgerLogger) Debugf(format string, args ...interface{}) {
	logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}
