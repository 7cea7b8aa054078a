// Package ordercache 在 orderdb 之上加一层内存读缓存，
// 快照写入后基本不再变化，按 order_id 命中可省掉一次查询与反序列化。
package ordercache

import (
	"context"

	"github.com/gowvp/botview/internal/core/order"
	"github.com/ixugo/goddd/pkg/conc"
	"github.com/ixugo/goddd/pkg/orm"
)

var _ order.Storer = &Cache{}

type Cache struct {
	order.Storer
	snaps *conc.Map[string, *order.Snapshot]
}

func NewCache(storer order.Storer) *Cache {
	return &Cache{
		Storer: storer,
		snaps:  conc.NewMap[string, *order.Snapshot](),
	}
}

func (c *Cache) Snapshot() order.SnapshotStorer {
	return (*Snapshot)(c)
}

var _ order.SnapshotStorer = &Snapshot{}

type Snapshot Cache

// Get 调用方预填 item.OrderID 时走缓存，未命中回源并填充
func (s *Snapshot) Get(ctx context.Context, item *order.Snapshot, opts ...orm.QueryOption) error {
	key := item.OrderID
	if key != "" {
		if v, ok := s.snaps.Load(key); ok {
			*item = *v
			return nil
		}
	}
	if err := s.Storer.Snapshot().Get(ctx, item, opts...); err != nil {
		return err
	}
	if item.OrderID != "" {
		v := *item
		s.snaps.Store(item.OrderID, &v)
	}
	return nil
}

func (s *Snapshot) Add(ctx context.Context, item *order.Snapshot) error {
	if err := s.Storer.Snapshot().Add(ctx, item); err != nil {
		return err
	}
	v := *item
	s.snaps.Store(item.OrderID, &v)
	return nil
}

func (s *Snapshot) Edit(ctx context.Context, item *order.Snapshot, changeFn func(*order.Snapshot), opts ...orm.QueryOption) error {
	if err := s.Storer.Snapshot().Edit(ctx, item, changeFn, opts...); err != nil {
		return err
	}
	v := *item
	s.snaps.Store(item.OrderID, &v)
	return nil
}

// Del 条件删除无法定位具体键，整体失效
func (s *Snapshot) Del(ctx context.Context, item *order.Snapshot, opts ...orm.QueryOption) error {
	if err := s.Storer.Snapshot().Del(ctx, item, opts...); err != nil {
		return err
	}
	s.snaps.Range(func(key string, _ *order.Snapshot) bool {
		s.snaps.Delete(key)
		return true
	})
	return nil
}

func (s *Snapshot) Find(ctx context.Context, items *[]*order.Snapshot, pager orm.Pager, opts ...orm.QueryOption) (int64, error) {
	return s.Storer.Snapshot().Find(ctx, items, pager, opts...)
}

func (s *Snapshot) Count(ctx context.Context, opts ...orm.QueryOption) (int64, error) {
	return s.Storer.Snapshot().Count(ctx, opts...)
}
