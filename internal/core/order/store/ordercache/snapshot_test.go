package ordercache

import (
	"context"
	"testing"

	"github.com/gowvp/botview/internal/core/order"
	"github.com/ixugo/goddd/pkg/orm"
	"gorm.io/gorm"
)

type countingStore struct {
	items map[string]*order.Snapshot
	gets  int
}

func newCountingStore() *countingStore {
	return &countingStore{items: make(map[string]*order.Snapshot)}
}

func (c *countingStore) Snapshot() order.SnapshotStorer { return c }

func (c *countingStore) Find(_ context.Context, out *[]*order.Snapshot, _ orm.Pager, _ ...orm.QueryOption) (int64, error) {
	for _, v := range c.items {
		*out = append(*out, v)
	}
	return int64(len(c.items)), nil
}

func (c *countingStore) Get(_ context.Context, item *order.Snapshot, _ ...orm.QueryOption) error {
	c.gets++
	v, ok := c.items[item.OrderID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	*item = *v
	return nil
}

func (c *countingStore) Add(_ context.Context, item *order.Snapshot) error {
	c.items[item.OrderID] = item
	return nil
}

func (c *countingStore) Edit(_ context.Context, item *order.Snapshot, changeFn func(*order.Snapshot), _ ...orm.QueryOption) error {
	v, ok := c.items[item.OrderID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	changeFn(v)
	*item = *v
	return nil
}

func (c *countingStore) Del(_ context.Context, _ *order.Snapshot, _ ...orm.QueryOption) error {
	clear(c.items)
	return nil
}

func (c *countingStore) Count(_ context.Context, _ ...orm.QueryOption) (int64, error) {
	return int64(len(c.items)), nil
}

func TestCacheServesRepeatGets(t *testing.T) {
	backing := newCountingStore()
	cache := NewCache(backing)
	ctx := context.Background()

	if err := cache.Snapshot().Add(ctx, &order.Snapshot{ID: "a", OrderID: "1704189600"}); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		got := order.Snapshot{OrderID: "1704189600"}
		if err := cache.Snapshot().Get(ctx, &got, orm.Where("order_id=?", "1704189600")); err != nil {
			t.Fatal(err)
		}
		if got.ID != "a" {
			t.Fatalf("id = %q", got.ID)
		}
	}
	if backing.gets != 0 {
		t.Fatalf("backing gets = %d, want 0", backing.gets)
	}
}

func TestCachePopulatesOnMiss(t *testing.T) {
	backing := newCountingStore()
	backing.items["1704189600"] = &order.Snapshot{ID: "a", OrderID: "1704189600"}
	cache := NewCache(backing)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		got := order.Snapshot{OrderID: "1704189600"}
		if err := cache.Snapshot().Get(ctx, &got, orm.Where("order_id=?", "1704189600")); err != nil {
			t.Fatal(err)
		}
	}
	if backing.gets != 1 {
		t.Fatalf("backing gets = %d, want 1", backing.gets)
	}
}

func TestCacheInvalidatesOnDel(t *testing.T) {
	backing := newCountingStore()
	cache := NewCache(backing)
	ctx := context.Background()

	if err := cache.Snapshot().Add(ctx, &order.Snapshot{ID: "a", OrderID: "1704189600"}); err != nil {
		t.Fatal(err)
	}
	var gone order.Snapshot
	if err := cache.Snapshot().Del(ctx, &gone, orm.Where("order_id=?", "1704189600")); err != nil {
		t.Fatal(err)
	}

	got := order.Snapshot{OrderID: "1704189600"}
	if err := cache.Snapshot().Get(ctx, &got, orm.Where("order_id=?", "1704189600")); err == nil {
		t.Fatal("expected miss after delete")
	}
}
