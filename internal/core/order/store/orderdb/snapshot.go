package orderdb

import (
	"context"

	"github.com/gowvp/botview/internal/core/order"
	"github.com/ixugo/goddd/pkg/orm"
	"gorm.io/gorm"
)

var _ order.SnapshotStorer = Snapshot{}

type Snapshot struct {
	db *gorm.DB
}

func NewSnapshot(db *gorm.DB) Snapshot {
	return Snapshot{db: db}
}

func (s Snapshot) Find(ctx context.Context, items *[]*order.Snapshot, pager orm.Pager, opts ...orm.QueryOption) (int64, error) {
	db := s.db.WithContext(ctx).Model(new(order.Snapshot))
	for _, fn := range opts {
		db = fn(db)
	}
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return 0, err
	}
	if err := db.Limit(pager.Limit()).Offset(pager.Offset()).Find(items).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (s Snapshot) Get(ctx context.Context, item *order.Snapshot, opts ...orm.QueryOption) error {
	db := s.db.WithContext(ctx)
	for _, fn := range opts {
		db = fn(db)
	}
	return db.First(item).Error
}

func (s Snapshot) Add(ctx context.Context, item *order.Snapshot) error {
	return s.db.WithContext(ctx).Create(item).Error
}

func (s Snapshot) Edit(ctx context.Context, item *order.Snapshot, changeFn func(*order.Snapshot), opts ...orm.QueryOption) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		db := tx
		for _, fn := range opts {
			db = fn(db)
		}
		if err := db.First(item).Error; err != nil {
			return err
		}
		changeFn(item)
		return tx.Save(item).Error
	})
}

func (s Snapshot) Del(ctx context.Context, item *order.Snapshot, opts ...orm.QueryOption) error {
	db := s.db.WithContext(ctx)
	for _, fn := range opts {
		db = fn(db)
	}
	return db.Delete(item).Error
}

func (s Snapshot) Count(ctx context.Context, opts ...orm.QueryOption) (int64, error) {
	db := s.db.WithContext(ctx).Model(new(order.Snapshot))
	for _, fn := range opts {
		db = fn(db)
	}
	var total int64
	err := db.Count(&total).Error
	return total, err
}
