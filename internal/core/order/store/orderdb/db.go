package orderdb

import (
	"log/slog"

	"github.com/gowvp/botview/internal/core/order"
	"gorm.io/gorm"
)

var _ order.Storer = DB{}

type DB struct {
	db *gorm.DB
}

func NewDB(db *gorm.DB) DB {
	return DB{db: db}
}

// AutoMigrate 根据模型建表，ok 为 false 时跳过
func (d DB) AutoMigrate(ok bool) DB {
	if !ok {
		return d
	}
	if err := d.db.AutoMigrate(new(order.Snapshot)); err != nil {
		slog.Error("AutoMigrate", "err", err)
	}
	return d
}

func (d DB) Snapshot() order.SnapshotStorer {
	return Snapshot(d)
}
