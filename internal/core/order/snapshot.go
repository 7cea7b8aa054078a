package order

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/ixugo/goddd/domain/uniqueid"
	"github.com/ixugo/goddd/pkg/orm"
	"github.com/ixugo/goddd/pkg/reason"
	"github.com/jinzhu/copier"
)

// SnapshotStorer Instantiation interface
type SnapshotStorer interface {
	Find(context.Context, *[]*Snapshot, orm.Pager, ...orm.QueryOption) (int64, error)
	Get(context.Context, *Snapshot, ...orm.QueryOption) error
	Add(context.Context, *Snapshot) error
	Edit(context.Context, *Snapshot, func(*Snapshot), ...orm.QueryOption) error
	Del(context.Context, *Snapshot, ...orm.QueryOption) error
	Count(context.Context, ...orm.QueryOption) (int64, error)
}

// WithUniqueID 注入唯一 ID 生成器，快照主键用
func WithUniqueID(uni uniqueid.Core) Option {
	return func(c *Core) {
		c.uni = &uni
	}
}

// FindSnapshots 分页查询预烘焙快照，按订单开始时间倒序
func (c Core) FindSnapshots(ctx context.Context, in *FindSnapshotInput) ([]*Snapshot, int64, error) {
	query := orm.NewQuery(2).OrderBy("started_at DESC")
	if in.MachineID != "" {
		query.Where("machine_id = ?", in.MachineID)
	}

	items := make([]*Snapshot, 0, in.Limit())
	total, err := c.store.Snapshot().Find(ctx, &items, in, query.Encode()...)
	if err != nil {
		return nil, 0, reason.ErrDB.Withf(`Find in[%+v] err[%s]`, in, err.Error())
	}
	return items, total, nil
}

// GetSnapshotTelemetry 按订单 ID 取出快照并还原完整遥测
func (c Core) GetSnapshotTelemetry(ctx context.Context, orderID string) (*OrderTelemetry, error) {
	// 预填 OrderID，缓存实现可以据此直接命中
	snap := Snapshot{OrderID: orderID}
	if err := c.store.Snapshot().Get(ctx, &snap, orm.Where("order_id=?", orderID)); err != nil {
		if orm.IsErrRecordNotFound(err) {
			return nil, reason.ErrNotFound.Withf(`Get order_id[%s]`, orderID)
		}
		return nil, reason.ErrDB.Withf(`Get order_id[%s] err[%s]`, orderID, err.Error())
	}

	var out OrderTelemetry
	if err := json.Unmarshal([]byte(snap.Payload), &out); err != nil {
		// 落库的快照坏了按内部不一致处理
		slog.ErrorContext(ctx, "snapshot payload corrupted", "order_id", orderID, "err", err)
		return nil, reason.ErrNotFound.Withf(`order_id[%s] snapshot unreadable`, orderID)
	}
	return &out, nil
}

// SaveSnapshot 写入或覆盖一个订单的快照
func (c Core) SaveSnapshot(ctx context.Context, in *SaveSnapshotInput) (*Snapshot, error) {
	if err := in.Telemetry.Validate(); err != nil {
		return nil, reason.ErrBadRequest.Withf("snapshot payload invalid: %s", err.Error())
	}
	payload, err := json.Marshal(in.Telemetry)
	if err != nil {
		return nil, reason.ErrServer.Withf("marshal snapshot: %s", err.Error())
	}

	snap := Snapshot{
		OrderID:   in.OrderID,
		MachineID: in.MachineID,
		StartedAt: orm.Time{Time: time.Unix(int64(in.Telemetry.StartTime), 0)},
		EndedAt:   orm.Time{Time: time.Unix(int64(in.Telemetry.EndTime), 0)},
		VideoPath: in.Telemetry.VideoPath,
		Payload:   string(payload),
		UpdatedAt: orm.Now(),
	}

	existing := Snapshot{OrderID: in.OrderID}
	err = c.store.Snapshot().Get(ctx, &existing, orm.Where("order_id=?", in.OrderID))
	switch {
	case err == nil:
		if err := c.store.Snapshot().Edit(ctx, &existing, func(s *Snapshot) {
			id, createdAt := s.ID, s.CreatedAt
			if err := copier.Copy(s, &snap); err != nil {
				slog.ErrorContext(ctx, "Copy", "err", err)
			}
			// 覆盖快照不换主键，也不动创建时间
			s.ID, s.CreatedAt = id, createdAt
		}, orm.Where("order_id=?", in.OrderID)); err != nil {
			return nil, reason.ErrDB.Withf(`Edit order_id[%s] err[%s]`, in.OrderID, err.Error())
		}
		return &existing, nil
	case orm.IsErrRecordNotFound(err):
		snap.ID = c.nextID()
		snap.CreatedAt = orm.Now()
		if err := c.store.Snapshot().Add(ctx, &snap); err != nil {
			return nil, reason.ErrDB.Withf(`Add order_id[%s] err[%s]`, in.OrderID, err.Error())
		}
		return &snap, nil
	default:
		return nil, reason.ErrDB.Withf(`Get order_id[%s] err[%s]`, in.OrderID, err.Error())
	}
}

func (c Core) nextID() string {
	if c.uni != nil {
		return c.uni.UniqueID("snap")
	}
	return orm.GenerateRandomString(16)
}

// StartCleanupWorker 定期清理超过保留期的快照，每天跑一次
func (c Core) StartCleanupWorker() {
	days := 0
	if c.conf != nil {
		days = c.conf.SnapshotRetainDays
	}
	if days <= 0 {
		slog.Info("snapshot cleanup disabled")
		return
	}
	slog.Info("snapshot cleanup worker started", "retain_days", days)

	c.cleanupExpiredSnapshots(days)
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for range ticker.C {
		c.cleanupExpiredSnapshots(days)
	}
}

func (c Core) cleanupExpiredSnapshots(days int) {
	ctx := context.Background()
	cutoff := time.Now().AddDate(0, 0, -days)

	var gone Snapshot
	if err := c.store.Snapshot().Del(ctx, &gone, orm.Where("started_at < ?", orm.Time{Time: cutoff})); err != nil {
		slog.Error("snapshot cleanup failed", "err", err)
		return
	}
	slog.Info("snapshot cleanup done", "cutoff", cutoff.Format(time.DateTime))
}
