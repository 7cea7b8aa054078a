package order

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gowvp/botview/pkg/logwin"
	"github.com/ixugo/goddd/pkg/reason"
)

// BuildOrderTelemetry 现场重算一个订单的聚合遥测：
// 发现日志文件 → 订单事件定界 → 时间窗抽取 / 电机遥测 / 称重序列 / 视频，
// 最后组装聚合并做形状校验。除订单定界外，任一子步骤失败都只
// 降级为空集合，不让整个请求失败。
func (c Core) BuildOrderTelemetry(ctx context.Context, in *BuildTelemetryInput) (*OrderTelemetry, error) {
	logsBase := filepath.Join(c.DataDir(), in.MachineID, "logs")
	files := logwin.FindSuitableFiles(logsBase, time.Unix(int64(in.UID), 0))
	if len(files) == 0 {
		return nil, reason.ErrNotFound.Withf("no log files for machine[%s] uid[%v]", in.MachineID, in.UID)
	}

	ordersPath, ok := logwin.OrdersRule.Select(files)
	if !ok {
		return nil, reason.ErrNotFound.Withf("no orders log for machine[%s]", in.MachineID)
	}
	o, err := FetchOrder(ordersPath, in.UID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, reason.ErrNotFound.Withf("order uid[%v] not found in %s", in.UID, ordersPath)
		}
		return nil, reason.ErrServer.Withf("scan orders log: %s", err.Error())
	}

	out := OrderTelemetry{
		OrderID:           strconv.FormatFloat(o.UID, 'f', -1, 64),
		StartTime:         float64(o.StartTime.Unix()),
		EndTime:           float64(o.EndTime.Unix()),
		Motors:            map[string]MotorNode{},
		ExtraWeightPoints: []ExtraWeightPoint{},
	}

	out.Logs = c.extractor.FetchWindows(ctx, out.StartTime, out.EndTime, files)

	if path, ok := logwin.TelemetryRule.Select(files); ok {
		motors, err := FetchMotors(path, o.UID)
		switch {
		case errors.Is(err, ErrNotFound):
			slog.InfoContext(ctx, "no telemetry record for order", "uid", o.UID)
		case err != nil:
			slog.ErrorContext(ctx, "fetch motors", "path", path, "err", err)
		default:
			out.Motors = motors
		}
	}

	if path, ok := logwin.SauceWeightRule.Select(files); ok {
		points, err := FetchSaucePoints(o, path, "")
		if err != nil {
			slog.ErrorContext(ctx, "fetch sauce weight points", "path", path, "err", err)
		} else {
			out.ExtraWeightPoints = points
		}
	}

	if c.video != nil {
		url, err := c.video.FindForOrder(ctx, in.MachineID, o.StartTime)
		switch {
		case errors.Is(err, ErrNotFound):
			slog.InfoContext(ctx, "no video for order", "uid", o.UID)
		case err != nil:
			slog.ErrorContext(ctx, "video lookup", "uid", o.UID, "err", err)
		default:
			out.VideoPath = url
		}
	}

	// 聚合校验失败按内部不一致处理，对外表现为 not found
	if err := out.Validate(); err != nil {
		slog.ErrorContext(ctx, "telemetry aggregate validation failed", "uid", o.UID, "err", err)
		return nil, reason.ErrNotFound.Withf("order uid[%v] telemetry unavailable", in.UID)
	}
	return &out, nil
}

// FetchOrderBounds 只做订单定界，ETL 与视频匹配复用
func (c Core) FetchOrderBounds(machineID string, uid float64) (*Order, error) {
	logsBase := filepath.Join(c.DataDir(), machineID, "logs")
	files := logwin.FindSuitableFiles(logsBase, time.Unix(int64(uid), 0))
	ordersPath, ok := logwin.OrdersRule.Select(files)
	if !ok {
		return nil, ErrNotFound
	}
	return FetchOrder(ordersPath, uid)
}
