package order

import "github.com/ixugo/goddd/pkg/web"

// BuildTelemetryInput 现场重算请求参数
type BuildTelemetryInput struct {
	MachineID string  `form:"-" json:"-"`
	UID       float64 `form:"-" json:"-"`
}

// FindSnapshotInput 快照分页查询参数
type FindSnapshotInput struct {
	web.PagerFilter
	MachineID string `form:"machine_id"` // 机器 ID（可选）
}

// SaveSnapshotInput 快照写入参数，由 prepare 批处理填充
type SaveSnapshotInput struct {
	OrderID   string
	MachineID string
	Telemetry *OrderTelemetry
}
