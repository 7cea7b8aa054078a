package order

import (
	"time"

	"github.com/gowvp/botview/pkg/logwin"
	"github.com/ixugo/goddd/pkg/orm"
)

// Order 一次离散的机器人工作周期，由订单事件日志中的
// new_order 与 end_screen_weight 两条记录界定。
type Order struct {
	UID       float64
	StartTime time.Time
	EndTime   time.Time
}

// TimeSeries 单个指标的时间序列，time 与 value 等长。
// time 是相对订单开始的秒偏移。
type TimeSeries[T any] struct {
	Time  []float64 `json:"time"`
	Value []T       `json:"value"`
}

// Valid 检查平行数组不变式
func (s TimeSeries[T]) Valid() bool {
	return len(s.Time) == len(s.Value)
}

// MotorNode 一个机器节点（truck、screen 等）的遥测。
// velocity/position/state 齐全才算有效节点，称重传感器可选。
type MotorNode struct {
	Velocity TimeSeries[float64]  `json:"velocity"`
	Position TimeSeries[float64]  `json:"position"`
	State    TimeSeries[string]   `json:"state"`
	Weight   *TimeSeries[float64] `json:"weight,omitempty"`
}

// ExtraWeightPoint 酱料称重的单个采样点，Time 为相对订单开始的秒数
type ExtraWeightPoint struct {
	Name  string  `json:"name"`
	Time  float64 `json:"time"`
	Value float64 `json:"value"`
}

// OrderTelemetry 单个订单的聚合遥测，每次请求重新组装，响应后即弃
type OrderTelemetry struct {
	OrderID   string  `json:"order_id"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	// Logs 相对路径 → 抽取的日志窗口（base64 文本）
	Logs map[string]logwin.FileText `json:"logs"`
	// VideoPath 对应视频的访问地址，找不到为空串
	VideoPath         string               `json:"video_path"`
	Motors            map[string]MotorNode `json:"motors"`
	ExtraWeightPoints []ExtraWeightPoint   `json:"extra_weight_points"`
}

// Validate 聚合形状校验，组装完成后最后一道闸
func (t *OrderTelemetry) Validate() error {
	if t.OrderID == "" {
		return errInvalidAggregate("order_id is empty")
	}
	if t.EndTime < t.StartTime {
		return errInvalidAggregate("end_time before start_time")
	}
	for name, m := range t.Motors {
		if !m.Velocity.Valid() || !m.Position.Valid() || !m.State.Valid() {
			return errInvalidAggregate("motor " + name + " has mismatched series lengths")
		}
		if m.Weight != nil && !m.Weight.Valid() {
			return errInvalidAggregate("motor " + name + " has mismatched weight series")
		}
	}
	return nil
}

type errInvalidAggregate string

func (e errInvalidAggregate) Error() string { return "invalid telemetry aggregate: " + string(e) }

// Snapshot 预烘焙的订单遥测快照，由 prepare 批处理写入
type Snapshot struct {
	ID        string   `gorm:"primaryKey" json:"id"`
	OrderID   string   `gorm:"column:order_id;uniqueIndex" json:"order_id"`
	MachineID string   `gorm:"column:machine_id;index" json:"machine_id"`
	StartedAt orm.Time `gorm:"column:started_at" json:"started_at"`
	EndedAt   orm.Time `gorm:"column:ended_at" json:"ended_at"`
	VideoPath string   `gorm:"column:video_path" json:"video_path"`
	// Payload 完整的 OrderTelemetry JSON
	Payload   string   `gorm:"column:payload;type:text" json:"-"`
	CreatedAt orm.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt orm.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (*Snapshot) TableName() string {
	return "order_snapshots"
}
