package order

import (
	"log/slog"
	"strings"

	"github.com/gowvp/botview/pkg/ljson"
	"github.com/gowvp/botview/pkg/logwin"
)

// FetchMotors 在 start_order 遥测日志里找 start_time 与订单 uid
// 同秒的记录，摊平的 <node>_<metric>_<type> 键重组为按节点聚合的
// 电机遥测。没有匹配记录返回 ErrNotFound。
func FetchMotors(path string, uid float64) (map[string]MotorNode, error) {
	var motors map[string]MotorNode
	target := int64(uid)

	_, err := logwin.EachLine(path, func(line string) bool {
		line = strings.TrimSpace(line)
		if line == "" {
			return true
		}
		var raw map[string]any
		if err := ljson.UnmarshalString(line, &raw); err != nil {
			slog.Warn("could not parse telemetry record", "err", err)
			return true
		}
		st, ok := raw["start_time"].(float64)
		if !ok || int64(st) != target {
			return true
		}
		motors = transformMotors(raw)
		return false
	})
	if err != nil {
		return nil, err
	}
	if motors == nil {
		return nil, ErrNotFound
	}
	return motors, nil
}

// transformMotors 把 'screen_weight_value' 这样的摊平键按
// 节点/指标/数据类型重组。velocity、position、state 三者齐备的
// 节点才算有效电机，weight 挂在个别节点上，可选。
func transformMotors(raw map[string]any) map[string]MotorNode {
	type series map[string][]any // 数据类型(time/value) → 数组
	nodes := make(map[string]map[string]series)

	for key, v := range raw {
		parts := strings.Split(key, "_")
		if len(parts) < 3 {
			continue
		}
		arr, ok := v.([]any)
		if !ok {
			continue
		}
		node, metric, dataType := parts[0], parts[1], parts[2]
		if nodes[node] == nil {
			nodes[node] = make(map[string]series)
		}
		if nodes[node][metric] == nil {
			nodes[node][metric] = make(series)
		}
		nodes[node][metric][dataType] = arr
	}

	motors := make(map[string]MotorNode)
	for name, metrics := range nodes {
		velocity, okV := floatSeries(metrics["velocity"])
		position, okP := floatSeries(metrics["position"])
		state, okS := stringSeries(metrics["state"])
		if !okV || !okP || !okS {
			continue
		}
		m := MotorNode{Velocity: velocity, Position: position, State: state}
		if w, ok := floatSeries(metrics["weight"]); ok {
			m.Weight = &w
		}
		motors[name] = m
	}
	return motors
}

func floatSeries(s map[string][]any) (TimeSeries[float64], bool) {
	if s == nil {
		return TimeSeries[float64]{}, false
	}
	t, okT := toFloats(s["time"])
	v, okV := toFloats(s["value"])
	if !okT || !okV || len(t) != len(v) {
		return TimeSeries[float64]{}, false
	}
	return TimeSeries[float64]{Time: t, Value: v}, true
}

func stringSeries(s map[string][]any) (TimeSeries[string], bool) {
	if s == nil {
		return TimeSeries[string]{}, false
	}
	t, okT := toFloats(s["time"])
	v, okV := toStrings(s["value"])
	if !okT || !okV || len(t) != len(v) {
		return TimeSeries[string]{}, false
	}
	return TimeSeries[string]{Time: t, Value: v}, true
}

func toFloats(in []any) ([]float64, bool) {
	if in == nil {
		return nil, false
	}
	out := make([]float64, 0, len(in))
	for _, v := range in {
		f, ok := v.(float64)
		if !ok {
			return nil, false
		}
		out = append(out, f)
	}
	return out, true
}

func toStrings(in []any) ([]string, bool) {
	if in == nil {
		return nil, false
	}
	out := make([]string, 0, len(in))
	for _, v := range in {
		s, ok := v.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}
