package order

import (
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/gowvp/botview/pkg/ljson"
	"github.com/gowvp/botview/pkg/logwin"
)

// sauceRecord 称重日志的单条记录：一个批次的采样。
// Time 是批次里最后一个采样点的时钟时间。
type sauceRecord struct {
	Time            string    `json:"time"`
	WeightPointTime []float64 `json:"weight_point_time"`
	WeightPoint     []float64 `json:"weight_point"`
}

// FetchSaucePoints 在称重日志里找落在订单区间内的第一个批次，
// 展开为相对订单开始的采样点序列。文件日期取自文件名的日期前缀。
// 每个订单只消费一个批次；没有命中的批次返回空序列，不是错误。
func FetchSaucePoints(o *Order, path, namePrefix string) ([]ExtraWeightPoint, error) {
	if namePrefix == "" {
		namePrefix = "Sauce"
	}
	// 2025-11-25_sauce_weight.txt → 2025-11-25
	date, _, _ := strings.Cut(filepath.Base(path), "_")

	points := make([]ExtraWeightPoint, 0, 8)
	startTS := float64(o.StartTime.Unix())

	_, err := logwin.EachLine(path, func(line string) bool {
		line = strings.TrimSpace(line)
		if line == "" {
			return true
		}
		var rec sauceRecord
		if err := ljson.UnmarshalString(line, &rec); err != nil {
			slog.Warn("JSON decode error for sauce weight record", "line", line, "err", err)
			return true
		}

		recordTime, err := time.Parse(time.DateTime, date+" "+rec.Time)
		if err != nil {
			slog.Warn("bad clock time in sauce weight record", "time", rec.Time, "err", err)
			return true
		}
		// 记录时刻是批次最后一个采样点的时间
		if recordTime.Before(o.StartTime) || recordTime.After(o.EndTime) {
			return true
		}
		if len(rec.WeightPointTime) == 0 || len(rec.WeightPointTime) != len(rec.WeightPoint) {
			slog.Warn("sauce weight record has mismatched arrays", "line", line)
			return true
		}

		// 批次自身的开始时刻 = 记录时刻 - 最大偏移
		maxDt := rec.WeightPointTime[0]
		for _, dt := range rec.WeightPointTime[1:] {
			maxDt = max(maxDt, dt)
		}
		batchStart := float64(recordTime.Unix()) - maxDt

		for i, dt := range rec.WeightPointTime {
			t := batchStart + dt - startTS
			points = append(points, ExtraWeightPoint{
				Name:  fmt.Sprintf("%s %d", namePrefix, i+1),
				Time:  math.Round(t*1000) / 1000,
				Value: rec.WeightPoint[i],
			})
		}
		// 只取第一个命中的批次
		return false
	})
	if err != nil {
		return nil, err
	}
	return points, nil
}
