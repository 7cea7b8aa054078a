package order

import (
	"bufio"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gowvp/botview/pkg/ljson"
	"github.com/gowvp/botview/pkg/logwin"
)

// 订单事件日志里的两类标记
const (
	markerNewOrder  = `"action": "new_order"`
	markerEndWeight = "end_screen_weight"
)

// 行格式：日期 + 空白 + 15 字符的时间片段（HH:MM:SS.ffffff）+ JSON 负载，
// 时分秒取固定偏移 0-2、3-5、6-8
const payloadOffset = 15

// FetchOrder 扫描订单事件日志，找到 uid 对应订单的起止时刻。
// 行级预过滤：不含 uid 字面量、或不含任一标记的行直接跳过，
// 剩下的才做结构化解析；坏行记日志后跳过，不终止扫描。
// 观察到终止标记后立即返回；扫完仍未凑齐起止返回 ErrNotFound。
func FetchOrder(path string, uid float64) (*Order, error) {
	uidToken := strconv.FormatFloat(uid, 'f', -1, 64)

	rc, err := logwin.OpenText(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var out Order
	var haveStart bool

	sc := bufio.NewScanner(rc)
	sc.Buffer(make([]byte, 0, 64<<10), 1<<20)
	for sc.Scan() {
		line := sc.Text()
		if !strings.Contains(line, uidToken) {
			continue
		}
		if !strings.Contains(line, markerNewOrder) && !strings.Contains(line, markerEndWeight) {
			continue
		}

		ts, payload, ok := splitOrderLine(line)
		if !ok {
			slog.Warn("malformed order event line", "line", strings.TrimSpace(line))
			continue
		}

		var data map[string]any
		if err := ljson.UnmarshalString(payload, &data); err != nil {
			slog.Warn("JSON decode error for order event", "line", strings.TrimSpace(line), "err", err)
			continue
		}

		// 字面量预过滤会让 1704189600 误中 1704189600.5，按解析出的 uid 精确比对
		if v, ok := data["uid"].(float64); !ok || v != uid {
			continue
		}

		if data["action"] == "new_order" {
			out.UID = uid
			out.StartTime = ts
			haveStart = true
		}
		if _, ok := data["end_screen_weight"]; ok {
			if !haveStart {
				// 只见到收尾没见到开头，这个扫描无法构成完整订单
				return nil, ErrNotFound
			}
			out.EndTime = ts
			return &out, nil
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return nil, ErrNotFound
}

// splitOrderLine 拆出行首日期与时间片段，拼成 UTC 时刻，并返回 JSON 负载
func splitOrderLine(line string) (time.Time, string, bool) {
	// 日期与负载之间可能是空格也可能是制表符
	i := strings.IndexAny(line, " \t")
	if i < 0 {
		return time.Time{}, "", false
	}
	dateTok, rest := line[:i], strings.TrimLeft(line[i+1:], " \t")
	if len(rest) <= payloadOffset {
		return time.Time{}, "", false
	}

	day, err := time.Parse(time.DateOnly, dateTok)
	if err != nil {
		return time.Time{}, "", false
	}
	hh, err1 := strconv.Atoi(rest[0:2])
	mm, err2 := strconv.Atoi(rest[3:5])
	ss, err3 := strconv.Atoi(rest[6:8])
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, "", false
	}

	ts := time.Date(day.Year(), day.Month(), day.Day(), hh, mm, ss, 0, time.UTC)
	return ts, strings.TrimSpace(rest[payloadOffset:]), true
}
