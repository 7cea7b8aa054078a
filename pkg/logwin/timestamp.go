// Package logwin 从机器日志目录中定位按日期轮转的日志文件，
// 并按订单时间窗抽取相关的行片段。
//
// 机器上每个子系统把日志写到 logs/<subsystem>/YYYY-MM-DD_<suffix>.txt，
// 写满或跨天后 gzip 压缩为 .txt.gz。部分子系统（subapps、console）的
// 时钟源有固定 -8 小时偏差，抽取时按路径前缀表纠正。
package logwin

import (
	"regexp"
	"strings"
	"time"
)

// 行首时间戳，两种形式：
//
//	[YYYY-MM-DD HH:MM:SS]
//	YYYY-MM-DD HH:MM:SS(.sss)
//
// 小数秒不参与取值。
var tsPattern = regexp.MustCompile(`^\[?(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})\]?`)

// DefaultOffsets 已知的时钟偏移表，键是相对路径前缀，值为小时。
// subapps 与 console 的写入端时钟快 8 小时。
func DefaultOffsets() map[string]float64 {
	return map[string]float64{
		"subapps/": -8.0,
		"console/": -8.0,
	}
}

// OffsetFor 返回 relPath 对应的时钟偏移（小时），未命中任何前缀为 0。
func OffsetFor(relPath string, offsets map[string]float64) float64 {
	for prefix, h := range offsets {
		if strings.HasPrefix(relPath, prefix) {
			return h
		}
	}
	return 0
}

// ParseTimestamp 从单行日志解析行首时间戳，按 UTC 解释并换算为秒级时间戳，
// 再减去 offsetHours*3600 纠正时钟偏移。
// 行首不匹配、或匹配到的日历值非法（如 2 月 31 日）时返回 ok=false。
func ParseTimestamp(line string, offsetHours float64) (float64, bool) {
	m := tsPattern.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	t, err := time.Parse(time.DateTime, m[1])
	if err != nil {
		return 0, false
	}
	return float64(t.Unix()) - offsetHours*3600.0, true
}
