package logwin

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// WindowGuard 订单时间窗两侧各放宽 5 秒
const WindowGuard = 5.0

const defaultTimeout = 30 * time.Second

// 文件里没有任何落在时间窗内的内容时的占位文本
const placeholderNoWindow = "=== No time window found in this file ===\n" +
	"To open full file, double-click the tab.\n"

const placeholderTimeout = "=== Timeout reached while extracting log window ==="

// FileText 单个日志文件的抽取结果。Text 为 base64 编码的 UTF-8 文本，
// 适合直接塞进 JSON 响应。
type FileText struct {
	Path string `json:"path"`
	Text string `json:"text"`
}

// Extractor 对一批已发现的日志文件做时间窗抽取。
// 零值可用：默认偏移表、30 秒整体超时。
type Extractor struct {
	// Offsets 路径前缀 → 时钟偏移（小时），nil 用 DefaultOffsets
	Offsets map[string]float64
	// Timeout 整批文件的抽取截止时长，0 用 30 秒
	Timeout time.Duration
	// OnWarn 截断等告警的回调，供调用方接诊断信息，可为 nil
	OnWarn func(relPath, msg string)
}

func (e *Extractor) offsets() map[string]float64 {
	if e.Offsets != nil {
		return e.Offsets
	}
	return DefaultOffsets()
}

func (e *Extractor) warn(relPath, msg string) {
	if e.OnWarn != nil {
		e.OnWarn(relPath, msg)
	}
}

// FetchWindows 对 files 中每个文件独立抽取 [start-5, end+5] 时间窗内的行。
// 文件之间互不影响：单个文件读取失败或超时只会让该文件得到占位文本。
// 每个文件一个 goroutine，整批受 ctx 与 Timeout 约束。
func (e *Extractor) FetchWindows(ctx context.Context, start, end float64, files map[string]string) map[string]FileText {
	windowStart := start - WindowGuard
	windowEnd := end + WindowGuard

	timeout := e.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type item struct {
		rel string
		ft  FileText
	}
	// 带缓冲，超时放弃后迟到的结果不会卡住 goroutine
	ch := make(chan item, len(files))
	for rel, abs := range files {
		go func(rel, abs string) {
			ch <- item{rel: rel, ft: e.extractFile(rel, abs, windowStart, windowEnd)}
		}(rel, abs)
	}

	out := make(map[string]FileText, len(files))
	for range files {
		select {
		case it := <-ch:
			out[it.rel] = it.ft
		case <-ctx.Done():
			for rel, abs := range files {
				if _, ok := out[rel]; !ok {
					e.warn(rel, "extraction deadline exceeded")
					slog.Warn("log window extraction timed out", "file", rel)
					out[rel] = encodeText(abs, placeholderTimeout)
				}
			}
			return out
		}
	}
	return out
}

// extractFile 单文件扫描。维护"最近一次解析成功的时间戳"，
// 无时间戳的续行沿用它判断是否落窗；时间戳越过窗尾即停止
// （文件按追加序写入，窗尾之后的乱序行不再找回）。
func (e *Extractor) extractFile(relPath, absPath string, windowStart, windowEnd float64) FileText {
	offset := OffsetFor(relPath, e.offsets())

	var b strings.Builder
	var lastTS float64
	var foundAnyTS, collected bool

	truncated, err := EachLine(absPath, func(line string) bool {
		if ts, ok := ParseTimestamp(line, offset); ok {
			foundAnyTS = true
			lastTS = ts
		}
		if !foundAnyTS {
			return true
		}
		if lastTS > windowEnd {
			return false
		}
		if lastTS >= windowStart {
			b.WriteString(line)
			collected = true
		}
		return true
	})
	if err != nil {
		slog.Error("failed to extract log window", "file", absPath, "err", err)
		return encodeText(absPath, fmt.Sprintf("=== Failed to extract log window: %v ===", err))
	}
	if truncated {
		msg := fmt.Sprintf("scan truncated after %d bytes / %d lines limit", MaxBytesPerFile, MaxLinesPerFile)
		e.warn(relPath, msg)
		slog.Warn("log file scan truncated", "file", relPath)
	}

	text := b.String()
	if !foundAnyTS || !collected {
		text = placeholderNoWindow
	}
	return encodeText(absPath, text)
}

func encodeText(path, text string) FileText {
	return FileText{
		Path: path,
		Text: base64.StdEncoding.EncodeToString([]byte(text)),
	}
}
