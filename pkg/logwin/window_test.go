package logwin

import (
	"context"
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testBase = int64(1704189600) // 2024-01-02 10:00:00 UTC

func tsLine(offset int64, msg string) string {
	return time.Unix(testBase+offset, 0).UTC().Format(time.DateTime) + " " + msg + "\n"
}

func decodeText(t *testing.T, ft FileText) string {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(ft.Text)
	if err != nil {
		t.Fatal(err)
	}
	return string(raw)
}

func TestFetchWindowsMiddleLines(t *testing.T) {
	dir := t.TempDir()
	// 时间戳 [T-10, T-6, T-4, T+1, T+20]，订单区间 [T-3, T]，
	// 放宽 ±5 后窗口 [T-8, T+5]：保留中间三行，T+20 处停止扫描
	lines := []string{
		tsLine(-10, "too early"),
		tsLine(-6, "inside one"),
		tsLine(-4, "inside two"),
		tsLine(1, "inside three"),
		tsLine(20, "way after"),
	}
	path := filepath.Join(dir, "machine.txt")
	writeFile(t, path, strings.Join(lines, ""))

	var e Extractor
	out := e.FetchWindows(context.Background(), float64(testBase-3), float64(testBase), map[string]string{"machine.txt": path})

	text := decodeText(t, out["machine.txt"])
	if strings.Contains(text, "too early") {
		t.Errorf("line before window retained: %q", text)
	}
	for _, want := range []string{"inside one", "inside two", "inside three"} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in %q", want, text)
		}
	}
	if strings.Contains(text, "way after") {
		t.Errorf("line past window end retained: %q", text)
	}
}

func TestFetchWindowsLastKnownTimestampCarries(t *testing.T) {
	dir := t.TempDir()
	lines := []string{
		tsLine(-20, "header"),
		tsLine(0, "stack trace follows"),
		"  at motor.drive(x=1)\n",
		"  at motor.spin(y=2)\n",
		tsLine(30, "tail"),
	}
	path := filepath.Join(dir, "trace.txt")
	writeFile(t, path, strings.Join(lines, ""))

	var e Extractor
	out := e.FetchWindows(context.Background(), float64(testBase), float64(testBase), map[string]string{"trace.txt": path})
	text := decodeText(t, out["trace.txt"])

	// 无时间戳的续行沿用上一个时间戳，应一并保留
	if !strings.Contains(text, "motor.drive") || !strings.Contains(text, "motor.spin") {
		t.Errorf("continuation lines dropped: %q", text)
	}
	if strings.Contains(text, "header") || strings.Contains(text, "tail") {
		t.Errorf("unexpected lines: %q", text)
	}
}

func TestFetchWindowsPlaceholderWhenNoTimestamp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "no_ts.txt")
	writeFile(t, path, "hello\nworld\n")

	var e Extractor
	out := e.FetchWindows(context.Background(), float64(testBase), float64(testBase), map[string]string{"no_ts.txt": path})
	text := decodeText(t, out["no_ts.txt"])
	if !strings.Contains(text, "No time window found") {
		t.Errorf("expected placeholder, got %q", text)
	}
	if out["no_ts.txt"].Path != path {
		t.Errorf("path = %q", out["no_ts.txt"].Path)
	}
}

func TestFetchWindowsPlaceholderWhenEmptyWindow(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "late.txt")
	writeFile(t, path, tsLine(3600, "an hour later")+tsLine(3700, "even later"))

	var e Extractor
	out := e.FetchWindows(context.Background(), float64(testBase), float64(testBase), map[string]string{"late.txt": path})
	if !strings.Contains(decodeText(t, out["late.txt"]), "No time window found") {
		t.Error("expected placeholder for empty window")
	}
}

func TestFetchWindowsErrorIsolatedPerFile(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.txt")
	writeFile(t, good, tsLine(0, "fine"))
	missing := filepath.Join(dir, "gone.txt")

	var e Extractor
	out := e.FetchWindows(context.Background(), float64(testBase), float64(testBase), map[string]string{
		"good.txt": good,
		"gone.txt": missing,
	})
	if len(out) != 2 {
		t.Fatalf("out = %v", out)
	}
	if !strings.Contains(decodeText(t, out["good.txt"]), "fine") {
		t.Error("good file should still extract")
	}
	if !strings.Contains(decodeText(t, out["gone.txt"]), "Failed to extract log window") {
		t.Error("missing file should yield error placeholder")
	}
}

func TestFetchWindowsClockOffsetApplied(t *testing.T) {
	dir := t.TempDir()
	// subapps 的时钟快 8 小时：写入端记下 T+8h，按 -8h 偏移纠正后等于 T
	shifted := time.Unix(testBase, 0).UTC().Add(8 * time.Hour).Format(time.DateTime)
	path := filepath.Join(dir, "app.txt")
	writeFile(t, path, shifted+" subsystem heartbeat\n")

	var e Extractor
	out := e.FetchWindows(context.Background(), float64(testBase), float64(testBase), map[string]string{"subapps/app.txt": path})
	if !strings.Contains(decodeText(t, out["subapps/app.txt"]), "heartbeat") {
		t.Error("offset-corrected line should fall inside the window")
	}
}

func TestFetchWindowsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "same.txt")
	var b strings.Builder
	for i := range 50 {
		b.WriteString(tsLine(int64(i-25), fmt.Sprintf("line %d", i)))
	}
	writeFile(t, path, b.String())
	files := map[string]string{"same.txt": path}

	var e Extractor
	first := e.FetchWindows(context.Background(), float64(testBase), float64(testBase), files)
	second := e.FetchWindows(context.Background(), float64(testBase), float64(testBase), files)
	if first["same.txt"] != second["same.txt"] {
		t.Error("same input should produce identical output")
	}
}

func TestFetchWindowsWarnOnTruncation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "huge.txt")
	var b strings.Builder
	for range MaxLinesPerFile + 10 {
		b.WriteString("no timestamp here\n")
	}
	writeFile(t, path, b.String())

	var warned bool
	e := Extractor{OnWarn: func(rel, msg string) { warned = true }}
	e.FetchWindows(context.Background(), float64(testBase), float64(testBase), map[string]string{"huge.txt": path})
	if !warned {
		t.Error("expected truncation warning")
	}
}
