package order

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeLog(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFetchOrder(t *testing.T) {
	content := `2024-01-02 09:59:58.000001 {"action": "heartbeat"}
2024-01-02 10:00:00.123456 {"action": "new_order", "uid": 1704189600.5, "recipe": "noodles"}
2024-01-02 10:00:30.000000 {"action": "progress", "uid": 1704189600.5}
2024-01-02 10:02:15.654321 {"uid": 1704189600.5, "end_screen_weight": 412.5}
2024-01-02 10:03:00.000000 {"action": "new_order", "uid": 1704189781.0}
`
	path := writeLog(t, "2024-01-02_orders.txt", content)

	got, err := FetchOrder(path, 1704189600.5)
	if err != nil {
		t.Fatal(err)
	}
	if got.UID != 1704189600.5 {
		t.Fatalf("uid = %v", got.UID)
	}
	wantStart := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2024, 1, 2, 10, 2, 15, 0, time.UTC)
	if !got.StartTime.Equal(wantStart) {
		t.Fatalf("start = %v, want %v", got.StartTime, wantStart)
	}
	if !got.EndTime.Equal(wantEnd) {
		t.Fatalf("end = %v, want %v", got.EndTime, wantEnd)
	}
}

func TestFetchOrderEndBeforeStart(t *testing.T) {
	content := `2024-01-02 10:02:15.000000 {"uid": 1704189600.0, "end_screen_weight": 10}
2024-01-02 10:03:00.000000 {"action": "new_order", "uid": 1704189600.0}
`
	path := writeLog(t, "2024-01-02_orders.txt", content)

	_, err := FetchOrder(path, 1704189600.0)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestFetchOrderMissingUID(t *testing.T) {
	content := `2024-01-02 10:00:00.000000 {"action": "new_order", "uid": 1704189600.0}
2024-01-02 10:02:00.000000 {"uid": 1704189600.0, "end_screen_weight": 5}
`
	path := writeLog(t, "2024-01-02_orders.txt", content)

	_, err := FetchOrder(path, 1704200000.0)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestFetchOrderSkipsBadLines(t *testing.T) {
	// 中间夹坏行，解析应跳过而非报错
	content := `2024-01-02 10:00:00.000000 {"action": "new_order", "uid": 1704189600.0}
garbage 1704189600.0 "action": "new_order" without structure
2024-01-02 10:02:00.000000 {"uid": 1704189600.0, "end_screen_weight": 5}
`
	path := writeLog(t, "2024-01-02_orders.txt", content)

	got, err := FetchOrder(path, 1704189600.0)
	if err != nil {
		t.Fatal(err)
	}
	if got.EndTime.Sub(got.StartTime) != 2*time.Minute {
		t.Fatalf("duration = %v", got.EndTime.Sub(got.StartTime))
	}
}

func TestFetchOrderUIDIntegerPrefix(t *testing.T) {
	// 1704189600 是 1704189600.5 的字面量前缀，
	// 查 .0 订单不能拿到 .5 订单的起止
	content := `2024-01-02 10:00:00.123456 {"action": "new_order", "uid": 1704189600.5}
2024-01-02 10:02:15.654321 {"uid": 1704189600.5, "end_screen_weight": 412.5}
`
	path := writeLog(t, "2024-01-02_orders.txt", content)

	_, err := FetchOrder(path, 1704189600.0)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestFetchOrderNoEndMarker(t *testing.T) {
	content := `2024-01-02 10:00:00.000000 {"action": "new_order", "uid": 1704189600.0}
2024-01-02 10:00:30.000000 {"action": "progress", "uid": 1704189600.0}
`
	path := writeLog(t, "2024-01-02_orders.txt", content)

	_, err := FetchOrder(path, 1704189600.0)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestFetchOrderTabDelimited(t *testing.T) {
	content := "2024-01-02\t10:00:00.000000 {\"action\": \"new_order\", \"uid\": 1704189600.0}\n" +
		"2024-01-02\t10:02:00.000000 {\"uid\": 1704189600.0, \"end_screen_weight\": 5}\n"
	path := writeLog(t, "2024-01-02_orders.txt", content)

	got, err := FetchOrder(path, 1704189600.0)
	if err != nil {
		t.Fatal(err)
	}
	if got.EndTime.Sub(got.StartTime) != 2*time.Minute {
		t.Fatalf("duration = %v", got.EndTime.Sub(got.StartTime))
	}
}
