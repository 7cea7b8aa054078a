package logwin

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func writeGzipFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	zw := gzip.NewWriter(f)
	if _, err := zw.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestFindSuitableFilesLatestBeforeTarget(t *testing.T) {
	base := t.TempDir()
	writeFile(t, filepath.Join(base, "orders", "2024-01-01_orders.txt"), "a")
	writeGzipFile(t, filepath.Join(base, "orders", "2024-01-03_orders.txt.gz"), "b")

	target := time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)
	files := FindSuitableFiles(base, target)

	if len(files) != 1 {
		t.Fatalf("files = %v, want exactly one", files)
	}
	got, ok := files["orders/2024-01-01_orders.txt"]
	if !ok {
		t.Fatalf("expected the 01-01 file, got %v", files)
	}
	if got != filepath.Join(base, "orders", "2024-01-01_orders.txt") {
		t.Errorf("abs path = %q", got)
	}
}

func TestFindSuitableFilesPrefersGzipOnSameDate(t *testing.T) {
	base := t.TempDir()
	writeFile(t, filepath.Join(base, "orders", "2024-01-01_orders.txt"), "plain")
	writeGzipFile(t, filepath.Join(base, "orders", "2024-01-01_orders.txt.gz"), "gz")

	files := FindSuitableFiles(base, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	if len(files) != 1 {
		t.Fatalf("files = %v", files)
	}
	if _, ok := files["orders/2024-01-01_orders.txt.gz"]; !ok {
		t.Errorf("expected compressed variant to win, got %v", files)
	}
}

func TestFindSuitableFilesPerSubdirAndSuffix(t *testing.T) {
	base := t.TempDir()
	writeFile(t, filepath.Join(base, "orders", "2024-01-01_orders.txt"), "")
	writeFile(t, filepath.Join(base, "orders", "2024-01-02_orders.txt"), "")
	writeFile(t, filepath.Join(base, "subapps", "2024-01-01_app.txt"), "")
	writeFile(t, filepath.Join(base, "subapps", "2024-01-02_debug.txt"), "")
	// 不符合命名约定，应被跳过
	writeFile(t, filepath.Join(base, "subapps", "notes.md"), "")
	writeFile(t, filepath.Join(base, "subapps", "20240101_app.txt"), "")

	files := FindSuitableFiles(base, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC))
	want := []string{
		"orders/2024-01-02_orders.txt",
		"subapps/2024-01-01_app.txt",
		"subapps/2024-01-02_debug.txt",
	}
	if len(files) != len(want) {
		t.Fatalf("files = %v", files)
	}
	for _, rel := range want {
		if _, ok := files[rel]; !ok {
			t.Errorf("missing %s in %v", rel, files)
		}
	}
}

func TestFindSuitableFilesMissingRoot(t *testing.T) {
	files := FindSuitableFiles(filepath.Join(t.TempDir(), "nope"), time.Now())
	if len(files) != 0 {
		t.Errorf("files = %v, want empty", files)
	}
}

func TestMatchLogFile(t *testing.T) {
	tests := []struct {
		name   string
		date   string
		suffix string
		ok     bool
	}{
		{"2024-01-01_orders.txt", "2024-01-01", "orders", true},
		{"2024-01-01_sauce_weight.txt.gz", "2024-01-01", "sauce_weight", true},
		{"2024-01-01_.txt", "", "", false},
		{"2024-01-01-orders.txt", "", "", false},
		{"orders.txt", "", "", false},
		{"2024-01-01_orders.log", "", "", false},
	}
	for _, tt := range tests {
		date, suffix, ok := matchLogFile(tt.name)
		if ok != tt.ok || date != tt.date || suffix != tt.suffix {
			t.Errorf("matchLogFile(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.name, date, suffix, ok, tt.date, tt.suffix, tt.ok)
		}
	}
}
