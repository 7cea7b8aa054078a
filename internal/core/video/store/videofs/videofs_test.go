package videofs

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gowvp/botview/internal/core/video"
)

func setupStore(t *testing.T) Store {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "m01", "videos")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"2024-01-02_10-00-00.mp4", "2024-01-02_11-00-00.mp4"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return NewStore(root, "secret")
}

func TestExists(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	ok, err := s.Exists(ctx, "m01/videos/2024-01-02_10-00-00.mp4")
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	ok, err = s.Exists(ctx, "m01/videos/nope.mp4")
	if err != nil || ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	// 目录不算对象
	ok, err = s.Exists(ctx, "m01/videos")
	if err != nil || ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
}

func TestList(t *testing.T) {
	s := setupStore(t)

	keys, err := s.List(context.Background(), "m01/videos/")
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 2 {
		t.Fatalf("keys = %v", keys)
	}
	for _, k := range keys {
		if !strings.HasPrefix(k, "m01/videos/") {
			t.Fatalf("bad key %q", k)
		}
	}

	keys, err = s.List(context.Background(), "m02/videos/")
	if err != nil || len(keys) != 0 {
		t.Fatalf("keys=%v err=%v", keys, err)
	}
}

func TestPresignedURLRoundTrip(t *testing.T) {
	s := setupStore(t)
	key := "m01/videos/2024-01-02_10-00-00.mp4"

	raw, err := s.PresignedURL(context.Background(), key, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	if u.Path != "/static/videos/"+key {
		t.Fatalf("path = %q", u.Path)
	}

	expires, err := strconv.ParseInt(u.Query().Get("expires"), 10, 64)
	if err != nil {
		t.Fatal(err)
	}
	if !video.VerifyToken("secret", key, u.Query().Get("token"), expires, time.Now()) {
		t.Fatal("presigned token did not verify")
	}
}

func TestKeyEscapeRejected(t *testing.T) {
	s := setupStore(t)
	// 上溯路径被 Clean 折叠，不会越出根目录
	ok, err := s.Exists(context.Background(), "../../etc/passwd")
	if err != nil || ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
}
