// Package videofs 本地磁盘实现的视频对象存储。
// 对象键是相对数据根目录的路径，访问地址指向 /static/videos 静态路由，
// 带过期时间与 MD5 令牌，由 API 层校验后再吐文件。
package videofs

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gowvp/botview/internal/core/video"
)

var _ video.Storage = Store{}

type Store struct {
	root   string
	secret string
}

func NewStore(root, secret string) Store {
	return Store{root: root, secret: secret}
}

// abs 把对象键映射到磁盘路径，拒绝越出根目录的键
func (s Store) abs(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if clean == "/" {
		return "", fmt.Errorf("videofs: empty key")
	}
	return filepath.Join(s.root, clean), nil
}

func (s Store) Exists(_ context.Context, key string) (bool, error) {
	path, err := s.abs(key)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return !info.IsDir(), nil
}

func (s Store) List(_ context.Context, prefix string) ([]string, error) {
	dir, err := s.abs(prefix)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	base := strings.TrimSuffix(prefix, "/")
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		keys = append(keys, base+"/"+e.Name())
	}
	return keys, nil
}

func (s Store) PresignedURL(_ context.Context, key string, ttl time.Duration) (string, error) {
	if _, err := s.abs(key); err != nil {
		return "", err
	}
	expires := time.Now().Add(ttl).Unix()
	token := video.SignToken(s.secret, key, expires)
	return fmt.Sprintf("/static/videos/%s?expires=%d&token=%s",
		strings.TrimPrefix(key, "/"), expires, url.QueryEscape(token)), nil
}
