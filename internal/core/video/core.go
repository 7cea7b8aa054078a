// Package video 负责订单视频的定位与访问地址签发。
// 机器把每单的录像写到 <machine>/videos/ 下，文件名主干是
// 订单开始时刻（2006-01-02_15-04-05）。录像启动与订单事件
// 之间有零点几秒的抖动，查找时允许 ±3 秒的容差。
package video

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/grafov/m3u8"
	"github.com/ixugo/goddd/pkg/conc"
	"github.com/ixugo/goddd/pkg/hook"
)

// ErrNotFound 没有匹配的视频文件
var ErrNotFound = errors.New("video: not found")

// StemLayout 视频文件名主干的时间格式
const StemLayout = "2006-01-02_15-04-05"

// matchTolerance 录像启动时刻与订单开始时刻的最大允许偏差
const matchTolerance = 3 * time.Second

// Storage 对象存储能力的最小面：存在性、预签名访问地址、前缀列举。
// 本地磁盘与 S3 兼容存储都能满足。
type Storage interface {
	Exists(ctx context.Context, key string) (bool, error)
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	List(ctx context.Context, prefix string) ([]string, error)
}

// Core business domain
type Core struct {
	storage Storage
	ttl     time.Duration
	// matched 机器+开始时刻 → 已命中的对象键，视频文件不可变，命中即终身有效
	matched *conc.Map[string, string]
}

type Option func(*Core)

// WithURLTTL 预签名地址有效期，默认 1 小时
func WithURLTTL(ttl time.Duration) Option {
	return func(c *Core) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// NewCore create business domain
func NewCore(storage Storage, opts ...Option) Core {
	c := Core{
		storage: storage,
		ttl:     time.Hour,
		matched: conc.NewMap[string, string](),
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// FindForOrder 为订单查找录像，返回带签名的访问地址
func (c Core) FindForOrder(ctx context.Context, machineID string, start time.Time) (string, error) {
	key, err := c.findKey(ctx, machineID, start)
	if err != nil {
		return "", err
	}
	return c.storage.PresignedURL(ctx, key, c.ttl)
}

func (c Core) findKey(ctx context.Context, machineID string, start time.Time) (string, error) {
	cacheKey := machineID + "|" + strconv.FormatInt(start.Unix(), 10)
	if key, ok := c.matched.Load(cacheKey); ok {
		return key, nil
	}

	prefix := machineID + "/videos/"
	keys, err := c.storage.List(ctx, prefix)
	if err != nil {
		return "", err
	}

	best := ""
	bestDelta := matchTolerance + time.Second
	for _, key := range keys {
		name := path.Base(key)
		stem := strings.TrimSuffix(name, path.Ext(name))
		t, err := time.Parse(StemLayout, stem)
		if err != nil {
			continue
		}
		delta := t.Sub(start.UTC()).Abs()
		if delta < bestDelta {
			best, bestDelta = key, delta
		}
	}
	if best == "" || bestDelta > matchTolerance {
		return "", ErrNotFound
	}

	c.matched.Store(cacheKey, best)
	return best, nil
}

// Playlist 把单个视频封装成 VOD 播放列表，HLS 播放器可以直接消费
func (c Core) Playlist(uri string, durationSec float64) (string, error) {
	pl, err := m3u8.NewMediaPlaylist(0, 1)
	if err != nil {
		return "", err
	}
	pl.MediaType = m3u8.VOD
	if err := pl.Append(uri, durationSec, ""); err != nil {
		return "", err
	}
	pl.Close()
	return pl.String(), nil
}

// SignToken 计算对象访问令牌，与 VerifyToken 配对
func SignToken(secret, key string, expires int64) string {
	return hook.MD5(fmt.Sprintf("%s|%s|%d", secret, key, expires))
}

// VerifyToken 校验访问令牌及其有效期
func VerifyToken(secret, key, token string, expires int64, now time.Time) bool {
	if token == "" || now.Unix() > expires {
		return false
	}
	return token == SignToken(secret, key, expires)
}
