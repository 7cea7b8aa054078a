package order

import (
	"context"
	"errors"
	"time"

	"github.com/gowvp/botview/internal/conf"
	"github.com/gowvp/botview/pkg/logwin"
	"github.com/ixugo/goddd/domain/uniqueid"
)

// ErrNotFound 扫描完成仍未凑齐目标记录
var ErrNotFound = errors.New("order: not found")

// Storer data persistence
type Storer interface {
	Snapshot() SnapshotStorer
}

// VideoFinder 解耦订单域与视频存储域
type VideoFinder interface {
	// FindForOrder 按订单开始时刻查找对应视频，返回访问地址；找不到返回 ErrNotFound
	FindForOrder(ctx context.Context, machineID string, start time.Time) (string, error)
}

// Core business domain
type Core struct {
	store     Storer
	conf      *conf.Telemetry
	video     VideoFinder
	extractor *logwin.Extractor
	uni       *uniqueid.Core
}

type Option func(*Core)

// WithVideoFinder 注入视频查找能力
func WithVideoFinder(v VideoFinder) Option {
	return func(c *Core) {
		c.video = v
	}
}

// WithConfig 注入遥测配置
func WithConfig(cfg *conf.Telemetry) Option {
	return func(c *Core) {
		c.conf = cfg
	}
}

// WithExtractor 注入定制的时间窗抽取器（偏移表、超时、告警回调）
func WithExtractor(e *logwin.Extractor) Option {
	return func(c *Core) {
		c.extractor = e
	}
}

// NewCore create business domain
func NewCore(store Storer, opts ...Option) Core {
	c := Core{store: store}
	for _, opt := range opts {
		opt(&c)
	}
	if c.extractor == nil {
		c.extractor = &logwin.Extractor{}
	}
	if c.conf != nil {
		if c.extractor.Offsets == nil && c.conf.LogScan.Offsets != nil {
			c.extractor.Offsets = c.conf.LogScan.Offsets
		}
		if c.extractor.Timeout <= 0 {
			c.extractor.Timeout = c.conf.LogScan.Timeout.Duration()
		}
	}
	return c
}

// DataDir 数据根目录
func (c Core) DataDir() string {
	if c.conf == nil {
		return ""
	}
	return c.conf.DataDir
}
