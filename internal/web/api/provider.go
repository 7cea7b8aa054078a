package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/wire"
	"github.com/gowvp/botview/internal/conf"
	"github.com/gowvp/botview/internal/core/order"
	"github.com/gowvp/botview/internal/core/order/store/ordercache"
	"github.com/gowvp/botview/internal/core/order/store/orderdb"
	"github.com/gowvp/botview/internal/core/video"
	"github.com/gowvp/botview/internal/core/video/store/videofs"
	"github.com/gowvp/botview/pkg/logwin"
	"github.com/ixugo/goddd/domain/uniqueid"
	"github.com/ixugo/goddd/domain/uniqueid/store/uniqueiddb"
	"github.com/ixugo/goddd/domain/version/versionapi"
	"github.com/ixugo/goddd/pkg/orm"
	"github.com/ixugo/goddd/pkg/web"
	"gorm.io/gorm"
)

var (
	ProviderVersionSet = wire.NewSet(versionapi.NewVersionCore)
	ProviderSet        = wire.NewSet(
		wire.Struct(new(Usecase), "*"),
		NewHTTPHandler,
		versionapi.New,
		NewUniqueID,
		NewOrderStore, NewOrderCore, NewOrderAPI,
		NewVideoStorage, NewVideoCore, NewVideoAPI,
		NewUserAPI,
	)
)

type Usecase struct {
	Conf     *conf.Bootstrap
	DB       *gorm.DB
	Version  versionapi.API
	UniqueID uniqueid.Core
	OrderAPI OrderAPI
	VideoAPI VideoAPI
	UserAPI  UserAPI
}

// NewHTTPHandler 生成Gin框架路由内容
func NewHTTPHandler(uc *Usecase) http.Handler {
	cfg := uc.Conf.Server
	if cfg.HTTP.JwtSecret == "" {
		uc.Conf.Server.HTTP.JwtSecret = orm.GenerateRandomString(32)
	}
	if !uc.Conf.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	g := gin.New()
	// 如果启用了 Pprof，设置 Pprof 监控
	if cfg.HTTP.PProf.Enabled {
		web.SetupPProf(g, &cfg.HTTP.PProf.AccessIps)
	}

	setupRouter(g, uc)
	uc.Version.RecordVersion()
	return g
}

// NewUniqueID 唯一 id 生成器
func NewUniqueID(db *gorm.DB) uniqueid.Core {
	return uniqueid.NewCore(uniqueiddb.NewDB(db).AutoMigrate(orm.GetEnabledAutoMigrate()), 5)
}

// NewOrderStore 创建订单快照存储层，读多写少，套一层内存缓存
func NewOrderStore(db *gorm.DB) order.Storer {
	return ordercache.NewCache(orderdb.NewDB(db).AutoMigrate(orm.GetEnabledAutoMigrate()))
}

// NewOrderCore 创建订单遥测核心服务
// 依赖 order.VideoFinder 接口而非 video.Core，避免循环依赖
func NewOrderCore(store order.Storer, cfg *conf.Bootstrap, uni uniqueid.Core, videoCore video.Core) order.Core {
	core := order.NewCore(store,
		order.WithConfig(&cfg.Telemetry),
		order.WithUniqueID(uni),
		order.WithVideoFinder(videoFinder{videoCore}),
		order.WithExtractor(&logwin.Extractor{
			Offsets: cfg.Telemetry.LogScan.Offsets,
			Timeout: cfg.Telemetry.LogScan.Timeout.Duration(),
			OnWarn: func(relPath, msg string) {
				PushScanWarning(relPath + ": " + msg)
			},
		}),
	)

	// 启动快照清理协程
	go core.StartCleanupWorker()

	return core
}

// videoFinder 把视频域适配到 order.VideoFinder，错误语义对齐
type videoFinder struct {
	core video.Core
}

func (v videoFinder) FindForOrder(ctx context.Context, machineID string, start time.Time) (string, error) {
	url, err := v.core.FindForOrder(ctx, machineID, start)
	if errors.Is(err, video.ErrNotFound) {
		return "", order.ErrNotFound
	}
	return url, err
}

// NewVideoStorage 视频对象存储，当前落在本地磁盘
func NewVideoStorage(cfg *conf.Bootstrap) video.Storage {
	if cfg.Telemetry.VideoTokenSecret == "" {
		cfg.Telemetry.VideoTokenSecret = orm.GenerateRandomString(32)
	}
	return videofs.NewStore(cfg.Telemetry.DataDir, cfg.Telemetry.VideoTokenSecret)
}

func NewVideoCore(storage video.Storage, cfg *conf.Bootstrap) video.Core {
	return video.NewCore(storage, video.WithURLTTL(cfg.Telemetry.VideoURLTTL.Duration()))
}
