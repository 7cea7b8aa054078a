package api

import (
	"expvar"
	"log/slog"
	"net/http"
	"runtime"
	"runtime/debug"
	"sort"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/ixugo/goddd/domain/version/versionapi"
	"github.com/ixugo/goddd/pkg/queue"
	"github.com/ixugo/goddd/pkg/web"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

var startRuntime = time.Now()

// scanWarnings 日志抽取阶段的告警环形缓冲，metrics 接口吐最近 100 条
var scanWarnings = queue.NewCirQueue[string](100)

// PushScanWarning 供抽取器的告警回调接入
func PushScanWarning(msg string) {
	scanWarnings.Push(time.Now().Format(time.DateTime) + " " + msg)
}

func setupRouter(r *gin.Engine, uc *Usecase) {
	r.Use(
		// 格式化输出到控制台，然后记录到日志
		// 此处不做 recover，底层 http.server 也会 recover，但不会输出方便查看的格式
		gin.CustomRecovery(func(c *gin.Context, err any) {
			slog.ErrorContext(c.Request.Context(), "panic", "err", err, "stack", string(debug.Stack()))
			c.AbortWithStatus(http.StatusInternalServerError)
		}),
		web.Metrics(),
		web.Logger(
			web.IgnoreMethod(http.MethodOptions),
			web.IgnorePrefix("/static/videos"), // 视频文件
			web.IgnorePrefix("/health"),
		),
		web.LoggerWithBody(web.DefaultBodyLimit,
			web.IgnoreBool(uc.Conf.Debug),
			web.IgnoreMethod(http.MethodOptions),
			web.IgnorePrefix("/static/videos"),
		),
	)
	go web.CountGoroutines(10*time.Minute, 20)

	r.Use(cors.New(cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders: []string{
			"Accept", "Content-Length", "Content-Type", "Range", "Accept-Language",
			"Origin", "Authorization", "Referer", "User-Agent",
			"Accept-Encoding",
			"Cache-Control", "Pragma", "X-Requested-With",
			"Sec-Fetch-Mode", "Sec-Fetch-Site", "Sec-Fetch-Dest",
			"Dnt", "X-Forwarded-For", "X-Forwarded-Proto", "X-Forwarded-Host",
			"X-Real-IP", "X-Request-ID",
		},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
		AllowOriginFunc: func(_ string) bool {
			return true
		},
	}))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{"msg": "来到了无人的荒漠"})
	})

	auth := web.AuthMiddleware(uc.Conf.Server.HTTP.JwtSecret)
	r.GET("/health", web.WrapH(uc.getHealth))
	r.GET("/app/metrics/api", web.WrapH(uc.getMetricsAPI))
	r.GET("/app/metrics/system", web.WrapH(uc.getMetricsSystem))

	versionapi.Register(r, uc.Version, auth)
	RegisterUser(r, uc.UserAPI, auth)
	// 遥测响应体大，列表与详情都开 gzip
	RegisterOrder(r, uc.OrderAPI, gzip.Gzip(gzip.DefaultCompression))
	RegisterVideo(r, uc.VideoAPI)
}

type getHealthOutput struct {
	Version string    `json:"version"`
	StartAt time.Time `json:"start_at"`
}

func (uc *Usecase) getHealth(_ *gin.Context, _ *struct{}) (getHealthOutput, error) {
	return getHealthOutput{
		Version: uc.Conf.BuildVersion,
		StartAt: startRuntime,
	}, nil
}

type getMetricsAPIOutput struct {
	RealTimeRequests int64    `json:"real_time_requests"` // 实时请求数
	TotalRequests    int64    `json:"total_requests"`     // 总请求数
	TotalResponses   int64    `json:"total_responses"`    // 总响应数
	RequestTop10     []KV     `json:"request_top10"`      // 请求TOP10
	StatusCodeTop10  []KV     `json:"status_code_top10"`  // 状态码TOP10
	Goroutines       any      `json:"goroutines"`         // 协程数量
	NumGC            uint32   `json:"num_gc"`             // gc 次数
	SysAlloc         uint64   `json:"sys_alloc"`          // 内存占用
	StartAt          string   `json:"start_at"`           // 运行时间
	ScanWarnings     []string `json:"scan_warnings"`      // 最近的日志抽取告警
}

func (uc *Usecase) getMetricsAPI(_ *gin.Context, _ *struct{}) (*getMetricsAPIOutput, error) {
	req := expvar.Get("request").(*expvar.Int).Value()
	reqs := expvar.Get("requests").(*expvar.Int).Value()
	resps := expvar.Get("responses").(*expvar.Int).Value()
	urls := expvar.Get(`requestURLs`).(*expvar.Map)
	status := expvar.Get(`statusCodes`).(*expvar.Map)
	u := sortExpvarMap(urls, 10)
	s := sortExpvarMap(status, 10)
	g := expvar.Get("goroutine_num").(expvar.Func)

	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	return &getMetricsAPIOutput{
		RealTimeRequests: req,
		TotalRequests:    reqs,
		TotalResponses:   resps,
		RequestTop10:     u,
		StatusCodeTop10:  s,
		Goroutines:       g(),
		NumGC:            stats.NumGC,
		SysAlloc:         stats.Sys,
		StartAt:          startRuntime.Format(time.DateTime),
		ScanWarnings:     scanWarnings.Range(),
	}, nil
}

type getMetricsSystemOutput struct {
	CPUPercent  float64 `json:"cpu_percent"`  // CPU 占用
	MemTotal    uint64  `json:"mem_total"`    // 内存总量
	MemUsed     uint64  `json:"mem_used"`     // 已用内存
	MemPercent  float64 `json:"mem_percent"`  // 内存占用率
	GoVersion   string  `json:"go_version"`   //
	NumCPU      int     `json:"num_cpu"`      //
	UptimeHours float64 `json:"uptime_hours"` // 本服务运行时长
}

// getMetricsSystem 主机维度的资源占用，服务跑在机器人边缘盒子上时用来盯资源
func (uc *Usecase) getMetricsSystem(_ *gin.Context, _ *struct{}) (*getMetricsSystemOutput, error) {
	out := getMetricsSystemOutput{
		GoVersion:   runtime.Version(),
		NumCPU:      runtime.NumCPU(),
		UptimeHours: time.Since(startRuntime).Hours(),
	}
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		out.CPUPercent = percents[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		out.MemTotal = vm.Total
		out.MemUsed = vm.Used
		out.MemPercent = vm.UsedPercent
	}
	return &out, nil
}

type KV struct {
	Key   string
	Value int64
}

func sortExpvarMap(data *expvar.Map, top int) []KV {
	kvs := make([]KV, 0, 8)
	data.Do(func(kv expvar.KeyValue) {
		kvs = append(kvs, KV{
			Key:   kv.Key,
			Value: kv.Value.(*expvar.Int).Value(),
		})
	})

	sort.Slice(kvs, func(i, j int) bool {
		return kvs[i].Value > kvs[j].Value
	})

	idx := top
	if l := len(kvs); l < top {
		idx = len(kvs)
	}
	return kvs[:idx]
}
