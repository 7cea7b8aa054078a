package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Bootstrap 应用全量配置
type Bootstrap struct {
	ConfigPath   string `toml:"-"`
	BuildVersion string `toml:"-"`

	Debug     bool      `toml:"debug"`
	Server    Server    `toml:"server"`
	Data      Data      `toml:"data"`
	Telemetry Telemetry `toml:"telemetry"`
}

type Server struct {
	HTTP     ServerHTTP `toml:"http"`
	Username string     `toml:"username"`
	Password string     `toml:"password"`
}

type ServerHTTP struct {
	Port      int    `toml:"port"`
	JwtSecret string `toml:"jwt_secret"`
	PProf     PProf  `toml:"pprof"`
}

type PProf struct {
	Enabled   bool     `toml:"enabled"`
	AccessIps []string `toml:"access_ips"`
}

type Data struct {
	Database Database `toml:"database"`
}

type Database struct {
	// Dsn 以 postgres/mysql 开头走对应数据库，其余视为 sqlite 文件路径
	Dsn             string   `toml:"dsn"`
	MaxIdleConns    int      `toml:"max_idle_conns"`
	MaxOpenConns    int      `toml:"max_open_conns"`
	ConnMaxLifetime Duration `toml:"conn_max_lifetime"`
	SlowThreshold   Duration `toml:"slow_threshold"`
}

// Telemetry 机器人遥测数据源与快照配置
type Telemetry struct {
	// DataDir 数据根目录，机器日志位于 <DataDir>/<machine_id>/logs
	DataDir string `toml:"data_dir"`
	// SnapshotRetainDays 预烘焙快照保留天数，0 不清理
	SnapshotRetainDays int `toml:"snapshot_retain_days"`
	// VideoTokenSecret 视频静态地址签名密钥，空则启动时随机生成
	VideoTokenSecret string `toml:"video_token_secret"`
	// VideoURLTTL 签名地址有效期
	VideoURLTTL Duration `toml:"video_url_ttl"`
	LogScan     LogScan  `toml:"log_scan"`
}

// LogScan 日志时间窗抽取参数
type LogScan struct {
	// Timeout 单次请求整批文件抽取的截止时长
	Timeout Duration `toml:"timeout"`
	// Offsets 路径前缀 → 时钟偏移（小时）。缺省保留 subapps/console 的 -8
	Offsets map[string]float64 `toml:"offsets"`
}

// Duration 让 TOML 里能写 "30s"、"5m" 这样的时长
type Duration time.Duration

func (d Duration) Duration() time.Duration { return time.Duration(d) }

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// SetupConfig 读取 TOML 配置并补默认值。文件不存在时写出一份默认配置。
func SetupConfig(bc *Bootstrap, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("read config: %w", err)
		}
		setDefault(bc)
		bc.ConfigPath = path
		return WriteConfig(bc, path)
	}
	if err := toml.Unmarshal(data, bc); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	setDefault(bc)
	bc.ConfigPath = path
	return nil
}

// WriteConfig 把当前配置落盘，凭据修改后调用
func WriteConfig(bc *Bootstrap, path string) error {
	data, err := toml.Marshal(bc)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func setDefault(bc *Bootstrap) {
	if bc.Server.HTTP.Port <= 0 {
		bc.Server.HTTP.Port = 8080
	}
	if bc.Data.Database.Dsn == "" {
		bc.Data.Database.Dsn = "botview.db"
	}
	if bc.Data.Database.MaxIdleConns <= 0 {
		bc.Data.Database.MaxIdleConns = 10
	}
	if bc.Data.Database.MaxOpenConns <= 0 {
		bc.Data.Database.MaxOpenConns = 100
	}
	if bc.Data.Database.SlowThreshold <= 0 {
		bc.Data.Database.SlowThreshold = Duration(200 * time.Millisecond)
	}
	if bc.Telemetry.DataDir == "" {
		bc.Telemetry.DataDir = "/data"
	}
	if bc.Telemetry.VideoURLTTL <= 0 {
		bc.Telemetry.VideoURLTTL = Duration(time.Hour)
	}
	if bc.Telemetry.LogScan.Timeout <= 0 {
		bc.Telemetry.LogScan.Timeout = Duration(30 * time.Second)
	}
	if bc.Telemetry.LogScan.Offsets == nil {
		bc.Telemetry.LogScan.Offsets = map[string]float64{
			"subapps/": -8.0,
			"console/": -8.0,
		}
	}
}
