// prepare 预烘焙批处理：扫描机器日志目录，找出全部订单，
// 为每单组装完整遥测并写入快照表。服务端接口优先读快照，
// 日志抽取的重活离线做完。
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gowvp/botview/internal/conf"
	"github.com/gowvp/botview/internal/core/order"
	"github.com/gowvp/botview/internal/data"
	"github.com/gowvp/botview/internal/web/api"
	"github.com/gowvp/botview/pkg/logwin"
	"github.com/ixugo/goddd/pkg/system"
)

// 订单事件行：时间戳 + uid + new_order 标记
var orderLinePattern = regexp.MustCompile(
	`(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}).*?"uid": (\d+\.\d+).*?"action": "new_order"`)

type job struct {
	machineID string
	uid       float64
}

func main() {
	var confPath, machineID string
	var workers int
	flag.StringVar(&confPath, "conf", filepath.Join(system.Getwd(), "configs", "config.toml"), "配置文件路径")
	flag.StringVar(&machineID, "machine", "", "只处理指定机器，空则处理全部")
	flag.IntVar(&workers, "workers", 4, "并发烘焙协程数")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	var bc conf.Bootstrap
	if err := conf.SetupConfig(&bc, confPath); err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}
	bc.ConfigPath = confPath

	db, err := data.SetupDB(&bc)
	if err != nil {
		slog.Error("setup db", "err", err)
		os.Exit(1)
	}

	store := api.NewOrderStore(db)
	uni := api.NewUniqueID(db)
	videoCore := api.NewVideoCore(api.NewVideoStorage(&bc), &bc)
	core := api.NewOrderCore(store, &bc, uni, videoCore)

	runID := uuid.NewString()
	log := slog.With("run_id", runID)
	log.Info("prepare started", "data_dir", bc.Telemetry.DataDir, "workers", workers)

	machines, err := listMachines(bc.Telemetry.DataDir, machineID)
	if err != nil {
		log.Error("list machines", "err", err)
		os.Exit(1)
	}

	jobs := make(chan job)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var processed, skipped int

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				if bake(core, j, log) {
					mu.Lock()
					processed++
					mu.Unlock()
				} else {
					mu.Lock()
					skipped++
					mu.Unlock()
				}
			}
		}()
	}

	start := time.Now()
	for _, m := range machines {
		uids, err := findOrderUIDs(filepath.Join(bc.Telemetry.DataDir, m, "logs"))
		if err != nil {
			log.Error("scan orders logs", "machine", m, "err", err)
			continue
		}
		log.Info("machine scanned", "machine", m, "orders", len(uids))
		for _, uid := range uids {
			jobs <- job{machineID: m, uid: uid}
		}
	}
	close(jobs)
	wg.Wait()

	log.Info("prepare finished",
		"processed", processed, "skipped", skipped, "elapsed", time.Since(start).String())
}

func bake(core order.Core, j job, log *slog.Logger) bool {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	t, err := core.BuildOrderTelemetry(ctx, &order.BuildTelemetryInput{
		MachineID: j.machineID, UID: j.uid,
	})
	if err != nil {
		log.Warn("skip order", "machine", j.machineID, "uid", j.uid, "err", err)
		return false
	}
	if _, err := core.SaveSnapshot(ctx, &order.SaveSnapshotInput{
		OrderID:   t.OrderID,
		MachineID: j.machineID,
		Telemetry: t,
	}); err != nil {
		log.Error("save snapshot", "machine", j.machineID, "uid", j.uid, "err", err)
		return false
	}
	log.Info("order baked", "machine", j.machineID, "order_id", t.OrderID)
	return true
}

// listMachines 数据根目录下带 logs 子目录的一级目录视为机器
func listMachines(dataDir, only string) ([]string, error) {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if only != "" && e.Name() != only {
			continue
		}
		if _, err := os.Stat(filepath.Join(dataDir, e.Name(), "logs")); err != nil {
			continue
		}
		out = append(out, e.Name())
	}
	return out, nil
}

// findOrderUIDs 扫全部订单事件日志（含历史轮转），收集去重后的订单 uid
func findOrderUIDs(logsBase string) ([]float64, error) {
	dirs, err := os.ReadDir(logsBase)
	if err != nil {
		return nil, err
	}

	seen := make(map[float64]struct{})
	uids := make([]float64, 0, 64)
	for _, d := range dirs {
		if !d.IsDir() || !strings.HasPrefix(d.Name(), "orders") {
			continue
		}
		dir := filepath.Join(logsBase, d.Name())
		files, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			name := f.Name()
			if !strings.HasSuffix(name, "_orders.txt") && !strings.HasSuffix(name, "_orders.txt.gz") {
				continue
			}
			found, err := scanOrdersFile(filepath.Join(dir, name))
			if err != nil {
				slog.Warn("skip unreadable orders log", "file", name, "err", err)
				continue
			}
			for _, uid := range found {
				if _, ok := seen[uid]; !ok {
					seen[uid] = struct{}{}
					uids = append(uids, uid)
				}
			}
		}
	}
	return uids, nil
}

func scanOrdersFile(path string) ([]float64, error) {
	rc, err := logwin.OpenText(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	out := make([]float64, 0, 32)
	sc := bufio.NewScanner(rc)
	sc.Buffer(make([]byte, 0, 64<<10), 1<<20)
	for sc.Scan() {
		m := orderLinePattern.FindStringSubmatch(sc.Text())
		if m == nil {
			continue
		}
		uid, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		out = append(out, uid)
	}
	return out, sc.Err()
}
