package logwin

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// matchLogFile 拆解轮转文件名 YYYY-MM-DD_<suffix>.txt[.gz]，
// 返回日期与 suffix，不符合命名约定时 ok=false。
// 发现阶段的热路径，每个子目录可能有上千个轮转文件，不走正则。
func matchLogFile(name string) (date, suffix string, ok bool) {
	base := strings.TrimSuffix(name, ".gz")
	base, found := strings.CutSuffix(base, ".txt")
	if !found {
		return "", "", false
	}
	if len(base) < 12 || base[10] != '_' {
		return "", "", false
	}
	date = base[:10]
	if !isDateToken(date) {
		return "", "", false
	}
	return date, base[11:], true
}

func isDateToken(s string) bool {
	// YYYY-MM-DD，只验证形状，日历合法性由使用方负责
	if len(s) != 10 || s[4] != '-' || s[7] != '-' {
		return false
	}
	for i, c := range []byte(s) {
		if i == 4 || i == 7 {
			continue
		}
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// FindSuitableFiles 在 logsBase 的每个直接子目录里，为每个 (子目录, suffix)
// 选出日期不晚于 target 的最新一份轮转文件。同日期同时存在 .txt 与 .txt.gz
// 时取压缩版。返回相对 logsBase 的路径到绝对路径的映射。
// 目录不存在或没有任何匹配时返回空映射。
func FindSuitableFiles(logsBase string, target time.Time) map[string]string {
	targetDate := target.UTC().Format(time.DateOnly)
	result := make(map[string]string)

	entries, err := os.ReadDir(logsBase)
	if err != nil {
		slog.Warn("logs base not readable", "path", logsBase, "err", err)
		return result
	}

	for _, sub := range entries {
		if !sub.IsDir() {
			continue
		}
		subPath := filepath.Join(logsBase, sub.Name())
		files, err := os.ReadDir(subPath)
		if err != nil {
			slog.Warn("skip unreadable subdir", "path", subPath, "err", err)
			continue
		}

		names := make([]string, 0, len(files))
		for _, f := range files {
			if !f.IsDir() {
				names = append(names, f.Name())
			}
		}
		// 倒序扫描，首个命中的就是最新的；
		// .txt.gz 排在同名 .txt 之后，倒序下压缩版优先
		sort.Sort(sort.Reverse(sort.StringSlice(names)))

		latest := make(map[string]string) // suffix -> 文件名
		for _, name := range names {
			date, suffix, ok := matchLogFile(name)
			if !ok {
				continue
			}
			if date > targetDate {
				continue
			}
			if _, exists := latest[suffix]; !exists {
				latest[suffix] = name
			}
		}

		for _, name := range latest {
			rel := sub.Name() + "/" + name
			result[rel] = filepath.Join(subPath, name)
		}
	}
	return result
}
