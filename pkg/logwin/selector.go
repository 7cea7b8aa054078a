package logwin

import (
	"sort"
	"strings"
)

// Rule 按相对路径的前缀与后缀挑选一份日志文件。
// Prefixes 或 Suffixes 为空时对应的检查视为通过。
type Rule struct {
	Prefixes []string
	Suffixes []string
}

// 三类固定日志的选取规则
var (
	// OrdersRule 订单事件日志
	OrdersRule = Rule{
		Prefixes: []string{"orders"},
		Suffixes: []string{"_orders.txt", "_orders.txt.gz"},
	}
	// TelemetryRule start_order 遥测日志
	TelemetryRule = Rule{
		Prefixes: []string{"start_order"},
		Suffixes: []string{"_start_order.txt", "_start_order.txt.gz"},
	}
	// SauceWeightRule 酱料称重日志
	SauceWeightRule = Rule{
		Prefixes: []string{"sauce_weight"},
		Suffixes: []string{"_sauce_weight.txt", "_sauce_weight.txt.gz"},
	}
)

// Select 返回 files 中第一个同时满足前缀与后缀规则的文件的绝对路径。
// 为保证同样输入得到同样结果，按相对路径排序后遍历。
func (r Rule) Select(files map[string]string) (string, bool) {
	keys := make([]string, 0, len(files))
	for k := range files {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, rel := range keys {
		if r.matchPrefix(rel) && r.matchSuffix(rel) {
			return files[rel], true
		}
	}
	return "", false
}

func (r Rule) matchPrefix(rel string) bool {
	if len(r.Prefixes) == 0 {
		return true
	}
	for _, p := range r.Prefixes {
		if strings.HasPrefix(rel, p) {
			return true
		}
	}
	return false
}

func (r Rule) matchSuffix(rel string) bool {
	if len(r.Suffixes) == 0 {
		return true
	}
	for _, s := range r.Suffixes {
		if strings.HasSuffix(rel, s) {
			return true
		}
	}
	return false
}
