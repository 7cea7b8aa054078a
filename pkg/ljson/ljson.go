// Package ljson 解析宽松的类 JSON 文本。
//
// 机器人子系统的日志里混有 Python 字面量风格的记录：字符串使用单引号，
// 布尔与空值写作 True/False/None。标准库 encoding/json 无法直接解析，
// 本包先做一次规范化改写，再交给 encoding/json。
//
// 改写规则：
//  1. 单引号字符串 → 双引号字符串，内部的双引号转义为 \"，\' 还原为 '
//  2. 字符串外的裸字面量 None/True/False → null/true/false
//  3. 字符串内部的内容不做任何替换
package ljson

import (
	"encoding/json"
	"strings"
)

// Normalize 将 Python 字面量风格的文本改写为严格 JSON。
// 改写是纯文本级的，不校验结构，交给后续的 json.Unmarshal 报错。
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	const (
		outside = iota
		inSingle
		inDouble
	)
	state := outside

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch state {
		case outside:
			switch {
			case c == '\'':
				state = inSingle
				b.WriteByte('"')
			case c == '"':
				state = inDouble
				b.WriteByte('"')
			case isWordByte(c):
				j := i
				for j < len(s) && isWordByte(s[j]) {
					j++
				}
				b.WriteString(replaceLiteral(s[i:j]))
				i = j - 1
			default:
				b.WriteByte(c)
			}
		case inSingle:
			switch {
			case c == '\\' && i+1 < len(s):
				// \' 在 JSON 里是非法转义，还原为普通单引号
				if s[i+1] == '\'' {
					b.WriteByte('\'')
				} else {
					b.WriteByte('\\')
					b.WriteByte(s[i+1])
				}
				i++
			case c == '"':
				b.WriteString(`\"`)
			case c == '\'':
				state = outside
				b.WriteByte('"')
			default:
				b.WriteByte(c)
			}
		case inDouble:
			switch {
			case c == '\\' && i+1 < len(s):
				b.WriteByte(c)
				b.WriteByte(s[i+1])
				i++
			case c == '"':
				state = outside
				b.WriteByte('"')
			default:
				b.WriteByte(c)
			}
		}
	}
	return b.String()
}

func isWordByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func replaceLiteral(word string) string {
	switch word {
	case "None":
		return "null"
	case "True":
		return "true"
	case "False":
		return "false"
	}
	return word
}

// Unmarshal 规范化后按严格 JSON 解析。
// 本身就是合法 JSON 的输入不受改写影响。
func Unmarshal(data []byte, v any) error {
	return json.Unmarshal([]byte(Normalize(string(data))), v)
}

// UnmarshalString 等价于 Unmarshal([]byte(s), v)。
func UnmarshalString(s string, v any) error {
	return Unmarshal([]byte(s), v)
}
