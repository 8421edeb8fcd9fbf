package parser

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalizer 自由文本规范化器
// 用于描述文本的比较：小写、去重音、去非字母数字字符、压缩空白、剔除噪声词
type Normalizer struct {
	stopTokens  map[string]struct{}
	nonAlnumRe  *regexp.Regexp
	diacriticTr transform.Transformer
}

// 常见噪声词：品牌、计量单位等，对相似度比较只有干扰
var defaultStopTokens = []string{
	"m2", "m3", "ml", "un", "kg", "pç", "pc", "cj",
	"votorantim", "tigre", "amanco", "gerdau",
}

// NewNormalizer 创建规范化器，stopTokens 为 nil 时使用默认噪声词表
func NewNormalizer(stopTokens []string) *Normalizer {
	if stopTokens == nil {
		stopTokens = defaultStopTokens
	}

	n := &Normalizer{
		stopTokens: make(map[string]struct{}, len(stopTokens)),
		nonAlnumRe: regexp.MustCompile(`[^a-z0-9 ]+`),
		// NFD 分解后去掉 Mn（重音）类码点再合成
		diacriticTr: transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
	}
	for _, t := range stopTokens {
		n.stopTokens[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
	}
	return n
}

// Normalize 规范化文本，纯函数且幂等：Normalize(Normalize(x)) == Normalize(x)
// 空串与缺失值统一返回 ""
func (n *Normalizer) Normalize(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return ""
	}

	if folded, _, err := transform.String(n.diacriticTr, text); err == nil {
		text = folded
	}
	text = n.nonAlnumRe.ReplaceAllString(text, " ")

	fields := strings.Fields(text)
	kept := fields[:0]
	for _, f := range fields {
		if _, drop := n.stopTokens[f]; drop {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}

var defaultNormalizer = NewNormalizer(nil)

// Normalize 使用默认噪声词表的规范化
func Normalize(text string) string {
	return defaultNormalizer.Normalize(text)
}

// NormalizeHeader 规范化列名：去首尾空白、去换行制表符、压缩空白
// 列名比较不剔除噪声词，只做形态归一
func NormalizeHeader(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "\n", " ")
	name = strings.ReplaceAll(name, "\r", " ")
	name = strings.ReplaceAll(name, "\t", " ")
	return strings.Join(strings.Fields(name), " ")
}

// ContainsAny 检查字符串是否包含任意一个关键词
func ContainsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
