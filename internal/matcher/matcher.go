package matcher

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"planobra/internal/model"
	"planobra/internal/parser"
)

// DefaultFuzzyCutoff 模糊匹配相似度下限
// 调低换取召回、调高换取精度，通过配置覆盖
const DefaultFuzzyCutoff = 0.5

// DefaultCodeWidth 编码比较时去标点后补零的固定宽度（SINAPI 常见 7 位）
const DefaultCodeWidth = 7

// Options 匹配器参数
type Options struct {
	FuzzyCutoff float64 // 相似度下限，<=0 时用 DefaultFuzzyCutoff
	CodeWidth   int     // 编码补零宽度，<=0 时用 DefaultCodeWidth
}

// Matcher 组成匹配器
// 三层策略逐层降级：编码精确 → 编码包含 → 描述相似度；
// 上一层命中即停，层内并列全部返回（一个组成往往对应多个工种）
type Matcher struct {
	entries    []model.ReferenceEntry
	normalizer *parser.Normalizer
	cutoff     float64
	codeWidth  int

	byCanonicalCode map[string][]int // 规范化编码 → entries 下标
	digitsByIndex   []string         // 每条参考编码的纯数字形态
	normDescByIndex []string         // 每条参考描述的规范化形态
}

// New 基于参考条目构建匹配器，构建时一次性预规范化全部编码与描述
func New(entries []model.ReferenceEntry, opts Options) *Matcher {
	if opts.FuzzyCutoff <= 0 {
		opts.FuzzyCutoff = DefaultFuzzyCutoff
	}
	if opts.CodeWidth <= 0 {
		opts.CodeWidth = DefaultCodeWidth
	}

	m := &Matcher{
		entries:         entries,
		normalizer:      parser.NewNormalizer(nil),
		cutoff:          opts.FuzzyCutoff,
		codeWidth:       opts.CodeWidth,
		byCanonicalCode: make(map[string][]int, len(entries)),
		digitsByIndex:   make([]string, len(entries)),
		normDescByIndex: make([]string, len(entries)),
	}

	for i, e := range entries {
		canonical := m.canonicalCode(e.CompositionCode)
		m.byCanonicalCode[canonical] = append(m.byCanonicalCode[canonical], i)
		m.digitsByIndex[i] = digitsOnly(e.CompositionCode)
		m.normDescByIndex[i] = m.normalizer.Normalize(e.ItemDescription)
	}

	return m
}

// Match 查找一条预算行的参考条目
// 人工/材料的过滤由调用方负责，保持匹配器对两类查询通用
func (m *Matcher) Match(code, description string) model.MatchResult {
	if result := m.matchExact(code); result.Matched() {
		return result
	}
	if result := m.matchPartial(code); result.Matched() {
		return result
	}
	return m.matchFuzzy(description)
}

// matchExact 第一层：规范化编码全等
func (m *Matcher) matchExact(code string) model.MatchResult {
	canonical := m.canonicalCode(code)
	if canonical == "" {
		return model.MatchResult{Tier: model.MatchTierNone}
	}

	idxs, ok := m.byCanonicalCode[canonical]
	if !ok {
		return model.MatchResult{Tier: model.MatchTierNone}
	}
	return model.MatchResult{
		Tier:    model.MatchTierExact,
		Entries: m.collect(idxs),
	}
}

// matchPartial 第二层：编码去标点后的包含匹配
// 输入编码按非数字字符切成数字段（"0007.10101" → "7" + "10101"），
// 每段去前导零后都要在参考编码的纯数字形态中出现
func (m *Matcher) matchPartial(code string) model.MatchResult {
	segments := digitSegments(code)
	if len(segments) == 0 {
		return model.MatchResult{Tier: model.MatchTierNone}
	}
	// 太短的数字串会大面积误命中
	total := 0
	for _, seg := range segments {
		total += len(seg)
	}
	if total < 3 {
		return model.MatchResult{Tier: model.MatchTierNone}
	}

	var idxs []int
	for i := range m.entries {
		if containsAllSegments(m.digitsByIndex[i], segments) {
			idxs = append(idxs, i)
		}
	}
	if len(idxs) == 0 {
		return model.MatchResult{Tier: model.MatchTierNone}
	}
	return model.MatchResult{
		Tier:    model.MatchTierPartial,
		Entries: m.collect(idxs),
	}
}

// matchFuzzy 第三层：规范化描述的最长公共块相似度
// 取最高相似度且不低于下限的描述，返回共享该描述的全部参考行
func (m *Matcher) matchFuzzy(description string) model.MatchResult {
	input := m.normalizer.Normalize(description)
	if input == "" {
		return model.MatchResult{Tier: model.MatchTierNone}
	}

	bestRatio := 0.0
	bestDesc := ""
	seen := make(map[string]float64)

	for _, cand := range m.normDescByIndex {
		if cand == "" {
			continue
		}
		ratio, ok := seen[cand]
		if !ok {
			ratio = similarity(input, cand)
			seen[cand] = ratio
		}
		if ratio > bestRatio {
			bestRatio = ratio
			bestDesc = cand
		}
	}

	if bestDesc == "" || bestRatio < m.cutoff {
		return model.MatchResult{Tier: model.MatchTierNone}
	}

	var idxs []int
	for i, cand := range m.normDescByIndex {
		if cand == bestDesc {
			idxs = append(idxs, i)
		}
	}
	return model.MatchResult{
		Tier:       model.MatchTierFuzzy,
		Similarity: bestRatio,
		Entries:    m.collect(idxs),
	}
}

func (m *Matcher) collect(idxs []int) []model.ReferenceEntry {
	out := make([]model.ReferenceEntry, 0, len(idxs))
	for _, i := range idxs {
		out = append(out, m.entries[i])
	}
	return out
}

// canonicalCode 编码可比形态：去标点取纯数字，去前导零后补到固定宽度
// "0007.10101" 与 "7010101" 这类写法差异在此抹平
func (m *Matcher) canonicalCode(code string) string {
	digits := strings.TrimLeft(digitsOnly(code), "0")
	if digits == "" {
		return ""
	}
	if len(digits) < m.codeWidth {
		digits = strings.Repeat("0", m.codeWidth-len(digits)) + digits
	}
	return digits
}

// digitSegments 把编码按非数字字符切段，每段去前导零，空段丢弃
func digitSegments(s string) []string {
	var segments []string
	var cur strings.Builder

	flush := func() {
		if cur.Len() == 0 {
			return
		}
		seg := strings.TrimLeft(cur.String(), "0")
		if seg != "" {
			segments = append(segments, seg)
		}
		cur.Reset()
	}

	for _, r := range s {
		if r >= '0' && r <= '9' {
			cur.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return segments
}

func containsAllSegments(digits string, segments []string) bool {
	for _, seg := range segments {
		if !strings.Contains(digits, seg) {
			return false
		}
	}
	return true
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// similarity 字符级最长公共块相似度（difflib SequenceMatcher ratio）
func similarity(a, b string) float64 {
	sm := difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, ""))
	return sm.Ratio()
}
