package model

// MatchTier 匹配所使用的层级
type MatchTier string

const (
	MatchTierNone    MatchTier = "none"         // 未命中任何层级
	MatchTierExact   MatchTier = "exact_code"   // 编码精确匹配
	MatchTierPartial MatchTier = "partial_code" // 编码去标点后的包含匹配
	MatchTierFuzzy   MatchTier = "fuzzy_text"   // 描述文本相似度匹配
)

// MatchResult 组成匹配结果：一条预算行命中的全部参考条目
// 同一组成往往需要多个工种，Entries 可能多于一条；未命中时为空
type MatchResult struct {
	Tier       MatchTier        `json:"tier"`
	Similarity float64          `json:"similarity"` // 仅 fuzzy 层级有意义
	Entries    []ReferenceEntry `json:"entries"`
}

// Matched 是否命中了至少一条参考条目
func (r MatchResult) Matched() bool {
	return len(r.Entries) > 0
}

// LaborEntries 仅保留人工条目
// 过滤放在调用方：匹配器本身对材料查询同样可用
func (r MatchResult) LaborEntries() []ReferenceEntry {
	out := make([]ReferenceEntry, 0, len(r.Entries))
	for _, e := range r.Entries {
		if e.ItemType == ItemTypeLabor {
			out = append(out, e)
		}
	}
	return out
}
