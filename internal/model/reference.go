package model

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ItemType 参考数据库条目类型
type ItemType string

const (
	ItemTypeLabor    ItemType = "labor"    // 人工（MÃO DE OBRA）
	ItemTypeMaterial ItemType = "material" // 材料（INSUMO / MATERIAL）
	ItemTypeOther    ItemType = "other"
)

// ReferenceEntry 参考数据库（SINAPI 口径）中的一行
// 同一 CompositionCode 会对应多行：每个工种 / 材料各一行
type ReferenceEntry struct {
	ID              int64    `json:"id"`
	CompositionCode string   `json:"compositionCode"`
	ItemDescription string   `json:"itemDescription"`
	ItemType        ItemType `json:"itemType"`
	Coefficient     float64  `json:"coefficient"` // 含义由数据集约定：每单位工时 或 每日产量
}

// ParseItemType 将数据集中的类型文本归一到枚举
// 参考库常见写法："MÃO DE OBRA" / "MAO DE OBRA" / "INSUMO" / "MATERIAL"
func ParseItemType(raw string) ItemType {
	switch normalizeTypeText(raw) {
	case "mao de obra", "mao-de-obra", "maodeobra":
		return ItemTypeLabor
	case "insumo", "material", "materiais":
		return ItemTypeMaterial
	default:
		return ItemTypeOther
	}
}

// normalizeTypeText 小写并去除重音，类型判断不应受 "MÃO"/"MAO" 拼写差异影响
func normalizeTypeText(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, s); err == nil {
		s = folded
	}
	return strings.Join(strings.Fields(s), " ")
}
