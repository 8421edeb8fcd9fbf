package parser

import "strings"

// ColumnResolver 列解析器：把任意表头映射到规范字段
// 别名表按顺序尝试：先全等（规范化、不分大小写），再小写包含关键词
type ColumnResolver struct {
	aliases []fieldAlias
}

// NewBudgetColumnResolver 预算表列解析器
func NewBudgetColumnResolver() *ColumnResolver {
	return &ColumnResolver{aliases: budgetAliases}
}

// NewReferenceColumnResolver 参考库列解析器
func NewReferenceColumnResolver() *ColumnResolver {
	return &ColumnResolver{aliases: referenceAliases}
}

// Resolve 解析表头，任一规范字段缺失时返回 *SchemaError
// 同一字段命中多列时取最先命中的列
func (r *ColumnResolver) Resolve(headers []string) (ColumnMap, error) {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = NormalizeHeader(h)
	}

	result := make(ColumnMap, len(r.aliases))
	used := make(map[int]struct{})

	for _, alias := range r.aliases {
		if idx := r.resolveField(alias, normalized, used); idx >= 0 {
			result[alias.Field] = idx
			used[idx] = struct{}{}
		}
	}

	if len(result) < len(r.aliases) {
		return nil, r.schemaError(result)
	}
	return result, nil
}

// resolveField 为单个字段找列：先全等后包含，跳过已被占用的列
func (r *ColumnResolver) resolveField(alias fieldAlias, headers []string, used map[int]struct{}) int {
	for _, want := range alias.Exact {
		wantNorm := strings.ToUpper(NormalizeHeader(want))
		for i, h := range headers {
			if _, taken := used[i]; taken {
				continue
			}
			if strings.ToUpper(h) == wantNorm {
				return i
			}
		}
	}

	for _, kw := range alias.Keywords {
		for i, h := range headers {
			if _, taken := used[i]; taken {
				continue
			}
			if strings.Contains(Normalize(h), kw) {
				return i
			}
		}
	}

	return -1
}

func (r *ColumnResolver) schemaError(resolved ColumnMap) *SchemaError {
	err := &SchemaError{}
	for _, alias := range r.aliases {
		if _, ok := resolved[alias.Field]; ok {
			continue
		}
		err.Missing = append(err.Missing, alias.Field)
		if len(alias.Exact) > 0 {
			err.Wanted = append(err.Wanted, strings.Join(alias.Exact[:min(3, len(alias.Exact))], "|"))
		}
	}
	return err
}

// ProbeHeaderRow 在前 maxSkip 行内探测表头所在行
// 预算表的表头偏移不可预知（常见前置标题、空行），从 0 开始逐行尝试，
// 取第一个解析成功的偏移；全部失败时返回最后一次的 *SchemaError
func (r *ColumnResolver) ProbeHeaderRow(rows [][]string, maxSkip int) (offset int, cols ColumnMap, err error) {
	if maxSkip > len(rows) {
		maxSkip = len(rows)
	}

	var lastErr error
	for skip := 0; skip < maxSkip; skip++ {
		cols, resolveErr := r.Resolve(rows[skip])
		if resolveErr == nil {
			return skip, cols, nil
		}
		lastErr = resolveErr
	}

	if lastErr == nil {
		lastErr = &SchemaError{Missing: []Field{FieldCode, FieldDescription, FieldQuantity}}
	}
	return -1, nil, lastErr
}
