package store

import (
	"fmt"

	"planobra/internal/model"
)

// ReplaceReferenceEntries 清空并批量写入参考条目（单事务）
func (s *Store) ReplaceReferenceEntries(entries []model.ReferenceEntry, importLogID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM reference_entries`); err != nil {
		return fmt.Errorf("failed to clear reference entries: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO reference_entries (composition_code, item_description, item_type, coefficient, import_log_id)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.Exec(e.CompositionCode, e.ItemDescription, string(e.ItemType), e.Coefficient, importLogID); err != nil {
			return fmt.Errorf("failed to insert reference entry %s: %w", e.CompositionCode, err)
		}
	}

	return tx.Commit()
}

// GetAllReferenceEntries 读取全部参考条目
// 匹配器在内存中工作，参考库规模有界，整表加载
func (s *Store) GetAllReferenceEntries() ([]model.ReferenceEntry, error) {
	rows, err := s.db.Query(`
		SELECT id, composition_code, item_description, item_type, coefficient
		FROM reference_entries
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query reference entries: %w", err)
	}
	defer rows.Close()

	var entries []model.ReferenceEntry
	for rows.Next() {
		var e model.ReferenceEntry
		var itemType string
		if err := rows.Scan(&e.ID, &e.CompositionCode, &e.ItemDescription, &itemType, &e.Coefficient); err != nil {
			return nil, fmt.Errorf("failed to scan reference entry: %w", err)
		}
		e.ItemType = model.ItemType(itemType)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CountReferenceEntries 参考条目总数
func (s *Store) CountReferenceEntries() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM reference_entries`).Scan(&n)
	return n, err
}
