package mysql

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/bryanwahyu/skillscope/internal/domain"
	"github.com/bryanwahyu/skillscope/internal/domain/mindmap"
)

type MindMapRepository struct {
	db *sql.DB
}

func NewMindMapRepository(db *sql.DB) *MindMapRepository {
	return &MindMapRepository{db: db}
}

func (r *MindMapRepository) Save(ctx context.Context, m *mindmap.Saved) error {
	data, err := json.Marshal(m.Graph)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO mind_maps (id, user_id, topic, interest_area, skill_level, mind_map_data, created_at)
VALUES (?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
  topic=VALUES(topic), interest_area=VALUES(interest_area),
  skill_level=VALUES(skill_level), mind_map_data=VALUES(mind_map_data);`
	_, err = r.db.ExecContext(ctx, q, m.ID, m.UserID, m.Topic, stringOrDash(m.InterestArea), m.SkillLevel, string(data), m.CreatedAt)
	return err
}

func (r *MindMapRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*mindmap.Saved, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
SELECT id, user_id, topic, interest_area, skill_level, mind_map_data, created_at
FROM mind_maps
WHERE user_id=?
ORDER BY created_at DESC, id DESC
LIMIT ?;`
	rows, err := r.db.QueryContext(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*mindmap.Saved{}
	for rows.Next() {
		m, err := scanMindMap(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *MindMapRepository) Get(ctx context.Context, id mindmap.ID) (*mindmap.Saved, error) {
	const q = `
SELECT id, user_id, topic, interest_area, skill_level, mind_map_data, created_at
FROM mind_maps WHERE id=?;`
	m, err := scanMindMap(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, notFound(err)
	}
	return m, nil
}

func (r *MindMapRepository) Delete(ctx context.Context, id mindmap.ID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM mind_maps WHERE id=?;`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanMindMap(s scanner) (*mindmap.Saved, error) {
	var m mindmap.Saved
	var data []byte
	if err := s.Scan(&m.ID, &m.UserID, &m.Topic, &m.InterestArea, &m.SkillLevel, &data, &m.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &m.Graph); err != nil {
		return nil, err
	}
	return &m, nil
}
