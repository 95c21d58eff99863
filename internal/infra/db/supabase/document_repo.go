package supabase

import (
	"context"
	"time"

	"github.com/bryanwahyu/skillscope/internal/domain"
	"github.com/bryanwahyu/skillscope/internal/domain/analysis"
	"github.com/bryanwahyu/skillscope/internal/domain/mindmap"
)

type mindMapRow struct {
	ID           string        `json:"id"`
	UserID       string        `json:"user_id"`
	Topic        string        `json:"topic"`
	InterestArea string        `json:"interest_area"`
	SkillLevel   string        `json:"skill_level"`
	Data         mindmap.Graph `json:"mind_map_data"`
	CreatedAt    time.Time     `json:"created_at"`
}

func (r mindMapRow) toDomain() *mindmap.Saved {
	return &mindmap.Saved{
		ID:           mindmap.ID(r.ID),
		UserID:       r.UserID,
		Topic:        r.Topic,
		InterestArea: r.InterestArea,
		SkillLevel:   mindmap.SkillLevel(r.SkillLevel),
		Graph:        r.Data,
		CreatedAt:    r.CreatedAt,
	}
}

type MindMapRepository struct {
	db Tables
}

func (r *MindMapRepository) Save(_ context.Context, m *mindmap.Saved) error {
	row := mindMapRow{
		ID:           string(m.ID),
		UserID:       m.UserID,
		Topic:        m.Topic,
		InterestArea: m.InterestArea,
		SkillLevel:   string(m.SkillLevel),
		Data:         m.Graph,
		CreatedAt:    m.CreatedAt,
	}
	_, _, err := r.db.From(tableMindMaps).Upsert(row, "id", "minimal", "").Execute()
	return err
}

func (r *MindMapRepository) ListByUser(_ context.Context, userID string, limit int) ([]*mindmap.Saved, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []mindMapRow
	if _, err := r.db.From(tableMindMaps).Select("*", "", false).Eq("user_id", userID).Order("created_at", desc()).Limit(limit, "").ExecuteTo(&rows); err != nil {
		return nil, err
	}
	out := make([]*mindmap.Saved, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *MindMapRepository) Get(_ context.Context, id mindmap.ID) (*mindmap.Saved, error) {
	var rows []mindMapRow
	_, err := r.db.From(tableMindMaps).Select("*", "", false).Eq("id", string(id)).Limit(1, "").ExecuteTo(&rows)
	row, err := single(rows, err)
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

func (r *MindMapRepository) Delete(_ context.Context, id mindmap.ID) error {
	var rows []mindMapRow
	_, err := r.db.From(tableMindMaps).Delete("representation", "").Eq("id", string(id)).ExecuteTo(&rows)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type analysisRow struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Topic     string          `json:"topic"`
	Result    analysis.Result `json:"result_json"`
	CreatedAt time.Time       `json:"created_at"`
}

func (r analysisRow) toDomain() *analysis.Record {
	return &analysis.Record{ID: analysis.RecordID(r.ID), UserID: r.UserID, Topic: r.Topic, Result: r.Result, CreatedAt: r.CreatedAt}
}

type AnalysisRepository struct {
	db Tables
}

func (r *AnalysisRepository) Save(_ context.Context, a *analysis.Record) error {
	row := analysisRow{ID: string(a.ID), UserID: a.UserID, Topic: a.Topic, Result: a.Result, CreatedAt: a.CreatedAt}
	_, _, err := r.db.From(tableAnalyses).Upsert(row, "id", "minimal", "").Execute()
	return err
}

func (r *AnalysisRepository) Paginate(_ context.Context, userID string, page, pageSize int) ([]*analysis.Record, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	from := (page - 1) * pageSize
	var rows []analysisRow
	_, err := r.db.From(tableAnalyses).Select("*", "", false).
		Eq("user_id", userID).
		Order("created_at", desc()).
		Range(from, from+pageSize-1, "").
		ExecuteTo(&rows)
	if err != nil {
		return nil, err
	}
	out := make([]*analysis.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *AnalysisRepository) Get(_ context.Context, id analysis.RecordID) (*analysis.Record, error) {
	var rows []analysisRow
	_, err := r.db.From(tableAnalyses).Select("*", "", false).Eq("id", string(id)).Limit(1, "").ExecuteTo(&rows)
	row, err := single(rows, err)
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}
