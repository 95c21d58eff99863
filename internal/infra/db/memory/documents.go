package memory

import (
	"context"
	"sort"

	"github.com/bryanwahyu/skillscope/internal/domain"
	"github.com/bryanwahyu/skillscope/internal/domain/analysis"
	"github.com/bryanwahyu/skillscope/internal/domain/mindmap"
)

// MindMaps exposes the mind map repository of a Store.
func (s *Store) MindMaps() mindmap.Repository { return mindMapRepo{s} }

// Analyses exposes the analysis repository of a Store.
func (s *Store) Analyses() analysis.Repository { return analysisRepo{s} }

type mindMapRepo struct{ s *Store }

func (r mindMapRepo) Save(_ context.Context, m *mindmap.Saved) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *m
	r.s.mindMaps[m.ID] = &cp
	return nil
}

func (r mindMapRepo) ListByUser(_ context.Context, userID string, limit int) ([]*mindmap.Saved, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*mindmap.Saved{}
	for _, m := range r.s.mindMaps {
		if m.UserID == userID {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r mindMapRepo) Get(_ context.Context, id mindmap.ID) (*mindmap.Saved, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	m, ok := r.s.mindMaps[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (r mindMapRepo) Delete(_ context.Context, id mindmap.ID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.mindMaps[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.mindMaps, id)
	return nil
}

type analysisRepo struct{ s *Store }

func (r analysisRepo) Save(_ context.Context, a *analysis.Record) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *a
	r.s.analyses[a.ID] = &cp
	return nil
}

func (r analysisRepo) Paginate(_ context.Context, userID string, page, pageSize int) ([]*analysis.Record, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	all := []*analysis.Record{}
	for _, a := range r.s.analyses {
		if a.UserID == userID {
			cp := *a
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	start := (page - 1) * pageSize
	if start >= len(all) {
		return []*analysis.Record{}, nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

func (r analysisRepo) Get(_ context.Context, id analysis.RecordID) (*analysis.Record, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.analyses[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *a
	return &cp, nil
}
