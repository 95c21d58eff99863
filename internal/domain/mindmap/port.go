package mindmap

import "context"

// Repository port for saved mind maps. Get and Delete return domain.ErrNotFound for unknown ids.
type Repository interface {
	Save(ctx context.Context, m *Saved) error
	ListByUser(ctx context.Context, userID string, limit int) ([]*Saved, error)
	Get(ctx context.Context, id ID) (*Saved, error)
	Delete(ctx context.Context, id ID) error
}
