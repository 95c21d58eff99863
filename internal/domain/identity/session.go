package identity

import "context"

// Session is the signed-in user attached to a request.
type Session struct {
	UserID string `json:"userId"`
	Email  string `json:"email,omitempty"`
	Token  string `json:"-"`
}

func (s *Session) Authenticated() bool { return s != nil && s.UserID != "" }

// Verifier resolves a bearer token into a session.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Session, error)
}

type ctxKey struct{}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session, or nil for anonymous requests.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(ctxKey{}).(*Session)
	return s
}

// UserID returns the session user id or "".
func UserID(ctx context.Context) string {
	if s := FromContext(ctx); s != nil {
		return s.UserID
	}
	return ""
}
