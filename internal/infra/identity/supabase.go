package identity

import (
	"context"
	"fmt"

	"github.com/supabase-community/supabase-go"

	"github.com/bryanwahyu/skillscope/internal/domain"
	"github.com/bryanwahyu/skillscope/internal/domain/identity"
)

// UserLookup resolves an access token with the auth server.
type UserLookup func(token string) (userID, email string, err error)

// SupabaseVerifier asks Supabase Auth who owns the token.
type SupabaseVerifier struct {
	lookup UserLookup
}

func NewSupabaseVerifier(client *supabase.Client) *SupabaseVerifier {
	return NewLookupVerifier(func(token string) (string, string, error) {
		user, err := client.Auth.WithToken(token).GetUser()
		if err != nil {
			return "", "", err
		}
		return user.ID.String(), user.Email, nil
	})
}

func NewLookupVerifier(lookup UserLookup) *SupabaseVerifier {
	return &SupabaseVerifier{lookup: lookup}
}

func (v *SupabaseVerifier) Verify(_ context.Context, token string) (*identity.Session, error) {
	token = bearer(token)
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}
	id, email, err := v.lookup(token)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrUnauthenticated)
	}
	if id == "" {
		return nil, domain.ErrUnauthenticated
	}
	return &identity.Session{UserID: id, Email: email, Token: token}, nil
}
