package oauth

import (
	"context"

	"golang.org/x/oauth2"
)

// UserProfile is the verified identity produced by a provider. ID is the
// provider-scoped subject identifier and is the only field the service
// trusts for identity binding.
type UserProfile struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
}

type OAuthProvider interface {
	Name() string
	AuthCodeURL(state string) string
	ExchangeToken(ctx context.Context, code string) (*oauth2.Token, error)
	GetUserInfo(ctx context.Context, token *oauth2.Token) (*UserProfile, error)
}
