// Package social holds the external identity providers a user can sign in
// with.
package social

import (
	"context"

	"github.com/ErlanBelekov/auth-starter/internal/domain"
)

// Provider runs the authorization code flow against one identity provider.
type Provider interface {
	Name() string
	// AuthCodeURL is where the browser is sent to sign in. state is echoed
	// back on the callback.
	AuthCodeURL(state string) string
	// Identity exchanges an authorization code for the user's identity.
	Identity(ctx context.Context, code string) (domain.ExternalIdentity, error)
}
