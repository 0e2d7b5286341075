package identity

import (
	"context"

	"google.golang.org/api/idtoken"
)

// GoogleVerifier validates Google ID tokens against a client ID.
type GoogleVerifier struct {
	clientID string
}

// NewGoogleVerifier creates a verifier bound to the OAuth client ID the
// tokens must be issued for.
func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{clientID: clientID}
}

// Verify validates the raw ID token and extracts the claims the gateway uses.
func (v *GoogleVerifier) Verify(ctx context.Context, rawToken string) (GoogleClaims, error) {
	payload, err := idtoken.Validate(ctx, rawToken, v.clientID)
	if err != nil {
		return GoogleClaims{}, err
	}

	email, _ := payload.Claims["email"].(string)
	name, _ := payload.Claims["name"].(string)
	picture, _ := payload.Claims["picture"].(string)

	return GoogleClaims{
		Subject: payload.Subject,
		Email:   email,
		Name:    name,
		Picture: picture,
	}, nil
}
