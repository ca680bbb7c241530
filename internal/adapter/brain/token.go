package brain

import (
	"context"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

type devTokenRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

type devTokenResponse struct {
	Token string `json:"token"`
}

// MintDevToken asks the stub backend for a development session token. Not
// available against production deployments.
func (c *Client) MintDevToken(ctx context.Context, userID, role string) (string, error) {
	var out devTokenResponse
	if err := c.do(ctx, http.MethodPost, "/v1/dev/token", nil, devTokenRequest{UserID: userID, Role: role}, &out); err != nil {
		return "", err
	}
	c.token = out.Token
	return out.Token, nil
}

// TokenExpiresWithin inspects the bearer token's exp claim without verifying
// the signature; the client only uses it to decide when to refresh.
func TokenExpiresWithin(token string, window time.Duration, now time.Time) bool {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return true
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		return true
	}
	return time.Unix(int64(exp), 0).Before(now.Add(window))
}
