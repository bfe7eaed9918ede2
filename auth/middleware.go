package auth

import (
	"strings"

	"github.com/stallkit/stall/errors"
	"github.com/stallkit/stall/web"
)

// claimsKey is where Bearer attaches validated claims on the request.
const claimsKey = "auth_claims"

// Bearer validates an Authorization: Bearer token and short-circuits
// with a 401 error response when it is missing or invalid. Validated
// claims are attached to the request for downstream handlers.
type Bearer struct {
	JWT *JWTService
}

// NewBearer creates the bearer-token middleware.
func NewBearer(jwt *JWTService) *Bearer {
	return &Bearer{JWT: jwt}
}

// Handle implements web.Middleware.
func (b *Bearer) Handle(req *web.Request, next web.Next) (*web.Response, error) {
	header := req.Header("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return errors.Respond(req, errors.CodeUnauthorized), nil
	}

	claims, err := b.JWT.ValidateToken(strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		return errors.RespondMessage(req, errors.CodeUnauthorized, "invalid or expired token"), nil
	}

	req.Set(claimsKey, claims)
	return next()
}

// ClaimsFromRequest returns the claims Bearer attached, or nil.
func ClaimsFromRequest(req *web.Request) *Claims {
	c, _ := req.Get(claimsKey).(*Claims)
	return c
}
