// Package handlers contains the marketplace controllers. Each handler
// is resolved through the container with its dependencies auto-wired,
// and its methods are dispatched by name from the route table.
package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/stallkit/stall/auth"
	stallerrors "github.com/stallkit/stall/errors"
	"github.com/stallkit/stall/market/account"
	"github.com/stallkit/stall/session"
	"github.com/stallkit/stall/web"
)

// AccountHandler serves registration, login, and logout.
type AccountHandler struct {
	Accounts *account.Service
	JWT      *auth.JWTService
	Logger   *zap.Logger
}

// Register creates an account from the posted form and logs the new
// user in.
func (h *AccountHandler) Register(req *web.Request) (*web.Response, error) {
	input := account.RegisterInput{
		Username: req.BodyParam("username"),
		Email:    req.BodyParam("email"),
		Password: req.BodyParam("password"),
	}

	user, err := h.Accounts.Register(input)
	if err != nil {
		if errors.Is(err, account.ErrDuplicate) {
			return stallerrors.RespondMessage(req, stallerrors.CodeDuplicateValue, err.Error()), nil
		}
		return stallerrors.RespondMessage(req, stallerrors.CodeValidationFailed, err.Error()), nil
	}

	if sess := session.FromRequest(req); sess != nil {
		sess.SetUserID(user.ID)
		sess.Flash("success", "welcome to the marketplace")
	}

	h.Logger.Info("user registered",
		zap.String("user_id", user.ID),
		zap.String("username", user.Username))
	return web.JSON(http.StatusCreated, user), nil
}

// Login checks credentials, marks the session authenticated, and
// issues an API access token.
func (h *AccountHandler) Login(req *web.Request) (*web.Response, error) {
	user, err := h.Accounts.Authenticate(req.BodyParam("username"), req.BodyParam("password"))
	if err != nil {
		return stallerrors.Respond(req, stallerrors.CodeInvalidCredentials), nil
	}

	if sess := session.FromRequest(req); sess != nil {
		sess.SetUserID(user.ID)
	}

	token, err := h.JWT.GenerateAccessToken(user.ID, user.Username, user.Email)
	if err != nil {
		return nil, err
	}
	return web.JSON(http.StatusOK, map[string]any{
		"user":         user,
		"access_token": token,
	}), nil
}

// Logout clears the authenticated user from the session.
func (h *AccountHandler) Logout(req *web.Request) (*web.Response, error) {
	if sess := session.FromRequest(req); sess != nil {
		sess.ClearUserID()
	}
	return web.SeeOther("/"), nil
}
