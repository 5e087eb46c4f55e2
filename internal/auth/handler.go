// Package auth serves the account endpoints: registration, email verification, login
// and the authenticated profile routes.
package auth

import (
	"fmt"
	"net/http"

	"billify.site/internal/user"
	"billify.site/pkg/billify"
	"billify.site/pkg/billify/apperror"
	billifyHTTP "billify.site/pkg/billify/http"
	"billify.site/pkg/billify/logging"
	"billify.site/pkg/billify/mail"
)

//nolint:gochecknoglobals // shared logger bindings
var (
	registerLog = logging.NewChild(logging.Fields{"service": "register-service"})
	verifyLog   = logging.NewChild(logging.Fields{"service": "verify-email-service"})
	loginLog    = logging.NewChild(logging.Fields{"service": "login-service"})
)

type Handler struct {
	store  UserStore
	mailer mail.Sender
	tokens *TokenIssuer
	domain string
}

// New returns the auth handlers. domain is the public base URL used in email links.
func New(store UserStore, mailer mail.Sender, tokens *TokenIssuer, domain string) *Handler {
	return &Handler{store: store, mailer: mailer, tokens: tokens, domain: domain}
}

// Register creates an unverified account and emails the verification link.
func (h *Handler) Register(c *billify.Context) (any, error) {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}

	logger := registerLog.ForLogger(c, c.Container.Logger)

	existing, err := h.store.FindUserByEmail(c, req.Email)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		logger.Warn("Email already registered")
		return nil, apperror.NewConflict("Email already registered", nil)
	}

	u, err := user.NewUser(req.Email, req.Username, req.FirstName, req.LastName, req.Password)
	if err != nil {
		return nil, err
	}

	if err = h.store.CreateUser(c, u); err != nil {
		return nil, err
	}

	token, err := h.store.CreateVerificationToken(c, u.ID)
	if err != nil {
		return nil, err
	}

	h.mailer.Send(c, mail.Message{
		To:       u.Email,
		Subject:  "Account Verification",
		Template: mail.TemplateAccountVerification,
		Payload: mail.Payload{
			Name: u.FirstName,
			Link: fmt.Sprintf("%s/api/v1/auth/verify/%s/%s", h.domain, token.Token, u.ID.Hex()),
		},
	})

	c.Info("User registration successful", logging.Fields{"userId": u.ID.Hex()})

	return MessageResponse{
		Success: true,
		Message: fmt.Sprintf("A verification email has been sent to %s. Please verify within 15 minutes.", u.Email),
	}, nil
}

// Verify consumes an email verification token and activates the account.
func (h *Handler) Verify(c *billify.Context) (any, error) {
	emailToken, userID := c.PathParam("emailToken"), c.PathParam("userId")

	logger := verifyLog.ForLogger(c, c.Container.Logger)

	u, err := h.store.FindUserByID(c, userID)
	if err != nil {
		return nil, err
	}

	if u == nil {
		logger.Warn("User not found")
		return nil, apperror.NewNotFound("User not found", nil)
	}

	if u.IsEmailVerified {
		logger.Warn("User already verified. Please login")
		return nil, apperror.NewBadRequest("User already verified. Please login", nil)
	}

	token, err := h.store.FindVerificationToken(c, u.ID, emailToken)
	if err != nil {
		return nil, err
	}

	if token == nil {
		logger.Warn("Invalid or expired token")
		return nil, apperror.NewBadRequest("Invalid or expired token", nil)
	}

	if err = h.store.MarkEmailVerified(c, u.ID); err != nil {
		return nil, err
	}

	if err = h.store.DeleteVerificationToken(c, token.ID); err != nil {
		return nil, err
	}

	h.mailer.Send(c, mail.Message{
		To:       u.Email,
		Subject:  "Welcome - Account Verified",
		Template: mail.TemplateWelcome,
		Payload:  mail.Payload{Name: u.FirstName, Link: h.domain + "/login"},
	})

	c.Info("Email verified successfully", logging.Fields{"userId": u.ID.Hex()})

	return MessageResponse{Success: true, Message: "Email verified successfully"}, nil
}

// Login checks the credentials of a verified account and issues an access token.
func (h *Handler) Login(c *billify.Context) (any, error) {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}

	logger := loginLog.ForLogger(c, c.Container.Logger)

	u, err := h.store.FindUserByEmail(c, req.Email)
	if err != nil {
		return nil, err
	}

	if u == nil || !u.ComparePassword(req.Password) {
		logger.Warn("Invalid email or password")
		return nil, apperror.NewUnauthorized("Invalid email or password", nil)
	}

	if !u.IsEmailVerified {
		logger.Warn("Email not verified")
		return nil, apperror.NewForbidden("Please verify your email before logging in", nil)
	}

	token, exp, err := h.tokens.Issue(u)
	if err != nil {
		return nil, err
	}

	c.Info("User logged in", logging.Fields{"userId": u.ID.Hex()})

	return billifyHTTP.Response{
		StatusCode: http.StatusOK,
		Data: TokenResponse{
			Success:     true,
			AccessToken: token,
			TokenType:   "Bearer",
			ExpiresAt:   exp.Unix(),
		},
	}, nil
}

// Me returns the profile of the authenticated user.
func (*Handler) Me(c *billify.Context) (any, error) {
	u := UserFrom(c)
	if u == nil {
		return nil, apperror.NewUnauthorized("Not authenticated", nil)
	}

	return u, nil
}

// GetUser returns any user by id.
func (h *Handler) GetUser(c *billify.Context) (any, error) {
	u, err := h.store.FindUserByID(c, c.PathParam("id"))
	if err != nil {
		return nil, err
	}

	if u == nil {
		return nil, apperror.NewNotFound("User not found", nil)
	}

	return u, nil
}
