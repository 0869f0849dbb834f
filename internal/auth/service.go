package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	pkgauth "github.com/matespatagonico/storefront/pkg/auth"
	"github.com/matespatagonico/storefront/pkg/auth/session"
	"github.com/matespatagonico/storefront/pkg/backend"
	pkgerrors "github.com/matespatagonico/storefront/pkg/errors"
	"github.com/matespatagonico/storefront/pkg/logger"
)

const invalidCredentialsMessage = "invalid credentials"

// Service defines the behavior needed by the auth controller.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Register(ctx context.Context, req RegisterRequest) (*LoginResponse, error)
	Profile(ctx context.Context, ac pkgauth.Context) (*backend.User, error)
	UpdateProfile(ctx context.Context, ac pkgauth.Context, req ProfileRequest) (*backend.User, error)
	Logout(ctx context.Context, sessionID string, ac pkgauth.Context) error
}

type authClient interface {
	Authenticate(ctx context.Context, req backend.LoginRequest) (backend.Credentials, error)
	Register(ctx context.Context, req backend.RegisterRequest) (backend.Credentials, error)
	UserProfile(ctx context.Context, token string) (backend.User, error)
	UpdateUser(ctx context.Context, token string, userID int64, update backend.ProfileUpdate) (backend.User, error)
}

type sessionManager interface {
	Create(ctx context.Context, creds session.Credentials) (string, error)
	Revoke(ctx context.Context, sessionID string) error
}

// shopperState is notified when a user signs in or out so that per-user cart
// and wishlist state can be loaded, and discarded once the user's last
// session ends.
type shopperState interface {
	Bootstrap(ctx context.Context, ac pkgauth.Context) error
	Release(userID int64) bool
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Client   authClient
	Sessions sessionManager
	Shoppers shopperState
	Logger   *logger.Logger
}

type service struct {
	client   authClient
	sessions sessionManager
	shoppers shopperState
	logg     *logger.Logger
}

// NewService constructs the login service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Client == nil {
		return nil, fmt.Errorf("backend client is required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	return &service{
		client:   params.Client,
		sessions: params.Sessions,
		shoppers: params.Shoppers,
		logg:     params.Logger,
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}

	creds, err := s.client.Authenticate(ctx, backend.LoginRequest{Email: email, Password: req.Password})
	if err != nil {
		switch pkgerrors.As(err).Code() {
		case pkgerrors.CodeUnauthorized, pkgerrors.CodeForbidden, pkgerrors.CodeValidation, pkgerrors.CodeNotFound:
			return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, invalidCredentialsMessage)
		}
		return nil, err
	}
	return s.startSession(ctx, creds, email)
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*LoginResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}
	if req.Password != req.ConfirmPassword {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "passwords do not match")
	}

	creds, err := s.client.Register(ctx, backend.RegisterRequest{
		Email:    email,
		Password: req.Password,
		Name:     strings.TrimSpace(req.Name),
		Surname:  strings.TrimSpace(req.Surname),
		Phone:    strings.TrimSpace(req.Phone),
	})
	if err != nil {
		return nil, err
	}
	return s.startSession(ctx, creds, email)
}

// Profile reads the account behind the session from the backend.
func (s *service) Profile(ctx context.Context, ac pkgauth.Context) (*backend.User, error) {
	if !ac.Authenticated() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	user, err := s.client.UserProfile(ctx, ac.Token)
	if err != nil {
		return nil, err
	}
	if user.ID == 0 {
		user.ID = ac.UserID
	}
	if user.Role == "" {
		user.Role = ac.Role
	}
	return &user, nil
}

func (s *service) UpdateProfile(ctx context.Context, ac pkgauth.Context, req ProfileRequest) (*backend.User, error) {
	if !ac.Authenticated() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	user, err := s.client.UpdateUser(ctx, ac.Token, ac.UserID, backend.ProfileUpdate{
		Email:   normalizeEmail(req.Email),
		Name:    strings.TrimSpace(req.Name),
		Surname: strings.TrimSpace(req.Surname),
		Phone:   strings.TrimSpace(req.Phone),
	})
	if err != nil {
		return nil, err
	}
	if user.ID == 0 {
		user.ID = ac.UserID
	}
	return &user, nil
}

// Logout revokes the session. The user's in-memory cart and wishlist are kept
// while other sessions of the same user remain. The backend token is not
// invalidated; it simply stops being reachable.
func (s *service) Logout(ctx context.Context, sessionID string, ac pkgauth.Context) error {
	if strings.TrimSpace(sessionID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "session required")
	}
	if err := s.sessions.Revoke(ctx, sessionID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	if s.shoppers != nil && ac.UserID > 0 && s.shoppers.Release(ac.UserID) {
		s.logg.Debug(s.logg.WithUserID(ctx, ac.UserID), "shopper state released")
	}
	return nil
}

func (s *service) startSession(ctx context.Context, creds backend.Credentials, email string) (*LoginResponse, error) {
	user := creds.User
	if user.ID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "authentication response carried no user id")
	}
	if user.Email == "" {
		user.Email = email
	}
	role := resolveRole(user.Role, creds.Token)
	user.Role = role

	rawUser, err := json.Marshal(user)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode user")
	}
	stored := session.Credentials{
		UserID: user.ID,
		Token:  creds.Token,
		Role:   role,
		Email:  user.Email,
		User:   rawUser,
	}
	sessionID, err := s.sessions.Create(ctx, stored)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create session")
	}

	ac := stored.AuthContext()
	ctx = s.logg.WithUserID(ctx, ac.UserID)
	if s.shoppers != nil {
		// Cart and wishlist are loaded eagerly; a failure here only means the
		// first read will fetch again.
		if err := s.shoppers.Bootstrap(ctx, ac); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "shopper bootstrap failed")
		}
	}
	s.logg.Info(ctx, "session started")

	return &LoginResponse{
		SessionID: sessionID,
		User:      user,
		IsAdmin:   ac.IsAdmin(),
	}, nil
}

// resolveRole prefers the role the backend put on the user and falls back to
// the role claim of the token.
func resolveRole(userRole, token string) string {
	if role := strings.TrimSpace(userRole); role != "" {
		return strings.ToUpper(role)
	}
	claims, err := pkgauth.InspectToken(token)
	if err != nil {
		return ""
	}
	return strings.ToUpper(strings.TrimSpace(claims.Role))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
