package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/puntosclub/kiosk-backend/internal/clients"
	"github.com/puntosclub/kiosk-backend/internal/sessionstate"
	pkgauth "github.com/puntosclub/kiosk-backend/pkg/auth"
	"github.com/puntosclub/kiosk-backend/pkg/auth/session"
	"github.com/puntosclub/kiosk-backend/pkg/config"
	"github.com/puntosclub/kiosk-backend/pkg/db/models"
	"github.com/puntosclub/kiosk-backend/pkg/enums"
	pkgerrors "github.com/puntosclub/kiosk-backend/pkg/errors"
	"github.com/puntosclub/kiosk-backend/pkg/logger"
	"github.com/puntosclub/kiosk-backend/pkg/security"
)

// TokenPair is the signed access token plus its refresh counterpart.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthResult is returned by login and register.
type AuthResult struct {
	Client models.Client `json:"client"`
	Tokens TokenPair     `json:"tokens"`
}

// RegisterInput captures self-service registration at the kiosk.
type RegisterInput struct {
	Phone  string
	Name   string
	Email  *string
	Secret string
}

// sessionManager is the slice of session.Manager the service needs.
type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

// Service handles identity for kiosk clients and admins.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, phone, secret string) (*AuthResult, error)
	Refresh(ctx context.Context, accessToken, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, accessID string) error
}

type service struct {
	clients  clients.Service
	sessions sessionManager
	state    *sessionstate.Holder
	jwtCfg   config.JWTConfig
	logg     *logger.Logger
	now      func() time.Time
}

// NewService wires the auth service.
func NewService(clientsSvc clients.Service, sessions sessionManager, state *sessionstate.Holder, jwtCfg config.JWTConfig, logg *logger.Logger) (Service, error) {
	if clientsSvc == nil {
		return nil, fmt.Errorf("clients service required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		clients:  clientsSvc,
		sessions: sessions,
		state:    state,
		jwtCfg:   jwtCfg,
		logg:     logg,
		now:      time.Now,
	}, nil
}

// Register creates a client account and signs it in. Kiosk self-registration
// always yields the client role.
func (s *service) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	client, err := s.clients.Create(ctx, clients.CreateClientInput{
		Phone:  input.Phone,
		Name:   input.Name,
		Email:  input.Email,
		Secret: input.Secret,
		Role:   enums.RoleClient,
	})
	if err != nil {
		return nil, err
	}
	return s.startSession(ctx, *client)
}

// Login authenticates by phone + secret. Unknown phones and wrong secrets
// produce the same answer.
func (s *service) Login(ctx context.Context, phone, secret string) (*AuthResult, error) {
	if phone == "" || secret == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone and secret are required")
	}

	client, err := s.clients.GetByPhone(ctx, phone)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, err
	}

	ok, err := security.VerifySecret(secret, client.SecretHash)
	if err != nil {
		s.logg.Error(ctx, "secret verification failed", err)
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	return s.startSession(ctx, *client)
}

func (s *service) startSession(ctx context.Context, client models.Client) (*AuthResult, error) {
	accessID := session.NewAccessID()

	refresh, err := s.sessions.Generate(ctx, accessID)
	if err != nil {
		return nil, fmt.Errorf("generating refresh session: %w", err)
	}

	access, err := pkgauth.MintAccessToken(s.jwtCfg, s.now(), pkgauth.AccessTokenPayload{
		ClientID: client.ID,
		Role:     client.Role,
		JTI:      accessID,
	})
	if err != nil {
		return nil, fmt.Errorf("minting access token: %w", err)
	}

	if s.state != nil {
		s.state.SignIn(client.ID, client.Role)
	}

	client.SecretHash = ""
	return &AuthResult{
		Client: client,
		Tokens: TokenPair{AccessToken: access, RefreshToken: refresh},
	}, nil
}

// Refresh rotates the refresh session named by the (possibly expired) access
// token and mints a fresh pair.
func (s *service) Refresh(ctx context.Context, accessToken, refreshToken string) (*TokenPair, error) {
	if accessToken == "" || refreshToken == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "access and refresh tokens are required")
	}

	claims, err := pkgauth.ParseAccessTokenAllowExpired(s.jwtCfg, accessToken)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid access token")
	}

	newAccessID, newRefresh, err := s.sessions.Rotate(ctx, claims.ID, refreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, fmt.Errorf("rotating session: %w", err)
	}

	access, err := pkgauth.MintAccessToken(s.jwtCfg, s.now(), pkgauth.AccessTokenPayload{
		ClientID: claims.ClientID,
		Role:     claims.Role,
		JTI:      newAccessID,
	})
	if err != nil {
		return nil, fmt.Errorf("minting access token: %w", err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: newRefresh}, nil
}

// Logout revokes the refresh session tied to the access ID.
func (s *service) Logout(ctx context.Context, accessID string) error {
	if accessID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "access id is required")
	}
	if err := s.sessions.Revoke(ctx, accessID); err != nil {
		return fmt.Errorf("revoking session: %w", err)
	}
	if s.state != nil {
		s.state.SignOut()
	}
	return nil
}
