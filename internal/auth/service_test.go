package auth

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"

	"github.com/puntosclub/kiosk-backend/internal/clients"
	"github.com/puntosclub/kiosk-backend/internal/sessionstate"
	pkgauth "github.com/puntosclub/kiosk-backend/pkg/auth"
	"github.com/puntosclub/kiosk-backend/pkg/auth/session"
	"github.com/puntosclub/kiosk-backend/pkg/config"
	"github.com/puntosclub/kiosk-backend/pkg/db/models"
	"github.com/puntosclub/kiosk-backend/pkg/enums"
	pkgerrors "github.com/puntosclub/kiosk-backend/pkg/errors"
	"github.com/puntosclub/kiosk-backend/pkg/logger"
	"github.com/puntosclub/kiosk-backend/pkg/pagination"
	"github.com/puntosclub/kiosk-backend/pkg/security"
)

var fastArgon = config.PasswordConfig{
	ArgonMemoryKB:    8 * 1024,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "puntosclub",
		ExpirationMinutes: 15,
	}
}

type fakeClients struct {
	byPhone map[string]models.Client
	created []clients.CreateClientInput
}

func newFakeClients() *fakeClients {
	return &fakeClients{byPhone: map[string]models.Client{}}
}

func (f *fakeClients) seed(t *testing.T, phone, secret string, role enums.Role) models.Client {
	t.Helper()
	hash, err := security.HashSecret(secret, fastArgon)
	if err != nil {
		t.Fatalf("hash secret: %v", err)
	}
	client := models.Client{ID: uuid.New(), Phone: phone, Name: "Ana", Role: role, SecretHash: hash}
	f.byPhone[phone] = client
	return client
}

func (f *fakeClients) Create(_ context.Context, input clients.CreateClientInput) (*models.Client, error) {
	f.created = append(f.created, input)
	hash, err := security.HashSecret(input.Secret, fastArgon)
	if err != nil {
		return nil, err
	}
	client := models.Client{ID: uuid.New(), Phone: input.Phone, Name: input.Name, Role: input.Role, SecretHash: hash}
	f.byPhone[input.Phone] = client
	return &client, nil
}

func (f *fakeClients) Get(context.Context, uuid.UUID) (*models.Client, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "client row not found")
}

func (f *fakeClients) GetByPhone(_ context.Context, phone string) (*models.Client, error) {
	client, ok := f.byPhone[phone]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "client row not found")
	}
	return &client, nil
}

func (f *fakeClients) List(context.Context, pagination.Params) ([]models.Client, string, error) {
	return nil, "", nil
}

func (f *fakeClients) Update(context.Context, uuid.UUID, clients.UpdateClientInput) (*models.Client, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "client row not found")
}

func (f *fakeClients) Delete(context.Context, uuid.UUID) error {
	return nil
}

type fakeSessions struct {
	active    map[string]string
	generated []string
	revoked   []string
	rotateErr error
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{active: map[string]string{}}
}

func (f *fakeSessions) Generate(_ context.Context, accessID string) (string, error) {
	f.generated = append(f.generated, accessID)
	token := "refresh-" + accessID
	f.active[accessID] = token
	return token, nil
}

func (f *fakeSessions) Rotate(_ context.Context, oldAccessID, provided string) (string, string, error) {
	if f.rotateErr != nil {
		return "", "", f.rotateErr
	}
	if stored, ok := f.active[oldAccessID]; !ok || stored != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(f.active, oldAccessID)
	newID := session.NewAccessID()
	token := "refresh-" + newID
	f.active[newID] = token
	return newID, token, nil
}

func (f *fakeSessions) Revoke(_ context.Context, accessID string) error {
	f.revoked = append(f.revoked, accessID)
	delete(f.active, accessID)
	return nil
}

func newTestAuth(t *testing.T, clientsSvc clients.Service, sessions sessionManager, state *sessionstate.Holder) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "auth-test", Output: io.Discard})
	svc, err := NewService(clientsSvc, sessions, state, testJWTConfig(), logg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestLoginIssuesTokensAndPublishesState(t *testing.T) {
	fc := newFakeClients()
	client := fc.seed(t, "+34600111222", "1234", enums.RoleClient)
	sessions := newFakeSessions()
	state := sessionstate.NewHolder()
	defer state.Close()
	svc := newTestAuth(t, fc, sessions, state)

	result, err := svc.Login(context.Background(), "+34600111222", "1234")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.Tokens.AccessToken == "" || result.Tokens.RefreshToken == "" {
		t.Fatal("expected both tokens")
	}
	if result.Client.SecretHash != "" {
		t.Fatal("secret hash must never leave the service")
	}

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), result.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.ClientID != client.ID || claims.Role != enums.RoleClient {
		t.Errorf("unexpected claims: %+v", claims)
	}
	if len(sessions.generated) != 1 || sessions.generated[0] != claims.ID {
		t.Errorf("refresh session must be keyed by the token jti")
	}

	snap := state.Snapshot()
	if !snap.Active || snap.ClientID != client.ID {
		t.Errorf("sign-in not published: %+v", snap)
	}
}

func TestLoginRejectsWrongSecretAndUnknownPhone(t *testing.T) {
	fc := newFakeClients()
	fc.seed(t, "+34600111222", "1234", enums.RoleClient)
	svc := newTestAuth(t, fc, newFakeSessions(), nil)

	for _, tc := range []struct{ phone, secret string }{
		{"+34600111222", "9999"},
		{"+34600999999", "1234"},
	} {
		_, err := svc.Login(context.Background(), tc.phone, tc.secret)
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
			t.Fatalf("expected UNAUTHORIZED for %s/%s, got %v", tc.phone, tc.secret, err)
		}
		if typed.Message() != "invalid credentials" {
			t.Errorf("unknown phone and wrong secret must be indistinguishable, got %q", typed.Message())
		}
	}
}

func TestRegisterForcesClientRole(t *testing.T) {
	fc := newFakeClients()
	svc := newTestAuth(t, fc, newFakeSessions(), nil)

	result, err := svc.Register(context.Background(), RegisterInput{
		Phone: "+34600111222", Name: "Ana", Secret: "1234",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if len(fc.created) != 1 || fc.created[0].Role != enums.RoleClient {
		t.Errorf("register must force the client role, got %+v", fc.created)
	}
	if result.Tokens.AccessToken == "" {
		t.Fatal("register must sign the client in")
	}
}

func TestRefreshRotatesSession(t *testing.T) {
	fc := newFakeClients()
	fc.seed(t, "+34600111222", "1234", enums.RoleClient)
	sessions := newFakeSessions()
	svc := newTestAuth(t, fc, sessions, nil)

	result, err := svc.Login(context.Background(), "+34600111222", "1234")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	pair, err := svc.Refresh(context.Background(), result.Tokens.AccessToken, result.Tokens.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if pair.AccessToken == result.Tokens.AccessToken || pair.RefreshToken == result.Tokens.RefreshToken {
		t.Fatal("refresh must mint a fresh pair")
	}

	_, err = svc.Refresh(context.Background(), result.Tokens.AccessToken, result.Tokens.RefreshToken)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("old refresh token must be dead after rotation, got %v", err)
	}
}

func TestLogoutRevokesAndPublishes(t *testing.T) {
	fc := newFakeClients()
	fc.seed(t, "+34600111222", "1234", enums.RoleClient)
	sessions := newFakeSessions()
	state := sessionstate.NewHolder()
	defer state.Close()
	svc := newTestAuth(t, fc, sessions, state)

	result, err := svc.Login(context.Background(), "+34600111222", "1234")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), result.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}

	if err := svc.Logout(context.Background(), claims.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(sessions.revoked) != 1 || sessions.revoked[0] != claims.ID {
		t.Errorf("expected revoke of %s, got %v", claims.ID, sessions.revoked)
	}
	if state.Snapshot().Active {
		t.Error("sign-out not published")
	}
}
