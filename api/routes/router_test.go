package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	authsvc "github.com/puntosclub/kiosk-backend/internal/auth"
	clientsvc "github.com/puntosclub/kiosk-backend/internal/clients"
	ledgersvc "github.com/puntosclub/kiosk-backend/internal/ledger"
	offersvc "github.com/puntosclub/kiosk-backend/internal/offers"
	prizesvc "github.com/puntosclub/kiosk-backend/internal/prizes"
	productsvc "github.com/puntosclub/kiosk-backend/internal/products"
	pkgauth "github.com/puntosclub/kiosk-backend/pkg/auth"
	"github.com/puntosclub/kiosk-backend/pkg/auth/session"
	"github.com/puntosclub/kiosk-backend/pkg/config"
	"github.com/puntosclub/kiosk-backend/pkg/db/models"
	"github.com/puntosclub/kiosk-backend/pkg/enums"
	"github.com/puntosclub/kiosk-backend/pkg/logger"
	"github.com/puntosclub/kiosk-backend/pkg/pagination"
)

type stubChecker struct{}

func (stubChecker) HasSession(context.Context, string) (bool, error) { return true, nil }

type stubAuth struct{}

func (stubAuth) Register(context.Context, authsvc.RegisterInput) (*authsvc.AuthResult, error) {
	return &authsvc.AuthResult{}, nil
}
func (stubAuth) Login(context.Context, string, string) (*authsvc.AuthResult, error) {
	return &authsvc.AuthResult{}, nil
}
func (stubAuth) Refresh(context.Context, string, string) (*authsvc.TokenPair, error) {
	return &authsvc.TokenPair{}, nil
}
func (stubAuth) Logout(context.Context, string) error { return nil }

type stubLedger struct{}

func (stubLedger) RecordSale(context.Context, ledgersvc.RecordSaleInput) (*ledgersvc.SaleReceipt, error) {
	return &ledgersvc.SaleReceipt{}, nil
}
func (stubLedger) RedeemPrize(context.Context, uuid.UUID, uuid.UUID) (*ledgersvc.RedemptionReceipt, error) {
	return &ledgersvc.RedemptionReceipt{}, nil
}
func (stubLedger) GetBalance(context.Context, uuid.UUID) (int, error) { return 45, nil }
func (stubLedger) OutlookFor(context.Context, uuid.UUID) (*ledgersvc.PrizeOutlook, error) {
	return &ledgersvc.PrizeOutlook{}, nil
}
func (stubLedger) AffordablePrizes(context.Context, int) (*ledgersvc.PrizeOutlook, error) {
	return &ledgersvc.PrizeOutlook{}, nil
}
func (stubLedger) ListSales(context.Context, *uuid.UUID, pagination.Params) ([]models.Sale, string, error) {
	return nil, "", nil
}
func (stubLedger) ListRedemptions(context.Context, *uuid.UUID, pagination.Params) ([]models.Redemption, string, error) {
	return nil, "", nil
}

type stubClients struct{}

func (stubClients) Create(context.Context, clientsvc.CreateClientInput) (*models.Client, error) {
	return &models.Client{}, nil
}
func (stubClients) Get(context.Context, uuid.UUID) (*models.Client, error) {
	return &models.Client{}, nil
}
func (stubClients) GetByPhone(context.Context, string) (*models.Client, error) {
	return &models.Client{}, nil
}
func (stubClients) List(context.Context, pagination.Params) ([]models.Client, string, error) {
	return nil, "", nil
}
func (stubClients) Update(context.Context, uuid.UUID, clientsvc.UpdateClientInput) (*models.Client, error) {
	return &models.Client{}, nil
}
func (stubClients) Delete(context.Context, uuid.UUID) error { return nil }

type stubProducts struct{}

func (stubProducts) Create(context.Context, productsvc.CreateProductInput) (*models.Product, error) {
	return &models.Product{}, nil
}
func (stubProducts) Get(context.Context, uuid.UUID) (*models.Product, error) {
	return &models.Product{}, nil
}
func (stubProducts) List(context.Context, pagination.Params) ([]models.Product, string, error) {
	return nil, "", nil
}
func (stubProducts) Update(context.Context, uuid.UUID, productsvc.UpdateProductInput) (*models.Product, error) {
	return &models.Product{}, nil
}
func (stubProducts) Delete(context.Context, uuid.UUID) error { return nil }

type stubPrizes struct{}

func (stubPrizes) Create(context.Context, prizesvc.CreatePrizeInput) (*models.Prize, error) {
	return &models.Prize{}, nil
}
func (stubPrizes) Get(context.Context, uuid.UUID) (*models.Prize, error) {
	return &models.Prize{}, nil
}
func (stubPrizes) List(context.Context) ([]models.Prize, error) { return nil, nil }
func (stubPrizes) Update(context.Context, uuid.UUID, prizesvc.UpdatePrizeInput) (*models.Prize, error) {
	return &models.Prize{}, nil
}
func (stubPrizes) Delete(context.Context, uuid.UUID) error { return nil }

type stubOffers struct{}

func (stubOffers) Create(context.Context, offersvc.CreateOfferInput) (*models.Offer, error) {
	return &models.Offer{}, nil
}
func (stubOffers) Get(context.Context, uuid.UUID) (*models.Offer, error) {
	return &models.Offer{}, nil
}
func (stubOffers) List(context.Context, bool) ([]models.Offer, error) { return nil, nil }
func (stubOffers) Update(context.Context, uuid.UUID, offersvc.UpdateOfferInput) (*models.Offer, error) {
	return &models.Offer{}, nil
}
func (stubOffers) Delete(context.Context, uuid.UUID) error { return nil }

func testRouterConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "8080"},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60},
	}
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	return NewRouter(Deps{
		Config:   testRouterConfig(),
		Logger:   logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard}),
		Sessions: stubChecker{},
		Auth:     stubAuth{},
		Ledger:   stubLedger{},
		Clients:  stubClients{},
		Products: stubProducts{},
		Prizes:   stubPrizes{},
		Offers:   stubOffers{},
	})
}

func mintToken(t *testing.T, role enums.Role) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(testRouterConfig().JWT, time.Now(), pkgauth.AccessTokenPayload{
		ClientID: uuid.New(),
		Role:     role,
		JTI:      session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	router := newTestRouter(t)
	for _, path := range []string{"/api/v1/me/balance", "/api/v1/prizes", "/api/v1/sales"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401 got %d", path, rec.Code)
		}
	}
}

func TestClientRoleCannotRecordSales(t *testing.T) {
	router := newTestRouter(t)
	token := mintToken(t, enums.RoleClient)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sales", strings.NewReader(`{}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rec.Code)
	}
}

func TestClientRoleCanReadPrizesAndBalance(t *testing.T) {
	router := newTestRouter(t)
	token := mintToken(t, enums.RoleClient)

	for _, path := range []string{"/api/v1/prizes", "/api/v1/me/balance", "/api/v1/offers"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200 got %d", path, rec.Code)
		}
	}
}

func TestAdminCanRecordSale(t *testing.T) {
	router := newTestRouter(t)
	token := mintToken(t, enums.RoleAdmin)

	body := `{"client_id":"` + uuid.NewString() + `","lines":[{"name":"Cafe","qty":1,"price":"2.00"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sales", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
}
