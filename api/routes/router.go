package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/puntosclub/kiosk-backend/api/controllers"
	"github.com/puntosclub/kiosk-backend/api/middleware"
	authsvc "github.com/puntosclub/kiosk-backend/internal/auth"
	clientsvc "github.com/puntosclub/kiosk-backend/internal/clients"
	ledgersvc "github.com/puntosclub/kiosk-backend/internal/ledger"
	offersvc "github.com/puntosclub/kiosk-backend/internal/offers"
	prizesvc "github.com/puntosclub/kiosk-backend/internal/prizes"
	productsvc "github.com/puntosclub/kiosk-backend/internal/products"
	"github.com/puntosclub/kiosk-backend/pkg/auth/session"
	"github.com/puntosclub/kiosk-backend/pkg/config"
	"github.com/puntosclub/kiosk-backend/pkg/db"
	"github.com/puntosclub/kiosk-backend/pkg/enums"
	"github.com/puntosclub/kiosk-backend/pkg/logger"
	"github.com/puntosclub/kiosk-backend/pkg/redis"
)

// Deps bundles everything the HTTP layer needs.
type Deps struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             db.Pinger
	Redis          *redis.Client
	Sessions       session.AccessSessionChecker
	Auth           authsvc.Service
	Ledger         ledgersvc.Service
	Clients        clientsvc.Service
	Products       productsvc.Service
	Prizes         prizesvc.Service
	Offers         offersvc.Service
	MetricsHandler http.Handler
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginPhoneLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterPhoneLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", controllers.AuthLogin(deps.Auth, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, deps.Redis, logg)).Post("/register", controllers.AuthRegister(deps.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(deps.Auth, cfg.JWT, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))

		r.Route("/me", func(r chi.Router) {
			r.Get("/balance", controllers.MyBalance(deps.Ledger, logg))
			r.Get("/outlook", controllers.MyOutlook(deps.Ledger, logg))
			r.Get("/sales", controllers.MySales(deps.Ledger, logg))
			r.Get("/redemptions", controllers.MyRedemptions(deps.Ledger, logg))
		})

		adminOnly := middleware.RequireRole(string(enums.RoleAdmin), logg)

		r.Route("/redemptions", func(r chi.Router) {
			r.Post("/", controllers.RedeemPrize(deps.Ledger, logg))
			r.With(adminOnly).Get("/", controllers.ListRedemptions(deps.Ledger, logg))
		})

		r.Route("/sales", func(r chi.Router) {
			r.Use(adminOnly)
			r.Post("/", controllers.RecordSale(deps.Ledger, logg))
			r.Get("/", controllers.ListSales(deps.Ledger, logg))
		})

		r.Route("/clients", func(r chi.Router) {
			r.Use(adminOnly)
			r.Post("/", controllers.CreateClient(deps.Clients, logg))
			r.Get("/", controllers.ListClients(deps.Clients, logg))
			r.Get("/{clientId}", controllers.GetClient(deps.Clients, logg))
			r.Patch("/{clientId}", controllers.UpdateClient(deps.Clients, logg))
			r.Delete("/{clientId}", controllers.DeleteClient(deps.Clients, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Use(adminOnly)
			r.Post("/", controllers.CreateProduct(deps.Products, logg))
			r.Get("/", controllers.ListProducts(deps.Products, logg))
			r.Get("/{productId}", controllers.GetProduct(deps.Products, logg))
			r.Patch("/{productId}", controllers.UpdateProduct(deps.Products, logg))
			r.Delete("/{productId}", controllers.DeleteProduct(deps.Products, logg))
		})

		// Catalog reads stay open to any signed-in kiosk session.
		r.Route("/prizes", func(r chi.Router) {
			r.Get("/", controllers.ListPrizes(deps.Prizes, logg))
			r.With(adminOnly).Post("/", controllers.CreatePrize(deps.Prizes, logg))
			r.With(adminOnly).Get("/{prizeId}", controllers.GetPrize(deps.Prizes, logg))
			r.With(adminOnly).Patch("/{prizeId}", controllers.UpdatePrize(deps.Prizes, logg))
			r.With(adminOnly).Delete("/{prizeId}", controllers.DeletePrize(deps.Prizes, logg))
		})

		r.Route("/offers", func(r chi.Router) {
			r.Get("/", controllers.ListOffers(deps.Offers, logg))
			r.With(adminOnly).Post("/", controllers.CreateOffer(deps.Offers, logg))
			r.With(adminOnly).Get("/{offerId}", controllers.GetOffer(deps.Offers, logg))
			r.With(adminOnly).Patch("/{offerId}", controllers.UpdateOffer(deps.Offers, logg))
			r.With(adminOnly).Delete("/{offerId}", controllers.DeleteOffer(deps.Offers, logg))
		})
	})

	return r
}
