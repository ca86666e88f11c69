package api

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/erazemk/zaloga/internal/db"
	"github.com/erazemk/zaloga/internal/inventory"
	"github.com/erazemk/zaloga/internal/metrics"
	"github.com/erazemk/zaloga/internal/report"
)

// DefaultLoginRateLimit is the number of login attempts allowed per client
// IP per minute.
const DefaultLoginRateLimit = 10

// Config carries the router settings.
type Config struct {
	JWTSecret      string
	TokenTTL       time.Duration
	LoginRateLimit int
	Metrics        *metrics.Metrics
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(database *db.DB, svc *inventory.Service, reports *report.Engine, cfg Config) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: database, Service: svc, JWTSecret: cfg.JWTSecret, TokenTTL: cfg.TokenTTL}
	itemsHandler := &ItemsHandler{Service: svc}
	stockHandler := &StockHandler{Service: svc}
	categoriesHandler := &CategoriesHandler{Service: svc}
	accountsHandler := &AccountsHandler{Service: svc}
	reportsHandler := &ReportsHandler{Reports: reports}
	adminHandler := &AdminHandler{DB: database, Service: svc}

	authMW := AuthMiddleware(cfg.JWTSecret, database)
	admin := func(h http.HandlerFunc) http.Handler { return authMW(RequireAdmin(h)) }
	authed := func(h http.HandlerFunc) http.Handler { return authMW(h) }

	limit := cfg.LoginRateLimit
	if limit <= 0 {
		limit = DefaultLoginRateLimit
	}
	loginLimiter := httprate.Limit(limit, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP))

	// Public.
	mux.Handle("POST /api/auth/login", loginLimiter(http.HandlerFunc(authHandler.Login)))
	mux.HandleFunc("GET /healthz", adminHandler.Health)
	mux.Handle("GET /metrics", cfg.Metrics.Handler())

	// Session.
	mux.Handle("POST /api/auth/logout", authed(authHandler.Logout))
	mux.Handle("PUT /api/auth/password", authed(authHandler.ChangePassword))

	// Items: read and move stock (all accounts), change definitions (admin).
	mux.Handle("GET /api/items", authed(itemsHandler.List))
	mux.Handle("POST /api/items", authed(itemsHandler.Create))
	mux.Handle("GET /api/items/{id}", authed(itemsHandler.Get))
	mux.Handle("PATCH /api/items/{id}", authed(itemsHandler.Update))
	mux.Handle("DELETE /api/items/{id}", admin(itemsHandler.Delete))
	mux.Handle("GET /api/items/{id}/attributes", authed(itemsHandler.Attributes))
	mux.Handle("GET /api/items/{id}/lots", authed(stockHandler.Lots))
	mux.Handle("GET /api/items/{id}/history", authed(stockHandler.History))
	mux.Handle("POST /api/items/{id}/supply", authed(stockHandler.Supply))
	mux.Handle("POST /api/items/{id}/offtake", authed(stockHandler.Offtake))

	// Categories: read (all), write (admin).
	mux.Handle("GET /api/categories", authed(categoriesHandler.List))
	mux.Handle("POST /api/categories", admin(categoriesHandler.Create))
	mux.Handle("GET /api/categories/{id}", authed(categoriesHandler.Get))
	mux.Handle("PATCH /api/categories/{id}", admin(categoriesHandler.Update))
	mux.Handle("DELETE /api/categories/{id}", admin(categoriesHandler.Delete))

	// Accounts (admin only).
	mux.Handle("GET /api/accounts", admin(accountsHandler.List))
	mux.Handle("POST /api/accounts", admin(accountsHandler.Create))
	mux.Handle("GET /api/accounts/{id}", admin(accountsHandler.Get))
	mux.Handle("PATCH /api/accounts/{id}", admin(accountsHandler.Update))
	mux.Handle("PUT /api/accounts/{id}/password", admin(accountsHandler.SetPassword))
	mux.Handle("DELETE /api/accounts/{id}", admin(accountsHandler.Delete))

	// Reports (all accounts).
	mux.Handle("GET /api/reports/low-stock", authed(reportsHandler.LowStock))
	mux.Handle("GET /api/reports/expiry", authed(reportsHandler.Expiry))
	mux.Handle("GET /api/reports/consumption", authed(reportsHandler.Consumption))
	mux.Handle("GET /api/reports/consistency", admin(reportsHandler.Consistency))
	mux.Handle("GET /api/reports/summary", authed(reportsHandler.Summary))

	// Maintenance (admin only).
	mux.Handle("POST /api/admin/rebuild-projection", admin(adminHandler.RebuildProjection))

	var handler http.Handler = mux
	handler = cfg.Metrics.Middleware(handler)
	handler = SecureHeaders(handler)
	handler = LoggingMiddleware(handler)
	return handler
}
