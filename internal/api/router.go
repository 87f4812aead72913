// Package api wires handlers, middleware and routes into the HTTP
// surface of the service.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/passforge/passforge/internal/api/handler"
	"github.com/passforge/passforge/internal/api/middleware"
	"github.com/passforge/passforge/internal/auth"
	"github.com/passforge/passforge/internal/campaign"
	"github.com/passforge/passforge/internal/customer"
	"github.com/passforge/passforge/internal/location"
	"github.com/passforge/passforge/internal/obs"
	"github.com/passforge/passforge/internal/pass"
	"github.com/passforge/passforge/internal/store"
	"github.com/passforge/passforge/internal/template"
	"github.com/passforge/passforge/internal/tenant"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Store      *store.Store
	AuthSvc    *auth.Service
	Users      *auth.Repository
	Tenants    *tenant.Repository
	Templates  *template.Repository
	Customers  *customer.Repository
	Campaigns  *campaign.Repository
	Locations  *location.Repository
	Passes     *pass.Repository
	Version    string
	PassTypeID string
}

// NewRouter creates and configures a Chi router with all middleware and routes.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(chimiddleware.Logger)
	r.Use(obs.Instrument)

	healthHandler := handler.NewHealthHandler(deps.Store, deps.Version)
	r.Get("/health", healthHandler.ServeHTTP)
	r.Method("GET", "/metrics", obs.Handler())

	authHandler := handler.NewAuthHandler(deps.Store, deps.AuthSvc)
	userHandler := handler.NewUserHandler(deps.Store, deps.Users, deps.AuthSvc)
	tenantHandler := handler.NewTenantHandler(deps.Store, deps.Tenants)
	templateHandler := handler.NewTemplateHandler(deps.Store, deps.Templates)
	customerHandler := handler.NewCustomerHandler(deps.Store, deps.Customers)
	campaignHandler := handler.NewCampaignHandler(deps.Store, deps.Campaigns, deps.Customers, deps.Templates, deps.Locations)
	locationHandler := handler.NewLocationHandler(deps.Store, deps.Locations)
	passHandler := handler.NewPassHandler(deps.Store, deps.Passes, deps.Templates, deps.Customers, deps.PassTypeID)

	authenticate := middleware.Auth(deps.Store, deps.Users, deps.AuthSvc.Tokens())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
			r.Post("/register", authHandler.Register)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Route("/users", func(r chi.Router) {
				r.Get("/me", userHandler.Me)
				r.Put("/me", userHandler.UpdateMe)
				r.Get("/", userHandler.List)
				r.Get("/{id}", userHandler.GetByID)
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireSuperuser())
					r.Post("/", userHandler.Create)
					r.Put("/{id}", userHandler.Update)
				})
			})

			r.Route("/tenants", func(r chi.Router) {
				r.Get("/my", tenantHandler.My)
				r.Get("/{id}", tenantHandler.GetByID)
				r.Put("/{id}", tenantHandler.Update)
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireSuperuser())
					r.Get("/", tenantHandler.List)
					r.Post("/", tenantHandler.Create)
				})
			})

			r.Route("/templates", func(r chi.Router) {
				r.Post("/", templateHandler.Create)
				r.Get("/", templateHandler.List)
				r.Get("/{id}", templateHandler.GetByID)
				r.Put("/{id}", templateHandler.Update)
				r.Delete("/{id}", templateHandler.Delete)
			})

			r.Route("/customers", func(r chi.Router) {
				r.Post("/", customerHandler.Create)
				r.Get("/", customerHandler.List)
				r.Get("/{id}", customerHandler.GetByID)
				r.Put("/{id}", customerHandler.Update)
				r.Delete("/{id}", customerHandler.Delete)
			})

			r.Route("/campaigns", func(r chi.Router) {
				r.Post("/", campaignHandler.Create)
				r.Get("/", campaignHandler.List)
				r.Get("/{id}", campaignHandler.GetByID)
				r.Put("/{id}", campaignHandler.Update)
				r.Delete("/{id}", campaignHandler.Delete)
				r.Post("/{id}/execute", campaignHandler.Execute)
				r.Post("/{id}/customers", campaignHandler.AddCustomers)
				r.Get("/{id}/customers", campaignHandler.Customers)
			})

			r.Route("/locations", func(r chi.Router) {
				r.Post("/", locationHandler.Create)
				r.Get("/", locationHandler.List)
				r.Get("/{id}", locationHandler.GetByID)
				r.Put("/{id}", locationHandler.Update)
				r.Delete("/{id}", locationHandler.Delete)
			})

			r.Route("/passes", func(r chi.Router) {
				r.Post("/", passHandler.Create)
				r.Get("/", passHandler.List)
				r.Get("/serial/{serialNumber}", passHandler.GetBySerial)
				r.Get("/{id}", passHandler.GetByID)
				r.Put("/{id}", passHandler.Update)
				r.Delete("/{id}", passHandler.Delete)
				r.Post("/{id}/redeem", passHandler.Redeem)
			})
		})
	})

	return r
}
