package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/feastlyapp/feastly-backend/api/controllers"
	"github.com/feastlyapp/feastly-backend/api/middleware"
	"github.com/feastlyapp/feastly-backend/internal/auth"
	"github.com/feastlyapp/feastly-backend/internal/cart"
	"github.com/feastlyapp/feastly-backend/internal/menu"
	"github.com/feastlyapp/feastly-backend/internal/notifications"
	"github.com/feastlyapp/feastly-backend/internal/offers"
	"github.com/feastlyapp/feastly-backend/internal/orders"
	"github.com/feastlyapp/feastly-backend/internal/reviews"
	"github.com/feastlyapp/feastly-backend/pkg/auth/session"
	"github.com/feastlyapp/feastly-backend/pkg/config"
	"github.com/feastlyapp/feastly-backend/pkg/enums"
	"github.com/feastlyapp/feastly-backend/pkg/logger"
	"github.com/feastlyapp/feastly-backend/pkg/metrics"
	"github.com/feastlyapp/feastly-backend/pkg/redis"
)

type RouterParams struct {
	Config        *config.Config
	Logger        *logger.Logger
	DB            controllers.Pinger
	Redis         *redis.Client
	Sessions      session.AccessSessionChecker
	HTTPMetrics   *metrics.HTTPMetrics
	Auth          auth.Service
	Menu          menu.Service
	Cart          *cart.Service
	Orders        orders.Service
	Offers        offers.Service
	Reviews       reviews.Service
	Notifications notifications.Service
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)
	if p.HTTPMetrics != nil {
		r.Use(middleware.Metrics(p.HTTPMetrics))
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, p.Redis))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
		r.Route("/v1/menu", func(r chi.Router) {
			r.Get("/", controllers.ListMenu(p.Menu, logg))
			r.Get("/{itemID}", controllers.GetMenuItem(p.Menu, logg))
			r.Get("/{itemID}/reviews", controllers.ListItemReviews(p.Reviews, logg))
		})
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, p.Redis, logg)).Post("/register", controllers.Register(p.Auth, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, p.Redis, logg)).Post("/login", controllers.Login(p.Auth, logg))
		r.Post("/refresh", controllers.RefreshToken(p.Auth, logg))
		r.Post("/logout", controllers.Logout(p.Auth, cfg.JWT, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.Sessions, logg))
		r.Get("/ping", controllers.PrivatePing())

		r.Route("/v1/cart", func(r chi.Router) {
			r.Get("/", controllers.GetCart(p.Cart, logg))
			r.Delete("/", controllers.ClearCart(p.Cart, logg))
			r.Post("/items", controllers.AddCartItem(p.Cart, p.Menu, logg))
			r.Patch("/items/{lineID}", controllers.UpdateCartItem(p.Cart, logg))
			r.Delete("/items/{lineID}", controllers.RemoveCartItem(p.Cart, logg))
		})

		r.Route("/v1/orders", func(r chi.Router) {
			r.Post("/checkout", controllers.Checkout(p.Orders, logg))
			r.Get("/", controllers.ListMyOrders(p.Orders, logg))
			r.Get("/{orderID}", controllers.GetOrder(p.Orders, logg))
			r.Post("/{orderID}/cancel", controllers.CancelOrder(p.Orders, logg))
		})

		r.Post("/v1/menu/{itemID}/reviews", controllers.CreateReview(p.Reviews, logg))

		r.Route("/v1/offers", func(r chi.Router) {
			r.Get("/", controllers.ListOffers(p.Offers, logg))
			r.Get("/validate", controllers.ValidateOffer(p.Offers, p.Cart, logg))
		})

		r.Route("/v1/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(p.Notifications, logg))
			r.Post("/{notificationID}/read", controllers.MarkNotificationRead(p.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(p.Notifications, logg))
		})
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.Sessions, logg))
		r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))
		r.Get("/ping", controllers.AdminPing())

		r.Route("/v1/menu", func(r chi.Router) {
			r.Post("/", controllers.CreateMenuItem(p.Menu, logg))
			r.Patch("/{itemID}", controllers.UpdateMenuItem(p.Menu, logg))
			r.Delete("/{itemID}", controllers.DeleteMenuItem(p.Menu, logg))
		})

		r.Route("/v1/orders", func(r chi.Router) {
			r.Get("/", controllers.ListAllOrders(p.Orders, logg))
			r.Post("/{orderID}/advance", controllers.AdvanceOrder(p.Orders, logg))
		})

		r.Route("/v1/offers", func(r chi.Router) {
			r.Post("/", controllers.CreateOffer(p.Offers, logg))
			r.Post("/{offerID}/deactivate", controllers.DeactivateOffer(p.Offers, logg))
			r.Post("/{offerID}/publish", controllers.PublishOffer(p.Offers, logg))
		})
	})

	return r
}
