package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clubswap/clubswap-backend/api/controllers"
	webhookcontrollers "github.com/clubswap/clubswap-backend/api/controllers/webhooks"
	"github.com/clubswap/clubswap-backend/api/middleware"
	"github.com/clubswap/clubswap-backend/internal/auth"
	checkoutsvc "github.com/clubswap/clubswap-backend/internal/checkout"
	"github.com/clubswap/clubswap-backend/internal/discounts"
	"github.com/clubswap/clubswap-backend/internal/messaging"
	"github.com/clubswap/clubswap-backend/internal/orders"
	"github.com/clubswap/clubswap-backend/internal/payments/connect"
	"github.com/clubswap/clubswap-backend/internal/payments/paypalorders"
	"github.com/clubswap/clubswap-backend/internal/payments/stripecheckout"
	"github.com/clubswap/clubswap-backend/internal/payouts"
	"github.com/clubswap/clubswap-backend/internal/products"
	"github.com/clubswap/clubswap-backend/internal/pros"
	"github.com/clubswap/clubswap-backend/internal/reviews"
	"github.com/clubswap/clubswap-backend/internal/shipping"
	"github.com/clubswap/clubswap-backend/internal/wanted"
	stripewebhook "github.com/clubswap/clubswap-backend/internal/webhooks/stripe"
	"github.com/clubswap/clubswap-backend/pkg/auth/session"
	"github.com/clubswap/clubswap-backend/pkg/config"
	"github.com/clubswap/clubswap-backend/pkg/db"
	"github.com/clubswap/clubswap-backend/pkg/enums"
	"github.com/clubswap/clubswap-backend/pkg/logger"
	"github.com/clubswap/clubswap-backend/pkg/redis"
	"github.com/clubswap/clubswap-backend/pkg/stripe"
)

// RouterParams carries every service the HTTP surface depends on.
type RouterParams struct {
	Config *config.Config
	Logger *logger.Logger

	DBPinger    db.Pinger
	RedisClient *redis.Client

	SessionChecker session.AccessSessionChecker

	AuthService     auth.Service
	RegisterService auth.RegisterService

	ProductService  products.Service
	CheckoutService checkoutsvc.Service
	StripeCheckout  stripecheckout.Service
	PayPalOrders    paypalorders.Service
	OrdersService   orders.Service
	Settlement      *orders.Settlement
	ShippingQuoter  shipping.Quoter

	MessagingService messaging.Service
	ReviewService    reviews.Service
	WantedService    wanted.Service
	ProsService      pros.Service
	DiscountService  discounts.Service

	ConnectService connect.Service
	PayoutService  payouts.Service

	StripeClient       *stripe.Client
	StripeWebhookSvc   *stripewebhook.Service
	StripeWebhookGuard *stripewebhook.IdempotencyGuard
}

// NewRouter assembles the full marketplace HTTP surface.
func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy("login", time.Minute, 20, 5)
	registerPolicy := middleware.NewAuthRateLimitPolicy("register", time.Minute, 10, 3)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, params.DBPinger, params.RedisClient))
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(params.StripeWebhookSvc, params.StripeClient, params.StripeWebhookGuard, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, params.RedisClient, logg)).Post("/login", controllers.AuthLogin(params.AuthService, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, params.RedisClient, logg)).Post("/register", controllers.AuthRegister(params.RegisterService, logg))
		r.Post("/refresh", controllers.AuthRefresh(params.AuthService, logg))
		r.Post("/logout", controllers.AuthLogout(params.AuthService, logg))
	})

	// Public browse surface.
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ProductList(params.ProductService, logg))
		r.Get("/{productId}", controllers.ProductGet(params.ProductService, logg))
	})
	r.Get("/api/v1/wanted", controllers.WantedList(params.WantedService, logg))
	r.Get("/api/v1/sellers/{sellerId}/reviews", controllers.SellerReviews(params.ReviewService, logg))

	// Authenticated surface.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, params.SessionChecker, logg))
		r.Use(middleware.Idempotency(params.RedisClient, logg))

		r.Post("/products", controllers.ProductCreate(params.ProductService, logg))
		r.Patch("/products/{productId}", controllers.ProductUpdate(params.ProductService, logg))
		r.Delete("/products/{productId}", controllers.ProductRemove(params.ProductService, logg))
		r.Get("/my/products", controllers.MyListings(params.ProductService, logg))

		r.Post("/shipping/quote", controllers.ShippingQuote(params.ShippingQuoter, logg))

		r.Post("/checkout", controllers.Checkout(params.CheckoutService, params.StripeCheckout, params.OrdersService, logg))
		r.Post("/checkout/cart", controllers.CartCheckout(params.CheckoutService, params.StripeCheckout, params.OrdersService, logg))
		r.Route("/orders/paypal", func(r chi.Router) {
			r.Post("/", controllers.PayPalOrderCreate(params.CheckoutService, params.PayPalOrders, params.OrdersService, logg))
			r.Post("/capture", controllers.PayPalOrderCapture(params.PayPalOrders, params.Settlement, logg))
		})

		r.Get("/orders/purchases", controllers.OrderPurchases(params.OrdersService, logg))
		r.Get("/orders/sales", controllers.OrderSales(params.OrdersService, logg))

		r.Route("/messages", func(r chi.Router) {
			r.Post("/", controllers.MessageSend(params.MessagingService, logg))
			r.Get("/", controllers.MessageInbox(params.MessagingService, logg))
			r.Get("/{userId}", controllers.MessageConversation(params.MessagingService, logg))
			r.Post("/{messageId}/read", controllers.MessageMarkRead(params.MessagingService, logg))
		})

		r.Post("/reviews", controllers.ReviewCreate(params.ReviewService, logg))

		r.Route("/wanted", func(r chi.Router) {
			r.Post("/", controllers.WantedCreate(params.WantedService, logg))
			r.Post("/{listingId}/fulfill", controllers.WantedFulfill(params.WantedService, logg))
			r.Post("/{listingId}/close", controllers.WantedClose(params.WantedService, logg))
		})

		r.With(middleware.RequireTier(logg, enums.SellerTierPGAPro, enums.SellerTierBusiness)).
			Get("/pros/dashboard", controllers.ProDashboard(params.ProsService, logg))

		r.Route("/discounts", func(r chi.Router) {
			r.Post("/student/verify", controllers.StudentVerify(params.DiscountService, logg))
			r.Post("/pga/verify", controllers.PGAVerify(params.DiscountService, logg))
		})

		r.Route("/connect", func(r chi.Router) {
			r.Post("/onboard", controllers.ConnectOnboard(params.ConnectService, logg))
			r.Post("/estimate", controllers.PayoutEstimate(params.ConnectService, logg))
		})
	})

	r.Route("/api/cron", func(r chi.Router) {
		r.Use(middleware.CronToken(cfg.Cron.Token, logg))
		r.Post("/payouts", controllers.CronRunPayouts(params.PayoutService, logg))
	})

	return r
}
