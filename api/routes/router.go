package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/baseemali/neushop-backend/api/controllers"
	"github.com/baseemali/neushop-backend/api/middleware"
	addresssvc "github.com/baseemali/neushop-backend/internal/address"
	cartsvc "github.com/baseemali/neushop-backend/internal/cart"
	checkoutsvc "github.com/baseemali/neushop-backend/internal/checkout"
	pmsvc "github.com/baseemali/neushop-backend/internal/paymentmethods"
	productsvc "github.com/baseemali/neushop-backend/internal/products"
	shippingsvc "github.com/baseemali/neushop-backend/internal/shipping"
	"github.com/baseemali/neushop-backend/pkg/config"
	"github.com/baseemali/neushop-backend/pkg/logger"
	"github.com/baseemali/neushop-backend/pkg/metrics"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             controllers.Pinger
	Cache          controllers.Pinger
	Metrics        *metrics.HTTPMetrics
	Registry       *prometheus.Registry
	Products       productsvc.Service
	Cart           cartsvc.Service
	Checkout       checkoutsvc.Service
	Addresses      addresssvc.Service
	PaymentMethods pmsvc.Service
	Shipping       shippingsvc.Service
}

// NewRouter assembles the storefront HTTP surface.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	logg := deps.Logger

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.Metrics),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(deps.Config))
		r.Get("/ready", controllers.HealthReady(deps.Config, deps.DB, deps.Cache, logg))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(deps.Products, logg))
			r.Get("/{productID}", controllers.ProductFetch(deps.Products, logg))
		})

		r.Get("/shipping/options", controllers.ShippingOptions(deps.Shipping, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireCustomer(logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(deps.Cart, logg))
				r.Delete("/", controllers.CartClear(deps.Cart, logg, deps.Metrics))
				r.Post("/items", controllers.CartAddItem(deps.Cart, logg, deps.Metrics))
				r.Patch("/items/{productID}", controllers.CartUpdateItem(deps.Cart, logg, deps.Metrics))
				r.Delete("/items/{productID}", controllers.CartRemoveItem(deps.Cart, logg, deps.Metrics))
				r.Post("/coupon", controllers.CartApplyCoupon(deps.Cart, logg, deps.Metrics))
				r.Delete("/coupon", controllers.CartRemoveCoupon(deps.Cart, logg, deps.Metrics))
				r.Put("/shipping", controllers.CartUpdateShipping(deps.Cart, logg, deps.Metrics))
			})

			r.Post("/checkout", controllers.CheckoutSubmit(deps.Checkout, logg))

			r.Route("/addresses", func(r chi.Router) {
				r.Get("/", controllers.AddressList(deps.Addresses, logg))
				r.Post("/", controllers.AddressCreate(deps.Addresses, logg))
				r.Put("/{addressID}", controllers.AddressUpdate(deps.Addresses, logg))
				r.Delete("/{addressID}", controllers.AddressDelete(deps.Addresses, logg))
				r.Post("/{addressID}/default", controllers.AddressSetDefault(deps.Addresses, logg))
			})

			r.Route("/payment-methods", func(r chi.Router) {
				r.Get("/", controllers.PaymentMethodList(deps.PaymentMethods, logg))
				r.Post("/", controllers.PaymentMethodStore(deps.PaymentMethods, logg))
				r.Delete("/{methodID}", controllers.PaymentMethodDelete(deps.PaymentMethods, logg))
				r.Post("/{methodID}/default", controllers.PaymentMethodSetDefault(deps.PaymentMethods, logg))
			})
		})
	})

	return r
}
