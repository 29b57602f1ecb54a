package http

import (
	"net/http"
	"time"

	"github.com/28Syed/Greencart-ecommerce/internal/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// Handlers groups everything the router serves. Ledger is optional.
type Handlers struct {
	Catalog    *CatalogHandler
	Cart       *CartHandler
	Orders     *OrderHandler
	Engagement *EngagementHandler
	Chat       *ChatHandler
	Ledger     *LedgerHandler
}

func NewRouter(hs Handlers, authn auth.Authenticator, requestTimeout time.Duration, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		// Public
		r.Get("/product/list", hs.Catalog.ListProducts)
		r.Get("/product/{id}", hs.Catalog.GetProduct)
		r.Get("/reviews/{productId}", hs.Engagement.ListReviews)

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(authn))

			r.Get("/cart", hs.Cart.GetCart)
			r.Post("/cart/update", hs.Cart.UpdateCart)

			r.Post("/address/add", hs.Catalog.AddAddress)
			r.Get("/address/get", hs.Catalog.ListAddresses)
			r.Put("/address/update/{id}", hs.Catalog.UpdateAddress)
			r.Delete("/address/delete/{id}", hs.Catalog.DeleteAddress)

			r.Post("/order/cod", hs.Orders.PlaceCOD)
			r.Get("/order/user", hs.Orders.ListUserOrders)
			r.Post("/razorpay/order", hs.Orders.CreateOnlineOrder)
			r.Post("/razorpay/verify", hs.Orders.VerifyPayment)

			r.Get("/wishlist", hs.Engagement.GetWishlist)
			r.Post("/wishlist/add/{productId}", hs.Engagement.AddToWishlist)
			r.Delete("/wishlist/remove/{productId}", hs.Engagement.RemoveFromWishlist)
			r.Post("/reviews/add/{productId}", hs.Engagement.AddReview)

			r.Route("/chat", func(r chi.Router) {
				r.Post("/session", hs.Chat.StartSession)
				r.Post("/message", hs.Chat.SendMessage)
				r.Get("/history/{sessionId}", hs.Chat.History)
				r.Post("/end", hs.Chat.EndSession)
			})

			r.Group(func(r chi.Router) {
				r.Use(RequireSeller)
				r.Post("/product/add", hs.Catalog.AddProduct)
				r.Get("/order/seller", hs.Orders.ListAllOrders)
				if hs.Ledger != nil {
					r.Get("/seller/ledger", hs.Ledger.List)
				}
			})
		})
	})

	return otelhttp.NewHandler(r, "storefront")
}
