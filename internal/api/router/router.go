package router

import (
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	"varstock/internal/api/attribute"
	"varstock/internal/api/order"
	"varstock/internal/api/product"
	"varstock/internal/api/user"
	"varstock/internal/api/variant"
	"varstock/internal/domain"
	"varstock/internal/pkg/cache"
	"varstock/internal/pkg/middleware"
)

// Config agrupa as dependências e os parâmetros do roteador.
type Config struct {
	ProductHandler   *product.Handler
	VariantHandler   *variant.Handler
	OrderHandler     *order.Handler
	UserHandler      *user.Handler
	AttributeHandler *attribute.Handler
	TokenSvc         middleware.TokenService
	CacheClient      cache.Client
	RateLimitMax     int
	RateLimitPeriod  time.Duration
}

// NewRouter configura e retorna o roteador HTTP principal.
// Recebe os Handlers já inicializados por injeção de dependências.
func NewRouter(cfg Config) http.Handler {

	// Usamos o ServeMux padrão do net/http para roteamento.
	// Em projetos maiores, pode-se usar um mux de terceiros (e.g., chi),
	// mas os patterns com método e path value do ServeMux são suficientes aqui.
	mux := http.NewServeMux()

	auth := middleware.NewAuthMiddleware(cfg.TokenSvc)
	adminOnly := middleware.PermissionMiddleware(domain.RoleAdmin)

	// --- 1. Rotas públicas ---
	mux.HandleFunc("GET /ping", PingHandler)
	mux.Handle("/swagger/", httpSwagger.Handler())

	mux.HandleFunc("POST /v1/users/register", cfg.UserHandler.RegisterHandler)
	mux.HandleFunc("POST /v1/users/login", cfg.UserHandler.LoginHandler)

	// --- 2. Catálogo (leitura autenticada) ---
	mux.HandleFunc("GET /v1/attributes", auth(cfg.AttributeHandler.ListTypesHandler))
	mux.HandleFunc("GET /v1/products", auth(cfg.ProductHandler.ListProductsHandler))
	mux.HandleFunc("GET /v1/products/{id}", auth(cfg.ProductHandler.GetProductByIDHandler))
	mux.HandleFunc("GET /v1/products/{productId}/attributes", auth(cfg.AttributeHandler.ListTypesByProductHandler))
	mux.HandleFunc("GET /v1/products/{productId}/variants", auth(cfg.VariantHandler.ListByProductHandler))
	mux.HandleFunc("GET /v1/variants/{id}", auth(cfg.VariantHandler.GetVariantHandler))

	// --- 3. Escritas de back office (somente admin) ---
	mux.HandleFunc("POST /v1/products", auth(adminOnly(cfg.ProductHandler.CreateProductHandler)))
	mux.HandleFunc("POST /v1/products/{productId}/variants/matrix", auth(adminOnly(cfg.VariantHandler.GenerateMatrixHandler)))
	mux.HandleFunc("PATCH /v1/variants/{id}", auth(adminOnly(cfg.VariantHandler.UpdateAttributesHandler)))
	mux.HandleFunc("PUT /v1/variants/{id}/stock", auth(adminOnly(cfg.VariantHandler.SetStockHandler)))
	mux.HandleFunc("POST /v1/variants/{id}/stock/adjust", auth(adminOnly(cfg.VariantHandler.AdjustStockHandler)))
	mux.HandleFunc("DELETE /v1/variants/{id}", auth(adminOnly(cfg.VariantHandler.DeleteVariantHandler)))

	// --- 4. Pedidos (autenticado) ---
	mux.HandleFunc("POST /v1/orders", auth(cfg.OrderHandler.PlaceOrderHandler))
	mux.HandleFunc("GET /v1/orders", auth(cfg.OrderHandler.ListOrdersHandler))
	mux.HandleFunc("GET /v1/orders/{id}", auth(cfg.OrderHandler.GetOrderHandler))
	mux.HandleFunc("POST /v1/orders/{id}/cancel", auth(cfg.OrderHandler.CancelOrderHandler))

	// --- 5. Middlewares globais ---
	rateLimited := middleware.RateLimiter(cfg.CacheClient, cfg.RateLimitMax, cfg.RateLimitPeriod)(mux)

	return rateLimited
}

// PingHandler é uma função utilitária para o health check.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}
