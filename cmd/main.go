package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	// Pacotes de infraestrutura e utilitários
	"varstock/config"
	"varstock/internal/pkg/cache"
	"varstock/internal/pkg/database"
	"varstock/internal/pkg/logger"
	"varstock/internal/pkg/token"

	// Camadas por módulo para Injeção de Dependências
	"varstock/internal/api/attribute"
	"varstock/internal/api/order"
	"varstock/internal/api/product"
	"varstock/internal/api/router"
	"varstock/internal/api/user"
	"varstock/internal/api/variant"
	"varstock/internal/repository/attributerepo"
	"varstock/internal/repository/orderrepo"
	"varstock/internal/repository/productrepo"
	"varstock/internal/repository/userrepo"
	"varstock/internal/repository/variantrepo"
	"varstock/internal/service/orderservice"
	"varstock/internal/service/productservice"
	"varstock/internal/service/userservice"
	"varstock/internal/service/variantservice"
)

func main() {
	log.Println("⚡ Inicializando serviço VarStock...")

	// 0. CARREGAR VARIÁVEIS DE AMBIENTE (.env)
	// Se o arquivo .env não for encontrado, avisamos, mas continuamos, pois
	// as variáveis essenciais podem estar no ambiente do sistema (ex: Docker).
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ Aviso: Arquivo .env não encontrado ou erro de leitura. Carregando configs apenas do ambiente do sistema.")
	}

	cfg := config.LoadConfig()
	logg := logger.NewLogger(cfg.LogLevel)
	logg.Info("Configurações carregadas.", nil)

	// 1. Conexão com Recursos de Infraestrutura

	// A. Banco de Dados (PostgreSQL)
	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		logg.Fatal("Falha ao conectar ao banco de dados.", err)
	}
	defer db.Close()
	logg.Info("Conexão PostgreSQL estabelecida.", nil)

	// B. Cache (Redis)
	cacheClient := cache.NewRedisClient(cfg.RedisAddr)
	logg.Info("Conexão Redis estabelecida.", nil)

	// C. Serviço de Tokens (JWT)
	tokenSvc := token.NewService(cfg.JWTSecretKey, cfg.TokenExpiry)

	// 2. INJEÇÃO DE DEPENDÊNCIAS
	// Ordem: Repository -> Service -> Handler

	// A. Repositórios (Camada de Acesso a Dados)
	productRepo := productrepo.NewProductRepository(db, cacheClient, cfg.DBTimeout, cfg.ProductCacheTTL, logg)
	attributeRepo := attributerepo.NewAttributeRepository(db, cfg.DBTimeout, logg)
	variantRepo := variantrepo.NewVariantRepository(db, cfg.DBTimeout, logg)
	orderRepo := orderrepo.NewOrderRepository(db, cfg.DBTimeout, logg)
	userRepo := userrepo.NewUserRepository(db, cfg.DBTimeout, logg)
	logg.Debug("Repositórios inicializados.", nil)

	// B. Serviços (Camada de Lógica de Negócio)
	productSvc := productservice.NewService(productRepo, logg)
	variantSvc := variantservice.NewService(variantRepo, productRepo, attributeRepo, cfg.StockMaxRetries, logg)
	orderSvc := orderservice.NewService(orderRepo, variantSvc, productRepo, logg)
	userSvc := userservice.NewService(userRepo, tokenSvc)
	logg.Debug("Serviços inicializados.", nil)

	// C. Handlers (Camada de Apresentação)
	productHandler := product.NewHandler(productSvc, logg)
	variantHandler := variant.NewHandler(variantSvc, orderSvc, logg)
	orderHandler := order.NewHandler(orderSvc, logg)
	userHandler := user.NewHandler(userSvc, logg)
	attributeHandler := attribute.NewHandler(attributeRepo, logg)
	logg.Debug("Handlers inicializados.", nil)

	// 3. Configuração e Início do Roteador/Servidor
	r := router.NewRouter(router.Config{
		ProductHandler:   productHandler,
		VariantHandler:   variantHandler,
		OrderHandler:     orderHandler,
		UserHandler:      userHandler,
		AttributeHandler: attributeHandler,
		TokenSvc:         tokenSvc,
		CacheClient:      cacheClient,
		RateLimitMax:     cfg.RateLimitMaxRequests,
		RateLimitPeriod:  cfg.RateLimitPeriod,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 4. Execução e Graceful Shutdown
	go func() {
		logg.Info("Servidor VarStock ouvindo na porta", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logg.Fatal("Servidor falhou.", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logg.Info("Sinal de encerramento recebido. Desligando servidor...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logg.Error("Desligamento do servidor forçado.", err)
	}

	logg.Info("Servidor encerrado com sucesso.", nil)
}
