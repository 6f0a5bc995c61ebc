package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"golang.org/x/text/language"

	"github.com/jhoicas/erp-ledger/docs"
	"github.com/jhoicas/erp-ledger/internal/application/rbac"
	"github.com/jhoicas/erp-ledger/internal/bootstrap"
	"github.com/jhoicas/erp-ledger/internal/infrastructure/cache"
	"github.com/jhoicas/erp-ledger/internal/infrastructure/jobs"
	infrapdf "github.com/jhoicas/erp-ledger/internal/infrastructure/pdf"
	httpRouter "github.com/jhoicas/erp-ledger/internal/interfaces/http"
	"github.com/jhoicas/erp-ledger/pkg/config"
	"github.com/jhoicas/erp-ledger/pkg/logger"
)

// @title                       ERP Ledger API
// @version                     1.0
// @description                 Kardex de existencias multiempresa y conciliación de facturas y pagos.
// @BasePath                    /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.App.StorageDriver).
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET es requerido")
	}

	ctx := context.Background()
	storage, err := bootstrap.OpenStorage(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("almacenamiento")
	}
	defer storage.Close()

	policy, err := rbac.LoadPolicy(cfg.RBAC.PolicyFile)
	if err != nil {
		log.Fatal().Err(err).Msg("política RBAC")
	}

	opts := bootstrap.Options{Renderer: infrapdf.NewStatementRenderer(language.Spanish)}

	// Redis: caché de niveles y cola de reconstrucciones. Sin REDIS_ADDR ambos se desactivan.
	if cfg.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Msg("redis no responde; la caché seguirá leyendo de la base de datos")
		}
		opts.Cache = cache.NewLevelCache(rdb, cfg.Redis.CacheTTL)

		// El worker lee de PostgreSQL; con almacenamiento en memoria no hay a quién encolar.
		if storage.Driver == "postgres" {
			queue := jobs.NewClient(asynq.RedisClientOpt{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			defer queue.Close()
			opts.Enqueuer = queue
		}
	}

	svc, err := bootstrap.NewServices(cfg, storage, opts)
	if err != nil {
		log.Fatal().Err(err).Msg("servicios")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(httpRouter.RequestLogger(*log.Component("http").Zerolog()))

	// Swagger UI: http://localhost:<port>/docs
	swaggerFile, err := docs.File(cfg.App.SwaggerFile)
	if err != nil {
		log.Warn().Err(err).Msg("swagger deshabilitado")
	} else {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "ERP Ledger API",
		}))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:      svc.Auth,
		CompanyUC:   svc.Companies,
		WarehouseUC: svc.Warehouses,
		ProductUC:   svc.Products,
		PartnerUC:   svc.Partners,
		Ledger:      svc.Ledger,
		Billing:     svc.Billing,
		Orders:      svc.Orders,
		Audit:       svc.Audit,
		Companies:   storage.Companies,
		Policy:      policy,
		DB:          storage.DB,
		JWTSecret:   cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
