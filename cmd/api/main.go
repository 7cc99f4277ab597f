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

	"github.com/tu-usuario/pos-backoffice/internal/application/auth"
	"github.com/tu-usuario/pos-backoffice/internal/application/catalog"
	"github.com/tu-usuario/pos-backoffice/internal/application/ports"
	"github.com/tu-usuario/pos-backoffice/internal/application/returns"
	"github.com/tu-usuario/pos-backoffice/internal/application/sales"
	"github.com/tu-usuario/pos-backoffice/internal/application/stock"
	"github.com/tu-usuario/pos-backoffice/internal/application/transfer"
	infraaudit "github.com/tu-usuario/pos-backoffice/internal/infrastructure/audit"
	"github.com/tu-usuario/pos-backoffice/internal/infrastructure/notify"
	infrapdf "github.com/tu-usuario/pos-backoffice/internal/infrastructure/pdf"
	"github.com/tu-usuario/pos-backoffice/internal/infrastructure/postgres"
	httpRouter "github.com/tu-usuario/pos-backoffice/internal/interfaces/http"
	"github.com/tu-usuario/pos-backoffice/pkg/config"
	"github.com/tu-usuario/pos-backoffice/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Service: cfg.App.Name,
		Env:     cfg.App.Env,
		Level:   "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	companyRepo := postgres.NewCompanyRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	branchRepo := postgres.NewBranchRepository(pool)
	variantRepo := postgres.NewVariantRepository(pool)
	stockRepo := postgres.NewStockRepository(pool)
	adjustmentRepo := postgres.NewAdjustmentRepository(pool)
	transferRepo := postgres.NewTransferRepository(pool)
	transactionRepo := postgres.NewTransactionRepository(pool)
	returnRepo := postgres.NewReturnRepository(pool)
	auditRepo := postgres.NewAuditLogRepository(pool)
	uow := postgres.NewTxRunner(pool)

	// Notifier de stock en tiempo real: Redis si está configurado, noop si no.
	var notifier ports.Notifier = ports.NoopNotifier{}
	if cfg.Redis.Addr != "" {
		redisNotifier, err := notify.NewRedisNotifier(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer redisNotifier.Close()
		notifier = redisNotifier
	} else {
		log.Warn().Msg("REDIS_ADDR vacío: notificaciones de stock deshabilitadas")
	}

	auditTrail := infraaudit.NewAsyncRecorder(auditRepo, log, 256)
	defer auditTrail.Close()

	receiptGen := infrapdf.NewMarotoReceiptGenerator()

	authUC := auth.NewAuthUseCase(userRepo, companyRepo, branchRepo, cfg.JWT, log)
	catalogUC := catalog.NewCatalogUseCase(branchRepo, variantRepo)
	stockUC := stock.NewStockUseCase(uow, stockRepo, adjustmentRepo, branchRepo, variantRepo, notifier, auditTrail, log)
	transferUC := transfer.NewTransferUseCase(uow, transferRepo, branchRepo, variantRepo, stockRepo, notifier, auditTrail, log, cfg.Engine.AutoApproveRoles)
	salesUC := sales.NewSalesUseCase(uow, transactionRepo, branchRepo, variantRepo, companyRepo, receiptGen, notifier, auditTrail, log)
	returnUC := returns.NewReturnUseCase(uow, returnRepo, transactionRepo, variantRepo, notifier, auditTrail, log,
		cfg.Engine.AutoApproveRoles, cfg.Engine.ReturnDeadlineDays)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    cfg.App.Name,
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:     authUC,
		CatalogUC:  catalogUC,
		StockUC:    stockUC,
		TransferUC: transferUC,
		SalesUC:    salesUC,
		ReturnUC:   returnUC,
		JWTSecret:  cfg.JWT.Secret,
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
