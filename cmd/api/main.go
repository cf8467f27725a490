package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	appanalytics "github.com/jhoicas/inventorypro-ledger/internal/application/analytics"
	"github.com/jhoicas/inventorypro-ledger/internal/application/auth"
	"github.com/jhoicas/inventorypro-ledger/internal/application/billing"
	"github.com/jhoicas/inventorypro-ledger/internal/application/inventory"
	"github.com/jhoicas/inventorypro-ledger/internal/application/usecase"
	"github.com/jhoicas/inventorypro-ledger/internal/domain/repository"
	"github.com/jhoicas/inventorypro-ledger/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/inventorypro-ledger/internal/infrastructure/pdf"
	"github.com/jhoicas/inventorypro-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/inventorypro-ledger/internal/infrastructure/seed"
	httpRouter "github.com/jhoicas/inventorypro-ledger/internal/interfaces/http"
	"github.com/jhoicas/inventorypro-ledger/pkg/config"
	"github.com/jhoicas/inventorypro-ledger/pkg/logger"
)

// txRunner lo implementan los dos adaptadores de almacenamiento.
type txRunner interface {
	inventory.TxRunner
	billing.BillingTxRunner
}

type stores struct {
	batches  repository.BatchRepository
	products repository.ProductRepository
	branches repository.BranchRepository
	users    repository.UserRepository
	invoices repository.InvoiceRepository
	tx       txRunner
	close    func()
}

// openStores abre el almacén según STORE_DRIVER.
func openStores(ctx context.Context, cfg *config.Config, log *logger.Logger) (*stores, error) {
	if cfg.Store.Driver == config.StorePostgres {
		if cfg.DB.Migrate {
			if err := postgres.Migrate(cfg.DB.ConnectionString(), log.Component("migrate")); err != nil {
				return nil, err
			}
		}
		pool, err := postgres.NewPool(ctx, cfg.DB, log.Component("postgres"))
		if err != nil {
			return nil, err
		}
		return &stores{
			batches:  postgres.NewBatchRepository(pool),
			products: postgres.NewProductRepository(pool),
			branches: postgres.NewBranchRepository(pool),
			users:    postgres.NewUserRepository(pool),
			invoices: postgres.NewInvoiceRepository(pool),
			tx:       postgres.NewTxRunner(pool, cfg.Ledger.LockTimeout),
			close:    pool.Close,
		}, nil
	}

	store := memory.NewStore(cfg.Ledger.LockTimeout)
	return &stores{
		batches:  memory.NewBatchRepository(store),
		products: memory.NewProductRepository(store),
		branches: memory.NewBranchRepository(store),
		users:    memory.NewUserRepository(store),
		invoices: memory.NewInvoiceRepository(store),
		tx:       memory.NewTxRunner(store),
		close:    func() {},
	}, nil
}

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
		Str("store", cfg.Store.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("abrir almacenamiento")
	}
	defer st.close()

	if cfg.Seed.DemoData {
		if err := seed.Demo(ctx, seed.Repos{
			Branches: st.branches, Products: st.products, Batches: st.batches, Users: st.users,
		}, cfg.Seed.Password, log.Component("seed")); err != nil {
			log.Fatal().Err(err).Msg("datos de demostración")
		}
	}

	lastNumber, err := st.invoices.LastNumber(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("último número de factura")
	}

	ledgerLog := log.Component("ledger")
	ledger := inventory.NewLedger(st.tx, st.batches, st.products, st.branches, ledgerLog)
	transfers := inventory.NewTransferProcessor(
		st.tx, ledger, st.batches, st.products, st.branches,
		cfg.Ledger.TransferDraftTTL, log.Component("transfers"),
	)
	createSaleUC := billing.NewCreateSaleUseCase(
		st.tx, ledger, st.batches, st.products, st.branches,
		billing.NewNumberGenerator(lastNumber), log.Component("sales"),
	)

	// PDF: representación imprimible de la factura
	pdfGenerator := infrapdf.NewMarotoPDFGenerator("NGN ")
	invoicePDFUC := billing.NewPDFUseCase(st.invoices, st.branches, pdfGenerator)

	authUC := auth.NewAuthUseCase(st.users, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	}, log.Component("auth"))

	app := httpRouter.NewApp(cfg.App.Name, log.Component("http"))
	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:      authUC,
		BranchUC:    usecase.NewBranchUseCase(st.branches, log.Component("branches")),
		ProductUC:   usecase.NewProductUseCase(st.tx, ledger, st.products, st.branches, log.Component("products")),
		UserUC:      usecase.NewUserUseCase(st.users),
		Ledger:      ledger,
		Transfers:   transfers,
		CreateSale:  createSaleUC,
		Invoices:    billing.NewInvoiceQueryUseCase(st.invoices),
		InvoicePDF:  invoicePDFUC,
		DashboardUC: appanalytics.NewDashboardUseCase(st.branches, st.batches),
		BatchProfit: appanalytics.NewBatchProfitUseCase(st.batches, st.products, st.invoices),
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
