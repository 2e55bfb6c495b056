package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/iwtcode/conveyorControl"
	httpapi "github.com/iwtcode/conveyorControl/internal/handlers/http"
	"github.com/iwtcode/conveyorControl/internal/handlers/telegram"
	"github.com/iwtcode/conveyorControl/internal/interfaces"
	"github.com/iwtcode/conveyorControl/internal/repository"
	"github.com/iwtcode/conveyorControl/internal/repository/memory"
	"github.com/iwtcode/conveyorControl/internal/repository/sqlite"
	"github.com/iwtcode/conveyorControl/internal/services"
	"github.com/iwtcode/conveyorControl/internal/usecases"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func New() *fx.App {
	return fx.New(
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
		fx.Provide(
			// Config
			conveyorControl.LoadConfig,
			NewLogger,

			// Repository
			NewStores,

			// Usecases
			usecases.NewCommandLog,
			usecases.NewConveyorStateMachine,
			usecases.NewStockAggregator,
			usecases.NewControlUsecase,

			// Services
			services.NewProductionConsumer,

			// HTTP Handlers
			httpapi.NewHandler,
			httpapi.NewServer,

			// Telegram Handlers
			telegram.NewMenu,
			telegram.NewCommandHandler,
			telegram.NewCallbackHandler,
			telegram.NewRouter,
			telegram.NewBot,
		),
		fx.Invoke(
			restoreState,
			startHTTP,
			startConsumer,
			startBot,
		),
	)
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func NewLogger(cfg *conveyorControl.Config) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.LogFormat == "console" {
		zcfg = zap.NewDevelopmentConfig()
	}
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
	}
	zcfg.Level = level
	return zcfg.Build()
}

// NewStores opens the backend selected by STORE_DRIVER.
func NewStores(lc fx.Lifecycle, cfg *conveyorControl.Config, log *zap.Logger) (interfaces.CommandLogRepository, interfaces.StockRepository, error) {
	log = log.Named("store")

	switch cfg.StoreDriver {
	case conveyorControl.StoreDriverPostgres:
		db, err := repository.NewPostgresRepository(cfg, log)
		if err != nil {
			return nil, nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return sqlDB.Close()
			},
		})
		log.Info("using postgres store", zap.String("host", cfg.DBHost), zap.String("db", cfg.DBName))
		return repository.NewCommandLogRepository(db), repository.NewStockRepository(db), nil

	case conveyorControl.StoreDriverSQLite:
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error { return store.Close() },
		})
		log.Info("using sqlite store", zap.String("path", cfg.SQLitePath))
		return store, store, nil

	case conveyorControl.StoreDriverMemory:
		log.Warn("using in-memory store, state is lost on restart")
		return memory.NewCommandLogStore(), memory.NewStockStore(), nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

func restoreState(lifecycle fx.Lifecycle, conveyor interfaces.ConveyorStateMachine, stock interfaces.StockAggregator, log *zap.Logger) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := conveyor.Restore(ctx); err != nil {
				return fmt.Errorf("restore conveyor state: %w", err)
			}
			if err := stock.Load(ctx); err != nil {
				return fmt.Errorf("load stock summary: %w", err)
			}
			log.Info("state restored", zap.String("state", conveyor.State().String()))
			return nil
		},
	})
}

func startHTTP(lifecycle fx.Lifecycle, cfg *conveyorControl.Config, srv *http.Server, log *zap.Logger) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", srv.Addr, err)
			}
			go func() {
				log.Info("http server listening", zap.String("addr", ln.Addr().String()))
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	})
}

func startConsumer(lifecycle fx.Lifecycle, consumer interfaces.ProductionConsumer, log *zap.Logger) {
	if consumer == nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				if err := consumer.Run(ctx); err != nil {
					log.Error("production consumer stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
			}
			return consumer.Close()
		},
	})
}

func startBot(lifecycle fx.Lifecycle, bot *telegram.Bot) {
	if bot == nil {
		return
	}
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go bot.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			bot.Stop()
			return nil
		},
	})
}
