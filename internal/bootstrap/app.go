package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cloud.google.com/go/datastore"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/olivere/elastic/v7"

	"github.com/locvowork/sheetexport/internal/config"
	"github.com/locvowork/sheetexport/internal/handler"
	"github.com/locvowork/sheetexport/internal/logger"
	"github.com/locvowork/sheetexport/internal/service"
	"github.com/locvowork/sheetexport/internal/source/datastoresource"
	"github.com/locvowork/sheetexport/internal/source/searchsource"
	"github.com/locvowork/sheetexport/internal/source/sqlsource"
	"github.com/locvowork/sheetexport/pkg/reportlayout"
)

type App struct {
	Echo      *echo.Echo
	DB        *sql.DB
	Search    *elastic.Client
	Datastore *datastore.Client
	Templates *reportlayout.Template
	Exports   service.ExportService

	// ReportsFile overrides REPORTS_FILE when set.
	ReportsFile string
}

func NewApp() *App {
	return &App{
		Echo: echo.New(),
	}
}

// Initialize loads the configuration, connects the configured backends and
// builds the export service. Backends without configuration stay nil and
// reports using them fail with service.ErrSourceUnavailable.
func (a *App) Initialize(ctx context.Context) error {
	// Load environment configuration
	if err := config.LoadEnvConfig(); err != nil {
		return fmt.Errorf("failed to load env config: %w", err)
	}
	cfg := config.DefaultEnvConfig

	// Initialize logging
	logger.InitLogging(cfg.LOG_FILE_PATH)
	logger.SetLevel(cfg.LOG_LEVEL)
	logger.InfoLog(ctx, "Environment variables loaded successfully")

	reportsFile := cfg.REPORTS_FILE
	if a.ReportsFile != "" {
		reportsFile = a.ReportsFile
	}
	tmpl, err := reportlayout.Load(reportsFile)
	if err != nil {
		return fmt.Errorf("failed to load reports: %w", err)
	}
	a.Templates = tmpl
	logger.InfoLog(ctx, "Loaded %d reports from %s", len(tmpl.Reports), reportsFile)

	if cfg.DB_NAME != "" {
		db, err := sqlsource.Open(ctx, sqlsource.Config{
			Host:            cfg.DB_HOST,
			Port:            cfg.DB_PORT,
			User:            cfg.DB_USER,
			Password:        cfg.DB_PASSWORD,
			DBName:          cfg.DB_NAME,
			SSLMode:         cfg.DB_SSL_MODE,
			MaxOpenConns:    cfg.DB_MAX_OPEN_CONNS,
			MaxIdleConns:    cfg.DB_MAX_IDLE_CONNS,
			ConnMaxLifetime: cfg.DB_CONN_MAX_LIFETIME,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		a.DB = db
	}

	if cfg.ES_URL != "" {
		client, err := searchsource.NewClient(cfg.ES_URL, cfg.ES_SNIFF)
		if err != nil {
			return fmt.Errorf("failed to initialize search client: %w", err)
		}
		a.Search = client
	}

	if cfg.GCP_PROJECT_ID != "" {
		client, err := datastoresource.NewClient(ctx, cfg.GCP_PROJECT_ID)
		if err != nil {
			// reports on other backends still work
			logger.ErrorLog(ctx, "failed to initialize GCP client: %v", err)
		} else {
			a.Datastore = client
		}
	}

	a.Exports = service.NewExportService(tmpl, service.Backends{
		DB:        a.DB,
		Search:    a.Search,
		Datastore: a.Datastore,
	}, service.Options{
		RowWindow:        cfg.EXPORT_ROW_WINDOW,
		ProgressInterval: cfg.EXPORT_PROGRESS_INTERVAL,
	})
	return nil
}

func (a *App) RegisterMiddlewares() {
	a.Echo.Use(middleware.Logger())
	a.Echo.Use(middleware.Recover())
	a.Echo.Use(middleware.CORS())
}

func (a *App) RegisterRoutes(exportHandler *handler.ExportHandler) {
	a.Echo.GET("/reports", exportHandler.ListReportsHandler)
	a.Echo.GET("/export/:report", exportHandler.ExportHandler)
}

// Run serves HTTP until the server stops.
func (a *App) Run() error {
	a.RegisterMiddlewares()
	a.RegisterRoutes(handler.NewExportHandler(a.Exports))
	return a.Echo.Start(":" + config.DefaultEnvConfig.APP_PORT)
}

// Close releases the backend connections.
func (a *App) Close() error {
	var errs []error
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	if a.Search != nil {
		a.Search.Stop()
	}
	if a.Datastore != nil {
		errs = append(errs, a.Datastore.Close())
	}
	return errors.Join(errs...)
}
