package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/bobmcallan/nestegg/internal/clients/alphavantage"
	"github.com/bobmcallan/nestegg/internal/clients/finnhub"
	"github.com/bobmcallan/nestegg/internal/clients/rss"
	"github.com/bobmcallan/nestegg/internal/clients/yahoo"
	"github.com/bobmcallan/nestegg/internal/common"
	"github.com/bobmcallan/nestegg/internal/interfaces"
	"github.com/bobmcallan/nestegg/internal/models"
	"github.com/bobmcallan/nestegg/internal/services/market"
	"github.com/bobmcallan/nestegg/internal/services/news"
	"github.com/bobmcallan/nestegg/internal/services/wizard"
	"github.com/bobmcallan/nestegg/internal/storage/session"
)

// App holds all initialized clients and services.
type App struct {
	Config        *common.Config
	Logger        *common.Logger
	Sessions      interfaces.SessionStore
	MarketService interfaces.MarketService
	NewsService   interfaces.NewsService
	Wizard        *wizard.Controller
	StartupTime   time.Time

	sweeper *cron.Cron
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// resolveConfigPath checks the provided path, NESTEGG_CONFIG, the binary
// dir, then config/nestegg.toml.
func resolveConfigPath(configPath string) string {
	if configPath == "" {
		configPath = os.Getenv("NESTEGG_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(getBinaryDir(), "nestegg.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/nestegg.toml" // fallback for development
		}
	}
	return configPath
}

// NewApp loads configuration and initializes every client and service.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	// Load version from .version file (fallback if ldflags not set)
	common.LoadVersionFromFile()

	config, err := common.LoadConfig(resolveConfigPath(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	return NewAppWithConfig(config, logger)
}

// NewAppWithConfig wires the app from an already loaded config.
func NewAppWithConfig(config *common.Config, logger *common.Logger) (*App, error) {
	startupStart := time.Now()

	sessions, err := session.NewStore(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session store: %w", err)
	}

	cc := config.Clients
	if cc.AlphaVantage.APIKey == "" {
		logger.Warn().Msg("Alpha Vantage API key not configured - alpha source will report a configuration error")
	}
	if cc.Finnhub.APIKey == "" {
		logger.Warn().Msg("Finnhub API key not configured - finnhub source will report a configuration error")
	}

	// Clients are built even without a key: each reports its own
	// ConfigurationError when selected.
	yahooClient := yahoo.NewClient(
		yahoo.WithBaseURL(cc.Yahoo.BaseURL),
		yahoo.WithLogger(logger),
		yahoo.WithTimeout(cc.Yahoo.GetTimeout()),
	)
	alphaClient := alphavantage.NewClient(cc.AlphaVantage.APIKey,
		alphavantage.WithBaseURL(cc.AlphaVantage.BaseURL),
		alphavantage.WithLogger(logger),
		alphavantage.WithRateLimit(cc.AlphaVantage.RateLimit),
		alphavantage.WithTimeout(cc.AlphaVantage.GetTimeout()),
	)
	finnhubClient := finnhub.NewClient(cc.Finnhub.APIKey,
		finnhub.WithBaseURL(cc.Finnhub.BaseURL),
		finnhub.WithLogger(logger),
		finnhub.WithRateLimit(cc.Finnhub.RateLimit),
		finnhub.WithTimeout(cc.Finnhub.GetTimeout()),
	)
	rssClient := rss.NewClient(
		rss.WithLogger(logger),
		rss.WithTimeout(cc.RSS.GetTimeout()),
		rss.WithFeeds(config.News.Feeds),
	)

	marketService := market.NewService(map[models.PriceSource]interfaces.PriceProvider{
		models.PriceSourceYahoo:   yahooClient,
		models.PriceSourceAlpha:   alphaClient,
		models.PriceSourceFinnhub: finnhubClient,
	}, logger)

	newsService := news.NewService(map[models.NewsSource]interfaces.NewsProvider{
		models.NewsSourceRSS:     rssClient,
		models.NewsSourceAlpha:   alphaClient,
		models.NewsSourceFinnhub: finnhubClient,
	}, logger)

	a := &App{
		Config:        config,
		Logger:        logger,
		Sessions:      sessions,
		MarketService: marketService,
		NewsService:   newsService,
		Wizard:        wizard.NewController(marketService, newsService, logger),
		StartupTime:   startupStart,
	}

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")

	return a, nil
}

// Close releases all resources held by the App.
// Shutdown order: stop sweeper, close session store.
func (a *App) Close() {
	if a.sweeper != nil {
		<-a.sweeper.Stop().Done()
		a.sweeper = nil
	}
	if a.Sessions != nil {
		if err := a.Sessions.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close session store")
		}
		a.Sessions = nil
	}
}
