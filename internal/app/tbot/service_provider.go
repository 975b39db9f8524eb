// Package tbot provides dependency injection and service management for the bot components.
// It initializes and provides access to services, repositories, and clients required for bot operations.
package tbot

import (
	"fmt"
	"io"
	"sync"

	"github.com/DenisKhanov/DescGenBOT/internal/logcfg"
	"github.com/DenisKhanov/DescGenBOT/internal/tg_bot/api"
	statusHTTP "github.com/DenisKhanov/DescGenBOT/internal/tg_bot/api/http"
	"github.com/DenisKhanov/DescGenBOT/internal/tg_bot/config"
	"github.com/DenisKhanov/DescGenBOT/internal/tg_bot/infra/generative"
	"github.com/DenisKhanov/DescGenBOT/internal/tg_bot/repository"
	botServ "github.com/DenisKhanov/DescGenBOT/internal/tg_bot/service"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// rateStore is a rate repository that holds resources until closed.
type rateStore interface {
	botServ.RateRepository
	Close() error
}

// ServiceProvider manages the dependency injection for bot components.
type ServiceProvider struct {
	cfg *config.Config

	// Clients
	botAPI     *tgbotapi.BotAPI
	messenger  *api.TelegramMessenger
	twoGis     *api.TwoGisAPI
	generative botServ.GenerativeModel

	// Repositories
	sessions     *repository.SessionStore
	rateStore    rateStore
	postsFile    io.WriteCloser
	postJournal  *repository.PostJournal
	userContexts *repository.UserContextStore

	// Services
	rateLimiter *botServ.RateLimiter
	aggregator  *botServ.InfrastructureAggregator
	composer    *botServ.DescriptionComposer
	chats       *botServ.ChatTracker
	botService  *botServ.DescBotServices

	statusServer *statusHTTP.Server

	// Initialization errors, kept so repeated calls report the original cause
	botAPIErr     error
	generativeErr error
	rateStoreErr  error

	botAPIOnce     sync.Once
	twoGisOnce     sync.Once
	generativeOnce sync.Once
	sessionsOnce   sync.Once
	rateStoreOnce  sync.Once
	limiterOnce    sync.Once
	aggregatorOnce sync.Once
	composerOnce   sync.Once
	chatsOnce      sync.Once
	journalOnce    sync.Once
	contextsOnce   sync.Once
	botServiceOnce sync.Once
	statusOnce     sync.Once
}

// NewServiceProvider creates a new instance of the service provider.
func NewServiceProvider(cfg *config.Config) *ServiceProvider {
	return &ServiceProvider{cfg: cfg}
}

// BotAPI returns the Telegram Bot API instance.
func (s *ServiceProvider) BotAPI() (*tgbotapi.BotAPI, error) {
	s.botAPIOnce.Do(func() {
		botAPI, err := tgbotapi.NewBotAPI(s.cfg.EnvBotToken)
		if err != nil {
			logrus.Errorf("Failed to initialize BotAPI: %v", err)
			s.botAPIErr = err
			return
		}
		botAPI.Debug = s.cfg.EnvBotDebug
		s.botAPI = botAPI
		s.messenger = api.NewTelegramMessenger(botAPI)
		logrus.Info("BotApi initialized")
	})
	if s.botAPI == nil {
		return nil, fmt.Errorf("bot API not initialized: %w", s.botAPIErr)
	}
	return s.botAPI, nil
}

// Messenger returns the Telegram transport.
func (s *ServiceProvider) Messenger() (*api.TelegramMessenger, error) {
	if _, err := s.BotAPI(); err != nil {
		return nil, err
	}
	return s.messenger, nil
}

// TwoGisAPI returns the 2GIS client.
func (s *ServiceProvider) TwoGisAPI() *api.TwoGisAPI {
	s.twoGisOnce.Do(func() {
		s.twoGis = api.NewTwoGisAPI(s.cfg.EnvTwoGisApiKey, s.cfg.EnvTwoGisCatalogEndpoint, s.cfg.EnvTwoGisRoutingEndpoint, s.cfg.TwoGisTimeout())
		logrus.Info("2GIS client initialized")
	})
	return s.twoGis
}

// GenerativeService returns the configured generation backend.
func (s *ServiceProvider) GenerativeService() (botServ.GenerativeModel, error) {
	s.generativeOnce.Do(func() {
		model, err := generative.ModelFactory(s.cfg.EnvGenerativeName, generative.Settings{
			APIKey:      s.cfg.EnvGenerativeApiKey,
			ModelName:   s.cfg.EnvGenerativeModel,
			Endpoint:    s.cfg.EnvGenerativeEndpoint,
			MaxTokens:   s.cfg.EnvGenerativeMaxTokens,
			Temperature: float32(s.cfg.EnvGenerativeTemperature),
			Timeout:     s.cfg.GenerativeTimeout(),
		})
		if err != nil {
			logrus.Errorf("Failed to initialize Generative service: %v", err)
			s.generativeErr = err
			return
		}
		s.generative = model
		logrus.Infof("Generative model %s/%s initialized", s.cfg.EnvGenerativeName, s.cfg.EnvGenerativeModel)
	})
	if s.generative == nil {
		return nil, fmt.Errorf("generative service not initialized: %w", s.generativeErr)
	}
	return s.generative, nil
}

// SessionStore returns the in-memory session table.
func (s *ServiceProvider) SessionStore() *repository.SessionStore {
	s.sessionsOnce.Do(func() {
		s.sessions = repository.NewSessionStore()
	})
	return s.sessions
}

// RateStore returns the rate record storage selected by RATE_STORAGE.
func (s *ServiceProvider) RateStore() (botServ.RateRepository, error) {
	s.rateStoreOnce.Do(func() {
		var (
			store rateStore
			err   error
		)
		switch s.cfg.EnvRateStorage {
		case config.RateStorageSQLite:
			store, err = repository.NewSQLiteRateRepository(s.cfg.EnvRateDBPath)
		default:
			store, err = repository.NewFileRateRepository(s.cfg.EnvRateLimitsPath)
		}
		if err != nil {
			logrus.Errorf("Failed to initialize rate storage: %v", err)
			s.rateStoreErr = err
			return
		}
		s.rateStore = store
		logrus.Infof("Rate storage %q initialized", s.cfg.EnvRateStorage)
	})
	if s.rateStore == nil {
		return nil, fmt.Errorf("rate storage not initialized: %w", s.rateStoreErr)
	}
	return s.rateStore, nil
}

// RateLimiter returns the daily quota gate.
func (s *ServiceProvider) RateLimiter() (*botServ.RateLimiter, error) {
	store, err := s.RateStore()
	if err != nil {
		return nil, err
	}
	s.limiterOnce.Do(func() {
		s.rateLimiter = botServ.NewRateLimiter(store, s.cfg.EnvRateLimitPerDay)
	})
	return s.rateLimiter, nil
}

// Aggregator returns the infrastructure aggregator over 2GIS.
func (s *ServiceProvider) Aggregator() *botServ.InfrastructureAggregator {
	s.aggregatorOnce.Do(func() {
		twoGis := s.TwoGisAPI()
		// Общий лимит на все категории: запросы идут параллельно
		s.aggregator = botServ.NewInfrastructureAggregator(twoGis, twoGis, twoGis, nil, 2*s.cfg.TwoGisTimeout())
	})
	return s.aggregator
}

// Composer returns the description composer.
func (s *ServiceProvider) Composer() (*botServ.DescriptionComposer, error) {
	model, err := s.GenerativeService()
	if err != nil {
		return nil, err
	}
	s.composerOnce.Do(func() {
		prompt, promptErr := botServ.LoadSystemPrompt(s.cfg.EnvPromptFile)
		if promptErr != nil {
			logrus.WithError(promptErr).Warn("Prompt file unreadable, using built-in prompt")
		}
		s.composer = botServ.NewDescriptionComposer(model, prompt)
	})
	return s.composer, nil
}

// ChatTracker returns the chat membership tracker logging to CHATS_LOG_FILE.
func (s *ServiceProvider) ChatTracker() *botServ.ChatTracker {
	s.chatsOnce.Do(func() {
		s.chats = botServ.NewChatTracker(logcfg.NewFileLogger(s.cfg.EnvChatsLogFile))
	})
	return s.chats
}

// PostJournal returns the journal of /analyze texts writing to POSTS_LOG_FILE.
func (s *ServiceProvider) PostJournal() *repository.PostJournal {
	s.journalOnce.Do(func() {
		s.postsFile = logcfg.NewRotatingWriter(s.cfg.EnvPostsLogFile)
		s.postJournal = repository.NewPostJournal(s.postsFile)
	})
	return s.postJournal
}

// UserContexts returns the per-user context files under USER_DATA_PATH.
func (s *ServiceProvider) UserContexts() *repository.UserContextStore {
	s.contextsOnce.Do(func() {
		s.userContexts = repository.NewUserContextStore(s.cfg.EnvUserDataPath)
	})
	return s.userContexts
}

// BotService returns the conversation driver.
func (s *ServiceProvider) BotService() (*botServ.DescBotServices, error) {
	messenger, err := s.Messenger()
	if err != nil {
		return nil, fmt.Errorf("bot service not initialized: %w", err)
	}
	limiter, err := s.RateLimiter()
	if err != nil {
		return nil, fmt.Errorf("bot service not initialized: %w", err)
	}
	composer, err := s.Composer()
	if err != nil {
		return nil, fmt.Errorf("bot service not initialized: %w", err)
	}

	s.botServiceOnce.Do(func() {
		s.botService = botServ.NewDescBot(
			messenger,
			s.SessionStore(),
			limiter,
			s.Aggregator(),
			composer,
			s.ChatTracker(),
			s.PostJournal(),
			s.UserContexts(),
			botServ.DriverOptions{
				OwnerID:           s.cfg.EnvOwnerID,
				SearchRadius:      s.cfg.EnvSearchRadius,
				KeepDataOnFailure: s.cfg.EnvKeepDataOnFailure,
				GenerationTimeout: s.cfg.GenerativeTimeout(),
			},
		)
		logrus.Info("BotService initialized")
	})
	return s.botService, nil
}

// StatusServer returns the status HTTP server, nil when STATUS_SERVER_ADDR is empty.
func (s *ServiceProvider) StatusServer(stats statusHTTP.StatsProvider) *statusHTTP.Server {
	s.statusOnce.Do(func() {
		if s.cfg.EnvStatusServerAddr == "" {
			return
		}
		s.statusServer = statusHTTP.NewServer(s.cfg.EnvStatusServerAddr, statusHTTP.NewStatusHandler(stats))
	})
	return s.statusServer
}

// Close releases the resources held by the provider.
func (s *ServiceProvider) Close() {
	if s.rateStore != nil {
		if err := s.rateStore.Close(); err != nil {
			logrus.WithError(err).Error("Failed to close rate storage")
		}
	}
	if s.postsFile != nil {
		if err := s.postsFile.Close(); err != nil {
			logrus.WithError(err).Error("Failed to close posts journal")
		}
	}
	if closer, ok := s.generative.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logrus.WithError(err).Error("Failed to close generative client")
		}
	}
}
