package tbot

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/DenisKhanov/DescGenBOT/internal/logcfg"
	"github.com/DenisKhanov/DescGenBOT/internal/tg_bot/api"
	"github.com/DenisKhanov/DescGenBOT/internal/tg_bot/config"
	"github.com/DenisKhanov/DescGenBOT/internal/tg_bot/constant"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// shutdownTimeout bounds the wait for in-flight generations and the status server.
const shutdownTimeout = 30 * time.Second

// App represents the application structure responsible for initializing dependencies
// and running the Telegram bot.
type App struct {
	serviceProvider *ServiceProvider // The service provider for dependency injection
	config          *config.Config   // The configuration object for the application
}

// NewApp creates a new instance of the application.
func NewApp(ctx context.Context) (*App, error) {
	app := &App{}
	err := app.initDeps(ctx)
	if err != nil {
		return nil, err
	}
	return app, nil
}

// Run starts the application and runs the Telegram bot until SIGINT or SIGTERM.
func (a *App) Run(ctx context.Context) error {
	defer a.serviceProvider.Close()
	return a.runTelegramBot(ctx)
}

// initDeps initializes all dependencies required by the application.
func (a *App) initDeps(ctx context.Context) error {
	inits := []func(context.Context) error{
		a.initConfig,
		a.initServiceProvider,
	}

	for _, f := range inits {
		err := f(ctx)
		if err != nil {
			return err
		}
	}

	return nil
}

// initConfig initializes the application configuration.
func (a *App) initConfig(_ context.Context) error {
	cfg, err := config.NewConfig()
	if err != nil {
		return err
	}
	a.config = cfg
	return logcfg.RunLoggerConfig(a.config.EnvLogsLevel, a.config.EnvLogFileName)
}

// initServiceProvider initializes the service provider for dependency injection.
func (a *App) initServiceProvider(_ context.Context) error {
	a.serviceProvider = NewServiceProvider(a.config)
	return nil
}

// runTelegramBot starts the Telegram bot with graceful shutdown.
func (a *App) runTelegramBot(ctx context.Context) error {
	// Initialize bot API
	botAPI, err := a.serviceProvider.BotAPI()
	if err != nil {
		return err
	}
	logrus.Infof("Bot API created successfully for %s", botAPI.Self.UserName)

	// Initialize bot service
	myBot, err := a.serviceProvider.BotService()
	if err != nil {
		return err
	}

	messenger, err := a.serviceProvider.Messenger()
	if err != nil {
		return err
	}
	if err = messenger.RegisterCommands([]api.BotCommand{
		{Command: constant.COMMAND_START, Description: constant.COMMAND_DESCRIPTION_START},
		{Command: constant.COMMAND_HELP, Description: constant.COMMAND_DESCRIPTION_HELP},
		{Command: constant.COMMAND_RETRY, Description: constant.COMMAND_DESCRIPTION_RETRY},
		{Command: constant.COMMAND_ANALYZE, Description: constant.COMMAND_DESCRIPTION_ANALYZE},
		{Command: constant.COMMAND_GENERATE, Description: constant.COMMAND_DESCRIPTION_GENERATE},
	}); err != nil {
		logrus.WithError(err).Warn("Failed to register bot commands")
	}

	statusServer := a.serviceProvider.StatusServer(myBot)
	if statusServer != nil {
		statusServer.Start()
	}

	// Setup signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Configure updates channel
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60 // seconds timeout
	updateConfig.AllowedUpdates = []string{"message", "my_chat_member"}
	updates := botAPI.GetUpdatesChan(updateConfig)

	// Main loop
loop:
	for {
		select {
		case <-ctx.Done(): // Wait for shutdown signal
			logrus.Info("Shutdown signal received, stopping bot...")
			break loop
		case update, ok := <-updates: // Telegram updates
			if !ok {
				logrus.Error("telegram update chan closed")
				break loop
			}
			myBot.UpdateProcessing(ctx, &update)
		}
	}

	botAPI.StopReceivingUpdates()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err = myBot.Wait(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("Generation jobs still running at shutdown")
	}
	if statusServer != nil {
		if err = statusServer.Shutdown(shutdownCtx); err != nil {
			logrus.WithError(err).Error("Failed to stop status server")
		}
	}
	logrus.Info("Shutting down main loop...")
	return nil
}
