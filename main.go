package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/abhinavdhar/creditbook/internal/config"
	"github.com/abhinavdhar/creditbook/internal/creditors"
	"github.com/abhinavdhar/creditbook/internal/handlers"
	"github.com/abhinavdhar/creditbook/internal/middleware"
	"github.com/abhinavdhar/creditbook/internal/notify"
	"github.com/abhinavdhar/creditbook/internal/scheduler"
	"github.com/abhinavdhar/creditbook/internal/web"
	"github.com/abhinavdhar/creditbook/store"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

func main() {
	_ = config.LoadEnvFile("config.env")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg := config.Load()

	var cache *store.CreditorCache
	redisAddr := fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort)
	rdb, err := store.NewRedisClient(redisAddr, cfg.RedisPassword, cfg.RedisDB, "creditbook")
	if err != nil {
		log.Printf("Redis unavailable, creditor list cache disabled: %v", err)
	} else {
		defer rdb.Close()
		cache = store.NewCreditorCache(rdb, cfg.CacheTTLSecs)
	}

	pgStore, err := store.NewPostgresStore(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}
	defer pgStore.Close()

	loc, err := time.LoadLocation(cfg.NotifyTimezone)
	if err != nil {
		log.Printf("Invalid NOTIFY_TZ %q, using UTC: %v", cfg.NotifyTimezone, err)
		loc = time.UTC
	}

	service := creditors.NewService(pgStore, cache, creditors.Config{
		Location:        loc,
		FollowUpWeekday: cfg.FollowUpWeekday,
	})

	botToken := cfg.BotToken
	if botToken == "" {
		botToken = "YOUR_BOT_TOKEN_FROM_BOTFATHER"
		log.Println("Warning: Using default bot token. Set BOT_TOKEN environment variable.")
	}

	httpClient := &http.Client{
		Timeout: 10 * time.Minute,
	}
	pollTimeout := 50 * time.Second

	b, err := bot.New(
		botToken,
		bot.WithHTTPClient(pollTimeout, httpClient),
	)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	registry := notify.NewRegistry(pgStore, cfg.DefaultChatID)
	dispatcher := notify.NewDispatcher(registry, notify.NewBotSender(b), cfg.SendTimeout)

	digestScheduler := scheduler.NewScheduler(
		pgStore,
		dispatcher,
		scheduler.Config{
			Interval:  cfg.NotifyInterval,
			Location:  loc,
			DateField: cfg.NotifyDateField,
		},
	)

	h := handlers.NewHandlers(registry, digestScheduler)

	digestScheduler.Start()
	defer digestScheduler.Stop()

	middlewares := middleware.NewSubscriberRegistrar(registry)
	handlerChain := middlewares.RegisterSubscriberMiddleware(h.MainHandler)

	b.RegisterHandlerMatchFunc(func(update *models.Update) bool {
		return update.Message != nil
	}, handlerChain)

	b.RegisterHandler(bot.HandlerTypeCallbackQueryData, "", bot.MatchTypePrefix, handlerChain)

	srv := web.NewServer(service, cfg.StaticDir)
	go func() {
		if err := srv.Run(cfg.HTTPAddr); err != nil {
			log.Fatalf("HTTP server: %v", err)
		}
	}()

	log.Printf("CreditBook started, HTTP on %s. Press Ctrl+C to stop.", cfg.HTTPAddr)
	b.Start(ctx)
}
