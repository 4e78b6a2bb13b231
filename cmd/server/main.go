package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/courtside/league-night/internal/config"
	"github.com/courtside/league-night/internal/database"
	"github.com/courtside/league-night/internal/handler"
	"github.com/courtside/league-night/internal/push"
	"github.com/courtside/league-night/internal/queue"
	"github.com/courtside/league-night/internal/realtime"
	"github.com/courtside/league-night/internal/repository"
	"github.com/courtside/league-night/internal/router"
	"github.com/courtside/league-night/internal/session"
)

func main() {
	_ = godotenv.Load() // best effort; real deployments set env directly

	cfg := config.Load()
	rlCfg := config.LoadRateLimitConfig()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable: rate limiting disabled, event fan-out is process-local")
	}

	// Repositories.
	leagues := repository.NewLeagueRepo(db)
	instances := repository.NewInstanceRepo(db)
	checkins := repository.NewCheckinRepo(db)
	partnerships := repository.NewPartnershipRepo(db)
	matches := repository.NewMatchRepo(db)
	users := repository.NewUserRepo(db)
	pushSubs := repository.NewPushSubscriptionRepo(db)

	// Realtime fan-out. With Redis the bridge relays events to every
	// server instance; without it events stay local.
	registry := realtime.NewRegistry()
	var events session.EventSink = registry
	if rdb != nil {
		bridge := realtime.NewBridge(registry, rdb)
		events = bridge
		go bridge.Run(context.Background())
	}

	// Push pipeline: mutations enqueue notification events over RabbitMQ,
	// the consumer renders and delivers them via Web Push.
	notifier := queue.Publisher{}
	transport := push.NewWebPushTransport(cfg.VAPIDPublic, cfg.VAPIDPrivate, cfg.VAPIDSubject)
	dispatcher := push.NewDispatcher(pushSubs, transport, cfg.PushTTLSec, time.Duration(cfg.PushTimeoutMS)*time.Millisecond)
	go queue.StartDispatchConsumer(dispatcher)

	// Domain services.
	lifecycle := session.NewLifecycleService(leagues, instances, events, time.Now)
	checkinSvc := session.NewCheckinService(instances, checkins, events)
	partnershipSvc := session.NewPartnershipService(checkins, partnerships, matches, users, events, notifier)
	matchSvc := session.NewMatchService(instances, partnerships, matches, events, notifier)

	h := &router.Handlers{
		Instances:     handler.NewInstanceHandler(lifecycle),
		Checkins:      handler.NewCheckinHandler(checkinSvc),
		Partnerships:  handler.NewPartnershipHandler(partnershipSvc),
		Matches:       handler.NewMatchHandler(matchSvc),
		Subscriptions: handler.NewSubscriptionHandler(pushSubs),
		Events:        handler.NewEventsHandler(registry, instances),
	}

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e)
	router.RegisterAPI(e, h, cfg.JWTSecret, rlCfg, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
