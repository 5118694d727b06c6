package bootstrap

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/kiffoh/messaging-app-mongoDB/internal/cache"
	"github.com/kiffoh/messaging-app-mongoDB/internal/config"
	"github.com/kiffoh/messaging-app-mongoDB/internal/database"
	"github.com/kiffoh/messaging-app-mongoDB/internal/discovery"
	"github.com/kiffoh/messaging-app-mongoDB/internal/events"
	"github.com/kiffoh/messaging-app-mongoDB/internal/handlers"
	"github.com/kiffoh/messaging-app-mongoDB/internal/kafka"
	"github.com/kiffoh/messaging-app-mongoDB/internal/logger"
	"github.com/kiffoh/messaging-app-mongoDB/internal/metrics"
	"github.com/kiffoh/messaging-app-mongoDB/internal/middleware"
	"github.com/kiffoh/messaging-app-mongoDB/internal/naming"
	"github.com/kiffoh/messaging-app-mongoDB/internal/nats"
	"github.com/kiffoh/messaging-app-mongoDB/internal/repository"
	"github.com/kiffoh/messaging-app-mongoDB/internal/routes"
	"github.com/kiffoh/messaging-app-mongoDB/internal/server"
	"github.com/kiffoh/messaging-app-mongoDB/internal/services"
	"github.com/kiffoh/messaging-app-mongoDB/internal/utils"
	"github.com/kiffoh/messaging-app-mongoDB/internal/ws"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type AppContext struct {
	Config *config.Config
	Logger *zap.Logger
	Sugar  *zap.SugaredLogger
	Mongo  *mongo.Client
	Redis  *redis.Client
	Hub    *ws.Hub
	Events *events.Fanout
	App    *fiber.App
}

type CleanupFn func(context.Context)

// Init loads configuration and wires every component. Redis, Kafka, NATS and
// Consul are optional and skipped when their address is empty.
func Init(configPath string) (*AppContext, CleanupFn, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	zl := logger.New(cfg.App.Env)
	sugar := zl.Sugar()
	app := &AppContext{Config: cfg, Logger: zl, Sugar: sugar}
	sugar.Infof("Starting %s in %s environment", cfg.App.Name, cfg.App.Env)

	var closers []func(context.Context)
	cleanup := func(ctx context.Context) {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i](ctx)
		}
		if cerr := zl.Sync(); cerr != nil {
			log.Printf("Logger sync error: %v", cerr)
		}
	}
	fail := func(err error) (*AppContext, CleanupFn, error) {
		cleanup(context.Background())
		return nil, nil, err
	}

	db, mongoClient, err := database.ConnectMongo(cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.ConnectTimeout, sugar)
	if err != nil {
		return fail(err)
	}
	app.Mongo = mongoClient
	closers = append(closers, func(ctx context.Context) {
		if cerr := mongoClient.Disconnect(ctx); cerr != nil {
			sugar.Errorf("MongoDB disconnect error: %v", cerr)
		}
	})

	userRepo := repository.NewMongoUserRepo(db, cfg.Mongo.UserCollection)
	chatRepo := repository.NewMongoChatRepo(db, cfg.Mongo.ChatCollection, cfg.Mongo.UserCollection, cfg.Mongo.MessageCollection)
	messageRepo := repository.NewMongoMessageRepo(db, cfg.Mongo.MessageCollection)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Mongo.ConnectTimeout)
	defer cancel()
	for _, r := range []interface{ EnsureIndexes(context.Context) error }{userRepo, chatRepo, messageRepo} {
		if err := r.EnsureIndexes(ctx); err != nil {
			return fail(fmt.Errorf("ensure indexes: %w", err))
		}
	}

	var (
		limiter  *middleware.RateLimiter
		presence *cache.Presence
	)
	if cfg.Redis.Addr != "" {
		rdb, err := database.ConnectRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, sugar)
		if err != nil {
			return fail(err)
		}
		app.Redis = rdb
		closers = append(closers, func(context.Context) {
			if cerr := rdb.Close(); cerr != nil {
				sugar.Errorf("Redis client close error: %v", cerr)
			}
		})
		limiter = middleware.NewRateLimiter(rdb, cfg.Redis.Prefix, cfg.RateLimit.Limit, cfg.RateLimit.Window, zl)
		presence = cache.NewPresence(rdb, cfg.Redis.Prefix, cfg.WS.PresenceTTL)
	} else {
		sugar.Warn("Redis not configured; rate limiting and presence are disabled")
	}

	m := metrics.New()
	app.Hub = ws.NewHub(zl, m.Connections)

	breaker := events.BreakerSettings{
		MaxFailures: cfg.Events.Breaker.MaxFailures,
		Interval:    cfg.Events.Breaker.Interval,
		Timeout:     cfg.Events.Breaker.Timeout,
	}
	sinks := []events.Publisher{m.Observe("ws", app.Hub)}

	if len(cfg.Kafka.Brokers) > 0 {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		sinks = append(sinks, m.Observe("kafka", events.NewBreaker("kafka", producer, breaker, zl)))
		closers = append(closers, func(context.Context) {
			if cerr := producer.Close(); cerr != nil {
				sugar.Errorf("Kafka producer close error: %v", cerr)
			}
		})
		sugar.Infof("Publishing events to kafka topic %s", cfg.Kafka.Topic)
	}

	if cfg.NATS.URL != "" {
		pub, err := nats.NewPublisher(cfg.NATS.URL, cfg.NATS.SubjectPrefix, cfg.App.Name)
		if err != nil {
			return fail(fmt.Errorf("nats connect: %w", err))
		}
		sinks = append(sinks, m.Observe("nats", events.NewBreaker("nats", pub, breaker, zl)))
		closers = append(closers, func(context.Context) {
			if cerr := pub.Close(); cerr != nil {
				sugar.Errorf("NATS drain error: %v", cerr)
			}
		})
		sugar.Infof("Publishing events to nats subjects %s.*", cfg.NATS.SubjectPrefix)
	}

	app.Events = events.NewFanout(zl, cfg.Events.PublishTimeout, sinks...)
	// deliveries still running finish before the sinks close
	closers = append(closers, func(context.Context) {
		app.Events.Wait()
		app.Hub.Close()
	})

	resolver := naming.Resolver{
		DefaultPicture:      cfg.Defaults.Picture,
		DefaultGroupPicture: cfg.Defaults.GroupPicture,
	}
	jwtMgr := utils.NewJWTManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessTTL)

	userSvc := services.NewUserService(userRepo, jwtMgr, zl)
	chatSvc := services.NewChatService(chatRepo, userRepo, resolver, cfg.Defaults.GroupBio, zl)
	inboxSvc := services.NewInboxService(chatRepo, resolver, zl)
	messageSvc := services.NewMessageService(chatRepo, messageRepo, app.Events, zl)

	wsCfg := ws.Config{
		PingInterval:   cfg.WS.PingInterval,
		MaxMessageSize: cfg.WS.MaxMessageSize,
		InboundRPS:     cfg.WS.InboundRPS,
	}
	deps := routes.Deps{
		Chats:    handlers.NewChatHandler(chatSvc, zl),
		Messages: handlers.NewMessageHandler(messageSvc, inboxSvc, zl),
		Auth:     middleware.NewJWTMiddleware(jwtMgr, zl),
		Limiter:  limiter,
	}
	// a nil *cache.Presence must not reach the interfaces as a non-nil value
	if presence != nil {
		deps.Users = handlers.NewUserHandler(userSvc, presence, zl)
		deps.Socket = app.Hub.Handler(wsCfg, presence)
	} else {
		deps.Users = handlers.NewUserHandler(userSvc, nil, zl)
		deps.Socket = app.Hub.Handler(wsCfg, nil)
	}
	app.App = server.New(cfg, deps, m, zl)

	if cfg.Consul.Addr != "" {
		reg, err := discovery.Register(cfg.Consul.Addr, cfg.Consul.ServiceName, cfg.Consul.ServiceHost, cfg.App.Port, uuid.NewString()[:8], zl)
		if err != nil {
			// the service works without a registry
			sugar.Warnf("Consul registration failed: %v", err)
		} else {
			closers = append(closers, func(context.Context) {
				if cerr := reg.Deregister(); cerr != nil {
					sugar.Errorf("Consul deregister error: %v", cerr)
				}
			})
		}
	}

	return app, cleanup, nil
}

// Shutdown stops accepting requests and waits for in-flight ones, bounded by
// ctx.
func (a *AppContext) Shutdown(ctx context.Context) error {
	return a.App.ShutdownWithContext(ctx)
}

// ShutdownTimeout is how long main waits for requests to drain.
const ShutdownTimeout = 10 * time.Second
