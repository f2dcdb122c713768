package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/apt/middleware"
	"github.com/appetiteclub/ordernotify/pkg"
	"github.com/appetiteclub/ordernotify/pkg/event"

	"github.com/appetiteclub/ordernotify/services/notification/internal/metrics"
	"github.com/appetiteclub/ordernotify/services/notification/internal/mongo"
	"github.com/appetiteclub/ordernotify/services/notification/internal/notification"
)

const (
	appNamespace = "NOTIFICATION"
	appName      = "notification"
	appVersion   = "0.1.0"
)

func main() {
	config, err := apt.LoadConfig(appNamespace, os.Args[1:])
	if err != nil {
		log.Fatalf("%s(%s) cannot setup: %v", appName, appVersion, err)
	}

	logLevel, _ := config.GetString("log.level")
	logger := apt.NewLogger(logLevel)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer stop()

	metrics.Init()

	natsURL := config.GetStringOrDef("nats.url", "nats://localhost:4222")

	// Push channel: plain NATS by default, JetStream when enabled.
	var (
		sub      events.Subscriber
		closeSub func() error
	)
	if config.GetStringOrDef("nats.stream.enabled", "false") == "true" {
		maxAge, err := time.ParseDuration(config.GetStringOrDef("nats.stream.max_age", "24h"))
		if err != nil {
			log.Fatalf("%s(%s) invalid nats.stream.max_age: %v", appName, appVersion, err)
		}
		stream, err := pkg.NewNATSStream(ctx, pkg.NATSStreamConfig{
			URL:        natsURL,
			StreamName: config.GetStringOrDef("nats.stream.name", "ORDER_STATUS"),
			Topic:      event.OrderStatusTopic,
			MaxAge:     maxAge,
		})
		if err != nil {
			log.Fatalf("%s(%s) cannot connect to NATS stream: %v", appName, appVersion, err)
		}
		sub, closeSub = stream, stream.Close
	} else {
		natsSub, err := pkg.NewNATSSubscriber(natsURL)
		if err != nil {
			log.Fatalf("%s(%s) cannot connect to NATS subscriber: %v", appName, appVersion, err)
		}
		sub, closeSub = natsSub, natsSub.Close
	}

	orderURL, _ := config.GetString("services.order.url")
	if orderURL == "" {
		log.Fatalf("%s(%s) services.order.url is required", appName, appVersion)
	}
	orders := notification.NewOrderDataAccess(apt.NewServiceClient(orderURL))

	lifecycles := []interface{}{}

	// Archive is optional: without db.mongo.url notifications live only in memory.
	var archive *mongo.NotificationRepo
	baseRepo := mongo.NewBaseRepo(config, logger)
	if baseRepo.Enabled() {
		if err := baseRepo.Start(ctx); err != nil {
			log.Fatalf("%s(%s) cannot start notification archive: %v", appName, appVersion, err)
		}
		archive = mongo.NewNotificationRepo(baseRepo.GetDatabase())
		if err := archive.EnsureIndexes(ctx); err != nil {
			logger.Error("cannot ensure archive indexes", "error", err)
		}
		lifecycles = append(lifecycles, apt.LifecycleHooks{OnStop: baseRepo.Stop})
	}

	deps := notification.SessionDeps{
		Subscriber: sub,
		Orders:     orders,
	}
	if archive != nil {
		deps.Archive = archive
	}

	sessions := notification.NewSessionManager(deps, notification.LoadOptions(config, logger), logger)

	handler := notification.NewHandler(sessions, config, logger)
	if archive != nil {
		handler.SetHistory(archive)
	}

	stack := middleware.DefaultStack(middleware.StackOptions{
		Logger:      logger,
		DisableCORS: false,
	})

	subLifecycle := apt.LifecycleHooks{
		OnStop: func(context.Context) error {
			return closeSub()
		},
	}

	lifecycles = append(lifecycles, subLifecycle, sessions)

	options := []apt.Option{
		apt.WithConfig(config),
		apt.WithLogger(logger),
		apt.WithHTTPMiddleware(stack...),
		apt.WithHTTPServerModules("web.port", handler),
		apt.WithLifecycle(lifecycles...),
		apt.WithHealthChecks(appName),
	}

	ms := apt.NewMicro(options...)
	logger.Infof("Starting %s(%s)", appName, appVersion)

	if err := ms.Run(ctx); err != nil {
		log.Fatalf("%s(%s) stopped: %v", appName, appVersion, err)
	}

	logger.Infof("%s(%s) stopped", appName, appVersion)
}
