package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	echoapi "github.com/trezcool/gmao/apps/api/echo"
	"github.com/trezcool/gmao/core"
	"github.com/trezcool/gmao/core/chat"
	"github.com/trezcool/gmao/core/dashboard"
	"github.com/trezcool/gmao/core/events"
	"github.com/trezcool/gmao/core/prediction"
	"github.com/trezcool/gmao/core/task"
	"github.com/trezcool/gmao/core/user"
	emailsvc "github.com/trezcool/gmao/services/email"
	eventsvc "github.com/trezcool/gmao/services/events"
	logsvc "github.com/trezcool/gmao/services/logger"
	"github.com/trezcool/gmao/services/metrics"
	"github.com/trezcool/gmao/storage/csvdata"
	"github.com/trezcool/gmao/storage/database"
	inmemdb "github.com/trezcool/gmao/storage/database/inmem"
	"github.com/trezcool/gmao/storage/database/sqlxrepos"
)

const brokerBufSize = 64

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	broker := events.NewBroker(brokerBufSize)
	broker.OnDrop(func(ev events.Event) {
		logger.Warn(fmt.Sprintf("event dropped for a slow subscriber: %s %s", ev.Type, ev.TaskID))
	})
	defer broker.Close()

	// set up DB
	var (
		usrRepo  user.Repository
		taskRepo task.Repository
	)
	if conf.Database.Engine == "inmem" {
		db := inmemdb.Open(broker)
		usrRepo = inmemdb.NewUserRepository(db)
		taskRepo = inmemdb.NewTaskRepository(db)
	} else {
		if err := database.CreateIfNotExist(conf); err != nil {
			logger.Fatal(fmt.Sprintf("creating database: %v", err), err)
		}
		db, err := database.Open(conf)
		if err != nil {
			logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
		}
		defer func() {
			if err := db.Close(); err != nil {
				dbLogger.Error(fmt.Sprintf("closing database: %v", err), err)
			}
		}()
		if err = database.Migrate(db.DB); err != nil {
			logger.Fatal(fmt.Sprintf("migrating database: %v", err), err)
		}
		usrRepo = sqlxrepos.NewUserRepository(db)
		taskRepo = sqlxrepos.NewTaskRepository(db)

		if conf.Database.Listen {
			listener, err := database.NewListener(conf, broker, dbLogger)
			if err != nil {
				logger.Fatal(fmt.Sprintf("listening to task changes: %v", err), err)
			}
			go listener.Run(ctx)
			defer func() {
				_ = listener.Close()
				<-listener.Done()
			}()
		}
	}

	mtr := metrics.New()
	taskEvents, unsubscribe := broker.Subscribe(nil)
	defer unsubscribe()
	go func() {
		for ev := range taskEvents {
			mtr.ObserveTaskEvent(ev)
		}
	}()

	if conf.Kafka.Enabled {
		sink := eventsvc.NewSink(eventsvc.NewKafkaWriter(conf), logger)
		kafkaEvents, unsubscribeKafka := broker.Subscribe(nil)
		defer unsubscribeKafka()
		go sink.Run(ctx, kafkaEvents)
		defer func() {
			if err := sink.Close(); err != nil {
				logger.Error(fmt.Sprintf("closing kafka writer: %v", err), err)
			}
		}()
	}

	// set up services
	mailSvc := emailsvc.NewService(conf, logger)
	usrSvc := user.NewService(usrRepo)
	taskSvc := task.NewService(taskRepo, usrSvc, mailSvc, logger)

	kb, err := chat.Load(conf.Data.ChatAnswersPath())
	if err != nil {
		logger.Fatal(fmt.Sprintf("loading chat knowledge base: %v", err), err)
	}

	dashSvc := dashboard.NewService(csvdata.NewSource(conf, logger), logger, mtr)
	if snap, err := dashSvc.Reload(ctx); err != nil {
		logger.Error(fmt.Sprintf("loading dashboard data: %v", err), err)
	} else {
		logger.Info(fmt.Sprintf("dashboard loaded: %d failures", snap.KPIs.TotalFailures))
	}

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : %v", conf))
	defer logger.Info("Application stopped")

	validate, translator := core.NewValidator()
	user.InitValidators(validate, translator)
	task.InitValidators(validate, translator)

	core.ParseEmailTemplates(logger, conf.Debug)

	user.LoadCommonPasswords(logger)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:        conf,
			Logger:      logger,
			Validate:    validate,
			Translator:  translator,
			UserSvc:     usrSvc,
			TaskSvc:     taskSvc,
			Dashboard:   dashSvc,
			Predictions: prediction.NewStore(conf.Data.PredictionsPath()),
			Chat:        kb,
			Broker:      broker,
			Metrics:     mtr,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Error(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancelShutdown()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(shutdownCtx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}
