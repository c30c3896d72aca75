package main

import (
	"context"
	"database/sql"

	commentApp "github.com/davicafu/blogolab/internal/comment/application"
	commentDomain "github.com/davicafu/blogolab/internal/comment/domain"
	commentHttp "github.com/davicafu/blogolab/internal/comment/infra/inbound/http"
	commentRepoPg "github.com/davicafu/blogolab/internal/comment/infra/outbound/db/postgre"
	commentRepoLite "github.com/davicafu/blogolab/internal/comment/infra/outbound/db/sqlite"
	config "github.com/davicafu/blogolab/internal/config"
	postApp "github.com/davicafu/blogolab/internal/post/application"
	postDomain "github.com/davicafu/blogolab/internal/post/domain"
	postHttp "github.com/davicafu/blogolab/internal/post/infra/inbound/http"
	postStats "github.com/davicafu/blogolab/internal/post/infra/outbound/analytics/clickhouse"
	postCache "github.com/davicafu/blogolab/internal/post/infra/outbound/cache"
	postRepoPg "github.com/davicafu/blogolab/internal/post/infra/outbound/db/postgre"
	postRepoLite "github.com/davicafu/blogolab/internal/post/infra/outbound/db/sqlite"
	sharedDomain "github.com/davicafu/blogolab/internal/shared/domain"
	sharedEvents "github.com/davicafu/blogolab/internal/shared/domain/events"
	outboxMongo "github.com/davicafu/blogolab/internal/shared/infra/db/mongodb"
	outboxPg "github.com/davicafu/blogolab/internal/shared/infra/db/postgres"
	outboxLite "github.com/davicafu/blogolab/internal/shared/infra/db/sqlite"
	infraEvents "github.com/davicafu/blogolab/internal/shared/infra/events"
	sharedBus "github.com/davicafu/blogolab/internal/shared/infra/platform/bus"
	"github.com/davicafu/blogolab/internal/shared/infra/relayer"
	"github.com/davicafu/blogolab/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/segmentio/kafka-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	// _ "github.com/mattn/go-sqlite3" // requires gcc
	_ "modernc.org/sqlite"
)

// ---------------- Main ----------------
func main() {
	logger.Init()          // inicializa zap
	log := logger.Logger() // obtiene logger estructurado
	defer logger.Sync()    // flush buffers al salir

	ctx := context.Background()
	cfg := config.LoadConfig()

	// ---------------- Codec ----------------
	registry := sharedEvents.NewRegistry()
	if err := postDomain.RegisterEvents(registry); err != nil {
		log.Fatal("failed to register post events", zap.Error(err))
	}
	if err := commentDomain.RegisterEvents(registry); err != nil {
		log.Fatal("failed to register comment events", zap.Error(err))
	}

	// ---------------- DB ----------------
	var (
		db          *sql.DB
		postRepo    postDomain.PostRepository
		commentRepo commentDomain.CommentRepository
		outboxStore sharedDomain.OutboxStore
	)

	if cfg.LocalDeployment {
		sqliteDB, err := sql.Open("sqlite", cfg.SQLitePath)
		if err != nil {
			log.Fatal("failed to open SQLite", zap.Error(err))
		}
		db = sqliteDB

		if err := postRepoLite.InitPostSQLite(db); err != nil {
			log.Fatal("failed to initialize posts table", zap.Error(err))
		}
		if err := commentRepoLite.InitCommentSQLite(db); err != nil {
			log.Fatal("failed to initialize comments table", zap.Error(err))
		}
		if err := outboxLite.InitOutboxSQLite(db); err != nil {
			log.Fatal("failed to initialize outbox table", zap.Error(err))
		}

		postRepo = postRepoLite.NewPostRepoSQLite(db, registry)
		commentRepo = commentRepoLite.NewCommentRepoSQLite(db, registry)
		outboxStore = outboxLite.NewOutboxRepoSQLite(db, cfg.OutboxMaxAttempts)
	} else {
		pgDB, err := sql.Open("pgx", cfg.PostgresDSN)
		if err != nil {
			log.Fatal("failed to open Postgres", zap.Error(err))
		}
		db = pgDB

		if err := postRepoPg.InitPostPostgres(db); err != nil {
			log.Fatal("failed to initialize posts table", zap.Error(err))
		}
		if err := commentRepoPg.InitCommentPostgres(db); err != nil {
			log.Fatal("failed to initialize comments table", zap.Error(err))
		}
		if err := outboxPg.InitOutboxPostgres(db); err != nil {
			log.Fatal("failed to initialize outbox table", zap.Error(err))
		}

		postRepo = postRepoPg.NewPostRepoPostgres(db, registry)
		commentRepo = commentRepoPg.NewCommentRepoPostgres(db, registry)
		outboxStore = outboxPg.NewOutboxRepoPostgres(db, cfg.OutboxMaxAttempts)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		log.Fatal("failed to ping database", zap.Error(err))
	}

	// Despacho de un outbox alojado en MongoDB, escrito por otros
	// servicios. Sustituye únicamente el almacén del dispatcher.
	if cfg.MongoURI != "" {
		mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			log.Fatal("failed to connect to MongoDB", zap.Error(err))
		}
		defer mongoClient.Disconnect(ctx)

		outboxStore = outboxMongo.NewOutboxRepoMongoDB(mongoClient, cfg.MongoDBName, cfg.OutboxMaxAttempts)
		log.Info("📬 Outbox dispatcher leyendo desde MongoDB", zap.String("db", cfg.MongoDBName))
	}

	// ---------------- Cache ----------------
	var cacheInstance postDomain.PostCache
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("⚠️ Redis no disponible, cache en memoria:", zap.Error(err))
		cacheInstance = postCache.NewInMemoryCache(cfg.CacheTTL, 3*cfg.CacheTTL)
	} else {
		cacheInstance = postCache.NewRedisCache(rdb, cfg.CacheTTL)
		log.Info("✅ Redis conectado, cache habilitado")
	}

	// --------------- Servicio --------------
	postService := postApp.NewPostService(postRepo, cacheInstance, log)
	commentService := commentApp.NewCommentService(commentRepo, log)

	// ---------------- Bus y handlers ----------------
	bus := sharedBus.NewInProcessBus(log)

	if cfg.UseKafka {
		log.Info("🚀 Reenviando eventos despachados a Kafka")

		postWriter := kafka.NewWriter(kafka.WriterConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopicPost,
		})
		defer postWriter.Close()

		commentWriter := kafka.NewWriter(kafka.WriterConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopicComment,
		})
		defer commentWriter.Close()

		postForwarder := infraEvents.NewKafkaForwarder(postWriter, log)
		for _, eventType := range []string{
			postDomain.PostCreated, postDomain.PostUpdated,
			postDomain.PostPublished, postDomain.PostDeleted,
		} {
			bus.Subscribe(eventType, postForwarder.Handle)
		}

		commentForwarder := infraEvents.NewKafkaForwarder(commentWriter, log)
		for _, eventType := range []string{
			commentDomain.CommentAdded, commentDomain.CommentApproved,
			commentDomain.CommentRejected, commentDomain.CommentDeleted,
		} {
			bus.Subscribe(eventType, commentForwarder.Handle)
		}
	}

	if cfg.ClickHouseAddr != "" {
		statsRepo, err := postStats.NewPostStatsRepo(cfg.ClickHouseAddr, cfg.ClickHouseDB)
		if err != nil {
			log.Fatal("failed to connect to ClickHouse", zap.Error(err))
		}
		defer statsRepo.Close()

		if err := statsRepo.Init(); err != nil {
			log.Fatal("failed to initialize ClickHouse table", zap.Error(err))
		}

		for _, eventType := range []string{
			postDomain.PostCreated, postDomain.PostUpdated,
			postDomain.PostPublished, postDomain.PostDeleted,
		} {
			bus.Subscribe(eventType, statsRepo.Handle)
		}
		log.Info("✅ ClickHouse conectado, analítica habilitada")
	}

	invalidator := postCache.NewInvalidator(cacheInstance, log)
	bus.Subscribe(postDomain.PostUpdated, invalidator.Handle)
	bus.Subscribe(postDomain.PostDeleted, invalidator.Handle)

	// ------------ Outbox Dispatcher ------------
	// Se podría ejecutar como proceso separado
	dispatcher := relayer.NewDispatcher(outboxStore, registry, bus, relayer.Config{
		PollInterval: cfg.OutboxPoll,
		BatchSize:    cfg.OutboxBatch,
		MaxAttempts:  cfg.OutboxMaxAttempts,
		LeaseFor:     cfg.OutboxLease,
		BackoffBase:  cfg.OutboxBackoffBase,
		BackoffMax:   cfg.OutboxBackoffMax,
	}, log)
	dispatcher.Start(ctx)

	// ---------------- HTTP ----------------
	postHandler := postHttp.NewPostHandler(postService)
	commentHandler := commentHttp.NewCommentHandler(commentService)
	router := gin.Default()
	postHttp.RegisterPostRoutes(router, postHandler)
	commentHttp.RegisterCommentRoutes(router, commentHandler)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	log.Info("🚀 Server running",
		zap.String("url", "http://localhost:"+cfg.HTTPPort),
	)
	if err := router.Run(":" + cfg.HTTPPort); err != nil {
		log.Fatal("failed to start server", zap.Error(err))
	}
}
