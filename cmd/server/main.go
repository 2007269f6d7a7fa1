// @title                      EcosRev API
// @version                    1.0.0
// @description                Recycling loyalty points: users, benefits, coupon history and profile pictures.
// @BasePath                   /
// @securityDefinitions.apikey AccessToken
// @in                         header
// @name                       access-token
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/ecosrev/ecosrev-api/internal/api"
	"github.com/ecosrev/ecosrev-api/internal/core/ports"
	"github.com/ecosrev/ecosrev-api/internal/core/service"
	"github.com/ecosrev/ecosrev-api/internal/infrastructure/config"
	mongostore "github.com/ecosrev/ecosrev-api/internal/infrastructure/db/mongo"
	"github.com/ecosrev/ecosrev-api/internal/infrastructure/db/postgres"
	redisstore "github.com/ecosrev/ecosrev-api/internal/infrastructure/db/redis"
	"github.com/ecosrev/ecosrev-api/internal/infrastructure/http/handlers"
	"github.com/ecosrev/ecosrev-api/internal/infrastructure/mail"
	"github.com/ecosrev/ecosrev-api/internal/infrastructure/queue"
	"github.com/ecosrev/ecosrev-api/internal/infrastructure/storage/s3"
	"github.com/ecosrev/ecosrev-api/pkg/logger"
)

const connectTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "ecosrev:", err)
		os.Exit(1)
	}
}

// repositories is the storage backend chosen by STORE_DRIVER.
type repositories struct {
	users    ports.UserRepository
	benefits ports.BenefitRepository
	history  ports.HistoryRepository
	images   ports.ImageRepository
	health   handlers.Dependency
	close    func(context.Context) error
}

func run() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty,
		Service: "ecosrev-api",
		Version: cfg.Version,
	})
	log.Info().Str("env", cfg.Env).Str("store", cfg.StoreDriver).Msg("starting")

	repos, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		if err := repos.close(closeCtx); err != nil {
			log.Warn().Err(err).Msg("closing store")
		}
	}()

	health := []handlers.Dependency{repos.health}

	var guard ports.CouponGuard
	if cfg.Redis.Enabled {
		rdb, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Timeout:  connectTimeout,
		})
		if err != nil {
			return err
		}
		defer rdb.Close()
		guard = redisstore.NewCouponGuard(rdb, cfg.Redis.CouponTTL)
		health = append(health, handlers.Dependency{Name: "redis", Ping: redisstore.Ping(rdb)})
	}

	storage, err := s3.New(ctx, s3.Config{
		Region:          cfg.S3.Region,
		Endpoint:        cfg.S3.Endpoint,
		AccessKeyID:     cfg.S3.AccessKeyID,
		SecretAccessKey: cfg.S3.SecretAccessKey,
		Bucket:          cfg.S3.ImageBucket,
		PublicBaseURL:   cfg.S3.PublicBaseURL,
		UsePathStyle:    cfg.S3.UsePathStyle,
	})
	if err != nil {
		return err
	}

	mailer, err := mail.NewSMTPMailer(mail.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	}, log)
	if err != nil {
		return err
	}
	if cfg.SMTP.Host == "" {
		log.Warn().Msg("SMTP_HOST not set, password recovery emails will not be delivered")
	}
	// The queue outlives the signal context: requests still in flight during
	// graceful shutdown may enqueue mail. It stops once api.Run has returned.
	queueCtx, stopQueue := context.WithCancel(context.WithoutCancel(ctx))
	mailQueue := queue.NewMailQueue(0, mailer, log)
	mailQueue.Start(queueCtx)
	defer func() {
		stopQueue()
		mailQueue.Wait()
	}()

	tokens := service.NewTokenService(service.TokenConfig{Secret: cfg.Auth.SecretKey, TTL: cfg.Auth.ExpiresIn})

	e := api.NewRouter(api.Deps{
		Config:   cfg,
		Log:      log,
		Verifier: tokens,
		Users:    service.NewUserService(repos.users, repos.images, tokens, mailQueue, log),
		Benefits: service.NewBenefitService(repos.benefits, log),
		History:  service.NewHistoryService(repos.history, guard, log),
		Images: service.NewImageService(repos.images, repos.users, storage, cfg.S3.ImageFolder, ports.APKLocation{
			Bucket: cfg.APK.Bucket,
			Key:    cfg.APK.Key,
			TTL:    cfg.APK.TTL,
		}, log),
		Health: health,
	})

	return api.Run(ctx, e, cfg, log)
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*repositories, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			Timeout:  connectTimeout,
		})
		if err != nil {
			return nil, err
		}
		if err := mongostore.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		log.Info().Str("database", cfg.Mongo.Database).Msg("mongo ready")
		return &repositories{
			users:    mongostore.NewUserRepository(db),
			benefits: mongostore.NewBenefitRepository(db),
			history:  mongostore.NewHistoryRepository(db),
			images:   mongostore.NewImageRepository(db),
			health:   handlers.Dependency{Name: "mongo", Ping: mongostore.Ping(db)},
			close:    client.Disconnect,
		}, nil

	default:
		db, err := postgres.Open(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		if err := postgres.RunMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Info().Msg("postgres ready")
		return &repositories{
			users:    postgres.NewUserRepository(db),
			benefits: postgres.NewBenefitRepository(db),
			history:  postgres.NewHistoryRepository(db),
			images:   postgres.NewImageRepository(db),
			health:   handlers.Dependency{Name: "postgres", Ping: db.PingContext},
			close:    func(context.Context) error { return db.Close() },
		}, nil
	}
}
