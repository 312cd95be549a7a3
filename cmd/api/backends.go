package main

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/securescan-api/internal/application/otp"
	"github.com/securescan-api/internal/config"
	"github.com/securescan-api/internal/infrastructure/dynamo"
	"github.com/securescan-api/internal/infrastructure/memory"
	mongoinfra "github.com/securescan-api/internal/infrastructure/mongo"
	redisinfra "github.com/securescan-api/internal/infrastructure/redis"
	"github.com/securescan-api/internal/infrastructure/smtp"
	snsinfra "github.com/securescan-api/internal/infrastructure/sns"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.uber.org/zap"
)

const connectTimeout = 10 * time.Second

// backends lazily opens the external clients selected by configuration and
// releases them on close.
type backends struct {
	cfg     *config.Config
	log     *zap.Logger
	dynamo  *dynamodb.Client
	mongo   *mongo.Client
	closers []func()
}

func newBackends(cfg *config.Config, log *zap.Logger) *backends {
	return &backends{cfg: cfg, log: log}
}

func (b *backends) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func (b *backends) dynamoClient(ctx context.Context) (*dynamodb.Client, error) {
	if b.dynamo != nil {
		return b.dynamo, nil
	}
	c, err := dynamo.NewClient(ctx, b.cfg)
	if err != nil {
		return nil, err
	}
	b.dynamo = c
	return c, nil
}

func (b *backends) mongoClient(ctx context.Context) (*mongo.Client, error) {
	if b.mongo != nil {
		return b.mongo, nil
	}
	cctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	c, err := mongoinfra.Connect(cctx, b.cfg.MongoURI)
	if err != nil {
		return nil, err
	}
	b.mongo = c
	b.closers = append(b.closers, func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = c.Disconnect(dctx)
	})
	return c, nil
}

func (b *backends) codeStore(ctx context.Context) (otp.CodeStore, error) {
	switch b.cfg.CodeStore {
	case config.StoreRedis:
		client := redisinfra.NewClient(b.cfg.RedisAddrs, b.cfg.RedisPassword, b.cfg.RedisCluster)
		b.closers = append(b.closers, func() { _ = client.Close() })
		store := redisinfra.NewCodeStore(client)
		pctx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		if err := store.Ping(pctx); err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		return store, nil
	case config.StoreDynamo:
		client, err := b.dynamoClient(ctx)
		if err != nil {
			return nil, err
		}
		return dynamo.NewCodeRepo(client, b.cfg.DynamoTables.PendingCodes), nil
	default:
		store := memory.NewCodeStore(b.cfg.OTP.MemoryCapacity, time.Now)
		sweepCtx, cancel := context.WithCancel(context.Background())
		b.closers = append(b.closers, cancel)
		go store.RunSweeper(sweepCtx, b.cfg.OTP.SweepInterval, b.log.Named("memory"))
		return store, nil
	}
}

func (b *backends) identityRegistry(ctx context.Context) (otp.IdentityRegistry, error) {
	switch b.cfg.IdentityBackend {
	case config.RegistryDynamo:
		client, err := b.dynamoClient(ctx)
		if err != nil {
			return nil, err
		}
		return dynamo.NewUserRegistry(client, b.cfg.DynamoTables.Users), nil
	default:
		client, err := b.mongoClient(ctx)
		if err != nil {
			return nil, err
		}
		return mongoinfra.NewUserRegistry(client.Database(b.cfg.MongoDatabase), b.cfg.MongoCollection), nil
	}
}

func (b *backends) deliverer(ctx context.Context) (otp.Deliverer, error) {
	switch b.cfg.DeliveryBackend {
	case config.DeliveryLog:
		b.log.Warn("DELIVERY_BACKEND=log: codes are written to the log and never emailed")
		return smtp.NewConsoleMailer(b.log.Named("mail")), nil
	case config.DeliverySNS:
		client, err := snsinfra.NewClient(ctx, b.cfg)
		if err != nil {
			return nil, err
		}
		return snsinfra.NewPublisher(client, b.cfg.SNSTopicARN), nil
	}
	mailer := smtp.NewMailer(b.cfg)
	if err := mailer.Ping(); err != nil {
		b.log.Warn("SMTP check failed; sends will be retried per request",
			zap.String("host", b.cfg.SMTPHost), zap.Int("port", b.cfg.SMTPPort), zap.Error(err))
	} else {
		b.log.Info("SMTP server is ready", zap.String("host", b.cfg.SMTPHost))
	}
	return mailer, nil
}
