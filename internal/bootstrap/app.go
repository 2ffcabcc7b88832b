package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"eduroom/internal/config"
	mongodbClient "eduroom/internal/platform/mongodb"
	rabbitmqClient "eduroom/internal/platform/rabbitmq"
	redisClient "eduroom/internal/platform/redis"
	"eduroom/internal/repository"
	"eduroom/internal/worker"
)

type App struct {
	Config         *config.Config
	Mongo          *mongo.Client
	DB             *mongo.Database
	Redis          *redis.Client
	MQConn         *amqp.Connection
	QuestionWorker *worker.QuestionLogWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	mongoCli, err := mongodbClient.New(ctx, cfg.Mongo.URI)
	if err != nil {
		return nil, err
	}
	db := mongoCli.Database(cfg.Mongo.Database)

	redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
	if err != nil {
		return nil, err
	}

	questionRepo := repository.NewQuestionRepository(db)
	questionWorker := worker.NewQuestionLogWorker(mqConn, questionRepo, cfg.RabbitMQ.QuestionLogQueue)
	if err := questionWorker.Start(ctx); err != nil {
		return nil, fmt.Errorf("start question worker failed: %w", err)
	}

	return &App{
		Config:         cfg,
		Mongo:          mongoCli,
		DB:             db,
		Redis:          redisCli,
		MQConn:         mqConn,
		QuestionWorker: questionWorker,
		StartedAt:      time.Now(),
	}, nil
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.QuestionWorker != nil {
		a.QuestionWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.Mongo.Disconnect(ctx); err != nil {
			closeErr = err
		}
	}
	return closeErr
}
