package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"eduroom/internal/model"
	"eduroom/internal/repository"
)

// QuestionLogWorker drains answered-question events off the broker and
// persists them for analytics. It runs alongside the HTTP server and is
// fully decoupled from the request path.
type QuestionLogWorker struct {
	conn      *amqp.Connection
	repo      *repository.QuestionRepository
	queueName string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewQuestionLogWorker(conn *amqp.Connection, repo *repository.QuestionRepository, queueName string) *QuestionLogWorker {
	return &QuestionLogWorker{
		conn:      conn,
		repo:      repo,
		queueName: queueName,
	}
}

func (w *QuestionLogWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	_, err = ch.QueueDeclare(
		w.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare worker queue failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}

				var event model.QuestionEvent
				if err := json.Unmarshal(d.Body, &event); err != nil {
					log.Printf("worker decode question event failed: %v", err)
					_ = d.Nack(false, false)
					continue
				}

				record := model.QuestionRecord{
					RoomID:     event.RoomID,
					UserID:     event.UserID,
					Query:      event.Query,
					Topic:      event.Topic,
					AnsweredAt: event.AnsweredAt,
				}
				if err := w.repo.Create(workerCtx, &record); err != nil {
					log.Printf("worker persist question failed: %v", err)
					_ = d.Nack(false, false)
					continue
				}

				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

func (w *QuestionLogWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
