package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"eduroom/internal/model"
)

type QuestionPublisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewQuestionPublisher(conn *amqp.Connection, queueName string) *QuestionPublisher {
	return &QuestionPublisher{
		conn:      conn,
		queueName: queueName,
	}
}

func (p *QuestionPublisher) Publish(ctx context.Context, event model.QuestionEvent) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	_, err = ch.QueueDeclare(
		p.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue failed: %w", err)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal question event failed: %w", err)
	}

	if err := ch.PublishWithContext(
		ctx,
		"",
		p.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         payload,
			DeliveryMode: amqp.Persistent,
		},
	); err != nil {
		return fmt.Errorf("publish question event failed: %w", err)
	}
	return nil
}
