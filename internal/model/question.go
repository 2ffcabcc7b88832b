package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// QuestionEvent is published to the broker after a question is answered and
// consumed by the question log worker. Losing one is acceptable; answering
// never waits on it.
type QuestionEvent struct {
	RoomID     primitive.ObjectID `json:"room_id"`
	UserID     primitive.ObjectID `json:"user_id"`
	Query      string             `json:"query"`
	Topic      string             `json:"topic,omitempty"`
	AnsweredAt time.Time          `json:"answered_at"`
}

// QuestionRecord is the persisted form of a QuestionEvent.
type QuestionRecord struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RoomID     primitive.ObjectID `bson:"roomId" json:"room_id"`
	UserID     primitive.ObjectID `bson:"userId" json:"user_id"`
	Query      string             `bson:"query" json:"query"`
	Topic      string             `bson:"topic,omitempty" json:"topic,omitempty"`
	AnsweredAt time.Time          `bson:"answeredAt" json:"answered_at"`
}
