package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Document holds the extracted text and embedding vector backing one Room.
// A separate collection keeps the embedding eligible for Atlas $vectorSearch.
// EmbeddingModel tags which generator produced the vector so vectors from
// different models are never silently mixed in the same index.
type Document struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RoomID         primitive.ObjectID `bson:"roomId" json:"room_id"`
	Content        string             `bson:"content" json:"content"`
	Embedding      []float32          `bson:"embedding" json:"-"`
	EmbeddingModel string             `bson:"embeddingModel,omitempty" json:"embedding_model,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"created_at"`
}
