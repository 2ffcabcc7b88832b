package model

import (
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Room is a teacher-owned unit of knowledge content. Exactly one Document
// backs each room; topicQuestionCount maps sanitized topic keys to the number
// of questions classified into them.
type Room struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name               string             `bson:"name" json:"name"`
	Topic              string             `bson:"topic" json:"topic"`
	Source             string             `bson:"documents" json:"source"` // upload path or video URL
	IsEmbedded         bool               `bson:"isEmbedded" json:"is_embedded"`
	EmbeddingMetadata  *EmbeddingMetadata `bson:"embeddingMetadata,omitempty" json:"embedding_metadata,omitempty"`
	TopicQuestionCount map[string]int     `bson:"topicQuestionCount" json:"topic_question_count"`
	CreatedAt          time.Time          `bson:"createdAt" json:"created_at"`
	UpdatedAt          time.Time          `bson:"updatedAt" json:"updated_at"`
}

// EmbeddingMetadata records how the room's document was processed. TextLength
// is the length of the extracted text before truncation, so truncation is
// visible rather than silent.
type EmbeddingMetadata struct {
	ChunksCount    int       `bson:"chunksCount" json:"chunks_count"`
	TextLength     int       `bson:"textLength" json:"text_length"`
	ProcessedAt    time.Time `bson:"processedAt" json:"processed_at"`
	FileName       string    `bson:"fileName,omitempty" json:"file_name,omitempty"`
	EmbeddingModel string    `bson:"embeddingModel,omitempty" json:"embedding_model,omitempty"`
}

// Topics returns the room's known topic keys in a stable order.
func (r *Room) Topics() []string {
	if len(r.TopicQuestionCount) == 0 {
		return nil
	}
	topics := make([]string, 0, len(r.TopicQuestionCount))
	for topic := range r.TopicQuestionCount {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	return topics
}
