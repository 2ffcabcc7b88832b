package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"eduroom/internal/model"
)

type DocumentRepository struct {
	coll          *mongo.Collection
	vectorIndex   string
	numCandidates int
}

func NewDocumentRepository(db *mongo.Database, vectorIndex string, numCandidates int) *DocumentRepository {
	if numCandidates <= 0 {
		numCandidates = 100
	}
	return &DocumentRepository{
		coll:          db.Collection("documents"),
		vectorIndex:   vectorIndex,
		numCandidates: numCandidates,
	}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *model.Document) error {
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("create document failed: %w", err)
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *DocumentRepository) GetByRoomID(ctx context.Context, roomID primitive.ObjectID) (*model.Document, error) {
	var doc model.Document
	if err := r.coll.FindOne(ctx, bson.M{"roomId": roomID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document by room failed: %w", err)
	}
	return &doc, nil
}

func (r *DocumentRepository) DeleteByRoomID(ctx context.Context, roomID primitive.ObjectID) error {
	if _, err := r.coll.DeleteMany(ctx, bson.M{"roomId": roomID}); err != nil {
		return fmt.Errorf("delete documents by room failed: %w", err)
	}
	return nil
}

// SimilaritySearch returns the k documents nearest to the query vector using
// the Atlas vector index on the embedding field.
func (r *DocumentRepository) SimilaritySearch(ctx context.Context, vector []float32, k int) ([]model.Document, error) {
	if len(vector) == 0 || k <= 0 {
		return nil, nil
	}
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$vectorSearch", Value: bson.D{
			{Key: "index", Value: r.vectorIndex},
			{Key: "path", Value: "embedding"},
			{Key: "queryVector", Value: vector},
			{Key: "numCandidates", Value: r.numCandidates},
			{Key: "limit", Value: k},
		}}},
	}

	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	defer cur.Close(ctx)

	var docs []model.Document
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode vector search results failed: %w", err)
	}
	return docs, nil
}
