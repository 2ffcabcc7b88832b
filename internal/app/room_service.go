package app

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"eduroom/internal/extract"
	"eduroom/internal/model"
)

const defaultTopK = 3

// Store and client contracts the service depends on. Concrete
// implementations live in repository, extract, ai, cache and pkg/upload;
// tests substitute fakes.

type RoomStore interface {
	Create(ctx context.Context, room *model.Room) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*model.Room, error)
	List(ctx context.Context) ([]model.Room, error)
	ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]model.Room, error)
	SetTopicCounts(ctx context.Context, id primitive.ObjectID, counts map[string]int) error
	SetEmbeddingMetadata(ctx context.Context, id primitive.ObjectID, meta model.EmbeddingMetadata) error
	IncrementTopicCount(ctx context.Context, id primitive.ObjectID, topic string) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type DocumentStore interface {
	Create(ctx context.Context, doc *model.Document) error
	GetByRoomID(ctx context.Context, roomID primitive.ObjectID) (*model.Document, error)
	DeleteByRoomID(ctx context.Context, roomID primitive.ObjectID) error
	SimilaritySearch(ctx context.Context, vector []float32, k int) ([]model.Document, error)
}

type UserStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*model.User, error)
	AppendRoom(ctx context.Context, userID, roomID primitive.ObjectID) error
	RemoveRoomFromAll(ctx context.Context, roomID primitive.ObjectID) error
}

type TextExtractor interface {
	Extract(ctx context.Context, src extract.Source) (extract.Result, error)
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Model() string
}

type TopicModel interface {
	DiscoverTopics(ctx context.Context, text string) ([]string, error)
	ClassifyQuery(ctx context.Context, query string, topics []string) (string, error)
}

type AnswerGenerator interface {
	Answer(ctx context.Context, query string, embedding []float32, contextText string) (string, error)
}

// AnswerCache is optional; a nil cache disables answer reuse.
type AnswerCache interface {
	GetAnswer(ctx context.Context, roomID primitive.ObjectID, query string) (string, bool, error)
	SetAnswer(ctx context.Context, roomID primitive.ObjectID, query, answer string) error
	DeleteRoom(ctx context.Context, roomID primitive.ObjectID) error
}

// QuestionPublisher is optional; a nil publisher disables the async
// question log.
type QuestionPublisher interface {
	Publish(ctx context.Context, event model.QuestionEvent) error
}

// ArtifactStore removes transient uploaded files.
type ArtifactStore interface {
	Remove(path string) error
}

type RoomService struct {
	rooms     RoomStore
	docs      DocumentStore
	users     UserStore
	extractor TextExtractor
	embedder  Embedder
	topics    TopicModel
	generator AnswerGenerator
	cache     AnswerCache
	events    QuestionPublisher
	files     ArtifactStore

	topK         int
	embeddingDim int
}

type RoomServiceOptions struct {
	Cache        AnswerCache
	Events       QuestionPublisher
	TopK         int
	EmbeddingDim int
}

func NewRoomService(
	rooms RoomStore,
	docs DocumentStore,
	users UserStore,
	extractor TextExtractor,
	embedder Embedder,
	topics TopicModel,
	generator AnswerGenerator,
	files ArtifactStore,
	opts RoomServiceOptions,
) *RoomService {
	topK := opts.TopK
	if topK <= 0 {
		topK = defaultTopK
	}
	return &RoomService{
		rooms:        rooms,
		docs:         docs,
		users:        users,
		extractor:    extractor,
		embedder:     embedder,
		topics:       topics,
		generator:    generator,
		cache:        opts.Cache,
		events:       opts.Events,
		files:        files,
		topK:         topK,
		embeddingDim: opts.EmbeddingDim,
	}
}

// CreateRoomInput carries the validated upload. Exactly one of FilePath or
// VideoURL must be set; FilePath points at the transient local copy of the
// uploaded PDF.
type CreateRoomInput struct {
	TeacherID primitive.ObjectID
	Name      string
	Topic     string
	FilePath  string
	FileName  string
	VideoURL  string
}

// CreateRoom runs the ingestion pipeline: extract, embed, persist room and
// document, discover topics, seed the counter map and link the room to the
// teacher. Any failure after the room insert deletes the room and document
// again before the error is returned, so a failed ingestion leaves nothing
// behind. The transient upload is removed whenever ingestion fails.
func (s *RoomService) CreateRoom(ctx context.Context, input CreateRoomInput) (room *model.Room, err error) {
	// The local upload is transient; keep it only when ingestion succeeds
	// and it becomes the room's source artifact. Installed before any
	// validation so a rejected request cannot leak the saved file.
	defer func() {
		if err != nil && input.FilePath != "" {
			if removeErr := s.files.Remove(input.FilePath); removeErr != nil {
				log.Printf("remove uploaded file %s failed: %v", input.FilePath, removeErr)
			}
		}
	}()

	name := strings.TrimSpace(input.Name)
	topic := strings.TrimSpace(input.Topic)
	if input.TeacherID.IsZero() || name == "" || topic == "" {
		return nil, fmt.Errorf("%w: name, topic and teacher are required", ErrInvalidInput)
	}
	if input.FilePath == "" && input.VideoURL == "" {
		return nil, fmt.Errorf("%w: no source uploaded", ErrInvalidInput)
	}

	extracted, err := s.extractor.Extract(ctx, extract.Source{
		FilePath: input.FilePath,
		VideoURL: input.VideoURL,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	embedding, err := s.embedder.Embed(ctx, extracted.Text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbedding, err)
	}
	if s.embeddingDim > 0 && len(embedding) != s.embeddingDim {
		return nil, fmt.Errorf("%w: got %d dimensions, index expects %d", ErrEmbedding, len(embedding), s.embeddingDim)
	}

	source := input.FilePath
	if source == "" {
		source = input.VideoURL
	}
	room = &model.Room{
		Name:               name,
		Topic:              topic,
		Source:             source,
		TopicQuestionCount: map[string]int{},
	}
	// First durable side effect; everything below must roll it back on
	// failure.
	if err = s.rooms.Create(ctx, room); err != nil {
		return nil, err
	}

	doc := &model.Document{
		RoomID:         room.ID,
		Content:        extracted.Text,
		Embedding:      embedding,
		EmbeddingModel: s.embedder.Model(),
		CreatedAt:      time.Now(),
	}
	if err = s.docs.Create(ctx, doc); err != nil {
		s.compensate(ctx, room.ID)
		return nil, err
	}

	meta := model.EmbeddingMetadata{
		ChunksCount:    1,
		TextLength:     extracted.OriginalLength,
		ProcessedAt:    time.Now(),
		FileName:       input.FileName,
		EmbeddingModel: s.embedder.Model(),
	}
	if err = s.rooms.SetEmbeddingMetadata(ctx, room.ID, meta); err != nil {
		s.compensate(ctx, room.ID)
		return nil, err
	}

	// Topic discovery is best-effort: a room without a topic breakdown is
	// still fully usable for answering.
	counts := map[string]int{}
	topicsList, topicsErr := s.topics.DiscoverTopics(ctx, extracted.Text)
	if topicsErr != nil {
		log.Printf("topic discovery for room %s failed, continuing without topics: %v", room.ID.Hex(), topicsErr)
	} else {
		for _, t := range topicsList {
			counts[t] = 0
		}
	}
	if err = s.rooms.SetTopicCounts(ctx, room.ID, counts); err != nil {
		s.compensate(ctx, room.ID)
		return nil, err
	}

	if err = s.users.AppendRoom(ctx, input.TeacherID, room.ID); err != nil {
		s.compensate(ctx, room.ID)
		return nil, err
	}

	room.IsEmbedded = true
	room.EmbeddingMetadata = &meta
	room.TopicQuestionCount = counts
	return room, nil
}

// compensate removes the room/document pair created by a failed ingestion.
func (s *RoomService) compensate(ctx context.Context, roomID primitive.ObjectID) {
	if err := s.docs.DeleteByRoomID(ctx, roomID); err != nil {
		log.Printf("%v: delete document for room %s: %v", ErrConsistency, roomID.Hex(), err)
	}
	if err := s.rooms.Delete(ctx, roomID); err != nil {
		log.Printf("%v: delete room %s: %v", ErrConsistency, roomID.Hex(), err)
	}
}

type AskInput struct {
	RoomID primitive.ObjectID
	UserID primitive.ObjectID
	Query  string
}

type AskResult struct {
	Answer string `json:"answer"`
	Topic  string `json:"topic,omitempty"`
	Cached bool   `json:"cached,omitempty"`
}

// Ask answers a question against a room. Answering is the primary contract;
// classification and counting are telemetry and never fail the request.
func (s *RoomService) Ask(ctx context.Context, input AskInput) (*AskResult, error) {
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", ErrInvalidInput)
	}

	room, err := s.rooms.GetByID(ctx, input.RoomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, fmt.Errorf("%w: room %s", ErrNotFound, input.RoomID.Hex())
	}
	doc, err := s.docs.GetByRoomID(ctx, input.RoomID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: document for room %s", ErrNotFound, input.RoomID.Hex())
	}

	result := &AskResult{}
	answer, cached := s.cachedAnswer(ctx, input.RoomID, query)
	if cached {
		result.Answer = answer
		result.Cached = true
	} else {
		answer, err = s.generateAnswer(ctx, query)
		if err != nil {
			return nil, err
		}
		result.Answer = answer
		s.storeAnswer(ctx, input.RoomID, query, answer)
	}

	// Failures past this point must not take the answer away from the user.
	topic, err := s.topics.ClassifyQuery(ctx, query, room.Topics())
	if err != nil {
		log.Printf("classify question for room %s failed, counter not updated: %v", input.RoomID.Hex(), err)
		return result, nil
	}
	// The counter key becomes a mongo field path, so it must be sanitized
	// even if the classifier already did.
	topic = model.SanitizeTopic(topic)
	if topic == "" {
		log.Printf("classifier returned an empty topic for room %s, counter not updated", input.RoomID.Hex())
		return result, nil
	}
	result.Topic = topic

	if err := s.rooms.IncrementTopicCount(ctx, input.RoomID, topic); err != nil {
		log.Printf("increment topic %q for room %s failed: %v", topic, input.RoomID.Hex(), err)
	}
	s.publishQuestion(ctx, model.QuestionEvent{
		RoomID:     input.RoomID,
		UserID:     input.UserID,
		Query:      query,
		Topic:      topic,
		AnsweredAt: time.Now(),
	})
	return result, nil
}

// generateAnswer embeds the query, retrieves context via similarity search
// and calls the generator. Zero retrieved documents is a generation failure:
// an answer with no grounding context is worse than no answer.
func (s *RoomService) generateAnswer(ctx context.Context, query string) (string, error) {
	queryEmbedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEmbedding, err)
	}

	similar, err := s.docs.SimilaritySearch(ctx, queryEmbedding, s.topK)
	if err != nil {
		return "", err
	}
	if len(similar) == 0 {
		return "", fmt.Errorf("%w: no matching documents for the query", ErrGeneration)
	}

	parts := make([]string, 0, len(similar))
	for _, d := range similar {
		parts = append(parts, d.Content)
	}
	contextText := strings.Join(parts, "\n\n")

	answer, err := s.generator.Answer(ctx, query, queryEmbedding, contextText)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	return answer, nil
}

func (s *RoomService) cachedAnswer(ctx context.Context, roomID primitive.ObjectID, query string) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	answer, ok, err := s.cache.GetAnswer(ctx, roomID, query)
	if err != nil {
		log.Printf("answer cache read for room %s failed: %v", roomID.Hex(), err)
		return "", false
	}
	return answer, ok
}

func (s *RoomService) storeAnswer(ctx context.Context, roomID primitive.ObjectID, query, answer string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetAnswer(ctx, roomID, query, answer); err != nil {
		log.Printf("answer cache write for room %s failed: %v", roomID.Hex(), err)
	}
}

func (s *RoomService) publishQuestion(ctx context.Context, event model.QuestionEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		log.Printf("publish question event for room %s failed: %v", event.RoomID.Hex(), err)
	}
}

func (s *RoomService) ListRooms(ctx context.Context) ([]model.Room, error) {
	return s.rooms.List(ctx)
}

func (s *RoomService) GetRoom(ctx context.Context, id primitive.ObjectID) (*model.Room, error) {
	room, err := s.rooms.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, fmt.Errorf("%w: room %s", ErrNotFound, id.Hex())
	}
	return room, nil
}

// ListRoomsForUser returns the rooms the user created or enrolled in.
func (s *RoomService) ListRoomsForUser(ctx context.Context, userID primitive.ObjectID) ([]model.Room, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID.Hex())
	}
	return s.rooms.ListByIDs(ctx, user.Rooms)
}

// Enroll gives a student access to a room.
func (s *RoomService) Enroll(ctx context.Context, roomID, studentID primitive.ObjectID) error {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return err
	}
	if room == nil {
		return fmt.Errorf("%w: room %s", ErrNotFound, roomID.Hex())
	}
	user, err := s.users.GetByID(ctx, studentID)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("%w: user %s", ErrNotFound, studentID.Hex())
	}
	if user.HasRoom(roomID) {
		return ErrAlreadyEnrolled
	}
	return s.users.AppendRoom(ctx, studentID, roomID)
}

// DeleteRoom removes the room, its document, every user's reference to it,
// its cached answers and its source artifact. A missing room is NotFound
// with no side effects.
func (s *RoomService) DeleteRoom(ctx context.Context, roomID primitive.ObjectID) error {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return err
	}
	if room == nil {
		return fmt.Errorf("%w: room %s", ErrNotFound, roomID.Hex())
	}

	if err := s.rooms.Delete(ctx, roomID); err != nil {
		return err
	}
	if err := s.docs.DeleteByRoomID(ctx, roomID); err != nil {
		err = fmt.Errorf("%w: room %s deleted but document remains: %v", ErrConsistency, roomID.Hex(), err)
		log.Print(err)
		return err
	}
	if err := s.users.RemoveRoomFromAll(ctx, roomID); err != nil {
		err = fmt.Errorf("%w: room %s deleted but user references remain: %v", ErrConsistency, roomID.Hex(), err)
		log.Print(err)
		return err
	}

	if s.cache != nil {
		if err := s.cache.DeleteRoom(ctx, roomID); err != nil {
			log.Printf("drop cached answers for room %s failed: %v", roomID.Hex(), err)
		}
	}
	// The source artifact only lives on disk for uploaded files.
	if room.Source != "" && !strings.HasPrefix(room.Source, "http") {
		if err := s.files.Remove(room.Source); err != nil {
			log.Printf("remove source file %s failed: %v", room.Source, err)
		}
	}
	return nil
}
