package http

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"eduroom/internal/ai"
	appsvc "eduroom/internal/app"
	"eduroom/internal/bootstrap"
	"eduroom/internal/cache"
	"eduroom/internal/extract"
	"eduroom/internal/model"
	"eduroom/internal/pkg/upload"
	"eduroom/internal/platform/rabbitmq"
	"eduroom/internal/repository"
	"eduroom/internal/transport/http/handler"
	"eduroom/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) (*gin.Engine, error) {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	roomRepo := repository.NewRoomRepository(app.DB)
	docRepo := repository.NewDocumentRepository(app.DB, app.Config.Mongo.VectorIndex, app.Config.Mongo.NumCandidates)
	userRepo := repository.NewUserRepository(app.DB)

	transcripts := extract.NewTranscriptClient("", "en")
	extractor := extract.New(transcripts, app.Config.HuggingFace.MaxInputChars)

	embedder := ai.NewHuggingFaceClient(ai.HuggingFaceConfig{
		BaseURL: app.Config.HuggingFace.BaseURL,
		APIKey:  app.Config.HuggingFace.APIKey,
		Model:   app.Config.HuggingFace.Model,
	})
	topics := ai.NewTopicClassifier(ai.NewChatClient(), ai.ChatConfig{
		BaseURL: app.Config.LLM.BaseURL,
		APIKey:  app.Config.LLM.APIKey,
		Model:   app.Config.LLM.Model,
	}, app.Config.LLM.MaxTopics)
	generator := ai.NewGeneratorClient(app.Config.Generator.URL)

	answerCache := cache.NewAnswerCache(app.Redis, time.Duration(app.Config.Redis.AnswerTTLSeconds)*time.Second)
	publisher := rabbitmq.NewQuestionPublisher(app.MQConn, app.Config.RabbitMQ.QuestionLogQueue)

	uploads, err := upload.NewStore(app.Config.Upload.Dir, app.Config.Upload.MaxSizeBytes)
	if err != nil {
		return nil, fmt.Errorf("init upload store failed: %w", err)
	}

	roomService := appsvc.NewRoomService(
		roomRepo, docRepo, userRepo,
		extractor, embedder, topics, generator, uploads,
		appsvc.RoomServiceOptions{
			Cache:        answerCache,
			Events:       publisher,
			TopK:         app.Config.Mongo.TopK,
			EmbeddingDim: app.Config.HuggingFace.EmbeddingDim,
		},
	)
	roomHandler := handler.NewRoomHandler(roomService, uploads, app.Config.Upload.MaxSizeBytes)

	authJWT := middleware.AuthJWT(app.Config.Auth.JWTSecret)
	teacherOnly := middleware.RequireRole(model.RoleTeacher)

	v1 := router.Group("/api/v1")
	v1.Use(authJWT)

	rooms := v1.Group("/rooms")
	rooms.GET("", roomHandler.ListRooms)
	rooms.POST("", teacherOnly, roomHandler.CreateRoom)
	rooms.GET("/:id", roomHandler.GetRoom)
	rooms.POST("/:id/enroll", roomHandler.Enroll)
	rooms.POST("/:id/question", roomHandler.AskQuestion)
	rooms.DELETE("/:id", teacherOnly, roomHandler.DeleteRoom)

	v1.GET("/myrooms", roomHandler.MyRooms)

	return router, nil
}
