package handler

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"eduroom/internal/app"
	"eduroom/internal/pkg/upload"
	"eduroom/internal/transport/http/middleware"
	"eduroom/internal/transport/http/response"
)

type RoomHandler struct {
	roomService *app.RoomService
	uploads     *upload.Store
	maxFileSize int64
}

type AskQuestionRequest struct {
	Query string `json:"query" binding:"required"`
}

func NewRoomHandler(roomService *app.RoomService, uploads *upload.Store, maxFileSize int64) *RoomHandler {
	return &RoomHandler{
		roomService: roomService,
		uploads:     uploads,
		maxFileSize: maxFileSize,
	}
}

func (h *RoomHandler) ListRooms(c *gin.Context) {
	rooms, err := h.roomService.ListRooms(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list rooms failed")
		return
	}
	response.OK(c, rooms)
}

func (h *RoomHandler) MyRooms(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	rooms, err := h.roomService.ListRoomsForUser(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, app.ErrNotFound) {
			response.Error(c, http.StatusNotFound, response.CodeRoomNotFound, "user not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list rooms failed")
		return
	}
	response.OK(c, rooms)
}

func (h *RoomHandler) GetRoom(c *gin.Context) {
	roomID, err := parseObjectIDParam(c, "id")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid room id")
		return
	}
	room, err := h.roomService.GetRoom(c.Request.Context(), roomID)
	if err != nil {
		if errors.Is(err, app.ErrNotFound) {
			response.Error(c, http.StatusNotFound, response.CodeRoomNotFound, "room not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "get room failed")
		return
	}
	response.OK(c, room)
}

// CreateRoom accepts a multipart form with "name", "topic" and either a
// "file" (PDF) or a "video_url".
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	teacherID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	name := strings.TrimSpace(c.PostForm("name"))
	topic := strings.TrimSpace(c.PostForm("topic"))
	videoURL := strings.TrimSpace(c.PostForm("video_url"))

	input := app.CreateRoomInput{
		TeacherID: teacherID,
		Name:      name,
		Topic:     topic,
		VideoURL:  videoURL,
	}

	file, fileErr := c.FormFile("file")
	if fileErr == nil && videoURL != "" {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "provide either a file or a video_url, not both")
		return
	}
	if fileErr == nil {
		if file.Size > h.maxFileSize {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "file too large")
			return
		}
		if strings.ToLower(filepath.Ext(file.Filename)) != ".pdf" {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "only PDF files are allowed")
			return
		}
		path, err := h.uploads.Save(file)
		if err != nil {
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "store uploaded file failed")
			return
		}
		input.FilePath = path
		input.FileName = file.Filename
	}

	room, err := h.roomService.CreateRoom(c.Request.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrExtraction):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "could not extract text from the source")
		case errors.Is(err, app.ErrEmbedding):
			response.Error(c, http.StatusInternalServerError, response.CodeAnswerFailed, "document processing failed, please try again")
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "create room failed")
		}
		return
	}
	response.OK(c, room)
}

func (h *RoomHandler) Enroll(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	roomID, err := parseObjectIDParam(c, "id")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid room id")
		return
	}

	if err := h.roomService.Enroll(c.Request.Context(), roomID, userID); err != nil {
		switch {
		case errors.Is(err, app.ErrAlreadyEnrolled):
			response.Error(c, http.StatusBadRequest, response.CodeAlreadyEnrolled, "already enrolled in this room")
		case errors.Is(err, app.ErrNotFound):
			response.Error(c, http.StatusNotFound, response.CodeRoomNotFound, "room not found")
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "enroll failed")
		}
		return
	}
	response.OK(c, gin.H{"enrolled_room_id": roomID.Hex()})
}

func (h *RoomHandler) AskQuestion(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	roomID, err := parseObjectIDParam(c, "id")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid room id")
		return
	}

	var req AskQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.roomService.Ask(c.Request.Context(), app.AskInput{
		RoomID: roomID,
		UserID: userID,
		Query:  req.Query,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrNotFound):
			response.Error(c, http.StatusNotFound, response.CodeRoomNotFound, "room not found")
		case errors.Is(err, app.ErrEmbedding), errors.Is(err, app.ErrGeneration):
			// Remote model detail stays in the server log.
			response.Error(c, http.StatusInternalServerError, response.CodeAnswerFailed, "could not answer the question, please try again")
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "ask failed")
		}
		return
	}
	response.OK(c, result)
}

func (h *RoomHandler) DeleteRoom(c *gin.Context) {
	roomID, err := parseObjectIDParam(c, "id")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid room id")
		return
	}

	if err := h.roomService.DeleteRoom(c.Request.Context(), roomID); err != nil {
		switch {
		case errors.Is(err, app.ErrNotFound):
			response.Error(c, http.StatusNotFound, response.CodeRoomNotFound, "room not found")
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "delete room failed")
		}
		return
	}
	response.OK(c, gin.H{"deleted_room_id": roomID.Hex()})
}

func getUserIDFromContext(c *gin.Context) (primitive.ObjectID, bool) {
	raw := c.GetString(middleware.ContextUserIDKey)
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

func parseObjectIDParam(c *gin.Context, key string) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(c.Param(key))
}
