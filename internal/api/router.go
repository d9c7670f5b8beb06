package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"landlord-service/internal/middleware"
	"landlord-service/internal/service"
	usersvc "landlord-service/internal/service/user"
	"landlord-service/internal/ws"
	appErr "landlord-service/pkg/errors"
	"landlord-service/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	services *service.Container
}

func RegisterRoutes(r *gin.Engine, services *service.Container) {
	handler := &Handler{services: services}
	wsHandler := ws.NewHandler(services.Auth, services.Room)

	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{"message": "pong"})
	})

	v1 := r.Group("/landlord/v1")
	{
		v1.POST("/auth/guest", handler.GuestLogin)
		v1.GET("/leaderboard", handler.Leaderboard)

		userGroup := v1.Group("/user")
		userGroup.Use(middleware.AuthRequired())
		{
			userGroup.GET("/profile", handler.GetProfile)
			userGroup.PUT("/profile", handler.UpdateProfile)
		}

		roomGroup := v1.Group("/rooms")
		roomGroup.Use(middleware.AuthRequired())
		{
			roomGroup.GET("", handler.ListRooms)
			roomGroup.POST("", handler.CreateRoom)
			roomGroup.POST("/:code/join", handler.JoinRoom)
			roomGroup.POST("/:code/leave", handler.LeaveRoom)
			roomGroup.GET("/:code", handler.GetRoom)
			roomGroup.GET("/:code/history", handler.RoomHistory)
		}
	}

	r.GET("/ws/room/:code", wsHandler.HandleRoomWS)
}

type guestLoginBody struct {
	Nickname string `json:"nickname" binding:"required"`
}

type updateProfileBody struct {
	Nickname *string `json:"nickname"`
	Avatar   *string `json:"avatar"`
}

func (h *Handler) GuestLogin(c *gin.Context) {
	var body guestLoginBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.services.Auth.GuestLogin(c.Request.Context(), body.Nickname)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, appErr.ErrInvalidNickname) {
			status = http.StatusBadRequest
		}
		response.Error(c, status, err.Error())
		return
	}

	response.Success(c, resp)
}

func (h *Handler) GetProfile(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	profile, err := h.services.User.GetProfile(c.Request.Context(), userID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, appErr.ErrUserNotFound) {
			status = http.StatusNotFound
		}
		response.Error(c, status, err.Error())
		return
	}
	response.Success(c, profile)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var body updateProfileBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.services.User.UpdateProfile(c.Request.Context(), userID, usersvc.UpdateProfileRequest{
		Nickname: body.Nickname,
		Avatar:   body.Avatar,
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, appErr.ErrInvalidNickname) {
			status = http.StatusBadRequest
		}
		response.Error(c, status, err.Error())
		return
	}
	response.Success(c, updated)
}

func (h *Handler) Leaderboard(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			response.Error(c, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	users, err := h.services.User.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, gin.H{"players": users})
}

func (h *Handler) ListRooms(c *gin.Context) {
	response.Success(c, gin.H{"rooms": h.services.Room.List()})
}

func (h *Handler) CreateRoom(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	name, err := h.displayName(c, userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}

	rt, err := h.services.Room.Create(c.Request.Context(), userID, name)
	if err != nil {
		h.handleRoomError(c, err)
		return
	}
	response.Success(c, gin.H{"room": rt.ExportState(userID)})
}

func (h *Handler) JoinRoom(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	code, ok := roomCodeParam(c)
	if !ok {
		return
	}
	name, err := h.displayName(c, userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}

	rt, err := h.services.Room.Join(c.Request.Context(), code, userID, name)
	if err != nil {
		h.handleRoomError(c, err)
		return
	}
	response.Success(c, gin.H{"room": rt.ExportState(userID)})
}

func (h *Handler) LeaveRoom(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	code, ok := roomCodeParam(c)
	if !ok {
		return
	}

	if err := h.services.Room.Leave(c.Request.Context(), code, userID); err != nil {
		h.handleRoomError(c, err)
		return
	}
	response.Success(c, gin.H{})
}

func (h *Handler) GetRoom(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	code, ok := roomCodeParam(c)
	if !ok {
		return
	}

	rt, err := h.services.Room.Get(code)
	if err != nil {
		h.handleRoomError(c, err)
		return
	}
	response.Success(c, gin.H{"room": rt.ExportState(userID)})
}

func (h *Handler) RoomHistory(c *gin.Context) {
	code, ok := roomCodeParam(c)
	if !ok {
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			response.Error(c, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	records, err := h.services.Record.History(c.Request.Context(), code, limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, gin.H{"records": records})
}

func (h *Handler) displayName(c *gin.Context, userID int64) (string, error) {
	profile, err := h.services.User.GetProfile(c.Request.Context(), userID)
	if err != nil {
		return "", err
	}
	return profile.Nickname, nil
}

func (h *Handler) handleRoomError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, appErr.ErrRoomNotFound):
		response.Error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, appErr.ErrRoomFull),
		errors.Is(err, appErr.ErrRoomNotInLobby),
		errors.Is(err, appErr.ErrNotEnoughPlayers),
		errors.Is(err, appErr.ErrPlayersNotReady):
		response.Error(c, http.StatusConflict, err.Error())
	case errors.Is(err, appErr.ErrNotInRoom):
		response.Error(c, http.StatusForbidden, err.Error())
	case errors.Is(err, appErr.ErrRoomCodeExhausted):
		response.Error(c, http.StatusServiceUnavailable, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, err.Error())
	}
}

func roomCodeParam(c *gin.Context) (string, bool) {
	code := strings.ToUpper(strings.TrimSpace(c.Param("code")))
	if code == "" {
		response.Error(c, http.StatusBadRequest, "invalid room code")
		return "", false
	}
	return code, true
}

func getUserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(middleware.ContextUserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}
