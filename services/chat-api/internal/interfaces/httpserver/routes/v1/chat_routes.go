package v1

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"chatter-server/services/chat-api/internal/domain/chat"
	"chatter-server/services/chat-api/internal/infrastructure/metrics"
	"chatter-server/services/chat-api/internal/interfaces/httpserver/handlers/roomhandler"
	"chatter-server/services/chat-api/internal/interfaces/httpserver/middlewares"
	"chatter-server/services/chat-api/internal/interfaces/httpserver/requests"
	"chatter-server/services/chat-api/internal/interfaces/httpserver/responses"
)

// RegisterChatRoutes registers the room management routes. All of them require
// an authenticated identity resolved by the Identity middleware.
func RegisterChatRoutes(router gin.IRoutes, handler *roomhandler.Handler, pageSize int) {
	router.POST("/chat/rooms/", createRoom(handler))
	router.GET("/chat/rooms/", listRooms(handler))
	router.GET("/chat/rooms/:room_id/messages/", listMessages(handler, pageSize))
}

func createRoom(handler *roomhandler.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := middlewares.GetIdentity(c)

		var req requests.CreateRoomRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			responses.HandleValidationError(c, err)
			return
		}

		room, created, err := handler.CreateRoom(c.Request.Context(), identity, chat.CreateRoomInput{
			Name:        req.Name,
			Description: req.Description,
			IsGroup:     req.IsGroup,
			Usernames:   req.Usernames,
		})
		if err != nil {
			responses.HandleError(c, err, "failed to create room")
			return
		}

		resp := responses.NewRoomResponse(room)
		if created {
			kind := "direct"
			if room.IsGroup {
				kind = "group"
			}
			metrics.RoomsCreated.WithLabelValues(kind).Inc()
			c.JSON(http.StatusCreated, resp)
			return
		}
		resp.AlreadyExists = true
		c.JSON(http.StatusOK, resp)
	}
}

func listRooms(handler *roomhandler.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := middlewares.GetIdentity(c)

		rooms, err := handler.ListRooms(c.Request.Context(), identity)
		if err != nil {
			responses.HandleError(c, err, "failed to list rooms")
			return
		}

		c.JSON(http.StatusOK, responses.NewListRoomsResponse(rooms))
	}
}

func listMessages(handler *roomhandler.Handler, pageSize int) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := middlewares.GetIdentity(c)

		roomID, err := uuid.Parse(c.Param("room_id"))
		if err != nil {
			responses.HandleError(c, chat.ErrRoomNotFound, "room not found")
			return
		}

		limit := pageSize
		if raw := c.Query("limit"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= pageSize {
				limit = n
			}
		}
		offset := 0
		if raw := c.Query("offset"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
				offset = n
			}
		}

		msgs, err := handler.ListMessages(c.Request.Context(), identity, roomID, limit, offset)
		if err != nil {
			responses.HandleError(c, err, "failed to list messages")
			return
		}

		c.JSON(http.StatusOK, responses.NewListMessagesResponse(msgs, limit, offset))
	}
}
