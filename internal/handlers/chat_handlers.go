package handlers

import (
	"askchat-backend/internal/models"
	"askchat-backend/internal/services"
	"askchat-backend/pkg/httputil"
	"log"
	"net/http"
)

// ChatHandlers handles HTTP requests related to chats.
type ChatHandlers struct {
	chatService *services.ChatService
}

// NewChatHandlers creates a new ChatHandlers instance.
func NewChatHandlers(chatService *services.ChatService) *ChatHandlers {
	return &ChatHandlers{
		chatService: chatService,
	}
}

// HandleListChats returns the caller's chats, each with its latest message.
func (h *ChatHandlers) HandleListChats(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromRequest(r)
	if err != nil {
		httputil.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	chats, err := h.chatService.ListChats(r.Context(), userID)
	if err != nil {
		log.Printf("ERROR [ChatHandlers] listing chats for user %s: %v", userID, err)
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to list chats")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, models.DataResponse{Data: chats})
}

// HandleCreateChat creates an empty chat.
func (h *ChatHandlers) HandleCreateChat(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromRequest(r)
	if err != nil {
		httputil.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	chat, err := h.chatService.CreateChat(r.Context(), userID)
	if err != nil {
		log.Printf("ERROR [ChatHandlers] creating chat for user %s: %v", userID, err)
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to create chat")
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, models.DataResponse{Data: chat})
}

// HandleGetChat returns one chat with all messages, or {"data": null} with 404.
func (h *ChatHandlers) HandleGetChat(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromRequest(r)
	if err != nil {
		httputil.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	chatID, err := chatIDFromRequest(r)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid chat ID")
		return
	}

	chat, err := h.chatService.GetChat(r.Context(), userID, chatID)
	if err != nil {
		log.Printf("ERROR [ChatHandlers] getting chat %s: %v", chatID, err)
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to get chat")
		return
	}
	if chat == nil {
		httputil.RespondJSON(w, http.StatusNotFound, models.DataResponse{Data: nil})
		return
	}
	httputil.RespondJSON(w, http.StatusOK, models.DataResponse{Data: chat})
}

// HandleDeleteChat deletes a chat the caller owns. Foreign or missing chats
// get {"data": null} with 404 and nothing is changed.
func (h *ChatHandlers) HandleDeleteChat(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromRequest(r)
	if err != nil {
		httputil.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	chatID, err := chatIDFromRequest(r)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid chat ID")
		return
	}

	chat, err := h.chatService.DeleteChat(r.Context(), userID, chatID)
	if err != nil {
		log.Printf("ERROR [ChatHandlers] deleting chat %s: %v", chatID, err)
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to delete chat")
		return
	}
	if chat == nil {
		httputil.RespondJSON(w, http.StatusNotFound, models.DataResponse{Data: nil})
		return
	}
	httputil.RespondJSON(w, http.StatusOK, models.DataResponse{Data: chat})
}
