package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/lingua-backend/internal/http/response"
	"github.com/yungbote/lingua-backend/internal/services"
)

type ContentHandler struct {
	content services.ContentService
}

func NewContentHandler(content services.ContentService) *ContentHandler {
	return &ContentHandler{content: content}
}

// GET /api/lessons/:id/content
func (h *ContentHandler) GetLessonContent(c *gin.Context) {
	lessonID, ok := pathID(c, "id")
	if !ok {
		return
	}
	content, err := h.content.GetLessonContent(c.Request.Context(), lessonID)
	if err != nil {
		response.RespondErr(c, err, "load_failed")
		return
	}
	response.RespondOK(c, content)
}

// POST /api/lessons/:id/vocabulary
func (h *ContentHandler) CreateVocabulary(c *gin.Context) {
	lessonID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.VocabularyFields
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.content.CreateVocabulary(c.Request.Context(), lessonID, req)
	if err != nil {
		response.RespondErr(c, err, "create_failed")
		return
	}
	response.RespondCreated(c, gin.H{"item": item})
}

// PATCH /api/vocabulary/:id
func (h *ContentHandler) UpdateVocabulary(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.VocabularyFields
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.content.UpdateVocabulary(c.Request.Context(), id, req)
	if err != nil {
		response.RespondErr(c, err, "update_failed")
		return
	}
	response.RespondOK(c, gin.H{"item": item})
}

// DELETE /api/vocabulary/:id
func (h *ContentHandler) DeleteVocabulary(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.content.DeleteVocabulary(c.Request.Context(), id); err != nil {
		response.RespondErr(c, err, "delete_failed")
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// PUT /api/lessons/:id/vocabulary/order
func (h *ContentHandler) ReorderVocabulary(c *gin.Context) {
	lessonID, ok := pathID(c, "id")
	if !ok {
		return
	}
	ids, ok := bindOrder(c)
	if !ok {
		return
	}
	items, err := h.content.ReorderVocabulary(c.Request.Context(), lessonID, ids)
	if err != nil {
		response.RespondErr(c, err, "reorder_failed")
		return
	}
	response.RespondOK(c, gin.H{"vocabulary": items})
}

// POST /api/lessons/:id/conversation
func (h *ContentHandler) CreateConversationLine(c *gin.Context) {
	lessonID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.ConversationFields
	if !bindJSON(c, &req) {
		return
	}
	line, err := h.content.CreateConversationLine(c.Request.Context(), lessonID, req)
	if err != nil {
		response.RespondErr(c, err, "create_failed")
		return
	}
	response.RespondCreated(c, gin.H{"line": line})
}

// PATCH /api/conversation/:id
func (h *ContentHandler) UpdateConversationLine(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.ConversationFields
	if !bindJSON(c, &req) {
		return
	}
	line, err := h.content.UpdateConversationLine(c.Request.Context(), id, req)
	if err != nil {
		response.RespondErr(c, err, "update_failed")
		return
	}
	response.RespondOK(c, gin.H{"line": line})
}

// DELETE /api/conversation/:id
func (h *ContentHandler) DeleteConversationLine(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.content.DeleteConversationLine(c.Request.Context(), id); err != nil {
		response.RespondErr(c, err, "delete_failed")
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// PUT /api/lessons/:id/conversation/order
func (h *ContentHandler) ReorderConversation(c *gin.Context) {
	lessonID, ok := pathID(c, "id")
	if !ok {
		return
	}
	ids, ok := bindOrder(c)
	if !ok {
		return
	}
	lines, err := h.content.ReorderConversation(c.Request.Context(), lessonID, ids)
	if err != nil {
		response.RespondErr(c, err, "reorder_failed")
		return
	}
	response.RespondOK(c, gin.H{"conversation": lines})
}
