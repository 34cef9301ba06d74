package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/lingua-backend/internal/http/response"
	"github.com/yungbote/lingua-backend/internal/services"
)

const maxCoverBytes = 10 << 20

type CatalogHandler struct {
	catalog services.CatalogService
	tree    services.TreeService
}

func NewCatalogHandler(catalog services.CatalogService, tree services.TreeService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, tree: tree}
}

// ---------- books ----------

// GET /api/books
func (h *CatalogHandler) ListBooks(c *gin.Context) {
	books, err := h.catalog.ListBooks(c.Request.Context())
	if err != nil {
		response.RespondErr(c, err, "load_failed")
		return
	}
	response.RespondOK(c, gin.H{"books": books})
}

// GET /api/books/:id
func (h *CatalogHandler) GetBook(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	book, err := h.catalog.GetBook(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err, "load_failed")
		return
	}
	response.RespondOK(c, gin.H{"book": book})
}

// GET /api/books/:id/tree
func (h *CatalogHandler) GetBookTree(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	tree, err := h.tree.GetBookTree(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err, "load_failed")
		return
	}
	response.RespondOK(c, gin.H{"tree": tree})
}

// POST /api/books
func (h *CatalogHandler) CreateBook(c *gin.Context) {
	var req services.BookFields
	if !bindJSON(c, &req) {
		return
	}
	book, err := h.catalog.CreateBook(c.Request.Context(), req)
	if err != nil {
		response.RespondErr(c, err, "create_failed")
		return
	}
	response.RespondCreated(c, gin.H{"book": book})
}

// PATCH /api/books/:id
func (h *CatalogHandler) UpdateBook(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.BookFields
	if !bindJSON(c, &req) {
		return
	}
	book, err := h.catalog.UpdateBook(c.Request.Context(), id, req)
	if err != nil {
		response.RespondErr(c, err, "update_failed")
		return
	}
	response.RespondOK(c, gin.H{"book": book})
}

// DELETE /api/books/:id
func (h *CatalogHandler) DeleteBook(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteBook(c.Request.Context(), id); err != nil {
		response.RespondErr(c, err, "delete_failed")
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// POST /api/books/:id/cover (multipart/form-data)
// field: "file"
func (h *CatalogHandler) UploadCover(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "missing_file", err)
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "open_file_failed", err)
		return
	}
	defer f.Close()

	raw, err := io.ReadAll(io.LimitReader(f, maxCoverBytes+1))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "read_file_failed", err)
		return
	}
	if len(raw) > maxCoverBytes {
		response.RespondError(c, http.StatusRequestEntityTooLarge, "file_too_large", nil)
		return
	}
	book, err := h.catalog.UploadBookCover(c.Request.Context(), id, raw)
	if err != nil {
		response.RespondErr(c, err, "upload_cover_failed")
		return
	}
	response.RespondOK(c, gin.H{"book": book})
}

// ---------- units ----------

// GET /api/books/:id/units
func (h *CatalogHandler) ListUnits(c *gin.Context) {
	bookID, ok := pathID(c, "id")
	if !ok {
		return
	}
	units, err := h.catalog.ListUnits(c.Request.Context(), bookID)
	if err != nil {
		response.RespondErr(c, err, "load_failed")
		return
	}
	response.RespondOK(c, gin.H{"units": units})
}

// GET /api/units/:id
func (h *CatalogHandler) GetUnit(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	unit, err := h.catalog.GetUnit(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err, "load_failed")
		return
	}
	response.RespondOK(c, gin.H{"unit": unit})
}

// POST /api/books/:id/units
func (h *CatalogHandler) CreateUnit(c *gin.Context) {
	bookID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.UnitFields
	if !bindJSON(c, &req) {
		return
	}
	unit, err := h.catalog.CreateUnit(c.Request.Context(), bookID, req)
	if err != nil {
		response.RespondErr(c, err, "create_failed")
		return
	}
	response.RespondCreated(c, gin.H{"unit": unit})
}

// PATCH /api/units/:id
func (h *CatalogHandler) UpdateUnit(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.UnitFields
	if !bindJSON(c, &req) {
		return
	}
	unit, err := h.catalog.UpdateUnit(c.Request.Context(), id, req)
	if err != nil {
		response.RespondErr(c, err, "update_failed")
		return
	}
	response.RespondOK(c, gin.H{"unit": unit})
}

// DELETE /api/units/:id
func (h *CatalogHandler) DeleteUnit(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteUnit(c.Request.Context(), id); err != nil {
		response.RespondErr(c, err, "delete_failed")
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// PUT /api/books/:id/units/order
// body: { "ids": ["...", "..."] }
func (h *CatalogHandler) ReorderUnits(c *gin.Context) {
	bookID, ok := pathID(c, "id")
	if !ok {
		return
	}
	ids, ok := bindOrder(c)
	if !ok {
		return
	}
	units, err := h.catalog.ReorderUnits(c.Request.Context(), bookID, ids)
	if err != nil {
		response.RespondErr(c, err, "reorder_failed")
		return
	}
	response.RespondOK(c, gin.H{"units": units})
}

// ---------- lessons ----------

// GET /api/units/:id/lessons
func (h *CatalogHandler) ListLessons(c *gin.Context) {
	unitID, ok := pathID(c, "id")
	if !ok {
		return
	}
	lessons, err := h.catalog.ListLessons(c.Request.Context(), unitID)
	if err != nil {
		response.RespondErr(c, err, "load_failed")
		return
	}
	response.RespondOK(c, gin.H{"lessons": lessons})
}

// GET /api/lessons/:id
func (h *CatalogHandler) GetLesson(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	lesson, err := h.catalog.GetLesson(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err, "load_failed")
		return
	}
	response.RespondOK(c, gin.H{"lesson": lesson})
}

// POST /api/units/:id/lessons
func (h *CatalogHandler) CreateLesson(c *gin.Context) {
	unitID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.LessonFields
	if !bindJSON(c, &req) {
		return
	}
	lesson, err := h.catalog.CreateLesson(c.Request.Context(), unitID, req)
	if err != nil {
		response.RespondErr(c, err, "create_failed")
		return
	}
	response.RespondCreated(c, gin.H{"lesson": lesson})
}

// PATCH /api/lessons/:id
func (h *CatalogHandler) UpdateLesson(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.LessonFields
	if !bindJSON(c, &req) {
		return
	}
	lesson, err := h.catalog.UpdateLesson(c.Request.Context(), id, req)
	if err != nil {
		response.RespondErr(c, err, "update_failed")
		return
	}
	response.RespondOK(c, gin.H{"lesson": lesson})
}

// DELETE /api/lessons/:id
func (h *CatalogHandler) DeleteLesson(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteLesson(c.Request.Context(), id); err != nil {
		response.RespondErr(c, err, "delete_failed")
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// PUT /api/units/:id/lessons/order
func (h *CatalogHandler) ReorderLessons(c *gin.Context) {
	unitID, ok := pathID(c, "id")
	if !ok {
		return
	}
	ids, ok := bindOrder(c)
	if !ok {
		return
	}
	lessons, err := h.catalog.ReorderLessons(c.Request.Context(), unitID, ids)
	if err != nil {
		response.RespondErr(c, err, "reorder_failed")
		return
	}
	response.RespondOK(c, gin.H{"lessons": lessons})
}
