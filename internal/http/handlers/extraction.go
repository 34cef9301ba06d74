package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/lingua-backend/internal/http/response"
	"github.com/yungbote/lingua-backend/internal/services/extraction"
)

// formOverhead covers multipart boundaries, headers and the text fields.
const formOverhead = 1 << 20

type ExtractionHandler struct {
	svc       extraction.Service
	maxImages int
	maxBytes  int
}

func NewExtractionHandler(svc extraction.Service, maxImages, maxImageBytes int) *ExtractionHandler {
	if maxImages <= 0 {
		maxImages = 6
	}
	if maxImageBytes <= 0 {
		maxImageBytes = 8 << 20
	}
	return &ExtractionHandler{svc: svc, maxImages: maxImages, maxBytes: maxImageBytes}
}

func (h *ExtractionHandler) maxBody() int64 {
	return int64(h.maxImages)*int64(h.maxBytes) + formOverhead
}

// POST /api/lessons/:id/extract (multipart/form-data)
// fields: kind, images[] (1..N), hint, commit
func (h *ExtractionHandler) Extract(c *gin.Context) {
	lessonID, ok := pathID(c, "id")
	if !ok {
		return
	}
	limit := h.maxBody()
	if c.Request.ContentLength > limit {
		response.RespondError(c, http.StatusRequestEntityTooLarge, "payload_too_large", fmt.Errorf("request body exceeds %d bytes", limit))
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.RespondError(c, http.StatusRequestEntityTooLarge, "payload_too_large", fmt.Errorf("request body exceeds %d bytes", limit))
			return
		}
		response.RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("multipart form required: %w", err))
		return
	}
	files := form.File["images[]"]
	if len(files) == 0 {
		files = form.File["images"]
	}
	if len(files) == 0 {
		response.RespondError(c, http.StatusBadRequest, "missing_file", fmt.Errorf("at least one image required"))
		return
	}
	if len(files) > h.maxImages {
		response.RespondError(c, http.StatusBadRequest, "too_many_images", fmt.Errorf("at most %d images per request, got %d", h.maxImages, len(files)))
		return
	}

	images := make([]extraction.ImageInput, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "open_file_failed", err)
			return
		}
		// One byte over the limit is enough for the service to reject it.
		raw, err := io.ReadAll(io.LimitReader(f, int64(h.maxBytes)+1))
		_ = f.Close()
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "read_file_failed", err)
			return
		}
		images = append(images, extraction.ImageInput{Name: fh.Filename, Data: raw})
	}

	commit, err := queryBool(c, "commit")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if v := strings.TrimSpace(c.PostForm("commit")); v != "" {
		commit = v == "true" || v == "1" || v == "on"
	}

	res, err := h.svc.Extract(c.Request.Context(), extraction.Request{
		LessonID: lessonID,
		Kind:     strings.TrimSpace(c.PostForm("kind")),
		Images:   images,
		Hint:     c.PostForm("hint"),
		Commit:   commit,
	})
	if err != nil {
		response.RespondErr(c, err, "extraction_failed")
		return
	}
	response.RespondOK(c, res)
}

// POST /api/extraction-runs/:id/commit
func (h *ExtractionHandler) CommitRun(c *gin.Context) {
	runID, ok := pathID(c, "id")
	if !ok {
		return
	}
	res, err := h.svc.CommitRun(c.Request.Context(), runID)
	if err != nil {
		response.RespondErr(c, err, "commit_failed")
		return
	}
	response.RespondOK(c, res)
}

// GET /api/extraction-runs/:id
func (h *ExtractionHandler) GetRun(c *gin.Context) {
	runID, ok := pathID(c, "id")
	if !ok {
		return
	}
	res, err := h.svc.GetRun(c.Request.Context(), runID)
	if err != nil {
		response.RespondErr(c, err, "load_failed")
		return
	}
	response.RespondOK(c, res)
}

// GET /api/lessons/:id/extraction-runs?limit=N
func (h *ExtractionHandler) ListRuns(c *gin.Context) {
	lessonID, ok := pathID(c, "id")
	if !ok {
		return
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	runs, err := h.svc.ListRuns(c.Request.Context(), lessonID, limit)
	if err != nil {
		response.RespondErr(c, err, "load_failed")
		return
	}
	response.RespondOK(c, gin.H{"runs": runs})
}
