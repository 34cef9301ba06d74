package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/lingua-backend/internal/http/response"
	"github.com/yungbote/lingua-backend/internal/services"
)

type StudyHandler struct {
	study    services.StudyService
	playback services.PlaybackService
}

func NewStudyHandler(study services.StudyService, playback services.PlaybackService) *StudyHandler {
	return &StudyHandler{study: study, playback: playback}
}

// GET /api/lessons/:id/flashcards?mode=term|meaning&shuffle=true&seed=S
func (h *StudyHandler) Flashcards(c *gin.Context) {
	lessonID, ok := pathID(c, "id")
	if !ok {
		return
	}
	shuffle, err := queryBool(c, "shuffle")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	seed, err := querySeed(c)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	deck, err := h.study.Flashcards(c.Request.Context(), lessonID, services.FlashcardOptions{
		Mode:    strings.TrimSpace(c.Query("mode")),
		Shuffle: shuffle,
		Seed:    seed,
	})
	if err != nil {
		response.RespondErr(c, err, "load_failed")
		return
	}
	response.RespondOK(c, deck)
}

// POST /api/flashcards/reviews
// body: { "vocabulary_item_id": "...", "known": true }
func (h *StudyHandler) RecordReview(c *gin.Context) {
	var req services.Review
	if !bindJSON(c, &req) {
		return
	}
	progress, err := h.study.RecordReview(c.Request.Context(), req)
	if err != nil {
		response.RespondErr(c, err, "review_failed")
		return
	}
	response.RespondOK(c, gin.H{"progress": progress})
}

// GET /api/lessons/:id/test?size=N&seed=S
func (h *StudyHandler) BuildTest(c *gin.Context) {
	lessonID, ok := pathID(c, "id")
	if !ok {
		return
	}
	size, err := queryInt(c, "size")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	seed, err := querySeed(c)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	test, err := h.study.BuildTest(c.Request.Context(), lessonID, services.TestOptions{Size: size, Seed: seed})
	if err != nil {
		response.RespondErr(c, err, "load_failed")
		return
	}
	response.RespondOK(c, test)
}

// POST /api/lessons/:id/test/submit
// body: { "answers": [{ "vocabulary_item_id": "...", "chosen": "..." }] }
func (h *StudyHandler) SubmitTest(c *gin.Context) {
	lessonID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Answers []services.SubmittedAnswer `json:"answers"`
	}
	if !bindJSON(c, &req) {
		return
	}
	attempt, err := h.study.SubmitTest(c.Request.Context(), lessonID, req.Answers)
	if err != nil {
		response.RespondErr(c, err, "submit_failed")
		return
	}
	response.RespondOK(c, gin.H{"attempt": attempt})
}

// GET /api/me/progress
func (h *StudyHandler) Progress(c *gin.Context) {
	progress, err := h.study.Progress(c.Request.Context())
	if err != nil {
		response.RespondErr(c, err, "load_failed")
		return
	}
	response.RespondOK(c, gin.H{"lessons": progress})
}

// GET /api/lessons/:id/playback?include_translation=true&repeat=1
func (h *StudyHandler) Playback(c *gin.Context) {
	lessonID, ok := pathID(c, "id")
	if !ok {
		return
	}
	includeTranslation, err := queryBool(c, "include_translation")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	repeat, err := queryInt(c, "repeat")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	plan, err := h.playback.Plan(c.Request.Context(), lessonID, services.PlaybackOptions{
		IncludeTranslation: includeTranslation,
		Repeat:             repeat,
	})
	if err != nil {
		response.RespondErr(c, err, "load_failed")
		return
	}
	response.RespondOK(c, plan)
}
