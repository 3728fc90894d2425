package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/mindmap/internal/models"
)

// QuizHandler serves per-node quiz statistics.
type QuizHandler struct {
	svc QuizService
	log *logrus.Logger
}

// NewQuizHandler creates a QuizHandler.
func NewQuizHandler(svc QuizService, log *logrus.Logger) *QuizHandler {
	return &QuizHandler{svc: svc, log: log}
}

type nodeStat struct {
	models.QuizStat
	Accuracy float64 `json:"accuracy"`
}

// Stats handles GET /api/v1/quiz-stats/:graphId.
func (h *QuizHandler) Stats(c *gin.Context) {
	graphID := c.Param("graphId")
	if err := validatePathID(graphID); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
		return
	}

	stats, err := h.svc.Stats(c.Request.Context(), graphID)
	if err != nil {
		respondServiceError(c, h.log, "quiz.stats", err)
		return
	}

	out := make(map[string]nodeStat, len(stats))
	for id, s := range stats {
		out[id] = nodeStat{QuizStat: s, Accuracy: s.Accuracy()}
	}

	c.JSON(http.StatusOK, gin.H{"graph_id": graphID, "stats": out})
}

// Record handles POST /api/v1/quiz-stats/:graphId/:nodeId.
func (h *QuizHandler) Record(c *gin.Context) {
	graphID, nodeID := c.Param("graphId"), c.Param("nodeId")
	if validatePathID(graphID) != nil || validatePathID(nodeID) != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, errBadPathID.Error())
		return
	}

	var req models.RecordAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, invalidBodyMessage)
		return
	}

	s, err := h.svc.RecordAttempt(c.Request.Context(), graphID, nodeID, req)
	if err != nil {
		respondServiceError(c, h.log, "quiz.record", err)
		return
	}

	h.log.WithFields(logrus.Fields{"action": "quiz.record", "graph_id": graphID, "node_id": nodeID, "correct": req.Correct}).Info("audit")

	c.JSON(http.StatusOK, nodeStat{QuizStat: s, Accuracy: s.Accuracy()})
}
