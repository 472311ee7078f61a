package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/visdata-app/visdata/internal/pkg/response"
	"github.com/visdata-app/visdata/internal/service"
)

type AIHandler struct {
	charts *service.ChartService
}

func NewAIHandler(charts *service.ChartService) *AIHandler {
	return &AIHandler{charts: charts}
}

func (h *AIHandler) RecommendChart(c *gin.Context) {
	user := currentUser(c)
	fileID, err := idParam(c, "id")
	if err != nil {
		handleError(c, err)
		return
	}
	recommendation, err := h.charts.Recommend(c.Request.Context(), user.ID, fileID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"recommendation": recommendation})
}

func (h *AIHandler) AnalyzeFile(c *gin.Context) {
	user := currentUser(c)
	fileID, err := idParam(c, "id")
	if err != nil {
		handleError(c, err)
		return
	}
	analysis, err := h.charts.Analyze(c.Request.Context(), user.ID, fileID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, analysis)
}

type chatRequest struct {
	Message string `json:"message"`
}

func (h *AIHandler) Chat(c *gin.Context) {
	user := currentUser(c)
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
		return
	}
	result, err := h.charts.Chat(c.Request.Context(), user.ID, req.Message)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}
