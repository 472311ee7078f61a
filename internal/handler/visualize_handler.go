package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/visdata-app/visdata/internal/pkg/response"
	"github.com/visdata-app/visdata/internal/service"
)

type VisualizeHandler struct {
	datasets *service.DatasetService
}

func NewVisualizeHandler(datasets *service.DatasetService) *VisualizeHandler {
	return &VisualizeHandler{datasets: datasets}
}

// Data returns the parsed dataset (column names plus up to the row cap)
// in the shape the chart renderer consumes.
func (h *VisualizeHandler) Data(c *gin.Context) {
	user := currentUser(c)
	fileID, err := idParam(c, "id")
	if err != nil {
		handleError(c, err)
		return
	}
	table, err := h.datasets.Data(c.Request.Context(), user.ID, fileID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, table)
}
