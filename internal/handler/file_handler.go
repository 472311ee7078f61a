package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/visdata-app/visdata/internal/pkg/response"
	"github.com/visdata-app/visdata/internal/service"
)

var allowedUploadTypes = map[string]struct{}{
	"text/csv": {},
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": {},
}

type FileHandler struct {
	datasets  *service.DatasetService
	maxUpload int64
}

func NewFileHandler(datasets *service.DatasetService, maxUpload int64) *FileHandler {
	return &FileHandler{datasets: datasets, maxUpload: maxUpload}
}

func (h *FileHandler) Upload(c *gin.Context) {
	user := currentUser(c)
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid_file", "file is required")
		return
	}
	if h.maxUpload > 0 && file.Size > h.maxUpload {
		response.Error(c, http.StatusBadRequest, "invalid_file", "file is too large")
		return
	}
	if _, ok := allowedUploadTypes[file.Header.Get("Content-Type")]; !ok {
		response.Error(c, http.StatusBadRequest, "invalid_file", "only CSV or XLSX files are accepted")
		return
	}
	opened, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid_file", "failed to open file")
		return
	}
	defer opened.Close()

	record, err := h.datasets.Upload(c.Request.Context(), user.ID, file.Filename, opened, file.Size)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, record)
}

func (h *FileHandler) List(c *gin.Context) {
	user := currentUser(c)
	files, err := h.datasets.List(c.Request.Context(), user.ID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, files)
}

func (h *FileHandler) Delete(c *gin.Context) {
	user := currentUser(c)
	fileID, err := idParam(c, "id")
	if err != nil {
		handleError(c, err)
		return
	}
	if err := h.datasets.Delete(c.Request.Context(), user.ID, fileID); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
