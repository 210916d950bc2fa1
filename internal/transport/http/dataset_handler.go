package http

import (
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "wastelens/internal/errors"
)

// DatasetHandler handles dataset lifecycle requests: upload, import,
// listing, and deletion.
type DatasetHandler struct {
	service        AnalyticsServiceInterface
	logger         *slog.Logger
	errorHandler   *apierrors.ErrorHandler
	maxUploadBytes int64
}

// NewDatasetHandler creates a dataset handler.
func NewDatasetHandler(service AnalyticsServiceInterface, maxUploadBytes int64, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DatasetHandler {
	return &DatasetHandler{
		service:        service,
		logger:         logger.With(slog.String("component", "dataset_handler")),
		errorHandler:   errorHandler,
		maxUploadBytes: maxUploadBytes,
	}
}

// DatasetCtx validates the dataset id parameter.
func (h *DatasetHandler) DatasetCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "datasetID") == "" {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("datasetID", "dataset id is required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Upload handles POST /api/datasets. The body is either a multipart
// form with a "file" part or the raw workbook bytes.
func (h *DatasetHandler) Upload(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	data, err := h.readWorkbook(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	summary, err := h.service.UploadDataset(r.Context(), data)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "dataset uploaded",
		slog.String("request_id", reqID),
		slog.String("dataset_id", summary.ID),
		slog.Int("records", summary.Records),
	)

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, summary)
}

// Import handles POST /api/datasets/import from the configured source.
func (h *DatasetHandler) Import(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.ImportDataset(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, summary)
}

// List handles GET /api/datasets.
func (h *DatasetHandler) List(w http.ResponseWriter, r *http.Request) {
	summaries := h.service.ListDatasets(r.Context())
	render.JSON(w, r, map[string]interface{}{
		"datasets": summaries,
		"count":    len(summaries),
	})
}

// Get handles GET /api/datasets/{datasetID}.
func (h *DatasetHandler) Get(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.GetDataset(r.Context(), chi.URLParam(r, "datasetID"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, summary)
}

// Delete handles DELETE /api/datasets/{datasetID}.
func (h *DatasetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteDataset(r.Context(), chi.URLParam(r, "datasetID")); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.NoContent(w, r)
}

// Dimensions handles GET /api/datasets/{datasetID}/dimensions. Optional
// start_date/end_date parameters narrow the catalog to that date range.
func (h *DatasetHandler) Dimensions(w http.ResponseWriter, r *http.Request) {
	vq, err := decodeViewQuery(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	spec, err := vq.filterSpec(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	catalog, err := h.service.Dimensions(r.Context(), chi.URLParam(r, "datasetID"), spec)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, catalog)
}

// readWorkbook extracts the uploaded workbook bytes, enforcing the
// configured size limit on either transport encoding.
func (h *DatasetHandler) readWorkbook(r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, h.maxUploadBytes)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
			return nil, apierrors.ErrValidation("file", "malformed multipart upload")
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, apierrors.ErrValidation("file", "multipart upload must carry a \"file\" part")
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			return nil, apierrors.ErrValidation("file", "upload exceeds the size limit or was truncated")
		}
		return data, nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, apierrors.ErrValidation("body", "upload exceeds the size limit or was truncated")
	}
	if len(data) == 0 {
		return nil, apierrors.ErrValidation("body", "empty upload body")
	}
	return data, nil
}
