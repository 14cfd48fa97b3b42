package http

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"opspulse/internal/config"
	apierrors "opspulse/internal/errors"
	"opspulse/internal/exporter"
	"opspulse/internal/filter"
	"opspulse/internal/middleware"
	"opspulse/pkg/contracts/domain"
)

type kindContextKey struct{}

// multipartMemory is how much of an upload ParseMultipartForm keeps in memory
// before spilling to a temp file.
const multipartMemory = 8 << 20

// maxTop bounds the top and limit query parameters.
const maxTop = 1000

// uploadRequest is the validated form of a multipart upload.
type uploadRequest struct {
	FileName string `json:"fileName" validate:"required,filename"`
}

// DatasetHandler serves dataset ingestion and the dashboard views.
type DatasetHandler struct {
	service      DatasetServiceInterface
	ingest       config.IngestConfig
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	validator    *middleware.Validator
	query        *middleware.QueryParamValidator
	now          func() time.Time
}

// NewDatasetHandler creates a dataset handler with RFC 7807 error handling
func NewDatasetHandler(service DatasetServiceInterface, ingest config.IngestConfig, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DatasetHandler {
	return &DatasetHandler{
		service:      service,
		ingest:       ingest,
		logger:       logger.With(slog.String("component", "dataset_handler")),
		errorHandler: errorHandler,
		validator:    middleware.NewValidator(logger),
		query:        middleware.NewQueryParamValidator(logger, errorHandler),
		now:          time.Now,
	}
}

// Routes returns the dataset routes, mounted under /api/datasets.
func (h *DatasetHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListDatasets)
	r.Post("/sync", h.SyncAll)

	r.Route("/{kind}", func(r chi.Router) {
		r.Use(h.KindCtx)

		r.With(middleware.MaxBodySize(h.ingest.MaxUploadBytes)).Post("/", h.Upload)
		r.Get("/", h.GetDataset)
		r.Delete("/", h.Clear)
		r.Post("/sync", h.Sync)

		r.Get("/records", h.GetRecords)
		r.Get("/export.csv", h.Export)
		r.Get("/overview", h.GetOverview)
		r.Get("/trend", h.GetTrend)
		r.Get("/repeats", h.GetRepeats)
		r.Get("/issues", h.GetIssues)
		r.Get("/layers", h.GetLayers)
		r.Get("/calibration", h.GetCalibration)
	})

	return r
}

// KindCtx resolves the {kind} URL parameter into a domain.SheetKind.
func (h *DatasetHandler) KindCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		kind, err := domain.ParseSheetKind(chi.URLParam(r, "kind"))
		if err != nil {
			h.errorHandler.HandleError(w, r, apierrors.ErrUnsupportedKind)
			return
		}
		ctx := context.WithValue(r.Context(), kindContextKey{}, kind)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func kindFrom(r *http.Request) domain.SheetKind {
	kind, _ := r.Context().Value(kindContextKey{}).(domain.SheetKind)
	return kind
}

// criteriaFrom reads search, start and end. Validation happens in the
// service so the CLI and the API reject the same input.
func criteriaFrom(r *http.Request) filter.Criteria {
	q := r.URL.Query()
	return filter.Criteria{
		Search:    q.Get("search"),
		StartDate: q.Get("start"),
		EndDate:   q.Get("end"),
	}
}

// criteria reads and validates the filter query. An inverted date range is
// rejected here with a 400 rather than silently matching nothing.
func (h *DatasetHandler) criteria(w http.ResponseWriter, r *http.Request) (filter.Criteria, bool) {
	c := criteriaFrom(r)
	if err := c.Validate(); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return filter.Criteria{}, false
	}
	return c, true
}

func success(w http.ResponseWriter, r *http.Request, data interface{}) {
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   data,
	})
}

// Upload handles POST /api/datasets/{kind}
func (h *DatasetHandler) Upload(w http.ResponseWriter, r *http.Request) {
	kind := kindFrom(r)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.errorHandler.HandleError(w, r, apierrors.ErrPayloadTooLarge)
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", "a file field is required"))
		return
	}
	defer file.Close()

	req := uploadRequest{FileName: header.Filename}
	if err := h.validator.ValidateStruct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if !h.allowed(req.FileName) {
		h.errorHandler.HandleError(w, r, apierrors.ErrUnsupportedFile)
		return
	}

	h.logger.InfoContext(r.Context(), "dataset upload received",
		slog.String("kind", string(kind)),
		slog.String("file_name", req.FileName),
		slog.Int64("size", header.Size))

	ds, err := h.service.Upload(r.Context(), kind, req.FileName, file)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	success(w, r, ds)
}

func (h *DatasetHandler) allowed(fileName string) bool {
	ext := strings.ToLower(filepath.Ext(fileName))
	for _, a := range h.ingest.AllowedExtensions {
		if strings.EqualFold(ext, a) {
			return true
		}
	}
	return false
}

// Sync handles POST /api/datasets/{kind}/sync
func (h *DatasetHandler) Sync(w http.ResponseWriter, r *http.Request) {
	ds, err := h.service.Sync(r.Context(), kindFrom(r))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	success(w, r, ds)
}

// SyncAll handles POST /api/datasets/sync
func (h *DatasetHandler) SyncAll(w http.ResponseWriter, r *http.Request) {
	datasets, err := h.service.SyncAll(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	success(w, r, datasets)
}

// ListDatasets handles GET /api/datasets
func (h *DatasetHandler) ListDatasets(w http.ResponseWriter, r *http.Request) {
	datasets := h.service.Datasets()
	if datasets == nil {
		datasets = []*domain.Dataset{}
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   datasets,
		"count":  len(datasets),
	})
}

// GetDataset handles GET /api/datasets/{kind}
func (h *DatasetHandler) GetDataset(w http.ResponseWriter, r *http.Request) {
	ds, err := h.service.Dataset(kindFrom(r))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	success(w, r, ds)
}

// Clear handles DELETE /api/datasets/{kind}
func (h *DatasetHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Clear(r.Context(), kindFrom(r)); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetRecords handles GET /api/datasets/{kind}/records
func (h *DatasetHandler) GetRecords(w http.ResponseWriter, r *http.Request) {
	criteria, ok := h.criteria(w, r)
	if !ok {
		return
	}

	records, err := h.service.Records(r.Context(), kindFrom(r), criteria)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if records == nil {
		records = []domain.Record{}
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   records,
		"count":  len(records),
	})
}

// Export handles GET /api/datasets/{kind}/export.csv. The file is built in
// memory first so a failure can still be reported as a problem document.
func (h *DatasetHandler) Export(w http.ResponseWriter, r *http.Request) {
	kind := kindFrom(r)

	var buf bytes.Buffer
	criteria, ok := h.criteria(w, r)
	if !ok {
		return
	}

	if err := h.service.Export(r.Context(), kind, criteria, &buf); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+exporter.FileName(kind, h.now())+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.WarnContext(r.Context(), "failed to write export",
			slog.String("error", err.Error()))
	}
}

// GetOverview handles GET /api/datasets/{kind}/overview
func (h *DatasetHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	criteria, ok := h.criteria(w, r)
	if !ok {
		return
	}

	overview, err := h.service.Overview(r.Context(), kindFrom(r), criteria)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	success(w, r, overview)
}

// GetTrend handles GET /api/datasets/{kind}/trend
func (h *DatasetHandler) GetTrend(w http.ResponseWriter, r *http.Request) {
	criteria, ok := h.criteria(w, r)
	if !ok {
		return
	}

	trend, err := h.service.Trend(r.Context(), kindFrom(r), criteria)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	success(w, r, trend)
}

// GetRepeats handles GET /api/datasets/{kind}/repeats?limit=
func (h *DatasetHandler) GetRepeats(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.query.ValidateInt(w, r, "limit", 1, maxTop, 0)
	if !ok {
		return
	}

	criteria, ok := h.criteria(w, r)
	if !ok {
		return
	}

	repeats, err := h.service.Repeats(r.Context(), kindFrom(r), criteria, limit)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	success(w, r, repeats)
}

// GetIssues handles GET /api/datasets/{kind}/issues?top=
func (h *DatasetHandler) GetIssues(w http.ResponseWriter, r *http.Request) {
	top, ok := h.query.ValidateInt(w, r, "top", 0, maxTop, 0)
	if !ok {
		return
	}

	criteria, ok := h.criteria(w, r)
	if !ok {
		return
	}

	counts, err := h.service.Issues(r.Context(), kindFrom(r), criteria, top)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	success(w, r, counts)
}

// GetLayers handles GET /api/datasets/{kind}/layers
func (h *DatasetHandler) GetLayers(w http.ResponseWriter, r *http.Request) {
	criteria, ok := h.criteria(w, r)
	if !ok {
		return
	}

	layers, err := h.service.Layers(r.Context(), kindFrom(r), criteria)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	success(w, r, layers)
}

// GetCalibration handles GET /api/datasets/{kind}/calibration
func (h *DatasetHandler) GetCalibration(w http.ResponseWriter, r *http.Request) {
	criteria, ok := h.criteria(w, r)
	if !ok {
		return
	}

	report, err := h.service.Calibration(r.Context(), kindFrom(r), criteria)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	success(w, r, report)
}
