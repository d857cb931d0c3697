package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "promopulse/internal/errors"
	"promopulse/internal/exporter"
	custommw "promopulse/internal/middleware"
	"promopulse/internal/services"
	"promopulse/pkg/contracts/domain"
)

// maxMultipartMemory bounds the in-memory part of multipart parsing
const maxMultipartMemory = 32 << 20

// DatasetHandler handles dataset lifecycle requests
type DatasetHandler struct {
	service      *services.DataService
	validate     *custommw.ValidationMiddleware
	queryParams  *custommw.QueryParamValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDatasetHandler creates a new dataset handler
func NewDatasetHandler(service *services.DataService, validate *custommw.ValidationMiddleware, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DatasetHandler {
	return &DatasetHandler{
		service:      service,
		validate:     validate,
		queryParams:  custommw.NewQueryParamValidator(logger, errorHandler),
		logger:       logger.With(slog.String("component", "dataset_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the dataset routes
func (h *DatasetHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/load", h.LoadSales)
	r.Post("/inventory", h.LoadInventory)
	r.Post("/campaigns", h.LoadCampaigns)
	r.Post("/sample", h.LoadSample)

	r.Get("/", h.GetSummary)
	r.Get("/issues", h.GetIssues)
	r.Get("/export/{kind}", h.Export)
	r.Delete("/", h.Clear)

	return r
}

// LoadSales handles POST /api/dataset/load
func (h *DatasetHandler) LoadSales(w http.ResponseWriter, r *http.Request) {
	h.loadUpload(w, r, "sales", h.service.LoadSalesUpload)
}

// LoadInventory handles POST /api/dataset/inventory
func (h *DatasetHandler) LoadInventory(w http.ResponseWriter, r *http.Request) {
	h.loadUpload(w, r, "inventory", h.service.AttachInventoryUpload)
}

// LoadCampaigns handles POST /api/dataset/campaigns
func (h *DatasetHandler) LoadCampaigns(w http.ResponseWriter, r *http.Request) {
	h.loadUpload(w, r, "campaigns", h.service.AttachCampaignsUpload)
}

type uploadFunc func(ctx context.Context, filename string, r io.Reader) (*services.DatasetSummary, error)

func (h *DatasetHandler) loadUpload(w http.ResponseWriter, r *http.Request, kind string, load uploadFunc) {
	reqID := middleware.GetReqID(r.Context())

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", "Request must be multipart/form-data with a file part"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", "Missing file upload"))
		return
	}
	defer file.Close()

	h.logger.InfoContext(r.Context(), "processing upload",
		slog.String("request_id", reqID),
		slog.String("kind", kind),
		slog.String("filename", header.Filename),
		slog.Int64("size", header.Size))

	summary, err := load(r.Context(), header.Filename, file)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "upload failed",
			slog.String("request_id", reqID),
			slog.String("kind", kind),
			slog.String("error", err.Error()))
		h.errorHandler.HandleError(w, r, mapServiceError(err))
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   summary,
	})
}

// sampleRequest is the body of POST /api/dataset/sample
type sampleRequest struct {
	Seed int64 `json:"seed"`
	Rows int   `json:"rows" validate:"gte=0,lte=100000"`
}

// LoadSample handles POST /api/dataset/sample
func (h *DatasetHandler) LoadSample(w http.ResponseWriter, r *http.Request) {
	var req sampleRequest
	if r.ContentLength > 0 {
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
			return
		}
	}
	if err := h.validate.ValidateStruct(&req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	summary, err := h.service.LoadSample(r.Context(), req.Seed, req.Rows)
	if err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError(err))
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   summary,
	})
}

// GetSummary handles GET /api/dataset
func (h *DatasetHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError(err))
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   summary,
	})
}

// GetIssues handles GET /api/dataset/issues
func (h *DatasetHandler) GetIssues(w http.ResponseWriter, r *http.Request) {
	severity, ok := h.queryParams.ValidateEnum(w, r, "severity", []string{
		string(domain.SeverityCorrected),
		string(domain.SeverityDropped),
		string(domain.SeverityFlagged),
	}, "")
	if !ok {
		return
	}
	rule := r.URL.Query().Get("rule")

	issues, err := h.service.Issues(r.Context(), severity, rule)
	if err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError(err))
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   issues,
		"count":  len(issues),
	})
}

// Export handles GET /api/dataset/export/{kind}, streaming CSV
func (h *DatasetHandler) Export(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")

	dataset, err := h.service.Current(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError(err))
		return
	}

	var headers []string
	var records [][]string
	switch kind {
	case "cleaned":
		headers = exporter.TransactionHeaders()
		records = exporter.TransactionRecords(dataset.Transactions)
	case "issues":
		headers = exporter.IssueHeaders()
		records = exporter.IssueRecords(dataset.Issues)
	default:
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("kind", "Export kind must be cleaned or issues"))
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+kind+"_"+dataset.ID[:8]+`.csv"`)
	if err := exporter.Stream(w, headers, records); err != nil {
		h.logger.ErrorContext(r.Context(), "csv export failed",
			slog.String("kind", kind),
			slog.String("error", err.Error()))
	}
}

// Clear handles DELETE /api/dataset
func (h *DatasetHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.service.Clear(r.Context())
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
	})
}
