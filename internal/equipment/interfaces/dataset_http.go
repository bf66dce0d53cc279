package interfaces

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"chemequip-cloud/internal/audit"
	"chemequip-cloud/internal/auth"
	"chemequip-cloud/internal/equipment/application"
	equipment "chemequip-cloud/internal/equipment/domain"
	"chemequip-cloud/internal/equipment/ingest"
	"chemequip-cloud/internal/observability/metrics"
)

const defaultMaxUploadBytes = 10 << 20

// DatasetHandler handles dataset APIs.
type DatasetHandler struct {
	service        *application.DatasetService
	auditLogger    audit.Logger
	maxUploadBytes int64
}

// DatasetHandlerOption configures the handler.
type DatasetHandlerOption func(*DatasetHandler)

// WithMaxUploadBytes overrides the upload size limit.
func WithMaxUploadBytes(limit int64) DatasetHandlerOption {
	return func(h *DatasetHandler) {
		if limit > 0 {
			h.maxUploadBytes = limit
		}
	}
}

// NewDatasetHandler constructs a handler.
func NewDatasetHandler(service *application.DatasetService, auditLogger audit.Logger, opts ...DatasetHandlerOption) (*DatasetHandler, error) {
	if service == nil {
		return nil, errors.New("dataset handler: nil service")
	}
	handler := &DatasetHandler{service: service, auditLogger: auditLogger, maxUploadBytes: defaultMaxUploadBytes}
	for _, opt := range opts {
		opt(handler)
	}
	return handler, nil
}

// ServeHTTP handles dataset routes under /api/v1/datasets.
func (h *DatasetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if path == "/api/v1/datasets/upload" && r.Method == http.MethodPost {
		h.handleUpload(w, r)
		return
	}
	if path == "/api/v1/datasets" && r.Method == http.MethodGet {
		h.handleList(w, r)
		return
	}
	if strings.HasPrefix(path, "/api/v1/datasets/") {
		rest := strings.TrimPrefix(path, "/api/v1/datasets/")
		h.handleByID(w, r, rest)
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *DatasetHandler) handleUpload(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveUpload(result, time.Since(start))
	}()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		result = metrics.ResultError
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			metrics.IncIngestError("too_large")
			respondError(w, http.StatusBadRequest,
				fmt.Sprintf("File exceeds upload limit of %d bytes", h.maxUploadBytes))
			return
		}
		metrics.IncIngestError("no_file")
		respondError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
		result = metrics.ResultError
		metrics.IncIngestError("bad_extension")
		respondError(w, http.StatusBadRequest, "File must be CSV format")
		return
	}

	raw, err := io.ReadAll(file)
	if err != nil {
		result = metrics.ResultError
		metrics.IncIngestError("read_failed")
		respondError(w, http.StatusBadRequest, "Error reading file")
		return
	}

	dataset, err := h.service.Upload(r.Context(), raw, header.Filename)
	if err != nil {
		result = metrics.ResultError
		if reason := ingestErrorReason(err); reason != "" {
			metrics.IncIngestError(reason)
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "Error processing CSV")
		return
	}
	metrics.AddSkippedRows(dataset.SkippedRows)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(dataset)
	h.logAudit(r, dataset.ID, "dataset.upload", map[string]any{
		"filename":      dataset.Filename,
		"total_records": dataset.TotalRecords,
		"skipped_rows":  dataset.SkippedRows,
	})
}

func (h *DatasetHandler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error listing datasets")
		return
	}
	if list == nil {
		list = []*equipment.Dataset{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(list)
}

func (h *DatasetHandler) handleByID(w http.ResponseWriter, r *http.Request, rest string) {
	if rest == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	parts := strings.Split(rest, "/")
	id := parts[0]
	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			h.handleGet(w, r, id)
			return
		case http.MethodDelete:
			h.handleDelete(w, r, id)
			return
		}
	}
	if len(parts) == 2 && r.Method == http.MethodGet {
		switch parts[1] {
		case "export.pdf":
			h.handleExportPDF(w, r, id)
			return
		case "export.xlsx":
			h.handleExportXLSX(w, r, id)
			return
		}
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *DatasetHandler) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	dataset, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondDatasetError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(dataset)
}

func (h *DatasetHandler) handleDelete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.service.Delete(r.Context(), id); err != nil {
		metrics.IncDatasetDelete(metrics.ResultError)
		respondDatasetError(w, err)
		return
	}
	metrics.IncDatasetDelete(metrics.ResultSuccess)
	w.WriteHeader(http.StatusNoContent)
	h.logAudit(r, id, "dataset.delete", nil)
}

func (h *DatasetHandler) handleExportPDF(w http.ResponseWriter, r *http.Request, id string) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveExport("pdf", result, time.Since(start))
	}()

	dataset, err := h.service.Get(r.Context(), id)
	if err != nil {
		result = metrics.ResultError
		respondDatasetError(w, err)
		return
	}
	data, err := BuildDatasetPDF(dataset)
	if err != nil {
		result = metrics.ResultError
		http.Error(w, "export pdf error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="equipment_report_`+dataset.ID+`.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
	h.logAudit(r, dataset.ID, "dataset.export", map[string]any{"format": "pdf"})
}

func (h *DatasetHandler) handleExportXLSX(w http.ResponseWriter, r *http.Request, id string) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveExport("xlsx", result, time.Since(start))
	}()

	dataset, err := h.service.Get(r.Context(), id)
	if err != nil {
		result = metrics.ResultError
		respondDatasetError(w, err)
		return
	}
	data, err := BuildDatasetXLSX(dataset)
	if err != nil {
		result = metrics.ResultError
		http.Error(w, "export xlsx error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="equipment_report_`+dataset.ID+`.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
	h.logAudit(r, dataset.ID, "dataset.export", map[string]any{"format": "xlsx"})
}

func (h *DatasetHandler) logAudit(r *http.Request, datasetID, action string, meta map[string]any) {
	if h.auditLogger == nil {
		return
	}
	var payload []byte
	if meta != nil {
		payload, _ = json.Marshal(meta)
	}
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: "dataset",
		ResourceID:   datasetID,
		Metadata:     payload,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}

func ingestErrorReason(err error) string {
	var missing *ingest.MissingColumnsError
	switch {
	case errors.As(err, &missing):
		return "missing_columns"
	case errors.Is(err, ingest.ErrEmptyFile):
		return "empty_file"
	case errors.Is(err, ingest.ErrNoValidRows):
		return "no_valid_rows"
	}
	return ""
}

func respondDatasetError(w http.ResponseWriter, err error) {
	if errors.Is(err, equipment.ErrDatasetNotFound) {
		respondError(w, http.StatusNotFound, "Dataset not found")
		return
	}
	respondError(w, http.StatusInternalServerError, "Internal error")
}

func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
