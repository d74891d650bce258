package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/prn-tf/monedero/internal/auth"
	"github.com/prn-tf/monedero/internal/domain"
	"github.com/prn-tf/monedero/internal/service"
)

// ReportHandler serves the routes that go beyond CRUD: receipts, summaries,
// budget progress and account balances.
type ReportHandler struct {
	records  *service.RecordService
	budgets  *service.BudgetService
	accounts *service.AccountService
	logger   zerolog.Logger
}

// ReportConfig contains the services behind a ReportHandler.
type ReportConfig struct {
	Records  *service.RecordService
	Budgets  *service.BudgetService
	Accounts *service.AccountService
	Logger   zerolog.Logger
}

// NewReportHandler creates a new report handler.
func NewReportHandler(cfg ReportConfig) *ReportHandler {
	return &ReportHandler{
		records:  cfg.Records,
		budgets:  cfg.Budgets,
		accounts: cfg.Accounts,
		logger:   cfg.Logger.With().Str("handler", "report").Logger(),
	}
}

type receiptRequest struct {
	ContentType string `json:"content_type"`
}

// RegisterRecordRoutes registers record extras relative to /records.
func (h *ReportHandler) RegisterRecordRoutes(r chi.Router) {
	r.Get("/summary", h.handleSummary)
	r.Post("/{id}/receipt", h.handleUploadReceipt)
	r.Get("/{id}/receipt", h.handleDownloadReceipt)
}

// RegisterBudgetRoutes registers budget extras relative to /budgets.
func (h *ReportHandler) RegisterBudgetRoutes(r chi.Router) {
	r.Get("/{id}/progress", h.handleBudgetProgress)
}

// RegisterAccountRoutes registers account extras relative to /accounts.
func (h *ReportHandler) RegisterAccountRoutes(r chi.Router) {
	r.Get("/{id}/balance", h.handleBalance)
}

func (h *ReportHandler) handleSummary(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.RequireIdentity(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	var v domain.Validator
	from := queryDate(&v, r.URL.Query().Get("from"), "from")
	to := queryDate(&v, r.URL.Query().Get("to"), "to")
	if err := v.Err(); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	summary, err := h.records.Summarize(r.Context(), identity.UserID, from, to)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *ReportHandler) handleUploadReceipt(w http.ResponseWriter, r *http.Request) {
	identity, id, ok := h.target(w, r)
	if !ok {
		return
	}

	var body receiptRequest
	if err := decode(r, &body); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	upload, err := h.records.UploadReceipt(r.Context(), identity.UserID, id, body.ContentType)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, upload)
}

func (h *ReportHandler) handleDownloadReceipt(w http.ResponseWriter, r *http.Request) {
	identity, id, ok := h.target(w, r)
	if !ok {
		return
	}

	download, err := h.records.DownloadReceipt(r.Context(), identity.UserID, id)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, download)
}

func (h *ReportHandler) handleBudgetProgress(w http.ResponseWriter, r *http.Request) {
	identity, id, ok := h.target(w, r)
	if !ok {
		return
	}

	var v domain.Validator
	asOf := queryDate(&v, r.URL.Query().Get("as_of"), "as_of")
	if err := v.Err(); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	progress, err := h.budgets.Progress(r.Context(), identity.UserID, id, asOf)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

func (h *ReportHandler) handleBalance(w http.ResponseWriter, r *http.Request) {
	identity, id, ok := h.target(w, r)
	if !ok {
		return
	}

	balance, err := h.accounts.Balance(r.Context(), identity.UserID, id)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, balance)
}

func (h *ReportHandler) target(w http.ResponseWriter, r *http.Request) (*auth.Identity, int64, bool) {
	identity, err := auth.RequireIdentity(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return nil, 0, false
	}
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return nil, 0, false
	}
	return identity, id, true
}
