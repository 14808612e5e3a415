package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/telbill/dunning_service/internal/dunning_service/app"
	"github.com/telbill/dunning_service/internal/dunning_service/domain"
	"github.com/telbill/dunning_service/internal/dunning_service/repository"
)

// ApplyDunningRequestDTO optionally restricts a batch run to specific
// customers. An empty list means every overdue customer.
type ApplyDunningRequestDTO struct {
	CustomerIDs []int64 `json:"customer_ids,omitempty"`
}

// DunningHandler handles HTTP requests for dunning execution and its audit
// trail.
type DunningHandler struct {
	dunning      *app.DunningService
	customerRepo repository.CustomerRepository
	logRepo      repository.DunningLogRepository
	db           repository.Querier
	logger       *slog.Logger
}

// NewDunningHandler creates a new DunningHandler.
func NewDunningHandler(
	dunning *app.DunningService,
	customerRepo repository.CustomerRepository,
	logRepo repository.DunningLogRepository,
	db repository.Querier,
	logger *slog.Logger,
) *DunningHandler {
	return &DunningHandler{
		dunning:      dunning,
		customerRepo: customerRepo,
		logRepo:      logRepo,
		db:           db,
		logger:       logger,
	}
}

// RegisterRoutes sets up the routing for dunning operations.
func (h *DunningHandler) RegisterRoutes(r chi.Router) {
	r.Post("/dunning/apply", h.ApplyAll)
	r.Post("/dunning/apply/{customerID}", h.ApplyOne)
	r.Get("/dunning/logs", h.ListLogs)
	r.Get("/dunning/overdue-customers", h.ListOverdueCustomers)
}

func (h *DunningHandler) ApplyAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var reqDTO ApplyDunningRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil && !errors.Is(err, io.EOF) {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	batch, err := h.dunning.ApplyAll(ctx, reqDTO.CustomerIDs)
	if err != nil {
		h.logger.ErrorContext(ctx, "Batch dunning run failed", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Batch dunning run failed")
		return
	}
	respondWithJSON(w, http.StatusOK, batch)
}

func (h *DunningHandler) ApplyOne(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := strconv.ParseInt(chi.URLParam(r, "customerID"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid customer ID")
		return
	}

	// Existence is checked up front so an unknown customer is a 404 instead
	// of a FAILED result payload.
	if _, err := h.customerRepo.GetByID(ctx, h.db, id); err != nil {
		respondWithError(w, mapDomainErrorToHTTPStatus(err), err.Error())
		return
	}

	result := h.dunning.Apply(ctx, id)
	respondWithJSON(w, http.StatusOK, result)
}

func (h *DunningHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter := domain.DunningLogFilter{}
	if cid := r.URL.Query().Get("customer_id"); cid != "" {
		id, err := strconv.ParseInt(cid, 10, 64)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid customer_id filter")
			return
		}
		filter.CustomerID = &id
	}
	if from := r.URL.Query().Get("date_from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid date_from, expected RFC3339")
			return
		}
		filter.DateFrom = &t
	}
	if to := r.URL.Query().Get("date_to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid date_to, expected RFC3339")
			return
		}
		filter.DateTo = &t
	}
	filter.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	filter.Offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))

	logs, err := h.logRepo.List(ctx, h.db, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list dunning logs", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to list dunning logs")
		return
	}
	if logs == nil {
		logs = []domain.DunningLog{}
	}
	respondWithJSON(w, http.StatusOK, logs)
}

func (h *DunningHandler) ListOverdueCustomers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	customers, err := h.customerRepo.ListOverdue(ctx, h.db)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list overdue customers", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to list overdue customers")
		return
	}
	if customers == nil {
		customers = []domain.Customer{}
	}
	respondWithJSON(w, http.StatusOK, customers)
}
