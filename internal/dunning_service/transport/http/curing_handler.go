package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/telbill/dunning_service/internal/dunning_service/app"
	"github.com/telbill/dunning_service/internal/dunning_service/domain"
	"github.com/telbill/dunning_service/internal/dunning_service/repository"
)

// TriggerCuringRequestDTO names the payment a manual curing run should apply.
type TriggerCuringRequestDTO struct {
	PaymentID int64 `json:"payment_id" validate:"required,gt=0"`
}

// CuringHandler handles HTTP requests for curing operations and history.
type CuringHandler struct {
	curing       *app.CuringService
	customerRepo repository.CustomerRepository
	curingRepo   repository.CuringActionRepository
	db           repository.Querier
	logger       *slog.Logger
	validate     *validator.Validate
}

// NewCuringHandler creates a new CuringHandler.
func NewCuringHandler(
	curing *app.CuringService,
	customerRepo repository.CustomerRepository,
	curingRepo repository.CuringActionRepository,
	db repository.Querier,
	logger *slog.Logger,
	validate *validator.Validate,
) *CuringHandler {
	return &CuringHandler{
		curing:       curing,
		customerRepo: customerRepo,
		curingRepo:   curingRepo,
		db:           db,
		logger:       logger,
		validate:     validate,
	}
}

// RegisterRoutes sets up the routing for curing operations.
func (h *CuringHandler) RegisterRoutes(r chi.Router) {
	r.Post("/curing/trigger/{customerID}", h.TriggerCuring)
	r.Get("/curing/actions", h.ListActions)
	r.Get("/curing/history/{customerID}", h.CustomerHistory)
}

func (h *CuringHandler) TriggerCuring(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	customerID, err := strconv.ParseInt(chi.URLParam(r, "customerID"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid customer ID")
		return
	}

	var reqDTO TriggerCuringRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.StructCtx(ctx, reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	result, err := h.curing.EvaluateCuring(ctx, customerID, reqDTO.PaymentID)
	if err != nil {
		if errors.Is(err, domain.ErrCustomerNotFound) ||
			errors.Is(err, domain.ErrPaymentNotFound) ||
			errors.Is(err, domain.ErrInvalidPayment) {
			respondWithError(w, mapDomainErrorToHTTPStatus(err), err.Error())
			return
		}
		h.logger.ErrorContext(ctx, "Curing trigger failed",
			"customer_id", customerID, "payment_id", reqDTO.PaymentID, "error", err)
		respondWithError(w, http.StatusInternalServerError, result.Message)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

func (h *CuringHandler) ListActions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var customerID *int64
	if cid := r.URL.Query().Get("customer_id"); cid != "" {
		id, err := strconv.ParseInt(cid, 10, 64)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid customer_id filter")
			return
		}
		customerID = &id
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	actions, err := h.curingRepo.List(ctx, h.db, customerID, limit, offset)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list curing actions", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to list curing actions")
		return
	}
	if actions == nil {
		actions = []domain.CuringAction{}
	}
	respondWithJSON(w, http.StatusOK, actions)
}

func (h *CuringHandler) CustomerHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	customerID, err := strconv.ParseInt(chi.URLParam(r, "customerID"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid customer ID")
		return
	}

	if _, err := h.customerRepo.GetByID(ctx, h.db, customerID); err != nil {
		respondWithError(w, mapDomainErrorToHTTPStatus(err), err.Error())
		return
	}

	actions, err := h.curingRepo.List(ctx, h.db, &customerID, 100, 0)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list curing history", "customer_id", customerID, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to list curing history")
		return
	}
	if actions == nil {
		actions = []domain.CuringAction{}
	}
	respondWithJSON(w, http.StatusOK, actions)
}
