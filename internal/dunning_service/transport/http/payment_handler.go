package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/telbill/dunning_service/internal/dunning_service/app"
	"github.com/telbill/dunning_service/internal/dunning_service/domain"
	"github.com/telbill/dunning_service/internal/dunning_service/repository"
)

// CreatePaymentRequestDTO is the payload for manual payment entry.
type CreatePaymentRequestDTO struct {
	CustomerID    int64      `json:"customer_id" validate:"required,gt=0"`
	Amount        float64    `json:"amount" validate:"required,gt=0"`
	PaymentMethod string     `json:"payment_method" validate:"required,oneof=CREDIT_CARD DEBIT_CARD UPI NET_BANKING WALLET"`
	TransactionID string     `json:"transaction_id,omitempty"`
	PaymentDate   *time.Time `json:"payment_date,omitempty"`
}

// PaymentWebhookRequestDTO is the payload posted by the payment gateway.
type PaymentWebhookRequestDTO struct {
	CustomerID    int64      `json:"customer_id" validate:"required,gt=0"`
	Amount        float64    `json:"amount" validate:"required,gt=0"`
	PaymentMethod string     `json:"payment_method" validate:"required,oneof=CREDIT_CARD DEBIT_CARD UPI NET_BANKING WALLET"`
	Status        string     `json:"status" validate:"required"`
	TransactionID string     `json:"transaction_id" validate:"required"`
	Timestamp     *time.Time `json:"timestamp,omitempty"`
}

// CreatePaymentResponseDTO returns the stored payment together with the
// curing outcome it triggered.
type CreatePaymentResponseDTO struct {
	Payment      *domain.Payment      `json:"payment"`
	CuringResult *domain.CuringResult `json:"curing_result,omitempty"`
}

// PaymentHandler handles HTTP requests for payments and gateway webhooks.
type PaymentHandler struct {
	payments    *app.PaymentService
	paymentRepo repository.PaymentRepository
	db          repository.Querier
	logger      *slog.Logger
	validate    *validator.Validate
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(
	payments *app.PaymentService,
	paymentRepo repository.PaymentRepository,
	db repository.Querier,
	logger *slog.Logger,
	validate *validator.Validate,
) *PaymentHandler {
	return &PaymentHandler{
		payments:    payments,
		paymentRepo: paymentRepo,
		db:          db,
		logger:      logger,
		validate:    validate,
	}
}

// RegisterRoutes sets up the routing for payment operations. RegisterWebhook
// is separate because the gateway callback is mounted outside the
// authenticated group.
func (h *PaymentHandler) RegisterRoutes(r chi.Router) {
	r.Get("/payments", h.ListPayments)
	r.Post("/payments", h.CreatePayment)
	r.Get("/payments/{paymentID}", h.GetPayment)
}

// RegisterWebhook mounts the gateway callback endpoint.
func (h *PaymentHandler) RegisterWebhook(r chi.Router) {
	r.Post("/payments/webhook", h.Webhook)
}

func (h *PaymentHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
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

	payments, err := h.paymentRepo.List(ctx, h.db, customerID, limit, offset)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list payments", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to list payments")
		return
	}
	if payments == nil {
		payments = []domain.Payment{}
	}
	respondWithJSON(w, http.StatusOK, payments)
}

func (h *PaymentHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := strconv.ParseInt(chi.URLParam(r, "paymentID"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid payment ID")
		return
	}

	payment, err := h.paymentRepo.GetByID(ctx, h.db, id)
	if err != nil {
		respondWithError(w, mapDomainErrorToHTTPStatus(err), err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, payment)
}

func (h *PaymentHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var reqDTO CreatePaymentRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.StructCtx(ctx, reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	payment := &domain.Payment{
		CustomerID:    reqDTO.CustomerID,
		Amount:        reqDTO.Amount,
		PaymentMethod: domain.PaymentMethod(reqDTO.PaymentMethod),
		TransactionID: reqDTO.TransactionID,
	}
	if reqDTO.PaymentDate != nil {
		payment.PaymentDate = *reqDTO.PaymentDate
	}

	created, curingResult, err := h.payments.RecordPayment(ctx, payment)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to record payment", "customer_id", reqDTO.CustomerID, "error", err)
		respondWithError(w, mapDomainErrorToHTTPStatus(err), err.Error())
		return
	}
	respondWithJSON(w, http.StatusCreated, CreatePaymentResponseDTO{
		Payment:      created,
		CuringResult: curingResult,
	})
}

func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var reqDTO PaymentWebhookRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.StructCtx(ctx, reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	event := app.PaymentWebhookEvent{
		CustomerID:    reqDTO.CustomerID,
		Amount:        reqDTO.Amount,
		PaymentMethod: domain.PaymentMethod(reqDTO.PaymentMethod),
		Status:        reqDTO.Status,
		TransactionID: reqDTO.TransactionID,
	}
	if reqDTO.Timestamp != nil {
		event.Timestamp = *reqDTO.Timestamp
	}

	outcome, err := h.payments.HandleWebhook(ctx, event)
	if err != nil {
		h.logger.ErrorContext(ctx, "Webhook processing failed", "transaction_id", reqDTO.TransactionID, "error", err)
		respondWithError(w, mapDomainErrorToHTTPStatus(err), err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, outcome)
}
