package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/telbill/dunning_service/internal/dunning_service/domain"
	"github.com/telbill/dunning_service/internal/dunning_service/repository"
)

// CustomerHandler handles HTTP requests for the customer ledger.
type CustomerHandler struct {
	customerRepo     repository.CustomerRepository
	paymentRepo      repository.PaymentRepository
	notificationRepo repository.NotificationRepository
	db               repository.Querier
	logger           *slog.Logger
	validate         *validator.Validate
}

// NewCustomerHandler creates a new CustomerHandler.
func NewCustomerHandler(
	customerRepo repository.CustomerRepository,
	paymentRepo repository.PaymentRepository,
	notificationRepo repository.NotificationRepository,
	db repository.Querier,
	logger *slog.Logger,
	validate *validator.Validate,
) *CustomerHandler {
	return &CustomerHandler{
		customerRepo:     customerRepo,
		paymentRepo:      paymentRepo,
		notificationRepo: notificationRepo,
		db:               db,
		logger:           logger,
		validate:         validate,
	}
}

// RegisterRoutes sets up the routing for customer operations.
func (h *CustomerHandler) RegisterRoutes(r chi.Router) {
	r.Get("/customers", h.ListCustomers)
	r.Post("/customers", h.CreateCustomer)
	r.Get("/customers/{customerID}", h.GetCustomer)
	r.Put("/customers/{customerID}", h.UpdateCustomer)
	r.Delete("/customers/{customerID}", h.DeleteCustomer)
	r.Get("/customers/{customerID}/status", h.GetCustomerStatus)
}

func customerIDFromURL(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "customerID"), 10, 64)
}

func (h *CustomerHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter := repository.CustomerFilter{}
	if ct := r.URL.Query().Get("customer_type"); ct != "" {
		t := domain.CustomerType(ct)
		if t != domain.TypePostpaid && t != domain.TypePrepaid {
			respondWithError(w, http.StatusBadRequest, "Invalid customer_type filter")
			return
		}
		filter.CustomerType = &t
	}
	if ds := r.URL.Query().Get("dunning_status"); ds != "" {
		s := domain.DunningStatus(ds)
		if s.Severity() == 0 && s != domain.StatusActive {
			respondWithError(w, http.StatusBadRequest, "Invalid dunning_status filter")
			return
		}
		filter.DunningStatus = &s
	}

	filter.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	filter.Offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	if filter.Limit <= 0 || filter.Limit > 1000 {
		filter.Limit = 100
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	customers, err := h.customerRepo.List(ctx, h.db, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list customers", "error", err)
		respondWithError(w, mapDomainErrorToHTTPStatus(err), "Failed to list customers")
		return
	}
	if customers == nil {
		customers = []domain.Customer{}
	}
	respondWithJSON(w, http.StatusOK, customers)
}

func (h *CustomerHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var reqDTO CreateCustomerRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.StructCtx(ctx, reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	customer := &domain.Customer{
		Name:              reqDTO.Name,
		Email:             reqDTO.Email,
		Phone:             reqDTO.Phone,
		CustomerType:      domain.CustomerType(reqDTO.CustomerType),
		PlanType:          reqDTO.PlanType,
		BillingDate:       reqDTO.BillingDate,
		DueDate:           reqDTO.DueDate,
		OutstandingAmount: reqDTO.OutstandingAmount,
		DunningStatus:     domain.StatusActive,
	}

	created, err := h.customerRepo.Create(ctx, h.db, customer)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to create customer", "email", reqDTO.Email, "error", err)
		respondWithError(w, mapDomainErrorToHTTPStatus(err), "Failed to create customer: "+err.Error())
		return
	}
	respondWithJSON(w, http.StatusCreated, created)
}

func (h *CustomerHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := customerIDFromURL(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid customer ID")
		return
	}

	customer, err := h.customerRepo.GetByID(ctx, h.db, id)
	if err != nil {
		respondWithError(w, mapDomainErrorToHTTPStatus(err), err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, customer)
}

func (h *CustomerHandler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := customerIDFromURL(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid customer ID")
		return
	}

	var reqDTO UpdateCustomerRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.StructCtx(ctx, reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	customer, err := h.customerRepo.GetByID(ctx, h.db, id)
	if err != nil {
		respondWithError(w, mapDomainErrorToHTTPStatus(err), err.Error())
		return
	}

	if reqDTO.Name != nil {
		customer.Name = *reqDTO.Name
	}
	if reqDTO.Email != nil {
		customer.Email = *reqDTO.Email
	}
	if reqDTO.Phone != nil {
		customer.Phone = *reqDTO.Phone
	}
	if reqDTO.CustomerType != nil {
		customer.CustomerType = domain.CustomerType(*reqDTO.CustomerType)
	}
	if reqDTO.PlanType != nil {
		customer.PlanType = *reqDTO.PlanType
	}
	if reqDTO.BillingDate != nil {
		customer.BillingDate = reqDTO.BillingDate
	}
	if reqDTO.DueDate != nil {
		customer.DueDate = reqDTO.DueDate
	}
	if reqDTO.OutstandingAmount != nil {
		customer.OutstandingAmount = *reqDTO.OutstandingAmount
	}

	if err := h.customerRepo.Update(ctx, h.db, customer); err != nil {
		h.logger.ErrorContext(ctx, "Failed to update customer", "customer_id", id, "error", err)
		respondWithError(w, mapDomainErrorToHTTPStatus(err), "Failed to update customer: "+err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, customer)
}

func (h *CustomerHandler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := customerIDFromURL(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid customer ID")
		return
	}

	if err := h.customerRepo.Delete(ctx, h.db, id); err != nil {
		respondWithError(w, mapDomainErrorToHTTPStatus(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CustomerHandler) GetCustomerStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := customerIDFromURL(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid customer ID")
		return
	}

	customer, err := h.customerRepo.GetByID(ctx, h.db, id)
	if err != nil {
		respondWithError(w, mapDomainErrorToHTTPStatus(err), err.Error())
		return
	}

	paymentSummary, err := h.paymentRepo.SummaryByCustomer(ctx, h.db, id)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to summarize payments", "customer_id", id, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to load customer status")
		return
	}
	notificationCount, err := h.notificationRepo.CountByCustomer(ctx, h.db, id)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to count notifications", "customer_id", id, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to load customer status")
		return
	}

	respondWithJSON(w, http.StatusOK, CustomerStatusResponseDTO{
		ID:                 customer.ID,
		Name:               customer.Name,
		Email:              customer.Email,
		CustomerType:       string(customer.CustomerType),
		DunningStatus:      string(customer.DunningStatus),
		OverdueDays:        customer.OverdueDays,
		OutstandingAmount:  customer.OutstandingAmount,
		DueDate:            customer.DueDate,
		LastPaymentDate:    paymentSummary.LastPaymentDate,
		TotalPayments:      paymentSummary.Count,
		TotalNotifications: notificationCount,
	})
}
