package http

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/telbill/dunning_service/internal/dunning_service/app"
	"github.com/telbill/dunning_service/internal/dunning_service/domain"
	"github.com/telbill/dunning_service/internal/dunning_service/middleware"
	"github.com/telbill/dunning_service/internal/dunning_service/repository"
)

// PortalHandler serves the unified login plus the customer self-service
// endpoints. Admin credentials are checked against a bcrypt hash from
// configuration; customers authenticate with email plus their registered
// phone number.
type PortalHandler struct {
	customerRepo     repository.CustomerRepository
	paymentRepo      repository.PaymentRepository
	notificationRepo repository.NotificationRepository
	payments         *app.PaymentService
	db               repository.Querier
	logger           *slog.Logger
	validate         *validator.Validate

	jwtSecret         string
	jwtExpiry         time.Duration
	adminEmail        string
	adminPasswordHash string
}

// NewPortalHandler creates a new PortalHandler.
func NewPortalHandler(
	customerRepo repository.CustomerRepository,
	paymentRepo repository.PaymentRepository,
	notificationRepo repository.NotificationRepository,
	payments *app.PaymentService,
	db repository.Querier,
	logger *slog.Logger,
	validate *validator.Validate,
	jwtSecret string,
	jwtExpiry time.Duration,
	adminEmail string,
	adminPasswordHash string,
) *PortalHandler {
	return &PortalHandler{
		customerRepo:      customerRepo,
		paymentRepo:       paymentRepo,
		notificationRepo:  notificationRepo,
		payments:          payments,
		db:                db,
		logger:            logger,
		validate:          validate,
		jwtSecret:         jwtSecret,
		jwtExpiry:         jwtExpiry,
		adminEmail:        adminEmail,
		adminPasswordHash: adminPasswordHash,
	}
}

// RegisterLogin mounts the unauthenticated login endpoint.
func (h *PortalHandler) RegisterLogin(r chi.Router) {
	r.Post("/customer-portal/login", h.Login)
}

// RegisterRoutes sets up the authenticated portal routes.
func (h *PortalHandler) RegisterRoutes(r chi.Router) {
	r.Get("/customer-portal/profile/{customerID}", h.Profile)
	r.Post("/customer-portal/make-payment", h.MakePayment)
}

func (h *PortalHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var reqDTO LoginRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.StructCtx(ctx, reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	if reqDTO.Email == h.adminEmail {
		if err := bcrypt.CompareHashAndPassword([]byte(h.adminPasswordHash), []byte(reqDTO.Password)); err == nil {
			token, err := h.issueToken(0, reqDTO.Email, "Administrator", middleware.RoleAdmin)
			if err != nil {
				h.logger.ErrorContext(ctx, "Failed to issue admin token", "error", err)
				respondWithError(w, http.StatusInternalServerError, "Login failed")
				return
			}
			respondWithJSON(w, http.StatusOK, LoginResponseDTO{
				Success: true,
				User: &LoginUserDTO{
					ID:    0,
					Email: reqDTO.Email,
					Name:  "Administrator",
					Role:  middleware.RoleAdmin,
					Token: token,
				},
				Message: "Login successful",
			})
			return
		}
		h.rejectLogin(w, r, reqDTO.Email)
		return
	}

	customer, err := h.customerRepo.GetByEmail(ctx, h.db, reqDTO.Email)
	if err != nil {
		if !errors.Is(err, domain.ErrCustomerNotFound) {
			h.logger.ErrorContext(ctx, "Login lookup failed", "error", err)
			respondWithError(w, http.StatusInternalServerError, "Login failed")
			return
		}
		h.rejectLogin(w, r, reqDTO.Email)
		return
	}
	if subtle.ConstantTimeCompare([]byte(customer.Phone), []byte(reqDTO.Password)) != 1 {
		h.rejectLogin(w, r, reqDTO.Email)
		return
	}

	token, err := h.issueToken(customer.ID, customer.Email, customer.Name, middleware.RoleCustomer)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to issue customer token", "customer_id", customer.ID, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Login failed")
		return
	}
	respondWithJSON(w, http.StatusOK, LoginResponseDTO{
		Success: true,
		User: &LoginUserDTO{
			ID:           customer.ID,
			Email:        customer.Email,
			Name:         customer.Name,
			Role:         middleware.RoleCustomer,
			CustomerType: string(customer.CustomerType),
			Token:        token,
		},
		Message: "Login successful",
	})
}

func (h *PortalHandler) rejectLogin(w http.ResponseWriter, r *http.Request, email string) {
	h.logger.WarnContext(r.Context(), "Login rejected", "email", email)
	respondWithJSON(w, http.StatusUnauthorized, LoginResponseDTO{
		Success: false,
		Message: "Invalid credentials",
	})
}

func (h *PortalHandler) issueToken(subjectID int64, email, name, role string) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":   subjectID,
		"email": email,
		"name":  name,
		"role":  role,
		"iat":   now.Unix(),
		"exp":   now.Add(h.jwtExpiry).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.jwtSecret))
}

func (h *PortalHandler) Profile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	customerID, err := strconv.ParseInt(chi.URLParam(r, "customerID"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid customer ID")
		return
	}

	// Customers may only read their own profile; the admin sees everyone.
	if user, ok := middleware.UserFromContext(ctx); ok && !user.IsAdmin() && user.CustomerID != customerID {
		respondWithError(w, http.StatusForbidden, "Forbidden")
		return
	}

	customer, err := h.customerRepo.GetByID(ctx, h.db, customerID)
	if err != nil {
		respondWithError(w, mapDomainErrorToHTTPStatus(err), err.Error())
		return
	}

	payments, err := h.paymentRepo.List(ctx, h.db, &customerID, 10, 0)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to load portal payments", "customer_id", customerID, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to load profile")
		return
	}
	notifications, err := h.notificationRepo.ListByCustomer(ctx, h.db, customerID, 5)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to load portal notifications", "customer_id", customerID, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to load profile")
		return
	}
	if payments == nil {
		payments = []domain.Payment{}
	}
	if notifications == nil {
		notifications = []domain.Notification{}
	}

	respondWithJSON(w, http.StatusOK, PortalProfileResponseDTO{
		Customer:      customer,
		Payments:      payments,
		Notifications: notifications,
	})
}

func (h *PortalHandler) MakePayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var reqDTO MakePaymentRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.StructCtx(ctx, reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	if user, ok := middleware.UserFromContext(ctx); ok && !user.IsAdmin() && user.CustomerID != reqDTO.CustomerID {
		respondWithError(w, http.StatusForbidden, "Forbidden")
		return
	}

	payment := &domain.Payment{
		CustomerID:    reqDTO.CustomerID,
		Amount:        reqDTO.Amount,
		PaymentMethod: domain.PaymentMethod(reqDTO.PaymentMethod),
	}
	created, curingResult, err := h.payments.RecordPayment(ctx, payment)
	if err != nil {
		h.logger.ErrorContext(ctx, "Portal payment failed", "customer_id", reqDTO.CustomerID, "error", err)
		respondWithError(w, mapDomainErrorToHTTPStatus(err), err.Error())
		return
	}

	customer, err := h.customerRepo.GetByID(ctx, h.db, reqDTO.CustomerID)
	if err != nil {
		respondWithError(w, mapDomainErrorToHTTPStatus(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, MakePaymentResponseDTO{
		Success: true,
		Message: "Payment processed successfully",
		Payment: created,
		Customer: &PortalCustomerSlice{
			OutstandingAmount: customer.OutstandingAmount,
			DunningStatus:     customer.DunningStatus,
		},
		Curing: curingResult,
	})
}
