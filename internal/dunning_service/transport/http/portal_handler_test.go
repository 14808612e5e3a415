package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/telbill/dunning_service/internal/dunning_service/domain"
	"github.com/telbill/dunning_service/internal/dunning_service/middleware"
	"github.com/telbill/dunning_service/internal/dunning_service/repository"
	transport "github.com/telbill/dunning_service/internal/dunning_service/transport/http"
)

type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) Create(ctx context.Context, q repository.Querier, c *domain.Customer) (*domain.Customer, error) {
	args := m.Called(ctx, q, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Customer), args.Error(1)
}

func (m *MockCustomerRepository) GetByID(ctx context.Context, q repository.Querier, id int64) (*domain.Customer, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Customer), args.Error(1)
}

func (m *MockCustomerRepository) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.Customer, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Customer), args.Error(1)
}

func (m *MockCustomerRepository) GetByEmail(ctx context.Context, q repository.Querier, email string) (*domain.Customer, error) {
	args := m.Called(ctx, q, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Customer), args.Error(1)
}

func (m *MockCustomerRepository) List(ctx context.Context, q repository.Querier, filter repository.CustomerFilter) ([]domain.Customer, error) {
	args := m.Called(ctx, q, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Customer), args.Error(1)
}

func (m *MockCustomerRepository) ListOverdue(ctx context.Context, q repository.Querier) ([]domain.Customer, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Customer), args.Error(1)
}

func (m *MockCustomerRepository) ListOverdueIDs(ctx context.Context, q repository.Querier) ([]int64, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockCustomerRepository) Update(ctx context.Context, q repository.Querier, c *domain.Customer) error {
	args := m.Called(ctx, q, c)
	return args.Error(0)
}

func (m *MockCustomerRepository) Delete(ctx context.Context, q repository.Querier, id int64) error {
	args := m.Called(ctx, q, id)
	return args.Error(0)
}

const (
	testJWTSecret  = "test-secret"
	testAdminEmail = "admin@telbill.example"
)

type portalTestComponents struct {
	handler          *transport.PortalHandler
	mockCustomerRepo *MockCustomerRepository
}

func setupPortalTest(t *testing.T) portalTestComponents {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mockCustomerRepo := new(MockCustomerRepository)

	adminHash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.MinCost)
	require.NoError(t, err)

	handler := transport.NewPortalHandler(
		mockCustomerRepo, nil, nil, nil, nil,
		logger, validator.New(),
		testJWTSecret, time.Hour,
		testAdminEmail, string(adminHash),
	)
	return portalTestComponents{handler: handler, mockCustomerRepo: mockCustomerRepo}
}

func doLogin(t *testing.T, comps portalTestComponents, email, password string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/customer-portal/login", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	comps.handler.Login(rr, req)
	return rr
}

func parseClaims(t *testing.T, tokenString string) jwt.MapClaims {
	t.Helper()
	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)
	return parsed.Claims.(jwt.MapClaims)
}

func TestPortalHandler_Login_AdminSuccess(t *testing.T) {
	comps := setupPortalTest(t)

	rr := doLogin(t, comps, testAdminEmail, "admin123")

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp transport.LoginResponseDTO
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.NotNil(t, resp.User)
	assert.Equal(t, middleware.RoleAdmin, resp.User.Role)

	claims := parseClaims(t, resp.User.Token)
	assert.Equal(t, middleware.RoleAdmin, claims["role"])
	assert.Equal(t, testAdminEmail, claims["email"])
}

func TestPortalHandler_Login_CustomerUsesPhoneAsPassword(t *testing.T) {
	comps := setupPortalTest(t)
	customer := &domain.Customer{
		ID:           7,
		Name:         "Priya Sharma",
		Email:        "priya@example.com",
		Phone:        "9876543210",
		CustomerType: domain.TypePostpaid,
	}
	comps.mockCustomerRepo.On("GetByEmail", mock.Anything, mock.Anything, "priya@example.com").
		Return(customer, nil).Once()

	rr := doLogin(t, comps, "priya@example.com", "9876543210")

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp transport.LoginResponseDTO
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.NotNil(t, resp.User)
	assert.Equal(t, int64(7), resp.User.ID)
	assert.Equal(t, middleware.RoleCustomer, resp.User.Role)
	assert.Equal(t, "POSTPAID", resp.User.CustomerType)

	claims := parseClaims(t, resp.User.Token)
	assert.Equal(t, middleware.RoleCustomer, claims["role"])
	assert.EqualValues(t, 7, claims["sub"])
	comps.mockCustomerRepo.AssertExpectations(t)
}

func TestPortalHandler_Login_WrongPassword(t *testing.T) {
	comps := setupPortalTest(t)
	comps.mockCustomerRepo.On("GetByEmail", mock.Anything, mock.Anything, "priya@example.com").
		Return(&domain.Customer{ID: 7, Email: "priya@example.com", Phone: "9876543210"}, nil).Once()

	rr := doLogin(t, comps, "priya@example.com", "wrong-password")

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	var resp transport.LoginResponseDTO
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Nil(t, resp.User)
	assert.Equal(t, "Invalid credentials", resp.Message)
}

func TestPortalHandler_Login_UnknownEmail(t *testing.T) {
	comps := setupPortalTest(t)
	comps.mockCustomerRepo.On("GetByEmail", mock.Anything, mock.Anything, "ghost@example.com").
		Return(nil, domain.ErrCustomerNotFound).Once()

	rr := doLogin(t, comps, "ghost@example.com", "whatever")

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), "Invalid credentials")
}

func TestPortalHandler_Login_WrongAdminPassword(t *testing.T) {
	comps := setupPortalTest(t)

	rr := doLogin(t, comps, testAdminEmail, "not-the-password")

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), "Invalid credentials")
}

func TestPortalHandler_Login_ValidationFailure(t *testing.T) {
	comps := setupPortalTest(t)

	rr := doLogin(t, comps, "not-an-email", "")

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Validation failed")
}

func TestPortalHandler_Login_TokenAcceptedByAuthMiddleware(t *testing.T) {
	comps := setupPortalTest(t)
	comps.mockCustomerRepo.On("GetByEmail", mock.Anything, mock.Anything, "priya@example.com").
		Return(&domain.Customer{ID: 7, Name: "Priya Sharma", Email: "priya@example.com", Phone: "9876543210"}, nil).Once()

	rr := doLogin(t, comps, "priya@example.com", "9876543210")
	require.Equal(t, http.StatusOK, rr.Code)
	var resp transport.LoginResponseDTO
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotNil(t, resp.User)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	var seen *middleware.AuthenticatedUser
	probe := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, ok := middleware.UserFromContext(r.Context()); ok {
			seen = &user
		}
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/customer-portal/profile/7", nil)
	req.Header.Set("Authorization", "Bearer "+resp.User.Token)
	probeRR := httptest.NewRecorder()
	middleware.AuthMiddleware(testJWTSecret, logger)(probe).ServeHTTP(probeRR, req)

	assert.Equal(t, http.StatusOK, probeRR.Code)
	require.NotNil(t, seen)
	assert.Equal(t, int64(7), seen.CustomerID)
	assert.Equal(t, middleware.RoleCustomer, seen.Role)
	assert.False(t, seen.IsAdmin())
}
