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

// RuleHandler handles HTTP requests for dunning rule administration.
type RuleHandler struct {
	ruleRepo repository.RuleRepository
	db       repository.Querier
	logger   *slog.Logger
	validate *validator.Validate
}

// NewRuleHandler creates a new RuleHandler.
func NewRuleHandler(ruleRepo repository.RuleRepository, db repository.Querier, logger *slog.Logger, validate *validator.Validate) *RuleHandler {
	return &RuleHandler{
		ruleRepo: ruleRepo,
		db:       db,
		logger:   logger,
		validate: validate,
	}
}

// RegisterRoutes sets up the routing for rule operations.
func (h *RuleHandler) RegisterRoutes(r chi.Router) {
	r.Get("/dunning/rules", h.ListRules)
	r.Post("/dunning/rules", h.CreateRule)
	r.Get("/dunning/rules/{ruleID}", h.GetRule)
	r.Put("/dunning/rules/{ruleID}", h.UpdateRule)
	r.Delete("/dunning/rules/{ruleID}", h.DeleteRule)
}

func ruleIDFromURL(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "ruleID"), 10, 64)
}

func (h *RuleHandler) ListRules(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter := repository.RuleFilter{}
	if ct := r.URL.Query().Get("customer_type"); ct != "" {
		t := domain.CustomerType(ct)
		filter.CustomerType = &t
	}
	if ia := r.URL.Query().Get("is_active"); ia != "" {
		active, err := strconv.ParseBool(ia)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid is_active filter")
			return
		}
		filter.IsActive = &active
	}

	rules, err := h.ruleRepo.List(ctx, h.db, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list rules", "error", err)
		respondWithError(w, mapDomainErrorToHTTPStatus(err), "Failed to list rules")
		return
	}
	if rules == nil {
		rules = []domain.DunningRule{}
	}
	respondWithJSON(w, http.StatusOK, rules)
}

func (h *RuleHandler) CreateRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var reqDTO CreateRuleRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.StructCtx(ctx, reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	rule := &domain.DunningRule{
		RuleName:            reqDTO.RuleName,
		CustomerType:        domain.CustomerType(reqDTO.CustomerType),
		TriggerDay:          reqDTO.TriggerDay,
		ActionType:          domain.ActionType(reqDTO.ActionType),
		NotificationChannel: domain.NotificationChannel(reqDTO.NotificationChannel),
		Priority:            reqDTO.Priority,
		IsActive:            true,
	}
	if reqDTO.IsActive != nil {
		rule.IsActive = *reqDTO.IsActive
	}
	if err := rule.Validate(); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.ruleRepo.Create(ctx, h.db, rule)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to create rule", "rule_name", reqDTO.RuleName, "error", err)
		respondWithError(w, mapDomainErrorToHTTPStatus(err), "Failed to create rule")
		return
	}
	respondWithJSON(w, http.StatusCreated, created)
}

func (h *RuleHandler) GetRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := ruleIDFromURL(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid rule ID")
		return
	}

	rule, err := h.ruleRepo.GetByID(ctx, h.db, id)
	if err != nil {
		respondWithError(w, mapDomainErrorToHTTPStatus(err), err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, rule)
}

func (h *RuleHandler) UpdateRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := ruleIDFromURL(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid rule ID")
		return
	}

	var reqDTO UpdateRuleRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.StructCtx(ctx, reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	rule, err := h.ruleRepo.GetByID(ctx, h.db, id)
	if err != nil {
		respondWithError(w, mapDomainErrorToHTTPStatus(err), err.Error())
		return
	}

	if reqDTO.RuleName != nil {
		rule.RuleName = *reqDTO.RuleName
	}
	if reqDTO.CustomerType != nil {
		rule.CustomerType = domain.CustomerType(*reqDTO.CustomerType)
	}
	if reqDTO.TriggerDay != nil {
		rule.TriggerDay = *reqDTO.TriggerDay
	}
	if reqDTO.ActionType != nil {
		rule.ActionType = domain.ActionType(*reqDTO.ActionType)
	}
	if reqDTO.NotificationChannel != nil {
		rule.NotificationChannel = domain.NotificationChannel(*reqDTO.NotificationChannel)
	}
	if reqDTO.Priority != nil {
		rule.Priority = *reqDTO.Priority
	}
	if reqDTO.IsActive != nil {
		rule.IsActive = *reqDTO.IsActive
	}
	if err := rule.Validate(); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.ruleRepo.Update(ctx, h.db, rule); err != nil {
		h.logger.ErrorContext(ctx, "Failed to update rule", "rule_id", id, "error", err)
		respondWithError(w, mapDomainErrorToHTTPStatus(err), "Failed to update rule")
		return
	}
	respondWithJSON(w, http.StatusOK, rule)
}

func (h *RuleHandler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := ruleIDFromURL(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid rule ID")
		return
	}

	if err := h.ruleRepo.Delete(ctx, h.db, id); err != nil {
		respondWithError(w, mapDomainErrorToHTTPStatus(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
