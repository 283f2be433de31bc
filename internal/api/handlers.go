package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	interfaces "github.com/sheikh-saqib/currency-ledger/internal/interfaces"
	"github.com/sheikh-saqib/currency-ledger/internal/ledger"
	"github.com/sheikh-saqib/currency-ledger/internal/models"
	"github.com/sheikh-saqib/currency-ledger/internal/models/events"
	"github.com/sheikh-saqib/currency-ledger/internal/validation"
	"go.uber.org/zap"
)

const (
	publishTimeout = 5 * time.Second
	maxBodyBytes   = 1 << 20
)

// Handler binds the ledger operations to HTTP. Requests are validated here,
// the ledger itself never re-validates.
type Handler struct {
	service   *ledger.Ledger
	publisher interfaces.EventPublisher
	logger    *zap.Logger
}

func NewHandler(service *ledger.Ledger, publisher interfaces.EventPublisher, logger *zap.Logger) *Handler {
	return &Handler{
		service:   service,
		publisher: publisher,
		logger:    logger,
	}
}

func (h *Handler) AddUser(w http.ResponseWriter, r *http.Request) {
	var req models.AddUserRequest
	if !h.decode(w, r, &req) {
		return
	}

	id, err := h.service.AddUser(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (h *Handler) AddCurrency(w http.ResponseWriter, r *http.Request) {
	var req models.AddCurrencyRequest
	if !h.decode(w, r, &req) {
		return
	}

	id, err := h.service.AddCurrency(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (h *Handler) TopUp(w http.ResponseWriter, r *http.Request) {
	var req models.TopUpRequest
	if !h.decode(w, r, &req) {
		return
	}

	accountID, err := h.service.TopUp(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.publish(events.TopicAccountToppedUp, accountID.String(), events.AccountToppedUp{
		AccountID:  accountID.String(),
		UserID:     req.UserID,
		CurrencyID: req.CurrencyID,
		Amount:     req.Sum,
		OccurredAt: time.Now().UTC(),
	})

	writeJSON(w, http.StatusOK, map[string]string{"accountId": accountID.String()})
}

func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	var req models.ConvertRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.service.Convert(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.publish(events.TopicAccountConverted, strconv.FormatInt(req.UserID, 10), events.AccountConverted{
		UserID:         req.UserID,
		CurrencyIDFrom: req.CurrencyIDFrom,
		CurrencyIDTo:   req.CurrencyIDTo,
		SumFrom:        req.SumFrom,
		Rate:           req.Rate,
		BalanceFrom:    result.BalanceFrom,
		BalanceTo:      result.BalanceTo,
		OccurredAt:     time.Now().UTC(),
	})

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("userId"), 10, 64)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "userId must be an integer")
		return
	}
	currencyID, err := strconv.ParseInt(r.URL.Query().Get("currencyId"), 10, 64)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "currencyId must be an integer")
		return
	}

	account, err := h.service.GetBalance(r.Context(), userID, currencyID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, account)
}

func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "user id must be an integer")
		return
	}

	accounts, err := h.service.ListAccounts(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, accounts)
}

// decode parses the JSON body into req and validates it, writing the
// rejection itself when either step fails
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, req any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return false
	}

	if err := validation.Validate(req); err != nil {
		h.writeError(w, err)
		return false
	}
	return true
}

// publish runs after commit, so a failure is only logged
func (h *Handler) publish(topic string, key string, event any) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := h.publisher.Publish(ctx, topic, key, event); err != nil {
		h.logger.Warn("publish event failed", zap.String("topic", topic), zap.String("key", key), zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var validationErr *validation.Error
	var fundsErr *ledger.InsufficientFundsError

	switch {
	case errors.As(err, &validationErr):
		writeMessage(w, http.StatusBadRequest, validationErr.Message)
	case errors.As(err, &fundsErr):
		writeMessage(w, http.StatusUnprocessableEntity, fundsErr.Error())
	case errors.Is(err, ledger.ErrNotFound):
		writeMessage(w, http.StatusNotFound, err.Error())
	default:
		h.logger.Error("request failed", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "internal error")
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
