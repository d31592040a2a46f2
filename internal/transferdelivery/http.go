// Package transferdelivery manages delivery layer of transfers.
package transferdelivery

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/errorspkg"
	"github.com/go-petr/pet-ledger/pkg/jsonresponse"
	"github.com/go-petr/pet-ledger/pkg/metricspkg"
)

// Service provides service layer interface needed by transfer delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package transferdelivery
type Service interface {
	Transfer(ctx context.Context, fromID, toID string, amount domain.Money, idempotencyKey string) (domain.Transaction, error)
	ListTransactions(ctx context.Context, limit int, afterSequence uint64) ([]domain.Transaction, uint64, error)
}

// Handler facilitates transfer delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns transfer handler.
func NewHandler(s Service) *Handler {
	return &Handler{service: s}
}

type createRequest struct {
	FromAccountID string `json:"from_account_id" binding:"required"`
	ToAccountID   string `json:"to_account_id" binding:"required"`
	Currency      string `json:"currency" binding:"required,currency"`
	Amount        int64  `json:"amount" binding:"required"`
	// An empty key means the request is not deduplicated.
	IdempotencyKey string `json:"idempotency_key"`
}

type transactionData struct {
	Transaction domain.Transaction `json:"transaction"`
}

type transactionResponse struct {
	Data transactionData `json:"data,omitempty"`
}

type listData struct {
	Transactions []domain.Transaction `json:"transactions"`
	NextAfter    uint64               `json:"next_after"`
}

type listResponse struct {
	Data listData `json:"data,omitempty"`
}

// Create handles http request to transfer money between two accounts.
func (h *Handler) Create(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req createRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, jsonresponse.Error(err))

		return
	}

	amount := domain.Money{Currency: req.Currency, Amount: req.Amount}

	tx, err := h.service.Transfer(ctx, req.FromAccountID, req.ToAccountID, amount, req.IdempotencyKey)
	if err != nil {
		l.Info().Err(err).Send()

		switch {
		case errors.Is(err, domain.ErrAccountNotFound):
			gctx.JSON(http.StatusNotFound, jsonresponse.Error(err))
		case errors.Is(err, domain.ErrInsufficientFunds):
			gctx.JSON(http.StatusUnprocessableEntity, jsonresponse.Error(err))
		case errors.Is(err, domain.ErrInvalidAmount),
			errors.Is(err, domain.ErrInvalidCurrency):
			gctx.JSON(http.StatusBadRequest, jsonresponse.Error(err))
		default:
			l.Error().Err(err).Send()
			gctx.JSON(http.StatusInternalServerError, jsonresponse.Error(errorspkg.ErrInternal))
		}

		return
	}

	metricspkg.IncTransfers(tx.Currency)

	gctx.JSON(http.StatusOK, transactionResponse{Data: transactionData{tx}})
}

// List handles http request to page through committed transactions.
func (h *Handler) List(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	limit, err := strconv.Atoi(gctx.DefaultQuery("limit", "0"))
	if err != nil || limit < 0 {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, jsonresponse.Error(domain.ErrInvalidAmount))

		return
	}

	after, err := strconv.ParseUint(gctx.DefaultQuery("after", "0"), 10, 64)
	if err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, jsonresponse.Error(domain.ErrInvalidAmount))

		return
	}

	transactions, nextAfter, err := h.service.ListTransactions(ctx, limit, after)
	if err != nil {
		l.Error().Err(err).Send()
		gctx.JSON(http.StatusInternalServerError, jsonresponse.Error(errorspkg.ErrInternal))

		return
	}

	if transactions == nil {
		transactions = []domain.Transaction{}
	}

	gctx.JSON(http.StatusOK, listResponse{Data: listData{
		Transactions: transactions,
		NextAfter:    nextAfter,
	}})
}
