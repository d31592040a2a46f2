// Package accountdelivery manages delivery layer of accounts.
package accountdelivery

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/errorspkg"
	"github.com/go-petr/pet-ledger/pkg/jsonresponse"
	"github.com/go-petr/pet-ledger/pkg/metricspkg"
)

// Service provides service layer interface needed by account delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package accountdelivery
type Service interface {
	CreateAccount(ctx context.Context, initial domain.Money) (domain.Account, error)
	GetAccount(ctx context.Context, id string) (domain.Account, error)
	GetBalance(ctx context.Context, id, currency string) (domain.Money, error)
	AccountCount(ctx context.Context) int
}

// Handler facilitates account delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns account handler.
func NewHandler(s Service) *Handler {
	return &Handler{service: s}
}

type accountData struct {
	Account domain.Account `json:"account"`
}

type accountResponse struct {
	Data accountData `json:"data,omitempty"`
}

type balanceData struct {
	Balance domain.Money `json:"balance"`
}

type balanceResponse struct {
	Data balanceData `json:"data,omitempty"`
}

type createRequest struct {
	Currency      string `json:"currency" binding:"required,currency"`
	InitialAmount int64  `json:"initial_amount" binding:"min=0"`
}

// Create handles http request to create an account.
func (h *Handler) Create(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req createRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, jsonresponse.Error(err))

		return
	}

	initial := domain.Money{Currency: req.Currency, Amount: req.InitialAmount}

	account, err := h.service.CreateAccount(ctx, initial)
	if err != nil {
		handleError(gctx, err)

		return
	}

	metricspkg.SetAccounts(h.service.AccountCount(ctx))

	gctx.JSON(http.StatusCreated, accountResponse{Data: accountData{account}})
}

// Get handles http request to fetch an account by ID.
func (h *Handler) Get(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	account, err := h.service.GetAccount(ctx, gctx.Param("id"))
	if err != nil {
		handleError(gctx, err)

		return
	}

	gctx.JSON(http.StatusOK, accountResponse{Data: accountData{account}})
}

// GetBalance handles http request to fetch a single-currency balance.
func (h *Handler) GetBalance(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	balance, err := h.service.GetBalance(ctx, gctx.Param("id"), gctx.Param("currency"))
	if err != nil {
		handleError(gctx, err)

		return
	}

	gctx.JSON(http.StatusOK, balanceResponse{Data: balanceData{balance}})
}

func handleError(gctx *gin.Context, err error) {
	l := zerolog.Ctx(gctx.Request.Context())
	l.Info().Err(err).Send()

	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		gctx.JSON(http.StatusNotFound, jsonresponse.Error(err))
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidCurrency):
		gctx.JSON(http.StatusBadRequest, jsonresponse.Error(err))
	default:
		l.Error().Err(err).Send()
		gctx.JSON(http.StatusInternalServerError, jsonresponse.Error(errorspkg.ErrInternal))
	}
}
