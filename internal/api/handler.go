package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ms-wallet/internal/catalog"
	"ms-wallet/internal/kafka"
	"ms-wallet/internal/ledger"
	"ms-wallet/internal/logger"
	"ms-wallet/internal/models"
	"ms-wallet/internal/order"
	"ms-wallet/internal/referral"
	"ms-wallet/internal/refund"
	"ms-wallet/internal/tickets"
	"ms-wallet/internal/utils"
)

type Handler struct {
	Ledger   *ledger.Service
	Catalog  *catalog.Service
	Order    *order.Service
	Refund   *refund.Service
	Referral *referral.Service
	Tickets  *tickets.Service
	Kafka    *kafka.Producer
	Logger   *logger.Logger

	// RefundWindowDays bounds how old an order can be when a refund is
	// requested.
	RefundWindowDays int
}

func NewHandler(led *ledger.Service, cat *catalog.Service, ord *order.Service, ref *refund.Service, refl *referral.Service, tick *tickets.Service, producer *kafka.Producer, refundWindowDays int, log *logger.Logger) *Handler {
	return &Handler{
		Ledger:           led,
		Catalog:          cat,
		Order:            ord,
		Refund:           ref,
		Referral:         refl,
		Tickets:          tick,
		Kafka:            producer,
		Logger:           log,
		RefundWindowDays: refundWindowDays,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/wallet/{userId}", func(r chi.Router) {
		r.Get("/balance", h.GetBalance)
		r.Get("/transactions", h.GetTransactions)
		r.Get("/orders", h.GetUserOrders)
		r.Post("/adjust", h.AdjustBalance)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.PlaceOrder)
		r.Get("/{orderId}", h.GetOrder)
		r.Post("/{orderId}/fulfill", h.FulfillOrder)
		r.Post("/{orderId}/refill", h.RefillOrder)
		r.Post("/{orderId}/warranty", h.RenewWarranty)
	})

	r.Route("/refunds", func(r chi.Router) {
		r.Post("/", h.RequestRefund)
		r.Get("/pending", h.ListPendingRefunds)
		r.Get("/{refundId}", h.GetRefund)
		r.Post("/{refundId}/approve", h.ApproveRefund)
		r.Post("/{refundId}/reject", h.RejectRefund)
	})

	r.Route("/referrals", func(r chi.Router) {
		r.Post("/", h.CreateReferral)
		r.Get("/{userId}/cashback", h.GetPendingCashback)
		r.Post("/{userId}/cashback/payout", h.PayCashback)
		r.Post("/{userId}/blacklist", h.SetBlacklist)
	})

	r.Route("/products", func(r chi.Router) {
		r.Post("/import", h.ImportProducts)
		r.Get("/", h.ListProducts)
		r.Post("/{productId}/deactivate", h.DeactivateProduct)
	})

	r.Post("/tickets/next", h.NextTicketCount)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, resp utils.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.Logger.Error("API", fmt.Sprintf("failed to encode response: %v", err))
	}
}

func (h *Handler) userIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64)
}

// publishTransaction streams a ledger row event; publish failures only log.
func (h *Handler) publishTransaction(tx models.WalletTransaction) {
	if h.Kafka == nil {
		return
	}
	if err := h.Kafka.PublishWalletTransaction(tx); err != nil {
		h.Logger.Error("KAFKA", fmt.Sprintf("publish wallet transaction: %v", err))
	}
}

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID, err := h.userIDParam(r)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid user id", err.Error()))
		return
	}

	balance, err := h.Ledger.GetBalance(r.Context(), userID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetBalance: %v", err))
		h.writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Could not load balance", err.Error()))
		return
	}

	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("Balance retrieved", map[string]int64{
		"user_id":       userID,
		"balance_cents": balance,
	}))
}

func (h *Handler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	userID, err := h.userIDParam(r)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid user id", err.Error()))
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid limit", err.Error()))
			return
		}
	}

	txs, err := h.Ledger.GetTransactions(r.Context(), userID, limit)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetTransactions: %v", err))
		h.writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Could not load transactions", err.Error()))
		return
	}

	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("Transactions retrieved", txs))
}

func (h *Handler) GetUserOrders(w http.ResponseWriter, r *http.Request) {
	userID, err := h.userIDParam(r)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid user id", err.Error()))
		return
	}

	orders, err := h.Order.GetOrdersForUser(r.Context(), userID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetUserOrders: %v", err))
		h.writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Could not load orders", err.Error()))
		return
	}

	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("Orders retrieved", orders))
}

// AdjustBalance applies a staff credit or debit to a wallet and records the
// matching ledger row.
func (h *Handler) AdjustBalance(w http.ResponseWriter, r *http.Request) {
	userID, err := h.userIDParam(r)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid user id", err.Error()))
		return
	}

	var req struct {
		DeltaCents int64  `json:"delta_cents"`
		Type       string `json:"type"`
		StaffID    int64  `json:"staff_id"`
		Reason     string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	txType := models.TransactionType(req.Type)
	switch txType {
	case models.TxTypeTopup, models.TxTypeAdminCredit, models.TxTypeAdminDebit:
	default:
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid adjustment type", string(txType)))
		return
	}

	txID, newBalance, err := h.Ledger.AdjustBalance(r.Context(), ledger.TxParams{
		UserID:      userID,
		AmountCents: req.DeltaCents,
		Type:        txType,
		StaffID:     req.StaffID,
		Metadata:    map[string]any{"reason": req.Reason},
	})
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("AdjustBalance: %v", err))
		h.writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Could not adjust balance", err.Error()))
		return
	}

	h.publishTransaction(models.WalletTransaction{
		TxID:              txID,
		UserID:            userID,
		AmountCents:       req.DeltaCents,
		BalanceAfterCents: newBalance,
		Type:              txType,
		StaffID:           req.StaffID,
	})

	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("Balance adjusted", map[string]any{
		"tx_id":             txID,
		"new_balance_cents": newBalance,
	}))
}

func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req models.PurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	orderID, newBalance, err := h.Order.PurchaseProduct(r.Context(), req.UserID, req.ProductID, req.PricePaidCents, req.DiscountPercent)
	if errors.Is(err, order.ErrInsufficientBalance) {
		h.writeJSON(w, http.StatusPaymentRequired, utils.ErrorResponse("Insufficient balance", err.Error()))
		return
	}
	if errors.Is(err, order.ErrProductUnavailable) {
		h.writeJSON(w, http.StatusNotFound, utils.ErrorResponse("Product unavailable", err.Error()))
		return
	}
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("PlaceOrder: %v", err))
		h.writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Could not place order", err.Error()))
		return
	}

	// Referral cashback accrues outside the purchase transaction; a failure
	// here must not undo a committed order.
	if _, err := h.Referral.LogReferralPurchase(r.Context(), req.UserID, orderID, req.PricePaidCents); err != nil {
		h.Logger.Error("API", fmt.Sprintf("PlaceOrder: referral accrual: %v", err))
	}

	h.writeJSON(w, http.StatusCreated, utils.SuccessResponse("Order placed", models.PurchaseResponse{
		OrderID:         orderID,
		NewBalanceCents: newBalance,
	}))
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	o, err := h.Order.GetOrder(r.Context(), orderID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetOrder: %v", err))
		h.writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Could not load order", err.Error()))
		return
	}
	if o == nil {
		h.writeJSON(w, http.StatusNotFound, utils.ErrorResponse("Order not found", orderID))
		return
	}

	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("Order retrieved", o))
}

func (h *Handler) FulfillOrder(w http.ResponseWriter, r *http.Request) {
	h.setOrderStatus(w, r, h.Order.MarkFulfilled, "Order fulfilled")
}

func (h *Handler) RefillOrder(w http.ResponseWriter, r *http.Request) {
	h.setOrderStatus(w, r, h.Order.MarkRefill, "Order marked for refill")
}

func (h *Handler) setOrderStatus(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, orderID string) error, msg string) {
	orderID := chi.URLParam(r, "orderId")
	if err := fn(r.Context(), orderID); err != nil {
		h.Logger.Error("API", fmt.Sprintf("setOrderStatus: %v", err))
		h.writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Could not update order", err.Error()))
		return
	}
	h.writeJSON(w, http.StatusOK, utils.SuccessResponse(msg, map[string]string{"order_id": orderID}))
}

func (h *Handler) RenewWarranty(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	var req struct {
		Days int `json:"days"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	expiresAt, err := h.Order.RenewWarranty(r.Context(), orderID, req.Days)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("RenewWarranty: %v", err))
		h.writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Could not renew warranty", err.Error()))
		return
	}

	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("Warranty renewed", map[string]any{
		"order_id":            orderID,
		"warranty_expires_at": expiresAt,
	}))
}

func (h *Handler) RequestRefund(w http.ResponseWriter, r *http.Request) {
	var req models.RefundRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	o, err := h.Refund.ValidateOrderForRefund(r.Context(), req.OrderID, req.UserID, h.RefundWindowDays)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("RequestRefund: %v", err))
		h.writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Could not validate order", err.Error()))
		return
	}
	if o == nil {
		h.writeJSON(w, http.StatusUnprocessableEntity, utils.ErrorResponse("Order not eligible for refund", req.OrderID))
		return
	}

	refundID, err := h.Refund.CreateRefundRequest(r.Context(), req.OrderID, req.UserID, req.AmountCents, req.Reason)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("RequestRefund: %v", err))
		h.writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Could not create refund request", err.Error()))
		return
	}

	h.writeJSON(w, http.StatusCreated, utils.SuccessResponse("Refund requested", map[string]string{"refund_id": refundID}))
}

func (h *Handler) ListPendingRefunds(w http.ResponseWriter, r *http.Request) {
	refunds, err := h.Refund.ListPending(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListPendingRefunds: %v", err))
		h.writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Could not load refunds", err.Error()))
		return
	}
	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("Pending refunds retrieved", refunds))
}

func (h *Handler) GetRefund(w http.ResponseWriter, r *http.Request) {
	refundID := chi.URLParam(r, "refundId")

	rf, err := h.Refund.GetRefund(r.Context(), refundID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetRefund: %v", err))
		h.writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Could not load refund", err.Error()))
		return
	}
	if rf == nil {
		h.writeJSON(w, http.StatusNotFound, utils.ErrorResponse("Refund not found", refundID))
		return
	}
	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("Refund retrieved", rf))
}

func (h *Handler) ApproveRefund(w http.ResponseWriter, r *http.Request) {
	refundID := chi.URLParam(r, "refundId")

	var req models.RefundResolutionDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	resolved, err := h.Refund.ApproveRefund(r.Context(), refundID, req.StaffID, req.ApprovedAmountCents, req.HandlingFeePercent)
	if errors.Is(err, refund.ErrRefundNotFound) {
		h.writeJSON(w, http.StatusNotFound, utils.ErrorResponse("Refund not found or already resolved", refundID))
		return
	}
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ApproveRefund: %v", err))
		h.writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Could not approve refund", err.Error()))
		return
	}

	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("Refund approved", resolved))
}

func (h *Handler) RejectRefund(w http.ResponseWriter, r *http.Request) {
	refundID := chi.URLParam(r, "refundId")

	var req models.RefundResolutionDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	err := h.Refund.RejectRefund(r.Context(), refundID, req.StaffID, req.Reason)
	if errors.Is(err, refund.ErrRefundNotFound) {
		h.writeJSON(w, http.StatusNotFound, utils.ErrorResponse("Refund not found or already resolved", refundID))
		return
	}
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("RejectRefund: %v", err))
		h.writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Could not reject refund", err.Error()))
		return
	}

	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("Refund rejected", map[string]string{"refund_id": refundID}))
}

func (h *Handler) CreateReferral(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ReferrerID int64 `json:"referrer_id"`
		ReferredID int64 `json:"referred_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	err := h.Referral.CreateReferral(r.Context(), req.ReferrerID, req.ReferredID)
	if errors.Is(err, referral.ErrSelfReferral) {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Self referral not allowed", err.Error()))
		return
	}
	if errors.Is(err, referral.ErrAlreadyReferred) {
		h.writeJSON(w, http.StatusConflict, utils.ErrorResponse("User already referred", err.Error()))
		return
	}
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateReferral: %v", err))
		h.writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Could not create referral", err.Error()))
		return
	}

	h.writeJSON(w, http.StatusCreated, utils.SuccessResponse("Referral created", nil))
}

func (h *Handler) GetPendingCashback(w http.ResponseWriter, r *http.Request) {
	userID, err := h.userIDParam(r)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid user id", err.Error()))
		return
	}

	summary, err := h.Referral.GetPendingCashback(r.Context(), userID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetPendingCashback: %v", err))
		h.writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Could not load cashback", err.Error()))
		return
	}

	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("Cashback retrieved", summary))
}

// PayCashback settles pending cashback and credits the referrer's wallet as a
// referral_cashback ledger entry.
func (h *Handler) PayCashback(w http.ResponseWriter, r *http.Request) {
	userID, err := h.userIDParam(r)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid user id", err.Error()))
		return
	}

	var req struct {
		AmountCents int64 `json:"amount_cents"`
		StaffID     int64 `json:"staff_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	newBalance, err := h.Referral.PayoutCashback(r.Context(), userID, req.AmountCents, req.StaffID)
	if errors.Is(err, referral.ErrInsufficientCashback) {
		h.writeJSON(w, http.StatusUnprocessableEntity, utils.ErrorResponse("Not enough pending cashback", err.Error()))
		return
	}
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("PayCashback: %v", err))
		h.writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Could not pay out cashback", err.Error()))
		return
	}

	h.publishTransaction(models.WalletTransaction{
		UserID:            userID,
		AmountCents:       req.AmountCents,
		BalanceAfterCents: newBalance,
		Type:              models.TxTypeReferralCashback,
		StaffID:           req.StaffID,
	})

	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("Cashback paid", map[string]int64{
		"amount_cents":      req.AmountCents,
		"new_balance_cents": newBalance,
	}))
}

func (h *Handler) SetBlacklist(w http.ResponseWriter, r *http.Request) {
	userID, err := h.userIDParam(r)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid user id", err.Error()))
		return
	}

	var req struct {
		Blacklisted bool `json:"blacklisted"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	if err := h.Referral.SetBlacklisted(r.Context(), userID, req.Blacklisted); err != nil {
		h.Logger.Error("API", fmt.Sprintf("SetBlacklist: %v", err))
		h.writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Could not update blacklist", err.Error()))
		return
	}

	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("Blacklist updated", map[string]bool{"blacklisted": req.Blacklisted}))
}

func (h *Handler) ImportProducts(w http.ResponseWriter, r *http.Request) {
	var products []models.Product
	if err := json.NewDecoder(r.Body).Decode(&products); err != nil {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	if err := h.Catalog.ImportProducts(r.Context(), products); err != nil {
		h.Logger.Error("API", fmt.Sprintf("ImportProducts: %v", err))
		h.writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Could not import products", err.Error()))
		return
	}

	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("Products imported", map[string]int{"count": len(products)}))
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")

	products, err := h.Catalog.ListActive(r.Context(), category)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListProducts: %v", err))
		h.writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Could not load products", err.Error()))
		return
	}

	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("Products retrieved", products))
}

func (h *Handler) DeactivateProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")

	if err := h.Catalog.DeactivateProduct(r.Context(), productID); err != nil {
		h.Logger.Error("API", fmt.Sprintf("DeactivateProduct: %v", err))
		h.writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Could not deactivate product", err.Error()))
		return
	}

	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("Product deactivated", map[string]string{"product_id": productID}))
}

func (h *Handler) NextTicketCount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID     int64  `json:"user_id"`
		TicketType string `json:"ticket_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}
	if req.TicketType == "" {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Ticket type is required", ""))
		return
	}

	count, err := h.Tickets.GetNextTicketCount(r.Context(), req.UserID, req.TicketType)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("NextTicketCount: %v", err))
		h.writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Could not allocate ticket number", err.Error()))
		return
	}

	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("Ticket number allocated", map[string]any{
		"user_id":     req.UserID,
		"ticket_type": req.TicketType,
		"count":       count,
	}))
}
