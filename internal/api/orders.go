package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/mail"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/printloom/storefront-backend/internal/email"
	"github.com/printloom/storefront-backend/internal/printify"
	"github.com/printloom/storefront-backend/internal/store"
)

// ─── POST /api/stores/:storeID/orders ────────────────────────────────────────

type createOrderRequest struct {
	Email string `json:"email"`

	// Order is the confirmation-email payload: address, items, shipping
	// method, total. It is also stored verbatim on the order row.
	Order email.OrderConfirmationPayload `json:"order"`

	// LineItems are the Printify product/variant pairs to fulfill.
	LineItems []printify.LineItem `json:"line_items"`
}

type createOrderResponse struct {
	OrderID         string `json:"order_id"`
	Status          string `json:"status"`
	PrintifyOrderID string `json:"printify_order_id,omitempty"`
}

// handleCreateOrder persists the order, submits it to Printify, and sends the
// confirmation email. Email failure never fails the order — the customer's
// money has moved and fulfillment is underway; a missed email is an ops
// problem, not a customer-facing error.
func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	storeID := chi.URLParam(r, "storeID")

	var req createOrderRequest
	if !decode(w, r, &req) {
		return
	}

	if _, err := mail.ParseAddress(req.Email); err != nil {
		respondErr(w, http.StatusBadRequest, "invalid email address")
		return
	}
	if len(req.Order.Items) == 0 {
		respondErr(w, http.StatusBadRequest, "order has no items")
		return
	}
	for _, it := range req.Order.Items {
		if it.Quantity <= 0 {
			respondErr(w, http.StatusBadRequest, "item quantity must be positive")
			return
		}
	}
	if len(req.LineItems) == 0 {
		respondErr(w, http.StatusBadRequest, "order has no line items")
		return
	}

	payload, err := json.Marshal(req.Order)
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("marshal order payload: %w", err))
		return
	}

	order, err := s.q.CreateOrder(r.Context(), store.CreateOrderParams{
		StoreID:    storeID,
		Email:      req.Email,
		TotalPrice: req.Order.TotalPrice,
		Currency:   req.Order.Currency,
		Payload:    payload,
	})
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("create order: %w", err))
		return
	}

	// ── Submit to fulfillment ─────────────────────────────────────────────────
	submission, err := s.printify.SubmitOrder(r.Context(), storeID, printify.SubmitOrderParams{
		ExternalID:     order.ID.String(),
		LineItems:      req.LineItems,
		ShippingMethod: req.Order.ShippingMethod.Code,
		AddressTo: printify.AddressTo{
			FirstName: req.Order.Address.FirstName,
			LastName:  req.Order.Address.LastName,
			Email:     req.Email,
			Phone:     req.Order.Address.Phone,
			Country:   req.Order.Address.Country,
			Region:    req.Order.Address.Region,
			City:      req.Order.Address.City,
			Address1:  req.Order.Address.Address1,
			Address2:  req.Order.Address.Address2,
			Zip:       req.Order.Address.Zip,
		},
	})
	if err != nil {
		s.logger.Error("printify submission failed",
			"store_id", storeID, "order_id", order.ID, "error", err, logField(r))
		if _, uErr := s.q.UpdateOrderStatus(r.Context(), order.ID, "failed"); uErr != nil {
			s.logger.Error("mark order failed", "order_id", order.ID, "error", uErr, logField(r))
		}
		respondErr(w, http.StatusBadGateway, "fulfillment submission failed")
		return
	}

	order, err = s.q.SetOrderPrintifyID(r.Context(), order.ID, submission.ID)
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("record printify order id: %w", err))
		return
	}

	// ── Confirmation email (best effort) ──────────────────────────────────────
	_, sendErr := s.mailer.SendOrderConfirmation(r.Context(), email.SendOrderConfirmationParams{
		StoreID: storeID,
		To:      req.Email,
		OrderID: order.ID.String(),
		Payload: req.Order,
	})
	s.logAndIgnoreEmailErr(r, sendErr, "order confirmation")

	respond(w, http.StatusCreated, createOrderResponse{
		OrderID:         order.ID.String(),
		Status:          order.Status,
		PrintifyOrderID: order.PrintifyOrderID.String,
	})
}

// ─── GET /api/stores/:storeID/orders ─────────────────────────────────────────

type orderResponse struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	Status          string    `json:"status"`
	TotalPrice      int64     `json:"total_price"`
	Currency        string    `json:"currency"`
	PrintifyOrderID string    `json:"printify_order_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.q.ListOrdersByStore(r.Context(), chi.URLParam(r, "storeID"), 100)
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("list orders: %w", err))
		return
	}

	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, orderResponse{
			ID:              o.ID.String(),
			Email:           o.Email,
			Status:          o.Status,
			TotalPrice:      o.TotalPrice,
			Currency:        o.Currency,
			PrintifyOrderID: o.PrintifyOrderID.String,
			CreatedAt:       o.CreatedAt,
		})
	}
	respond(w, http.StatusOK, out)
}
