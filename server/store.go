package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/existflow/binge/internal/logger"
	"github.com/existflow/binge/internal/unlock"
)

type purchaseRequest struct {
	ProductID string `json:"product_id"`
}

// handleProducts looks up catalog products; unknown ids are reported back
func (s *Server) handleProducts(c echo.Context) error {
	resp := unlock.ProductsResponse{Products: []unlock.Product{}}

	ids := strings.Split(c.QueryParam("ids"), ",")
	if c.QueryParam("ids") == "" {
		ids = s.order
	}

	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if p, ok := s.catalog[id]; ok {
			resp.Products = append(resp.Products, p)
		} else {
			resp.InvalidIDs = append(resp.InvalidIDs, id)
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// handlePurchase records a purchase. Unknown products fail the transaction, not the request.
func (s *Server) handlePurchase(c echo.Context) error {
	var req purchaseRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request")
	}

	if _, ok := s.catalog[req.ProductID]; !ok {
		return c.JSON(http.StatusOK, unlock.Transaction{
			ProductID: req.ProductID,
			State:     unlock.TransactionFailed,
			Error:     "unknown product",
		})
	}

	userID := currentUser(c)
	_, err := s.db.ExecContext(c.Request().Context(), `
		INSERT INTO purchases (user_id, product_id) VALUES ($1, $2)
		ON CONFLICT (user_id, product_id) DO NOTHING`,
		userID, req.ProductID)
	if err != nil {
		logger.Error("Failed to record purchase", logger.F("user", userID), logger.F("error", err))
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}

	logger.Info("Product purchased", logger.F("user", userID), logger.F("product", req.ProductID))
	return c.JSON(http.StatusOK, unlock.Transaction{ProductID: req.ProductID, State: unlock.TransactionPurchased})
}

// handleRestore returns the user's earlier purchases as restored transactions
func (s *Server) handleRestore(c echo.Context) error {
	userID := currentUser(c)

	rows, err := s.db.QueryContext(c.Request().Context(),
		`SELECT product_id FROM purchases WHERE user_id = $1 ORDER BY purchased_at`, userID)
	if err != nil {
		logger.Error("Failed to list purchases", logger.F("user", userID), logger.F("error", err))
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}
	defer func() {
		_ = rows.Close()
	}()

	txs := []unlock.Transaction{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return errorJSON(c, http.StatusInternalServerError, "internal error")
		}
		txs = append(txs, unlock.Transaction{ProductID: id, State: unlock.TransactionRestored})
	}
	if err := rows.Err(); err != nil {
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, map[string][]unlock.Transaction{"transactions": txs})
}
