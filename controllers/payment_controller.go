package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-service/middlewares"
	"storefront-service/payment"
)

type PaymentController struct {
	Gateway *payment.Gateway
}

// CreatePaymentOrder creates a provider-side intent for the given amount
// in major currency units.
func (ctl *PaymentController) CreatePaymentOrder(c *gin.Context) {
	defer func() {
		ok := c.Writer.Status() >= 200 && c.Writer.Status() < 300
		middlewares.RecordOrderOperation("create_intent", ok)
	}()

	var req struct {
		Amount float64 `json:"amount" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	intent, err := ctl.Gateway.CreateIntent(req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, intent)
}

// VerifyPayment checks a provider payment signature. The route is public:
// it verifies a signature, not a session. A mismatch is a normal negative
// result, never an error response, and the expected digest is not echoed.
func (ctl *PaymentController) VerifyPayment(c *gin.Context) {
	var req struct {
		OrderRef   string `json:"order_ref" binding:"required"`
		PaymentRef string `json:"payment_ref" binding:"required"`
		Signature  string `json:"signature" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if ctl.Gateway.VerifySignature(req.OrderRef, req.PaymentRef, req.Signature) {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "payment verified successfully"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": false, "message": "payment verification failed"})
}
