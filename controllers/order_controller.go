package controllers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"storefront-service/checkout"
	"storefront-service/middlewares"
	"storefront-service/models"
	"storefront-service/rabbitmq"
	"storefront-service/store"
)

// paymentCheckDelay is how long after checkout the reconciliation event
// for online-method orders fires.
const paymentCheckDelay = 15 * time.Minute

type OrderController struct {
	Checkout *checkout.Orchestrator
	Orders   *store.OrderStore
	Events   *rabbitmq.RabbitMQ // nil when the broker is unavailable
}

func (ctl *OrderController) CreateOrder(c *gin.Context) {
	defer func() {
		ok := c.Writer.Status() >= 200 && c.Writer.Status() < 300
		middlewares.RecordOrderOperation("create", ok)
	}()

	userID, ok := middlewares.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req checkout.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := ctl.Checkout.PlaceOrder(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, order)

	if ctl.Events != nil {
		priority := uint8(5)
		if order.TotalPrice > 1000 { // large orders jump the queue
			priority = 9
		}
		event := models.OrderEvent{
			OrderID: order.ID,
			UserID:  order.UserID,
			Type:    "created",
			Status:  order.Status,
			Total:   order.TotalPrice,
		}
		if err := ctl.Events.PublishOrderEvent(event, priority); err != nil {
			log.Printf("Failed to publish order created event: %v", err)
		}

		if order.PaymentMethod != models.MethodCOD {
			event.Type = "payment_check"
			if err := ctl.Events.PublishDelayedEvent(event, paymentCheckDelay); err != nil {
				log.Printf("Failed to publish delayed payment check event: %v", err)
			}
		}
	}
}

func (ctl *OrderController) GetMyOrders(c *gin.Context) {
	defer func() {
		ok := c.Writer.Status() >= 200 && c.Writer.Status() < 300
		middlewares.RecordOrderOperation("list", ok)
	}()

	userID, ok := middlewares.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	orders, err := ctl.Orders.ListForUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (ctl *OrderController) CancelOrder(c *gin.Context) {
	defer func() {
		ok := c.Writer.Status() >= 200 && c.Writer.Status() < 300
		middlewares.RecordOrderOperation("cancel", ok)
	}()

	userID, ok := middlewares.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
		return
	}

	order, err := ctl.Orders.Cancel(c.Request.Context(), orderID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)

	if ctl.Events != nil {
		event := models.OrderEvent{
			OrderID: order.ID,
			UserID:  order.UserID,
			Type:    "cancelled",
			Status:  order.Status,
			Total:   order.TotalPrice,
		}
		// Cancellations are handled ahead of routine events.
		if err := ctl.Events.PublishOrderEvent(event, 8); err != nil {
			log.Printf("Failed to publish order cancelled event: %v", err)
		}
	}
}

// HandleDeadLetter receives dead-lettered events surfaced over HTTP.
func (ctl *OrderController) HandleDeadLetter(c *gin.Context) {
	defer func() {
		ok := c.Writer.Status() >= 200 && c.Writer.Status() < 300
		middlewares.RecordOrderOperation("dead_letter", ok)
	}()

	var deadLetter struct {
		OrderID int64  `json:"order_id"`
		Reason  string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&deadLetter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	log.Printf("Handling dead letter for order %d: %s", deadLetter.OrderID, deadLetter.Reason)
	c.JSON(http.StatusOK, gin.H{"message": "dead letter processed"})
}
