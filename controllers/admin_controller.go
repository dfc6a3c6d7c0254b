package controllers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"storefront-service/middlewares"
	"storefront-service/models"
	"storefront-service/rabbitmq"
	"storefront-service/store"
)

// AdminController serves the admin-gated order and user management
// surface. Ownership checks are deliberately absent here; the admin
// middleware is the gate.
type AdminController struct {
	Orders *store.OrderStore
	Users  *store.UserStore
	Events *rabbitmq.RabbitMQ // nil when the broker is unavailable
}

func (ctl *AdminController) GetAllOrders(c *gin.Context) {
	orders, err := ctl.Orders.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (ctl *AdminController) GetOrderByID(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
		return
	}

	order, err := ctl.Orders.Get(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	response := models.AdminOrder{Order: *order}
	if user, err := ctl.Users.GetByID(c.Request.Context(), order.UserID); err == nil {
		response.UserName = user.Name
		response.UserEmail = user.Email
	}
	c.JSON(http.StatusOK, response)
}

func (ctl *AdminController) UpdateOrderStatus(c *gin.Context) {
	defer func() {
		ok := c.Writer.Status() >= 200 && c.Writer.Status() < 300
		middlewares.RecordOrderOperation("set_status", ok)
	}()

	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
		return
	}

	var req struct {
		Status string `json:"status" binding:"required,oneof=Placed Shipped Delivered Cancelled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := ctl.Orders.SetStatus(c.Request.Context(), orderID, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)

	if ctl.Events != nil {
		event := models.OrderEvent{
			OrderID: order.ID,
			UserID:  order.UserID,
			Type:    "status_updated",
			Status:  order.Status,
			Total:   order.TotalPrice,
		}
		if err := ctl.Events.PublishOrderEvent(event, 5); err != nil {
			log.Printf("Failed to publish order updated event: %v", err)
		}
	}
}

func (ctl *AdminController) GetAllUsers(c *gin.Context) {
	users, err := ctl.Users.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (ctl *AdminController) GetUserByID(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user ID"})
		return
	}

	user, err := ctl.Users.GetByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (ctl *AdminController) UpdateUser(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user ID"})
		return
	}

	var update store.UserUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := ctl.Users.Update(c.Request.Context(), userID, update)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (ctl *AdminController) DeleteUser(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user ID"})
		return
	}

	if err := ctl.Users.Delete(c.Request.Context(), userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user removed"})
}
