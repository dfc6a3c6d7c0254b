package main

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"storefront-service/checkout"
	"storefront-service/config"
	"storefront-service/consumers"
	"storefront-service/controllers"
	"storefront-service/database"
	"storefront-service/middlewares"
	"storefront-service/payment"
	"storefront-service/rabbitmq"
	"storefront-service/store"
)

func main() {
	cfg := config.LoadConfig()

	if err := database.InitDB(cfg); err != nil {
		log.Fatalf("Database initialization failed: %v", err)
	}
	defer database.CloseDB()

	orders := store.NewOrderStore(database.DB)
	users := store.NewUserStore(database.DB)

	// The gateway is built once and passed by reference. Missing provider
	// credentials leave it unconfigured; the payment routes then report
	// errors instead of the process refusing to start.
	gateway := payment.NewGateway(cfg.GatewayKeyID, cfg.GatewayKeySecret, cfg.Currency)
	if !gateway.Configured() {
		log.Printf("Warning: payment gateway keys not set, online payments disabled")
	}

	pricing := checkout.DefaultPricing()
	pricing.FreeDeliveryOver = cfg.FreeDeliveryOver
	pricing.DeliveryCharge = cfg.DeliveryCharge
	orchestrator := checkout.NewOrchestrator(orders, gateway, pricing)

	// The broker is optional: without it the API still serves requests,
	// it just stops publishing lifecycle events.
	var rmq *rabbitmq.RabbitMQ
	if r, err := rabbitmq.NewRabbitMQ(cfg); err != nil {
		log.Printf("Warning: RabbitMQ unavailable, events disabled: %v", err)
	} else {
		rmq = r
		defer rmq.Close()
		if err := rmq.SetupQueues(); err != nil {
			log.Fatalf("Failed to setup RabbitMQ queues: %v", err)
		}
		go consumers.StartOrderConsumer(rmq.Channel, cfg, orders)
	}

	orderCtl := &controllers.OrderController{Checkout: orchestrator, Orders: orders, Events: rmq}
	paymentCtl := &controllers.PaymentController{Gateway: gateway}
	adminCtl := &controllers.AdminController{Orders: orders, Users: users, Events: rmq}
	authCtl := &controllers.AuthController{Users: users, JWTSecret: cfg.JWTSecret}

	r := gin.Default()
	r.Use(middlewares.PrometheusMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.POST("/dead-letter", orderCtl.HandleDeadLetter)

	api := r.Group("/api")

	api.POST("/users/register", authCtl.Register)
	api.POST("/users/login", authCtl.Login)
	api.POST("/payment/verify", paymentCtl.VerifyPayment)

	auth := api.Group("")
	auth.Use(middlewares.Auth(users, cfg.JWTSecret))
	{
		auth.GET("/users/profile", authCtl.Profile)
		auth.POST("/orders", orderCtl.CreateOrder)
		auth.GET("/orders/my", orderCtl.GetMyOrders)
		auth.PUT("/orders/:id/cancel", orderCtl.CancelOrder)
		auth.POST("/payment/create-order", paymentCtl.CreatePaymentOrder)
	}

	admin := api.Group("/admin")
	admin.Use(middlewares.Auth(users, cfg.JWTSecret), middlewares.Admin())
	{
		admin.GET("/orders", adminCtl.GetAllOrders)
		admin.GET("/orders/:id", adminCtl.GetOrderByID)
		admin.PUT("/orders/:id", adminCtl.UpdateOrderStatus)
		admin.GET("/users", adminCtl.GetAllUsers)
		admin.GET("/users/:id", adminCtl.GetUserByID)
		admin.PUT("/users/:id", adminCtl.UpdateUser)
		admin.DELETE("/users/:id", adminCtl.DeleteUser)
	}

	addr := ":" + cfg.Port
	log.Printf("Storefront service starting on port %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
