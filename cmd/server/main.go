package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"bookcourier/internal/config"
	"bookcourier/internal/database"
	"bookcourier/internal/handler"
	"bookcourier/internal/middleware"
	"bookcourier/internal/queue"
	"bookcourier/internal/repository"
	"bookcourier/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	limit := middleware.RateLimit(config.LoadRateLimitConfig(), rdb)

	// Order events land in logs/orders.log; the consumer reconnects on
	// its own, so a missing broker never blocks startup.
	go func() {
		if err := queue.StartOrderConsumer(); err != nil {
			log.Printf("order consumer stopped: %v", err)
		}
	}()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	books := repository.NewBookRepo(db)
	orders := repository.NewOrderRepo(db)
	payments := repository.NewPaymentRepo(db)

	authH := handler.NewAuthHandler(cfg, users, tokens)
	userH := handler.NewUserHandler(users)
	bookH := handler.NewBookHandler(books, orders)
	orderH := handler.NewOrderHandler(orders, books)
	paymentH := handler.NewPaymentHandler(payments, orders)

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, limit)
	router.RegisterAPI(e, cfg.JWTSecret, limit, authH, userH, bookH, orderH, paymentH)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
