package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/aamersadiq/cart-pricing/internal/cache"
	"github.com/aamersadiq/cart-pricing/internal/catalog"
	"github.com/aamersadiq/cart-pricing/internal/config"
	"github.com/aamersadiq/cart-pricing/internal/coupon"
	"github.com/aamersadiq/cart-pricing/internal/db"
	"github.com/aamersadiq/cart-pricing/internal/events"
	"github.com/aamersadiq/cart-pricing/internal/httpx"
	"github.com/aamersadiq/cart-pricing/internal/poller"
	"github.com/aamersadiq/cart-pricing/internal/pricing"
	"github.com/aamersadiq/cart-pricing/internal/repository"
	"github.com/aamersadiq/cart-pricing/internal/service"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := log.New(os.Stdout, "", log.LstdFlags)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := db.RunMigrations(cfg.PostgresDSN, logger); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	pool, err := db.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	producer := events.NewProducer(cfg.KafkaBrokers, events.TopicCartEvents, 1024)
	producer.Start(ctx)

	priceLookup := catalog.NewBreakerLookup(catalog.NewPostgresLookup(pool))
	coupons := coupon.NewPostgresStore(pool)
	engine := pricing.NewEngine(priceLookup, coupons, cfg.Pricing)

	repo := repository.NewPostgresRepository(pool)
	cartCache := cache.NewRedisCache(rdb)
	carts := service.NewCartService(repo, cartCache, engine, producer, cfg.ServiceName)

	checkoutPoller := poller.NewPoller(repo, cartCache, cfg.KafkaBrokers, cfg.ConsumerGroup)
	go checkoutPoller.Run(ctx)

	handler := httpx.NewCartHandler(carts, 30*time.Second)
	router := httpx.NewRouter(handler, 30*time.Second)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("%s listening at %s", cfg.ServiceName, cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}

	cancel()
	checkoutPoller.Close()
	producer.WaitClosed()
}
