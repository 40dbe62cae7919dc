// Package main hostel finder API.
//
// @title           Hostel Finder API
// @version         1.0
// @description     Hostel catalog, room bookings and reviews.
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description  Use:  Bearer <JWT>
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	echoSwagger "github.com/swaggo/echo-swagger"

	"hostelfinder/app/echoServer"
	authctrl "hostelfinder/app/echoServer/controller/auth"
	bookingctrl "hostelfinder/app/echoServer/controller/booking"
	hostelctrl "hostelfinder/app/echoServer/controller/hostel"
	reviewctrl "hostelfinder/app/echoServer/controller/review"
	"hostelfinder/app/echoServer/validation"
	"hostelfinder/config"
	authrepo "hostelfinder/repository/auth"
	bookingrepo "hostelfinder/repository/booking"
	"hostelfinder/repository/cache"
	"hostelfinder/repository/events"
	hostelrepo "hostelfinder/repository/hostel"
	ledgerrepo "hostelfinder/repository/ledger"
	reviewrepo "hostelfinder/repository/review"
	authsvc "hostelfinder/service/auth"
	bookingsvc "hostelfinder/service/booking"
	hostelsvc "hostelfinder/service/hostel"
	reviewsvc "hostelfinder/service/review"
	"hostelfinder/util/database"
	"hostelfinder/util/obs"
)

func main() {
	// logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("config", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.OTLPEndpoint != "" {
		shutdown, err := obs.InitTracer(ctx, "hostelfinder", cfg.OTLPEndpoint, cfg.Env)
		if err != nil {
			log.Warn("tracing disabled", "err", err)
		} else {
			defer func() {
				sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = shutdown(sctx)
			}()
		}
	}

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		log.Error("db migrate failed", "err", err)
		os.Exit(1)
	}

	// optional collaborators stay nil interfaces when not configured
	var (
		hostelCache hostelsvc.Cache
		invalidator bookingsvc.Invalidator
		publisher   bookingsvc.Publisher = events.Nop{}
	)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis unavailable, cache disabled", "addr", cfg.RedisAddr, "err", err)
		} else {
			hc := cache.NewHostelCache(rdb, cfg.CacheTTL)
			hostelCache, invalidator = hc, hc
		}
	}
	if cfg.RabbitURL != "" {
		p, err := events.NewPublisher(cfg.RabbitURL, cfg.Exchange)
		if err != nil {
			log.Warn("rabbitmq unavailable, events disabled", "err", err)
		} else {
			defer p.Close()
			publisher = p
		}
	}

	// repos
	ar := authrepo.New(db)
	hr := hostelrepo.New(db)
	lr := ledgerrepo.New(db)
	br := bookingrepo.New(db, cfg.LockTimeout)
	rr := reviewrepo.New(db)

	// services
	as := authsvc.New(ar, cfg.JWTSecret, cfg.JWTTTLHours)
	hs := hostelsvc.New(hr, lr, hostelCache, log)
	bs := bookingsvc.New(br, publisher, invalidator, log, cfg.MaxRetries)
	rs := reviewsvc.New(rr)

	if len(os.Args) > 1 && os.Args[1] == "complete-stays" {
		n, err := bookingsvc.NewCompleter(br, bs, cfg.CompleteBatchSize, log).CompleteFinished(ctx)
		if err != nil {
			log.Error("complete stays", "completed", n, "err", err)
			os.Exit(1)
		}
		log.Info("complete stays", "completed", n)
		return
	}

	// controllers
	v := validation.New()
	authC := &authctrl.Controller{Svc: as, V: v.Engine(), Log: log}
	hostelC := &hostelctrl.Controller{Svc: hs, ReviewSvc: rs, V: v.Engine(), Log: log}
	bookingC := &bookingctrl.Controller{Svc: bs, V: v.Engine(), Log: log}
	reviewC := &reviewctrl.Controller{Svc: rs, V: v.Engine(), Log: log}

	// echo
	e := echo.New()
	e.HideBanner = true
	echoServer.RegisterMiddlewares(e, log)
	e.Validator = v

	e.GET("/health", func(c echo.Context) error {
		if err := db.Pool.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]any{"status": "degraded", "message": err.Error()})
		}
		return c.JSON(http.StatusOK, map[string]any{
			"status":  "ok",
			"message": "Service is healthy and connected",
		})
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	echoServer.Register(e, echoServer.C{
		Auth:    authC,
		Hostel:  hostelC,
		Booking: bookingC,
		Review:  reviewC,

		JWTSecret: cfg.JWTSecret,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}
	if port == "" {
		port = "8080"
	}

	go func() {
		log.Info("starting server", "PORT_env", os.Getenv("PORT"), "chosen_port", port)
		if err := e.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(sctx); err != nil {
		log.Error("shutdown", "err", err)
	}
}
