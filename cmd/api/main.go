package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"tripfinder/internal/adapters/amadeus"
	"tripfinder/internal/adapters/flights"
	"tripfinder/internal/adapters/geocode"
	"tripfinder/internal/adapters/hotels"
	server "tripfinder/internal/adapters/http_server"
	"tripfinder/internal/adapters/httpx"
	"tripfinder/internal/adapters/observability"
	redisad "tripfinder/internal/adapters/redis"
	"tripfinder/internal/app"
	"tripfinder/internal/shared"
	mysqlrepo "tripfinder/internal/storage/mysql"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	defer db.Close()
	db.SetMaxOpenConns(20)
	db.SetConnMaxLifetime(5 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")
	repo := mysqlrepo.New(db)

	// cache is optional: lookups fall through to upstream when redis is down
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()
	if err := cache.Ping(ctx); err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable; continuing without warm cache")
	}

	// upstreams
	hx := func(service string) *httpx.Client {
		return httpx.New(service, cfg.UpstreamRPS, cfg.UpstreamAttempts, cfg.UpstreamTimeout)
	}
	amadeusHX := hx("amadeus")
	creds := amadeus.NewTokenProvider(amadeusHX, cfg.AmadeusBase, cfg.AmadeusID, cfg.AmadeusSecret)
	geo := app.NewGeoResolver(
		geocode.New(hx("geocode"), cfg.GeocodeBase, cfg.GeocodeKey),
		amadeus.NewAirportClient(amadeusHX, cfg.AmadeusBase),
		creds, cache, cfg.CacheTTL,
	)
	aggregator := app.NewHotelAggregator(hotels.New(hx("hotels"), cfg.HotelsBase, cfg.HotelsKey), cfg.HotelDetailWorkers, cfg.Currency)
	trips := app.NewTripService(repo, geo, flights.New(hx("flights"), cfg.FlightsBase, cfg.FlightsKey), aggregator, cfg.DeepLinkBase, cfg.Currency)
	auth, err := app.NewAuthService(repo, cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("auth setup failed; set JWT_SECRET")
	}

	// http
	srv := server.New(cfg.ReqTimeout)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Trips: trips, Auth: auth, Ping: repo.Ping})

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown failed")
		}
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("API stopped")
}
