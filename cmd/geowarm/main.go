package main

import (
	"context"
	"os"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"tripfinder/internal/adapters/amadeus"
	"tripfinder/internal/adapters/geocode"
	"tripfinder/internal/adapters/httpx"
	"tripfinder/internal/adapters/observability"
	redisad "tripfinder/internal/adapters/redis"
	"tripfinder/internal/app"
	"tripfinder/internal/shared"
)

// geowarm pre-resolves WARM_CITIES (or the command-line arguments) into the geo cache.
func main() {
	ctx := context.Background()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	cities := cfg.WarmCities
	if len(os.Args) > 1 {
		cities = os.Args[1:]
	}
	if len(cities) == 0 {
		log.Fatal().Msg("no cities to warm; set WARM_CITIES or pass names as arguments")
	}
	log.Info().
		Int("cities", len(cities)).
		Int("workers", cfg.WarmWorkers).
		Msg("geowarm starting")

	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()
	if err := cache.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("redis ping failed")
	}

	amadeusHX := httpx.New("amadeus", cfg.UpstreamRPS, cfg.UpstreamAttempts, cfg.UpstreamTimeout)
	geo := app.NewGeoResolver(
		geocode.New(httpx.New("geocode", cfg.UpstreamRPS, cfg.UpstreamAttempts, cfg.UpstreamTimeout), cfg.GeocodeBase, cfg.GeocodeKey),
		amadeus.NewAirportClient(amadeusHX, cfg.AmadeusBase),
		amadeus.NewTokenProvider(amadeusHX, cfg.AmadeusBase, cfg.AmadeusID, cfg.AmadeusSecret),
		cache, cfg.CacheTTL,
	)
	warm := app.NewWarmService(geo, cache)

	workers := cfg.WarmWorkers
	if workers <= 0 {
		workers = 1
	}
	sem := semaphore.NewWeighted(int64(workers))
	var wg sync.WaitGroup
	var failed atomic.Int32

	for _, city := range cities {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			defer sem.Release(1)

			n, err := warm.WarmCity(ctx, name)
			if err != nil {
				failed.Add(1)
				log.Warn().Str("city", name).Err(err).Msg("warm failed")
				return
			}
			log.Info().Str("city", name).Int("airports", n).Msg("warm ok")
		}(city)
	}

	wg.Wait()
	if n := failed.Load(); n > 0 {
		log.Error().Int32("failed", n).Msg("geowarm completed with failures")
		os.Exit(1)
	}
	log.Info().Msg("geowarm completed")
}
