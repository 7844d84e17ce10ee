package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	LogLevel    string
	HTTPAddr    string
	MetricsAddr string
	ReqTimeout  time.Duration
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	CacheTTL    time.Duration
	JWTSecret   string
	JWTTTL      time.Duration

	GeocodeBase string
	GeocodeKey  string

	AmadeusBase   string
	AmadeusID     string
	AmadeusSecret string

	FlightsBase  string
	FlightsKey   string
	DeepLinkBase string
	Currency     string

	HotelsBase         string
	HotelsKey          string
	HotelDetailWorkers int

	UpstreamRPS      int
	UpstreamAttempts int
	UpstreamTimeout  time.Duration

	WarmWorkers int
	WarmCities  []string
}

// Load reads an optional .env file, then the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file, using process environment")
	}

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		LogLevel:    env("LOG_LEVEL", "info"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ""),
		ReqTimeout:  time.Duration(atoi("REQUEST_TIMEOUT_SECONDS", 60)) * time.Second,
		MySQLDSN:    env("MYSQL_DSN", "root:root@tcp(localhost:3306)/tripfinder?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:   env("REDIS_ADDR", "localhost:6379"),
		RedisPass:   env("REDIS_PASSWORD", ""),
		RedisDB:     atoi("REDIS_DB", 0),
		CacheTTL:    time.Duration(atoi("CACHE_TTL_SECONDS", 86400)) * time.Second,
		JWTSecret:   env("JWT_SECRET", ""),
		JWTTTL:      time.Duration(atoi("JWT_TTL_MINUTES", 24*60)) * time.Minute,

		GeocodeBase: env("GEOCODE_BASE_URL", "https://api.api-ninjas.com/v1"),
		GeocodeKey:  env("GEOCODE_API_KEY", ""),

		AmadeusBase:   env("AMADEUS_BASE_URL", "https://test.api.amadeus.com"),
		AmadeusID:     env("AMADEUS_CLIENT_ID", ""),
		AmadeusSecret: env("AMADEUS_CLIENT_SECRET", ""),

		FlightsBase:  env("FLIGHTS_BASE_URL", "https://partners.api.skyscanner.net/apiservices/v3"),
		FlightsKey:   env("FLIGHTS_API_KEY", ""),
		DeepLinkBase: env("DEEPLINK_BASE_URL", "https://www.skyscanner.net"),
		Currency:     env("CURRENCY", "USD"),

		HotelsBase:         env("HOTELS_BASE_URL", "https://api.liteapi.travel/v3.0"),
		HotelsKey:          env("HOTELS_API_KEY", ""),
		HotelDetailWorkers: atoi("HOTEL_DETAIL_WORKERS", 4),

		UpstreamRPS:      atoi("UPSTREAM_RPS", 5),
		UpstreamAttempts: atoi("UPSTREAM_ATTEMPTS", 2),
		UpstreamTimeout:  time.Duration(atoi("UPSTREAM_TIMEOUT_SECONDS", 20)) * time.Second,

		WarmWorkers: atoi("WARM_WORKERS", 4),
		WarmCities:  splitList(env("WARM_CITIES", "")),
	}
	if c.JWTSecret == "" {
		log.Warn().Msg("JWT_SECRET is empty; the API will refuse to start")
	}
	for k, v := range map[string]string{
		"GEOCODE_API_KEY":       c.GeocodeKey,
		"AMADEUS_CLIENT_ID":     c.AmadeusID,
		"AMADEUS_CLIENT_SECRET": c.AmadeusSecret,
		"FLIGHTS_API_KEY":       c.FlightsKey,
		"HOTELS_API_KEY":        c.HotelsKey,
	} {
		if v == "" {
			log.Warn().Str("var", k).Msg("upstream credential is empty")
		}
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
