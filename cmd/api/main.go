package main

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpadp "comortgage/internal/adapter/http"
	mw "comortgage/internal/adapter/middleware"
	"comortgage/internal/adapter/repository/mysql"
	"comortgage/internal/config"
	"comortgage/internal/domain/ledger"
	"comortgage/internal/infrastructure/cache"
	"comortgage/internal/infrastructure/db"
	"comortgage/internal/usecase/property"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	gdb, err := db.OpenGorm(cfg.MySQLDSN())
	if err != nil {
		log.Fatal().Err(err).Msg("opening mysql")
	}
	if err := gdb.AutoMigrate(&ledger.Entry{}); err != nil {
		log.Fatal().Err(err).Msg("migrating ledger schema")
	}

	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		log.Fatal().Err(err).Msg("opening redis")
	}

	repo := mysql.NewLedgerRepository(gdb)
	uc := property.NewUsecase(repo, logger)

	h := httpadp.NewHandler()
	ph := httpadp.NewPropertyHandler(uc)

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(middleware.Logger(), middleware.Recover())

	idemp := mw.IdempotencyMiddleware(rdb, time.Duration(cfg.IdempTTLSecs)*time.Second)

	// routes
	e.GET("/health", h.Health)
	e.POST("/properties", ph.CreateProperty)
	e.GET("/properties/:property_id", ph.GetProperty)
	e.POST("/properties/:property_id/payments", ph.AcceptPayment, idemp)
	e.POST("/properties/:property_id/advance", ph.AdvancePeriod)
	e.GET("/properties/:property_id/schedules", ph.GetSchedules)

	addr := ":" + cfg.AppPort
	logger.Info().Str("addr", addr).Msg("listening")
	if err := e.Start(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
