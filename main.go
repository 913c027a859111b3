// gpay-mock-upi/main.go
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"gpay-mock-upi/config"
	"gpay-mock-upi/internal/finzen"
	"gpay-mock-upi/internal/guard"
	"gpay-mock-upi/internal/handlers"
	"gpay-mock-upi/internal/ledger"
	"gpay-mock-upi/internal/notify"
	"gpay-mock-upi/internal/routes"
	"gpay-mock-upi/internal/storage"
	"gpay-mock-upi/internal/storage/gormstore"
	"gpay-mock-upi/models"
)

func main() {
	// .env загружается до любого обращения к переменным окружения.
	if err := godotenv.Load(); err != nil {
		slog.Warn("Файл .env не найден, используются переменные окружения процесса")
	}

	config.ConnectDB()
	config.ConnectRedis()
	config.LoadJWTKey()

	if err := config.DB.AutoMigrate(&models.UPIUser{}, &models.Transaction{}); err != nil {
		slog.Error("Ошибка миграции схемы БД", "error", err)
		os.Exit(1)
	}

	var store storage.Store = gormstore.New(config.DB)

	// Защита от дублей: Redis, а без него - карта в памяти процесса.
	var paymentGuard guard.PaymentGuard
	if config.RDB != nil {
		paymentGuard = guard.NewRedis(config.RDB, guard.DefaultTTL)
	} else {
		paymentGuard = guard.NewMemory(guard.DefaultTTL)
	}

	hub := notify.NewHub()
	go hub.Run()

	// Клиент Finzen подключается только при заданном FINZEN_API_URL.
	var syncClient ledger.SyncClient
	var syncer *finzen.Syncer
	if apiURL := os.Getenv("FINZEN_API_URL"); apiURL != "" {
		client := finzen.NewClient(apiURL, os.Getenv("FINZEN_API_KEY"))
		syncClient = client

		interval := finzen.DefaultSyncInterval
		if raw := os.Getenv("FINZEN_SYNC_INTERVAL"); raw != "" {
			if parsed, err := time.ParseDuration(raw); err == nil {
				interval = parsed
			} else {
				slog.Warn("Некорректный FINZEN_SYNC_INTERVAL, используется значение по умолчанию", "value", raw)
			}
		}
		syncer = finzen.NewSyncer(client, store, interval)
		go syncer.Run(context.Background())
	} else {
		slog.Warn("Finzen sync disabled - FINZEN_API_URL not set")
	}

	ledgerService := ledger.NewService(store, paymentGuard, hub, syncClient)

	h := &handlers.UPIHandler{
		Store:  store,
		Ledger: ledgerService,
		Syncer: syncer,
		Hub:    hub,
	}

	r := gin.Default()
	routes.SetupRoutes(r, h)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}
	slog.Info("Сервер запущен", "port", port)
	if err := r.Run(":" + port); err != nil {
		slog.Error("Ошибка запуска сервера", "error", err)
		os.Exit(1)
	}
}
