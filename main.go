package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"telegram_live/internal/api"
	"telegram_live/internal/config"
	"telegram_live/internal/models"
	"telegram_live/internal/repository"
	"telegram_live/internal/service"
	"telegram_live/internal/storage"
)

func main() {
	// 載入應用程式配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化資料庫連接
	db, err := storage.NewPostgresDB(cfg.DB.Host, cfg.DB.User, cfg.DB.Password, cfg.DB.Name, cfg.DB.Port)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// 自動遷移資料庫結構
	if err := db.AutoMigrate(&models.User{}, &models.Room{}, &models.RoomMember{}, &models.Message{}); err != nil {
		log.Fatalf("Failed to auto migrate database: %v", err)
	}

	// 附件儲存目錄
	files, err := storage.NewFileStore(cfg.Media.Dir)
	if err != nil {
		log.Fatalf("Failed to initialize file store: %v", err)
	}

	// 選擇房間廣播後端：單機用內存 fan-out，多節點用 Redis pub/sub
	var registry service.RoomGroupRegistry
	switch cfg.Registry.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		registry = service.NewRedisRegistry(client)
	default:
		registry = service.NewMemoryRegistry()
	}

	// 初始化 repositories 與 services
	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, files, registry)

	// 設置 Gin 路由
	r := gin.Default()
	api.SetupRoutes(r, services)

	// 啟動伺服器
	if err := r.Run(cfg.Server.Address); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
