package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"telegram_live/internal/api/handlers"
	"telegram_live/internal/middleware"
	"telegram_live/internal/service"
)

func SetupRoutes(r *gin.Engine, services *service.Services) {
	// 初始化 handlers
	authHandler := handlers.NewAuthHandler(services.User)
	roomHandler := handlers.NewRoomHandler(services.Room, services.Message, services.Guard)
	messageHandler := handlers.NewMessageHandler(services.Message, services.Guard, services.Registry)
	wsHandler := handlers.NewWebSocketHandler(services.Message, services.Guard, services.Registry)

	// API 路由群組
	api := r.Group("/api")

	// 處理 404 錯誤
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "找不到該路徑",
		})
	})

	// 公開路由
	{
		// 用戶認證相關
		api.POST("/register", authHandler.Register)
		api.POST("/login", authHandler.Login)

		// 基本的健康檢查
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status": "ok",
			})
		})
	}

	// 需要驗證的路由
	authorized := api.Group("/")
	authorized.Use(middleware.AuthMiddleware())
	{
		// 聊天室相關
		rooms := authorized.Group("/rooms")
		{
			rooms.GET("", roomHandler.ListRooms)          // 獲取房間列表
			rooms.POST("", roomHandler.CreateRoom)        // 創建房間
			rooms.GET("/:id", roomHandler.GetRoom)        // 獲取房間信息（首次訪問自動加入）
			rooms.DELETE("/:id", roomHandler.DeleteRoom)  // 刪除房間（僅創建者）

			rooms.GET("/:id/members", roomHandler.GetRoomMembers)    // 房間成員列表
			rooms.GET("/:id/messages", roomHandler.GetRoomMessages)  // 訊息歷史
			rooms.POST("/:id/messages", messageHandler.PostMessage)  // 發訊息（可帶附件）

			// WebSocket 連接點
			rooms.GET("/:id/ws", wsHandler.HandleWebSocket)
		}

		// 訊息相關
		messages := authorized.Group("/messages")
		{
			messages.DELETE("/:id/:delete_type", messageHandler.DeleteMessageContent) // 刪除文字/附件/整條
			messages.GET("/:id/file", messageHandler.DownloadFile)                    // 下載附件
		}
	}
}
