// Package service 包含聊天閘道的核心邏輯。
//
// 實時路徑的骨幹是三個元件：ConnectionSession 管理單條 WebSocket
// 連線的生命週期，RoomGroupRegistry 負責房間主題的發佈與訂閱，
// MessageService 是訊息持久層的唯一入口。聊天訊息一律先持久化再
// 廣播；持久化失敗就不廣播，也不回錯誤給客戶端。
package service
