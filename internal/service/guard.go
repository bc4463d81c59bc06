package service

import (
	"telegram_live/internal/models"
	"telegram_live/internal/repository"
)

// AuthorizationGuard 判斷用戶對房間與訊息的權限
// 純查詢，不做任何變更；實時路徑與 HTTP 路徑共用
type AuthorizationGuard struct {
	roomRepo   repository.RoomRepository
	memberRepo repository.MemberRepository
}

func NewAuthorizationGuard(roomRepo repository.RoomRepository, memberRepo repository.MemberRepository) *AuthorizationGuard {
	return &AuthorizationGuard{
		roomRepo:   roomRepo,
		memberRepo: memberRepo,
	}
}

// IsMember 回報用戶是否為房間成員
// 房間不存在或查詢失敗一律視為 false，不回傳錯誤
func (g *AuthorizationGuard) IsMember(userID, roomID uint) bool {
	if _, err := g.roomRepo.FindByID(roomID); err != nil {
		return false
	}
	ok, err := g.memberRepo.Exists(roomID, userID)
	if err != nil {
		return false
	}
	return ok
}

// CanModify 回報用戶是否可以變更這條訊息
// 只有訊息作者或房間創建者可以
func (g *AuthorizationGuard) CanModify(userID uint, message *models.Message) bool {
	if message.UserID == userID {
		return true
	}
	room, err := g.roomRepo.FindByID(message.RoomID)
	if err != nil {
		return false
	}
	return room.CreatedBy == userID
}
