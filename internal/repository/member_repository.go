package repository

import (
	"errors"

	"gorm.io/gorm"

	"telegram_live/internal/models"
	"telegram_live/internal/storage"
)

type MemberRepository interface {
	Ensure(roomID, userID uint) error
	Exists(roomID, userID uint) (bool, error)
	FindByRoomID(roomID uint) ([]models.RoomMember, error)
	DeleteByRoomID(roomID uint) error
}

type memberRepository struct {
	db *storage.PostgresDB
}

func NewMemberRepository(db *storage.PostgresDB) MemberRepository {
	return &memberRepository{db: db}
}

// Ensure 確保成員關係存在，重複呼叫不會產生第二筆記錄
// 先查再建；(room_id, user_id) 上的唯一索引擋住併發下的重複插入
func (r *memberRepository) Ensure(roomID, userID uint) error {
	var member models.RoomMember
	err := r.db.Where("room_id = ? AND user_id = ?", roomID, userID).First(&member).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	member = models.RoomMember{RoomID: roomID, UserID: userID}
	return r.db.Create(&member).Error
}

func (r *memberRepository) Exists(roomID, userID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.RoomMember{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *memberRepository) FindByRoomID(roomID uint) ([]models.RoomMember, error) {
	var members []models.RoomMember
	err := r.db.Preload("User").Where("room_id = ?", roomID).Find(&members).Error
	return members, err
}

func (r *memberRepository) DeleteByRoomID(roomID uint) error {
	return r.db.Unscoped().Where("room_id = ?", roomID).Delete(&models.RoomMember{}).Error
}
