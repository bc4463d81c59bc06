package models

import (
	"gorm.io/gorm"
)

// Room 表示一個聊天房間
// 房間一旦建立，識別資訊（名稱、創建者）即不再變動
type Room struct {
	gorm.Model
	Name      string `gorm:"not null" json:"name"`             // 房間名稱
	CreatedBy uint   `gorm:"index;not null" json:"created_by"` // 創建者的用戶 ID，擁有刪除權限
	Creator   User   `gorm:"foreignKey:CreatedBy" json:"-"`
}

// RoomMember 表示用戶與房間的成員關係
// 每個 (房間, 用戶) 組合只能有一筆記錄
type RoomMember struct {
	gorm.Model
	RoomID uint `gorm:"uniqueIndex:idx_room_member;not null" json:"room_id"`
	UserID uint `gorm:"uniqueIndex:idx_room_member;not null" json:"user_id"`
	User   User `gorm:"foreignKey:UserID" json:"-"`
}
