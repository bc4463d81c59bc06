package models

import (
	"gorm.io/gorm"
)

// Message 代表一條聊天訊息
// Content 與附件都可能為空：部分刪除（redaction）會把訊息清成空殼，
// 但資料列仍然保留，不會被自動移除
type Message struct {
	gorm.Model
	RoomID  uint   `gorm:"index;not null" json:"room_id"`
	UserID  uint   `gorm:"index;not null" json:"user_id"`
	User    User   `gorm:"foreignKey:UserID" json:"-"`
	Content string `gorm:"type:text" json:"content"`

	// 附件欄位，無附件時全部為零值
	FileName string `json:"file_name,omitempty"` // 原始檔名
	FilePath string `json:"-"`                   // 儲存在磁碟上的檔名
	FileSize int64  `json:"file_size,omitempty"`
	FileType string `json:"file_type,omitempty"` // 宣告的 MIME 類型

	// 回覆的目標訊息，只能指向同房間的訊息
	// 目標被刪除後引用會懸空，讀取時以防禦方式解析
	ReplyToID *uint    `json:"reply_to,omitempty"`
	ReplyTo   *Message `gorm:"foreignKey:ReplyToID" json:"-"`
}

// HasFile 回報訊息是否還帶有附件
func (m *Message) HasFile() bool {
	return m.FilePath != ""
}
