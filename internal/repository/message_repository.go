package repository

import (
	"telegram_live/internal/models"
	"telegram_live/internal/storage"
)

type MessageRepository interface {
	Create(message *models.Message) error
	FindByID(id uint) (*models.Message, error)
	FindInRoom(id, roomID uint) (*models.Message, error)
	FindByRoomID(roomID uint) ([]models.Message, error)
	ClearContent(id, roomID uint) (int64, error)
	ClearFile(id, roomID uint) (int64, error)
	DeleteRow(id, roomID uint) (int64, error)
	FilePathsByRoomID(roomID uint) ([]string, error)
	DeleteByRoomID(roomID uint) error
}

type messageRepository struct {
	db *storage.PostgresDB
}

func NewMessageRepository(db *storage.PostgresDB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(message *models.Message) error {
	return r.db.Create(message).Error
}

func (r *messageRepository) FindByID(id uint) (*models.Message, error) {
	var message models.Message
	err := r.db.First(&message, id).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *messageRepository) FindInRoom(id, roomID uint) (*models.Message, error) {
	var message models.Message
	err := r.db.Where("id = ? AND room_id = ?", id, roomID).First(&message).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

// FindByRoomID 查詢房間的訊息歷史，由舊到新
// ReplyTo 以 Preload 防禦性解析：目標訊息已被刪除時引用為 nil，不報錯
func (r *messageRepository) FindByRoomID(roomID uint) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.Preload("User").Preload("ReplyTo").Preload("ReplyTo.User").
		Where("room_id = ?", roomID).
		Order("created_at ASC").
		Find(&messages).Error
	return messages, err
}

// ClearContent 清空訊息文字，資料列保留
// 回傳受影響的列數，讓呼叫端判斷訊息是否還存在
func (r *messageRepository) ClearContent(id, roomID uint) (int64, error) {
	result := r.db.Model(&models.Message{}).
		Where("id = ? AND room_id = ?", id, roomID).
		Update("content", "")
	return result.RowsAffected, result.Error
}

// ClearFile 清除附件欄位，資料列保留
// 條件帶上 file_path <> ''，兩個併發請求只會有一個真的清到東西
func (r *messageRepository) ClearFile(id, roomID uint) (int64, error) {
	result := r.db.Model(&models.Message{}).
		Where("id = ? AND room_id = ? AND file_path <> ''", id, roomID).
		Updates(map[string]interface{}{
			"file_name": "",
			"file_path": "",
			"file_size": 0,
			"file_type": "",
		})
	return result.RowsAffected, result.Error
}

// DeleteRow 整列刪除
// 單一 DELETE 語句本身就是資料列層級的界線：兩個併發刪除最多一個回報 1
func (r *messageRepository) DeleteRow(id, roomID uint) (int64, error) {
	result := r.db.Unscoped().
		Where("id = ? AND room_id = ?", id, roomID).
		Delete(&models.Message{})
	return result.RowsAffected, result.Error
}

func (r *messageRepository) FilePathsByRoomID(roomID uint) ([]string, error) {
	var paths []string
	err := r.db.Model(&models.Message{}).
		Where("room_id = ? AND file_path <> ''", roomID).
		Pluck("file_path", &paths).Error
	return paths, err
}

func (r *messageRepository) DeleteByRoomID(roomID uint) error {
	return r.db.Unscoped().Where("room_id = ?", roomID).Delete(&models.Message{}).Error
}
