package repository

import (
	"telegram_live/internal/models"
	"telegram_live/internal/storage"
)

type RoomRepository interface {
	Create(room *models.Room) error
	FindByID(id uint) (*models.Room, error)
	FindAll() ([]models.Room, error)
	Delete(id uint) error
}

type roomRepository struct {
	db *storage.PostgresDB
}

func NewRoomRepository(db *storage.PostgresDB) RoomRepository {
	return &roomRepository{db: db}
}

func (r *roomRepository) Create(room *models.Room) error {
	return r.db.Create(room).Error
}

func (r *roomRepository) FindByID(id uint) (*models.Room, error) {
	var room models.Room
	err := r.db.First(&room, id).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// FindAll 查詢所有房間，最新的在前
func (r *roomRepository) FindAll() ([]models.Room, error) {
	var rooms []models.Room
	err := r.db.Order("created_at DESC").Find(&rooms).Error
	return rooms, err
}

func (r *roomRepository) Delete(id uint) error {
	return r.db.Unscoped().Delete(&models.Room{}, id).Error
}
