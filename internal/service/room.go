package service

import (
	"log"

	"telegram_live/internal/models"
	"telegram_live/internal/repository"
	"telegram_live/internal/storage"
)

// RoomService 處理房間的建立、查詢、刪除與成員管理
type RoomService struct {
	roomRepo    repository.RoomRepository
	memberRepo  repository.MemberRepository
	messageRepo repository.MessageRepository
	files       *storage.FileStore
}

func NewRoomService(roomRepo repository.RoomRepository, memberRepo repository.MemberRepository,
	messageRepo repository.MessageRepository, files *storage.FileStore) *RoomService {
	return &RoomService{
		roomRepo:    roomRepo,
		memberRepo:  memberRepo,
		messageRepo: messageRepo,
		files:       files,
	}
}

// CreateRoom 建立房間並把創建者加入成員
func (s *RoomService) CreateRoom(name string, creatorID uint) (*models.Room, error) {
	room := &models.Room{
		Name:      name,
		CreatedBy: creatorID,
	}
	if err := s.roomRepo.Create(room); err != nil {
		return nil, err
	}
	if err := s.memberRepo.Ensure(room.ID, creatorID); err != nil {
		return nil, err
	}
	return room, nil
}

// GetRoom 查詢房間
// 已登入用戶首次訪問房間時順便成為成員（冪等）
func (s *RoomService) GetRoom(roomID, userID uint) (*models.Room, error) {
	room, err := s.roomRepo.FindByID(roomID)
	if err != nil {
		return nil, ErrRoomNotFound
	}
	if err := s.memberRepo.Ensure(roomID, userID); err != nil {
		return nil, err
	}
	return room, nil
}

// ListRooms 查詢所有房間，最新的在前
func (s *RoomService) ListRooms() ([]models.Room, error) {
	return s.roomRepo.FindAll()
}

// ListMembers 查詢房間成員
func (s *RoomService) ListMembers(roomID uint) ([]models.RoomMember, error) {
	return s.memberRepo.FindByRoomID(roomID)
}

// DeleteRoom 刪除房間與其下所有訊息、成員關係
// 只有創建者可以刪；附件檔案逐一移除，失敗不中斷
func (s *RoomService) DeleteRoom(roomID, userID uint) error {
	room, err := s.roomRepo.FindByID(roomID)
	if err != nil {
		return ErrRoomNotFound
	}
	if room.CreatedBy != userID {
		return ErrForbidden
	}

	paths, err := s.messageRepo.FilePathsByRoomID(roomID)
	if err != nil {
		return err
	}
	for _, path := range paths {
		if err := s.files.Delete(path); err != nil {
			log.Printf("room service: delete file %s: %v", path, err)
		}
	}

	if err := s.messageRepo.DeleteByRoomID(roomID); err != nil {
		return err
	}
	if err := s.memberRepo.DeleteByRoomID(roomID); err != nil {
		return err
	}
	return s.roomRepo.Delete(roomID)
}
