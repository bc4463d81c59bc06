package service

import (
	"errors"
	"io"
	"log"

	"telegram_live/internal/models"
	"telegram_live/internal/repository"
	"telegram_live/internal/storage"
)

var (
	ErrRoomNotFound    = errors.New("房間不存在")
	ErrMessageNotFound = errors.New("訊息不存在")
	ErrForbidden       = errors.New("沒有權限")
	ErrBadDeleteType   = errors.New("無效的刪除類型")
)

// MessageService 是訊息的唯一讀寫入口
// 訊息列只透過這裡的授權路徑變更，其他元件不得直接改動
type MessageService struct {
	messageRepo repository.MessageRepository
	roomRepo    repository.RoomRepository
	guard       *AuthorizationGuard
	files       *storage.FileStore
}

func NewMessageService(messageRepo repository.MessageRepository, roomRepo repository.RoomRepository,
	guard *AuthorizationGuard, files *storage.FileStore) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
		roomRepo:    roomRepo,
		guard:       guard,
		files:       files,
	}
}

// CreateMessage 持久化一條純文字訊息
// reply_to 只在指向同房間既有訊息時生效，否則靜默捨棄（訊息照常建立）
func (s *MessageService) CreateMessage(roomID, userID uint, content string, replyTo *uint) (*models.Message, error) {
	if _, err := s.roomRepo.FindByID(roomID); err != nil {
		return nil, ErrRoomNotFound
	}

	message := &models.Message{
		RoomID:  roomID,
		UserID:  userID,
		Content: content,
	}
	if replyTo != nil {
		if _, err := s.messageRepo.FindInRoom(*replyTo, roomID); err == nil {
			message.ReplyToID = replyTo
		}
	}

	if err := s.messageRepo.Create(message); err != nil {
		return nil, err
	}
	return message, nil
}

// CreateFileMessage 持久化一條帶附件的訊息（可同時帶文字）
// 附件先落地再寫資料列；寫列失敗時把剛存的檔案清掉
func (s *MessageService) CreateFileMessage(roomID, userID uint, content, fileName string,
	fileSize int64, fileType string, file io.Reader) (*models.Message, error) {
	if _, err := s.roomRepo.FindByID(roomID); err != nil {
		return nil, ErrRoomNotFound
	}

	stored, err := s.files.Save(fileName, file)
	if err != nil {
		return nil, err
	}

	message := &models.Message{
		RoomID:   roomID,
		UserID:   userID,
		Content:  content,
		FileName: fileName,
		FilePath: stored,
		FileSize: fileSize,
		FileType: fileType,
	}
	if err := s.messageRepo.Create(message); err != nil {
		if removeErr := s.files.Delete(stored); removeErr != nil {
			log.Printf("message service: remove orphan file %s: %v", stored, removeErr)
		}
		return nil, err
	}
	return message, nil
}

// DeleteMessageContent 依 deleteType 刪除訊息內容
//
//	text: 清空文字，資料列與附件保留
//	file: 移除附件與附件欄位，文字保留
//	all:  整列刪除
//
// 只有訊息作者或房間創建者可以刪；附件檔案的移除是 best-effort，
// 失敗只記 log，資料列的變更才是權威狀態
func (s *MessageService) DeleteMessageContent(messageID, roomID, requesterID uint, deleteType string) error {
	message, err := s.messageRepo.FindInRoom(messageID, roomID)
	if err != nil {
		return ErrMessageNotFound
	}
	if !s.guard.CanModify(requesterID, message) {
		return ErrForbidden
	}

	switch deleteType {
	case DeleteText:
		rows, err := s.messageRepo.ClearContent(messageID, roomID)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrMessageNotFound
		}

	case DeleteFile:
		rows, err := s.messageRepo.ClearFile(messageID, roomID)
		if err != nil {
			return err
		}
		if rows == 0 {
			// 沒有附件可清，或另一個請求已經清掉了
			return ErrMessageNotFound
		}
		if err := s.files.Delete(message.FilePath); err != nil {
			log.Printf("message service: delete file %s: %v", message.FilePath, err)
		}

	case DeleteAll:
		rows, err := s.messageRepo.DeleteRow(messageID, roomID)
		if err != nil {
			return err
		}
		if rows == 0 {
			// 另一個併發請求搶先刪掉了，視為已不存在
			return ErrMessageNotFound
		}
		if message.HasFile() {
			if err := s.files.Delete(message.FilePath); err != nil {
				log.Printf("message service: delete file %s: %v", message.FilePath, err)
			}
		}

	default:
		return ErrBadDeleteType
	}
	return nil
}

// ListRoomMessages 讀取房間歷史，由舊到新
func (s *MessageService) ListRoomMessages(roomID uint) ([]models.Message, error) {
	return s.messageRepo.FindByRoomID(roomID)
}

// Find 查單條訊息，不限定房間（HTTP 刪除與下載路徑由訊息反查房間）
func (s *MessageService) Find(messageID uint) (*models.Message, error) {
	message, err := s.messageRepo.FindByID(messageID)
	if err != nil {
		return nil, ErrMessageNotFound
	}
	return message, nil
}

// OpenFile 開啟訊息附件供下載
func (s *MessageService) OpenFile(message *models.Message) (io.ReadSeekCloser, error) {
	return s.files.Open(message.FilePath)
}
