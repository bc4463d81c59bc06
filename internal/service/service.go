package service

import (
	"telegram_live/internal/repository"
	"telegram_live/internal/storage"
)

type Services struct {
	User     *UserService
	Room     *RoomService
	Message  *MessageService
	Guard    *AuthorizationGuard
	Registry RoomGroupRegistry
}

func NewServices(repos *repository.Repositories, files *storage.FileStore, registry RoomGroupRegistry) *Services {
	guard := NewAuthorizationGuard(repos.Room, repos.Member)

	return &Services{
		User:     NewUserService(repos.User),
		Room:     NewRoomService(repos.Room, repos.Member, repos.Message, files),
		Message:  NewMessageService(repos.Message, repos.Room, guard, files),
		Guard:    guard,
		Registry: registry,
	}
}
