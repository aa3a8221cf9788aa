package service

import (
	"errors"
	"time"

	"github.com/Team-Chatoy/chatoy-server/internal/models"

	"gorm.io/gorm"
)

// RoomService 封装房间相关的业务逻辑。
type RoomService struct {
	db      *gorm.DB
	members *MemberService
}

func NewRoomService(db *gorm.DB, members *MemberService) *RoomService {
	return &RoomService{db: db, members: members}
}

// Create 创建新房间并让创建者自动入驻。
func (s *RoomService) Create(name string, creatorID int) (*models.Room, error) {
	room := models.Room{Name: name, Description: "", Created: time.Now()}
	if err := s.db.Create(&room).Error; err != nil {
		return nil, err
	}
	if err := s.members.Join(creatorID, room.ID); err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *RoomService) List() ([]models.Room, error) {
	var rooms []models.Room
	if err := s.db.Order("id").Find(&rooms).Error; err != nil {
		return nil, err
	}
	return rooms, nil
}

// Exists 检查房间是否存在。
func (s *RoomService) Exists(roomID int) (*models.Room, error) {
	var room models.Room
	if err := s.db.First(&room, roomID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return &room, nil
}
