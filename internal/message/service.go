package message

import (
	"errors"
	"fmt"

	. "go-chat-relay/pkg/chat"

	"gorm.io/gorm"
)

type MessageService struct {
	db *gorm.DB
}

func NewMessageService(db *gorm.DB) *MessageService {
	return &MessageService{db: db}
}

// CreateMessage durably appends a message. Validation order: content,
// channel existence, sender membership — all must pass before anything is
// written. The returned record has Sender resolved, ready for broadcast.
func (s *MessageService) CreateMessage(senderID, channelID, content string) (*Message, error) {
	if content == "" {
		return nil, fmt.Errorf("message content is required: %w", ErrInvalidInput)
	}
	if channelID == "" || senderID == "" {
		return nil, fmt.Errorf("channel and sender are required: %w", ErrInvalidInput)
	}

	var channel Channel
	if err := s.db.First(&channel, "id = ?", channelID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("channel %s: %w", channelID, ErrNotFound)
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var member ChannelMember
	err := s.db.Where("channel_id = ? AND user_id = ?", channelID, senderID).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("not a member of this channel: %w", ErrUnauthorized)
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	message := Message{
		ChannelID: channelID,
		SenderID:  senderID,
		Content:   content,
	}

	if err := s.db.Create(&message).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if err := s.db.Preload("Sender").First(&message, "id = ?", message.ID).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return &message, nil
}

// GetChannelMessages returns one page of history in chronological order,
// plus the total count. Only channel members may read history.
func (s *MessageService) GetChannelMessages(userID, channelID string, page, limit int) ([]Message, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}

	var channel Channel
	if err := s.db.First(&channel, "id = ?", channelID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, fmt.Errorf("channel %s: %w", channelID, ErrNotFound)
		}
		return nil, 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var member ChannelMember
	err := s.db.Where("channel_id = ? AND user_id = ?", channelID, userID).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, fmt.Errorf("not a member of this channel: %w", ErrUnauthorized)
		}
		return nil, 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var total int64
	if err := s.db.Model(&Message{}).Where("channel_id = ?", channelID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var messages []Message
	err = s.db.Preload("Sender").
		Where("channel_id = ?", channelID).
		Order("created_at DESC").Order("seq DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&messages).Error
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	// Newest page was fetched descending; flip to chronological order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, total, nil
}
