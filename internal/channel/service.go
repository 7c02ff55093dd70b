package channel

import (
	"errors"
	"fmt"

	. "go-chat-relay/pkg/chat"

	"gorm.io/gorm"
)

type ChannelService struct {
	db *gorm.DB
}

func NewChannelService(db *gorm.DB) *ChannelService {
	return &ChannelService{db: db}
}

// CreateChannel creates a channel with a globally unique name. The
// creator is always added as the first member.
func (s *ChannelService) CreateChannel(creatorID, name string) (*Channel, error) {
	if name == "" {
		return nil, fmt.Errorf("channel name is required: %w", ErrInvalidInput)
	}

	var existing Channel
	err := s.db.First(&existing, "name = ?", name).Error
	if err == nil {
		return nil, fmt.Errorf("channel %q already exists: %w", name, ErrInvalidInput)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	channel := Channel{
		Name:        name,
		CreatedByID: creatorID,
	}

	// One transaction: a channel without its creator as a member must
	// never be observable.
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&channel).Error; err != nil {
			return err
		}
		member := ChannelMember{
			ChannelID: channel.ID,
			UserID:    creatorID,
		}
		return tx.Create(&member).Error
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return &channel, nil
}

func (s *ChannelService) GetChannel(channelID string) (*Channel, error) {
	var channel Channel
	err := s.db.Preload("CreatedBy").First(&channel, "id = ?", channelID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("channel %s: %w", channelID, ErrNotFound)
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return &channel, nil
}

// IsMember answers the membership test used to authorize channel actions.
// Always a live store lookup, never a cache.
func (s *ChannelService) IsMember(channelID, userID string) (bool, error) {
	var count int64
	err := s.db.Model(&ChannelMember{}).
		Where("channel_id = ? AND user_id = ?", channelID, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return count > 0, nil
}

// JoinChannel mutates persisted membership. Distinct from the socket-level
// room join, which only subscribes a live connection.
func (s *ChannelService) JoinChannel(userID, channelID string) error {
	if _, err := s.GetChannel(channelID); err != nil {
		return err
	}

	isMember, err := s.IsMember(channelID, userID)
	if err != nil {
		return err
	}
	if isMember {
		return fmt.Errorf("already a member of this channel: %w", ErrInvalidInput)
	}

	member := ChannelMember{
		ChannelID: channelID,
		UserID:    userID,
	}

	if err := s.db.Create(&member).Error; err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// LeaveChannel removes the user from the persisted member set. A channel
// left with zero members is kept, not deleted.
func (s *ChannelService) LeaveChannel(userID, channelID string) error {
	if _, err := s.GetChannel(channelID); err != nil {
		return err
	}

	err := s.db.Where("channel_id = ? AND user_id = ?", channelID, userID).
		Delete(&ChannelMember{}).Error
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *ChannelService) GetUserChannels(userID string) ([]Channel, error) {
	var channels []Channel
	err := s.db.
		Preload("CreatedBy").
		Joins("JOIN channel_members ON channels.id = channel_members.channel_id").
		Where("channel_members.user_id = ?", userID).
		Order("channels.created_at DESC").
		Find(&channels).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return channels, nil
}

func (s *ChannelService) GetAllChannels() ([]Channel, error) {
	var channels []Channel
	err := s.db.Preload("CreatedBy").Order("created_at DESC").Find(&channels).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return channels, nil
}

// GetChannelMembers returns members in original join order.
func (s *ChannelService) GetChannelMembers(channelID string) ([]User, error) {
	var users []User
	err := s.db.
		Joins("JOIN channel_members ON users.id = channel_members.user_id").
		Where("channel_members.channel_id = ?", channelID).
		Order("channel_members.id ASC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return users, nil
}
