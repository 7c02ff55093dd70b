package audit

import (
	. "go-chat-relay/pkg/chat"

	"gorm.io/gorm"
)

type AuditService struct {
	db *gorm.DB
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

const (
	ActionCreateChannel = "CREATE_CHANNEL"
	ActionJoinChannel   = "JOIN_CHANNEL"
	ActionLeaveChannel  = "LEAVE_CHANNEL"
)

func (s *AuditService) LogChannelCreation(actorID, channelID, channelName string) error {
	entry := AuditLog{
		Action:      ActionCreateChannel,
		ActorID:     actorID,
		ChannelID:   &channelID,
		Description: "Created channel '" + channelName + "'",
	}
	return s.db.Create(&entry).Error
}

func (s *AuditService) LogChannelJoin(actorID, channelID string) error {
	entry := AuditLog{
		Action:      ActionJoinChannel,
		ActorID:     actorID,
		ChannelID:   &channelID,
		Description: "Joined channel",
	}
	return s.db.Create(&entry).Error
}

func (s *AuditService) LogChannelLeave(actorID, channelID string) error {
	entry := AuditLog{
		Action:      ActionLeaveChannel,
		ActorID:     actorID,
		ChannelID:   &channelID,
		Description: "Left channel",
	}
	return s.db.Create(&entry).Error
}

// GetChannelAuditLogs returns the audit trail for a channel, newest first.
func (s *AuditService) GetChannelAuditLogs(channelID string, limit int) ([]AuditLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var logs []AuditLog
	err := s.db.Where("channel_id = ?", channelID).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}
