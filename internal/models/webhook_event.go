package models

import (
	"time"

	"gorm.io/datatypes"
)

// WebhookEvent is the append-only delivery log. Rows are never deleted;
// Applied is the only column written after insert.
type WebhookEvent struct {
	ID         uint64         `gorm:"primaryKey;autoIncrement;comment:日志ID"`
	ReceivedAt time.Time      `gorm:"type:timestamptz;not null;index;comment:接收时间"`
	Signature  string         `gorm:"type:text;comment:原始签名头"`
	Verified   bool           `gorm:"not null;index;comment:签名是否通过"`
	EventType  string         `gorm:"type:varchar(50);not null;index;comment:事件类型"`
	CampaignID string         `gorm:"type:text;index;comment:关联活动ID"`
	DeliveryID string         `gorm:"type:varchar(64);index;comment:上游投递ID"`
	DedupeKey  string         `gorm:"type:varchar(160);index;comment:幂等键"`
	Applied    bool           `gorm:"not null;default:false;index;comment:是否已生效"`
	Payload    datatypes.JSON `gorm:"type:jsonb;comment:原始载荷"`
}

func (WebhookEvent) TableName() string {
	return "webhook_events"
}
