package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Campaign statuses. Settled, Expired and Invalid are terminal.
const (
	StatusNew        = "New"
	StatusProcessing = "Processing"
	StatusSettled    = "Settled"
	StatusExpired    = "Expired"
	StatusInvalid    = "Invalid"
)

// Source tags record which tier last wrote a campaign.
const (
	SourceLive     = "live"
	SourceFallback = "fallback"
	SourceIngested = "ingested"
)

type Campaign struct {
	ID           string          `gorm:"primaryKey;type:text;comment:活动唯一标识"`
	Title        string          `gorm:"type:text;comment:活动标题"`
	StoreID      string          `gorm:"type:text;index;comment:所属商店ID"`
	Status       string          `gorm:"type:varchar(20);not null;index;comment:活动状态"`
	TargetAmount int64           `gorm:"not null;default:0;comment:目标金额(聪)"`
	RaisedAmount int64           `gorm:"not null;default:0;comment:已筹金额(聪)"`
	FiatAmount   decimal.Decimal `gorm:"type:numeric(20,8);comment:法币金额"`
	FiatCurrency string          `gorm:"type:varchar(10);comment:法币币种"`
	SourceTag    string          `gorm:"type:varchar(20);not null;index;comment:数据来源"`
	Metadata     datatypes.JSON  `gorm:"type:jsonb;comment:扩展元数据"`
	CreatedAt    time.Time       `gorm:"type:timestamptz;not null;comment:创建时间"`
	SettledAt    *time.Time      `gorm:"type:timestamptz;comment:结算时间"`
	UpdatedAt    time.Time       `gorm:"type:timestamptz;not null;comment:更新时间"`
}

func (Campaign) TableName() string {
	return "campaigns"
}

func IsTerminalStatus(status string) bool {
	switch status {
	case StatusSettled, StatusExpired, StatusInvalid:
		return true
	}
	return false
}

func AllStatuses() []string {
	return []string{StatusNew, StatusProcessing, StatusSettled, StatusExpired, StatusInvalid}
}
