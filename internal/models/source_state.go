package models

import (
	"time"

	"gorm.io/datatypes"
)

type SourceState struct {
	Tier          string         `gorm:"primaryKey;type:text;comment:数据源层级"`
	LastSuccessAt *time.Time     `gorm:"type:timestamptz;comment:最近成功时间"`
	LastAttemptAt *time.Time     `gorm:"type:timestamptz;comment:最近尝试时间"`
	LastError     *string        `gorm:"type:text;comment:最近错误信息"`
	RecordCount   int            `gorm:"not null;default:0;comment:最近记录数"`
	StatsJSON     datatypes.JSON `gorm:"type:jsonb;comment:本轮统计JSON"`
}

func (SourceState) TableName() string {
	return "source_states"
}
