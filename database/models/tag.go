package models

import "time"

// MaxTagLength 标签名最大字节数，与列宽一致
const MaxTagLength = 50

// Tag 标签，按名称惰性创建
type Tag struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"uniqueIndex;size:50;not null" json:"name"`
	UsageCount int64     `gorm:"default:0;not null" json:"count"`
	CreatedAt  time.Time `json:"created_at"`
}
