package models

import "time"

type Album struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Title        string    `gorm:"size:200;not null" json:"title"`
	Description  string    `gorm:"type:text" json:"description"`
	CoverImageID *string   `gorm:"size:32" json:"cover_image_id,omitempty"`
	CreatedBy    string    `gorm:"size:36;not null;index" json:"created_by"`
	Privacy      Privacy   `gorm:"size:16;not null;default:public" json:"privacy"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AlbumImage 相册与图片的有序关联
type AlbumImage struct {
	AlbumID  uint      `gorm:"primaryKey"`
	ImageID  string    `gorm:"primaryKey;size:32;index"`
	Position int       `gorm:"not null;default:0"`
	AddedAt  time.Time `gorm:"autoCreateTime"`
}

// All 需要自动迁移的模型
func All() []interface{} {
	return []interface{}{
		&User{},
		&Tag{},
		&Image{},
		&Album{},
		&AlbumImage{},
	}
}
