package models

import (
	"time"

	nanoid "github.com/jaevor/go-nanoid"
	"gorm.io/gorm"
)

var newImageID = mustNanoid(21)

func mustNanoid(length int) func() string {
	gen, err := nanoid.Standard(length)
	if err != nil {
		panic(err)
	}
	return gen
}

type Image struct {
	ID            string    `gorm:"primaryKey;size:32" json:"id"`
	Title         string    `gorm:"size:200;not null" json:"title"`
	Caption       string    `gorm:"type:text" json:"caption"`
	AltText       string    `gorm:"size:500" json:"alt_text"`
	URL           string    `gorm:"size:1024;not null" json:"url"`
	ThumbnailURL  string    `gorm:"size:1024;not null" json:"thumbnail_url"`
	UploaderID    string    `gorm:"size:36;not null;index:idx_images_uploader_privacy,priority:1" json:"uploader_id"`
	Uploader      *User     `gorm:"foreignKey:UploaderID;constraint:OnDelete:CASCADE" json:"uploader,omitempty"`
	UploadedAt    time.Time `gorm:"not null;index" json:"uploaded_at"`
	Privacy       Privacy   `gorm:"size:16;not null;default:public;index:idx_images_uploader_privacy,priority:2" json:"privacy"`
	Views         int64     `gorm:"default:0;not null" json:"views"`
	IsAIGenerated bool      `gorm:"default:false;not null" json:"is_ai_generated"`
	Width         int       `json:"width"`
	Height        int       `json:"height"`
	SizeBytes     int64     `json:"size_bytes"`
	Format        string    `gorm:"size:16" json:"format"`
	Tags          []Tag     `gorm:"many2many:image_tags;constraint:OnDelete:CASCADE" json:"tags"`
}

func (i *Image) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = newImageID()
	}
	if i.UploadedAt.IsZero() {
		i.UploadedAt = time.Now().UTC()
	}
	return nil
}

// TagNames 返回标签名列表
func (i *Image) TagNames() []string {
	names := make([]string, 0, len(i.Tags))
	for _, t := range i.Tags {
		names = append(names, t.Name)
	}
	return names
}
