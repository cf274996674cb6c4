package db

import "gorm.io/gorm"

// Tag is a label shared by content pages. Slug is the URL form of Name.
type Tag struct {
	gorm.Model
	Name  string `gorm:"size:100;uniqueIndex;not null"`
	Slug  string `gorm:"size:100;uniqueIndex;not null"`
	Pages []Page `gorm:"many2many:page_tags;"`
}
