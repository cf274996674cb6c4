package db

// Country is a country of origin shared by partners and breads.
type Country struct {
	ID    uint   `gorm:"primaryKey"`
	Title string `gorm:"size:100;uniqueIndex;not null"`
}

// PartnerType classifies partners.
type PartnerType struct {
	ID    uint   `gorm:"primaryKey"`
	Title string `gorm:"size:255;uniqueIndex;not null"`
}

// BreadType classifies breads.
type BreadType struct {
	ID    uint   `gorm:"primaryKey"`
	Title string `gorm:"size:255;uniqueIndex;not null"`
}

// BreadIngredient is an ingredient a bread can list.
type BreadIngredient struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:255;uniqueIndex;not null"`
}

// Skill is a named skill with a 0-100 level.
type Skill struct {
	ID    uint   `gorm:"primaryKey"`
	Name  string `gorm:"size:254;uniqueIndex:idx_skill_name_level;not null"`
	Level int    `gorm:"uniqueIndex:idx_skill_name_level"`
}
