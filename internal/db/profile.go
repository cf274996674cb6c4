package db

import (
	"fmt"
	"strings"
)

// Person types.
const (
	PersonTypeDirector = "D"
	PersonTypeTeam     = "T"
	PersonTypeAdvisor  = "A"
)

// PersonTypeLabels maps person type codes to display labels.
var PersonTypeLabels = map[string]string{
	PersonTypeDirector: "Innovation Director",
	PersonTypeTeam:     "Innovation Team",
	PersonTypeAdvisor:  "Innovation Advisor",
}

// Person relation kinds stored in person_relations.kind.
const (
	RelationPartner       = "partner"
	RelationIndustry      = "industry"
	RelationCoveredMarket = "covered_market"
)

// PersonProfile holds the person-specific fields of a person page.
type PersonProfile struct {
	ID             uint    `gorm:"primaryKey"`
	PageID         uint    `gorm:"uniqueIndex;not null"`
	FirstName      string  `gorm:"size:254"`
	LastName       string  `gorm:"size:254"`
	JobTitle       string  `gorm:"size:254"`
	PersonType     string  `gorm:"size:1"`
	IntroSubtitle  string  `gorm:"size:254"`
	IntroParagraph string  `gorm:"size:1022"`
	MainParagraph  string  `gorm:"size:1022"`
	LinkedinLink   string  `gorm:"size:254"`
	Nationality    string  `gorm:"size:254"`
	LocationID     *uint   `gorm:"index"` // location page
	Skills         []Skill `gorm:"many2many:person_profile_skills;"`
}

// String renders "First Last".
func (p PersonProfile) String() string {
	return strings.TrimSpace(fmt.Sprintf("%s %s", p.FirstName, p.LastName))
}

// PersonTypeLabel returns the display label of the person type.
func (p PersonProfile) PersonTypeLabel() string {
	return PersonTypeLabels[p.PersonType]
}

// PersonRelation links a person page to a partner, industry or location page.
type PersonRelation struct {
	ID       uint   `gorm:"primaryKey"`
	PersonID uint   `gorm:"not null;uniqueIndex:idx_person_relation"`
	TargetID uint   `gorm:"not null;index;uniqueIndex:idx_person_relation"`
	Kind     string `gorm:"size:20;not null;uniqueIndex:idx_person_relation"`
}

// PartnerProfile holds the partner-specific fields of a partner page.
type PartnerProfile struct {
	ID            uint `gorm:"primaryKey"`
	PageID        uint `gorm:"uniqueIndex;not null"`
	OriginID      *uint
	Origin        *Country
	PartnerTypeID *uint
	PartnerType   *PartnerType
}

// BreadProfile holds the bread-specific fields of a bread page.
type BreadProfile struct {
	ID          uint `gorm:"primaryKey"`
	PageID      uint `gorm:"uniqueIndex;not null"`
	OriginID    *uint
	Origin      *Country
	BreadTypeID *uint
	BreadType   *BreadType
	Ingredients []BreadIngredient `gorm:"many2many:bread_profile_ingredients;"`
}

// LocationProfile holds the address fields of a location page.
type LocationProfile struct {
	ID      uint   `gorm:"primaryKey"`
	PageID  uint   `gorm:"uniqueIndex;not null"`
	City    string `gorm:"size:254"`
	Country string `gorm:"size:254"`
}
