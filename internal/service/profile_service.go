package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/collidersite/internal/blocks"
	"github.com/collidersite/internal/content"
	"github.com/collidersite/internal/db"
	"gorm.io/gorm"
)

var (
	// ErrProfileTargetInvalid 关联目标不存在或类型不匹配
	ErrProfileTargetInvalid = errors.New("profile relation target is invalid")
	// ErrPersonTypeInvalid 人员类型不在 D/T/A 之内
	ErrPersonTypeInvalid = errors.New("person type is invalid")
	// ErrSkillLevelInvalid 技能等级超出 0-100
	ErrSkillLevelInvalid = errors.New("skill level must be between 0 and 100")
	// ErrProfileUnsupported 页面类型没有资料表
	ErrProfileUnsupported = errors.New("page type has no profile")
)

// SkillInput 描述一项技能及其等级
type SkillInput struct {
	Name  string `json:"name"`
	Level int    `json:"level"`
}

// ProfileInput 汇总各类型页面可写入的资料字段，按页面类型取用
type ProfileInput struct {
	FirstName        string       `json:"firstName"`
	LastName         string       `json:"lastName"`
	JobTitle         string       `json:"jobTitle"`
	PersonType       string       `json:"personType"`
	IntroSubtitle    string       `json:"introSubtitle"`
	IntroParagraph   string       `json:"introParagraph"`
	MainParagraph    string       `json:"mainParagraph"`
	LinkedinLink     string       `json:"linkedinLink"`
	Nationality      string       `json:"nationality"`
	LocationID       *uint        `json:"locationId"`
	PartnerIDs       []uint       `json:"partnerIds"`
	IndustryIDs      []uint       `json:"industryIds"`
	CoveredMarketIDs []uint       `json:"coveredMarketIds"`
	Skills           []SkillInput `json:"skills"`

	Origin      string   `json:"origin"`
	PartnerType string   `json:"partnerType"`
	BreadType   string   `json:"breadType"`
	Ingredients []string `json:"ingredients"`

	City    string `json:"city"`
	Country string `json:"country"`
}

// PersonDetail 是人员页面的完整资料
type PersonDetail struct {
	Profile        db.PersonProfile `json:"profile"`
	TypeLabel      string           `json:"typeLabel"`
	Location       *db.Page         `json:"location,omitempty"`
	Partners       []db.Page        `json:"partners"`
	Industries     []db.Page        `json:"industries"`
	CoveredMarkets []db.Page        `json:"coveredMarkets"`
}

// PartnerDetail 是合作伙伴页面的资料以及负责该伙伴的人员
type PartnerDetail struct {
	Profile db.PartnerProfile `json:"profile"`
	People  []db.Page         `json:"people"`
}

// IndustryDetail 列出关联到该行业的人员
type IndustryDetail struct {
	People []db.Page `json:"people"`
}

// ProfileDetail 按页面类型只填充其中一项
type ProfileDetail struct {
	Person   *PersonDetail       `json:"person,omitempty"`
	Partner  *PartnerDetail      `json:"partner,omitempty"`
	Industry *IndustryDetail     `json:"industry,omitempty"`
	Bread    *db.BreadProfile    `json:"bread,omitempty"`
	Location *db.LocationProfile `json:"location,omitempty"`
}

// ProfileService 维护内容页面的类型专属资料与关联
type ProfileService struct {
	db    *gorm.DB
	pages *PageService
}

// NewProfileService 构造 ProfileService
func NewProfileService(gdb *gorm.DB) *ProfileService {
	return &ProfileService{db: gdb, pages: NewPageService(gdb)}
}

// Detail 读取页面资料。liveOnly 为 true 时关联页面只保留已发布的。
func (s *ProfileService) Detail(page *db.Page, liveOnly bool) (ProfileDetail, error) {
	switch page.Type {
	case content.TypePerson:
		person, err := s.personDetail(page, liveOnly)
		if err != nil {
			return ProfileDetail{}, err
		}
		return ProfileDetail{Person: person}, nil
	case content.TypePartner:
		var profile db.PartnerProfile
		if err := s.db.Preload("Origin").Preload("PartnerType").Where("page_id = ?", page.ID).Limit(1).Find(&profile).Error; err != nil {
			return ProfileDetail{}, fmt.Errorf("load partner profile: %w", err)
		}
		people, err := s.relatedPeople(page.ID, db.RelationPartner, liveOnly)
		if err != nil {
			return ProfileDetail{}, err
		}
		return ProfileDetail{Partner: &PartnerDetail{Profile: profile, People: people}}, nil
	case content.TypeIndustry:
		people, err := s.relatedPeople(page.ID, db.RelationIndustry, liveOnly)
		if err != nil {
			return ProfileDetail{}, err
		}
		return ProfileDetail{Industry: &IndustryDetail{People: people}}, nil
	case content.TypeBread:
		var profile db.BreadProfile
		if err := s.db.Preload("Origin").Preload("BreadType").
			Preload("Ingredients", func(tx *gorm.DB) *gorm.DB { return tx.Order("bread_ingredients.name asc") }).
			Where("page_id = ?", page.ID).Limit(1).Find(&profile).Error; err != nil {
			return ProfileDetail{}, fmt.Errorf("load bread profile: %w", err)
		}
		return ProfileDetail{Bread: &profile}, nil
	case content.TypeLocation:
		var profile db.LocationProfile
		if err := s.db.Where("page_id = ?", page.ID).Limit(1).Find(&profile).Error; err != nil {
			return ProfileDetail{}, fmt.Errorf("load location profile: %w", err)
		}
		return ProfileDetail{Location: &profile}, nil
	}
	return ProfileDetail{}, nil
}

// Save 写入页面资料及其关联，已有关联整体替换。
func (s *ProfileService) Save(page *db.Page, input ProfileInput) error {
	switch page.Type {
	case content.TypePerson:
		return s.db.Transaction(func(tx *gorm.DB) error { return savePerson(tx, page, input) })
	case content.TypePartner:
		return s.db.Transaction(func(tx *gorm.DB) error { return savePartner(tx, page, input) })
	case content.TypeBread:
		return s.db.Transaction(func(tx *gorm.DB) error { return saveBread(tx, page, input) })
	case content.TypeLocation:
		return s.db.Transaction(func(tx *gorm.DB) error { return saveLocation(tx, page, input) })
	}
	return ErrProfileUnsupported
}

// PersonByPage 返回人员页面的资料，不存在时返回 nil。
func (s *ProfileService) PersonByPage(pageID uint) (*db.PersonProfile, error) {
	var profiles []db.PersonProfile
	if err := s.db.Where("page_id = ?", pageID).Limit(1).Find(&profiles).Error; err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return nil, nil
	}
	return &profiles[0], nil
}

// TeamMembers lists live team people in tree order for the team block.
func (s *ProfileService) TeamMembers() ([]blocks.TeamMember, error) {
	var pages []db.Page
	if err := s.db.Model(&db.Page{}).
		Joins("JOIN person_profiles ON person_profiles.page_id = pages.id").
		Where("pages.type = ? AND pages.live = ? AND person_profiles.person_type = ?", content.TypePerson, true, db.PersonTypeTeam).
		Order("pages.path asc").
		Find(&pages).Error; err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, nil
	}

	ids := make([]uint, 0, len(pages))
	for _, page := range pages {
		ids = append(ids, page.ID)
	}
	var profiles []db.PersonProfile
	if err := s.db.Where("page_id IN ?", ids).Find(&profiles).Error; err != nil {
		return nil, err
	}
	byPage := make(map[uint]db.PersonProfile, len(profiles))
	for _, profile := range profiles {
		byPage[profile.PageID] = profile
	}

	urls, err := s.pages.URLs(pages)
	if err != nil {
		return nil, err
	}

	members := make([]blocks.TeamMember, 0, len(pages))
	for _, page := range pages {
		profile := byPage[page.ID]
		name := profile.String()
		if name == "" {
			name = page.Title
		}
		members = append(members, blocks.TeamMember{
			Name:     name,
			JobTitle: profile.JobTitle,
			URL:      urls[page.ID],
		})
	}
	return members, nil
}

func (s *ProfileService) personDetail(page *db.Page, liveOnly bool) (*PersonDetail, error) {
	var profile db.PersonProfile
	if err := s.db.Preload("Skills", func(tx *gorm.DB) *gorm.DB { return tx.Order("skills.name asc") }).
		Where("page_id = ?", page.ID).Limit(1).Find(&profile).Error; err != nil {
		return nil, fmt.Errorf("load person profile: %w", err)
	}

	detail := &PersonDetail{Profile: profile, TypeLabel: profile.PersonTypeLabel()}
	if profile.LocationID != nil {
		locations, err := s.pagesByID([]uint{*profile.LocationID}, liveOnly)
		if err != nil {
			return nil, err
		}
		if len(locations) > 0 {
			detail.Location = &locations[0]
		}
	}

	var relations []db.PersonRelation
	if err := s.db.Where("person_id = ?", page.ID).Order("id asc").Find(&relations).Error; err != nil {
		return nil, fmt.Errorf("load person relations: %w", err)
	}
	targets := map[string][]uint{}
	for _, relation := range relations {
		targets[relation.Kind] = append(targets[relation.Kind], relation.TargetID)
	}

	var err error
	if detail.Partners, err = s.pagesByID(targets[db.RelationPartner], liveOnly); err != nil {
		return nil, err
	}
	if detail.Industries, err = s.pagesByID(targets[db.RelationIndustry], liveOnly); err != nil {
		return nil, err
	}
	if detail.CoveredMarkets, err = s.pagesByID(targets[db.RelationCoveredMarket], liveOnly); err != nil {
		return nil, err
	}
	return detail, nil
}

// relatedPeople 反查与目标页面存在指定关联的人员页面
func (s *ProfileService) relatedPeople(targetID uint, kind string, liveOnly bool) ([]db.Page, error) {
	query := s.db.Model(&db.Page{}).
		Where("pages.type = ?", content.TypePerson).
		Where("pages.id IN (?)", s.db.Model(&db.PersonRelation{}).Select("person_id").Where("target_id = ? AND kind = ?", targetID, kind))
	if liveOnly {
		query = query.Where("pages.live = ?", true)
	}
	var pages []db.Page
	if err := query.Order("pages.path asc").Find(&pages).Error; err != nil {
		return nil, fmt.Errorf("load related people: %w", err)
	}
	return pages, nil
}

func (s *ProfileService) pagesByID(ids []uint, liveOnly bool) ([]db.Page, error) {
	pages := []db.Page{}
	if len(ids) == 0 {
		return pages, nil
	}
	query := s.db.Where("id IN ?", ids)
	if liveOnly {
		query = query.Where("live = ?", true)
	}
	if err := query.Order("path asc").Find(&pages).Error; err != nil {
		return nil, err
	}
	return pages, nil
}

func savePerson(tx *gorm.DB, page *db.Page, input ProfileInput) error {
	personType := strings.ToUpper(strings.TrimSpace(input.PersonType))
	if _, ok := db.PersonTypeLabels[personType]; !ok && personType != "" {
		return ErrPersonTypeInvalid
	}

	if input.LocationID != nil {
		if err := checkTargets(tx, []uint{*input.LocationID}, content.TypeLocation); err != nil {
			return err
		}
	}
	relationSets := []struct {
		kind     string
		ids      []uint
		pageType string
	}{
		{db.RelationPartner, input.PartnerIDs, content.TypePartner},
		{db.RelationIndustry, input.IndustryIDs, content.TypeIndustry},
		{db.RelationCoveredMarket, input.CoveredMarketIDs, content.TypeLocation},
	}
	for _, set := range relationSets {
		if err := checkTargets(tx, set.ids, set.pageType); err != nil {
			return err
		}
	}

	skills, err := ensureSkills(tx, input.Skills)
	if err != nil {
		return err
	}

	var profile db.PersonProfile
	if err := tx.Where("page_id = ?", page.ID).FirstOrInit(&profile).Error; err != nil {
		return err
	}
	profile.PageID = page.ID
	profile.FirstName = strings.TrimSpace(input.FirstName)
	profile.LastName = strings.TrimSpace(input.LastName)
	profile.JobTitle = strings.TrimSpace(input.JobTitle)
	profile.PersonType = personType
	profile.IntroSubtitle = strings.TrimSpace(input.IntroSubtitle)
	profile.IntroParagraph = strings.TrimSpace(input.IntroParagraph)
	profile.MainParagraph = strings.TrimSpace(input.MainParagraph)
	profile.LinkedinLink = strings.TrimSpace(input.LinkedinLink)
	profile.Nationality = strings.TrimSpace(input.Nationality)
	profile.LocationID = input.LocationID
	if err := tx.Omit("Skills").Save(&profile).Error; err != nil {
		return err
	}
	if err := tx.Model(&profile).Association("Skills").Replace(skills); err != nil {
		return err
	}

	if err := tx.Where("person_id = ?", page.ID).Delete(&db.PersonRelation{}).Error; err != nil {
		return err
	}
	for _, set := range relationSets {
		seen := make(map[uint]struct{}, len(set.ids))
		for _, id := range set.ids {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			relation := db.PersonRelation{PersonID: page.ID, TargetID: id, Kind: set.kind}
			if err := tx.Create(&relation).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func savePartner(tx *gorm.DB, page *db.Page, input ProfileInput) error {
	origin, err := ensureCountry(tx, input.Origin)
	if err != nil {
		return err
	}
	partnerType, err := ensureTitled[db.PartnerType](tx, input.PartnerType)
	if err != nil {
		return err
	}

	var profile db.PartnerProfile
	if err := tx.Where("page_id = ?", page.ID).FirstOrInit(&profile).Error; err != nil {
		return err
	}
	profile.PageID = page.ID
	profile.OriginID = idOf(origin, func(c *db.Country) uint { return c.ID })
	profile.PartnerTypeID = idOf(partnerType, func(p *db.PartnerType) uint { return p.ID })
	return tx.Omit("Origin", "PartnerType").Save(&profile).Error
}

func saveBread(tx *gorm.DB, page *db.Page, input ProfileInput) error {
	origin, err := ensureCountry(tx, input.Origin)
	if err != nil {
		return err
	}
	breadType, err := ensureTitled[db.BreadType](tx, input.BreadType)
	if err != nil {
		return err
	}
	ingredients, err := ensureIngredients(tx, input.Ingredients)
	if err != nil {
		return err
	}

	var profile db.BreadProfile
	if err := tx.Where("page_id = ?", page.ID).FirstOrInit(&profile).Error; err != nil {
		return err
	}
	profile.PageID = page.ID
	profile.OriginID = idOf(origin, func(c *db.Country) uint { return c.ID })
	profile.BreadTypeID = idOf(breadType, func(b *db.BreadType) uint { return b.ID })
	if err := tx.Omit("Origin", "BreadType", "Ingredients").Save(&profile).Error; err != nil {
		return err
	}
	return tx.Model(&profile).Association("Ingredients").Replace(ingredients)
}

func saveLocation(tx *gorm.DB, page *db.Page, input ProfileInput) error {
	var profile db.LocationProfile
	if err := tx.Where("page_id = ?", page.ID).FirstOrInit(&profile).Error; err != nil {
		return err
	}
	profile.PageID = page.ID
	profile.City = strings.TrimSpace(input.City)
	profile.Country = strings.TrimSpace(input.Country)
	return tx.Save(&profile).Error
}

func checkTargets(tx *gorm.DB, ids []uint, pageType string) error {
	if len(ids) == 0 {
		return nil
	}
	unique := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		unique[id] = struct{}{}
	}
	var count int64
	if err := tx.Model(&db.Page{}).Where("id IN ? AND type = ?", ids, pageType).Count(&count).Error; err != nil {
		return err
	}
	if int(count) != len(unique) {
		return ErrProfileTargetInvalid
	}
	return nil
}

func ensureCountry(tx *gorm.DB, title string) (*db.Country, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, nil
	}
	country := db.Country{Title: title}
	if err := tx.Where("title = ?", title).FirstOrCreate(&country).Error; err != nil {
		return nil, err
	}
	return &country, nil
}

// titled 约束只有 Title 列的分类片段
type titled interface {
	db.PartnerType | db.BreadType
}

func ensureTitled[T titled](tx *gorm.DB, title string) (*T, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, nil
	}
	var record T
	if err := tx.Where("title = ?", title).Attrs(map[string]interface{}{"title": title}).FirstOrCreate(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func ensureIngredients(tx *gorm.DB, names []string) ([]db.BreadIngredient, error) {
	ingredients := make([]db.BreadIngredient, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		ingredient := db.BreadIngredient{Name: name}
		if err := tx.Where("name = ?", name).FirstOrCreate(&ingredient).Error; err != nil {
			return nil, err
		}
		ingredients = append(ingredients, ingredient)
	}
	return ingredients, nil
}

func ensureSkills(tx *gorm.DB, inputs []SkillInput) ([]db.Skill, error) {
	skills := make([]db.Skill, 0, len(inputs))
	for _, input := range inputs {
		name := strings.TrimSpace(input.Name)
		if name == "" {
			continue
		}
		if input.Level < 0 || input.Level > 100 {
			return nil, ErrSkillLevelInvalid
		}
		skill := db.Skill{Name: name, Level: input.Level}
		if err := tx.Where("name = ? AND level = ?", name, input.Level).FirstOrCreate(&skill).Error; err != nil {
			return nil, err
		}
		skills = append(skills, skill)
	}
	return skills, nil
}

func idOf[T any](record *T, id func(*T) uint) *uint {
	if record == nil {
		return nil
	}
	value := id(record)
	return &value
}
