// Package seed 从 YAML 描述文件构建整棵页面树，用于本地开发与演示数据。
package seed

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/collidersite/internal/db"
	"github.com/collidersite/internal/service"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// ErrUnknownReference 关联引用的页面路径不在描述文件中
var ErrUnknownReference = errors.New("seed reference does not match any page")

// Fixture 是描述文件的顶层结构
type Fixture struct {
	Site *Site `yaml:"site"`
	Root Node  `yaml:"root"`
}

// Site 覆盖系统设置
type Site struct {
	Name   string `yaml:"name"`
	Footer string `yaml:"footer"`
}

// Node 描述一个页面及其子页面
type Node struct {
	Type         string     `yaml:"type"`
	Title        string     `yaml:"title"`
	Slug         string     `yaml:"slug"`
	Introduction string     `yaml:"introduction"`
	Image        string     `yaml:"image"`
	Body         yaml.Node  `yaml:"body"`
	Tags         []string   `yaml:"tags"`
	Draft        bool       `yaml:"draft"`
	Published    *time.Time `yaml:"published"`
	Profile      *Profile   `yaml:"profile"`
	Children     []Node     `yaml:"children"`
}

// Profile 中的关联字段使用页面 URL 引用，例如 /locations/london/
type Profile struct {
	FirstName      string   `yaml:"first_name"`
	LastName       string   `yaml:"last_name"`
	JobTitle       string   `yaml:"job_title"`
	PersonType     string   `yaml:"person_type"`
	IntroSubtitle  string   `yaml:"intro_subtitle"`
	IntroParagraph string   `yaml:"intro_paragraph"`
	MainParagraph  string   `yaml:"main_paragraph"`
	LinkedinLink   string   `yaml:"linkedin"`
	Nationality    string   `yaml:"nationality"`
	Location       string   `yaml:"location"`
	Partners       []string `yaml:"partners"`
	Industries     []string `yaml:"industries"`
	CoveredMarkets []string `yaml:"covered_markets"`
	Skills         []Skill  `yaml:"skills"`

	Origin      string   `yaml:"origin"`
	PartnerType string   `yaml:"partner_type"`
	BreadType   string   `yaml:"bread_type"`
	Ingredients []string `yaml:"ingredients"`

	City    string `yaml:"city"`
	Country string `yaml:"country"`
}

// Skill 是人员技能
type Skill struct {
	Name  string `yaml:"name"`
	Level int    `yaml:"level"`
}

// Result 汇总导入结果
type Result struct {
	Pages    int
	Profiles int
	URLs     map[string]uint
}

// Parse 解码描述文件
func Parse(r io.Reader) (*Fixture, error) {
	var fixture Fixture
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&fixture); err != nil {
		return nil, fmt.Errorf("decode seed fixture: %w", err)
	}
	if strings.TrimSpace(fixture.Root.Type) == "" {
		return nil, errors.New("seed fixture has no root page")
	}
	return &fixture, nil
}

type pendingProfile struct {
	url     string
	profile *Profile
}

// Apply 在一个事务中创建页面树，然后按 URL 解析并写入各页面资料
func Apply(gdb *gorm.DB, fixture *Fixture) (Result, error) {
	result := Result{URLs: make(map[string]uint)}

	err := gdb.Transaction(func(tx *gorm.DB) error {
		pages := service.NewPageService(tx)
		profiles := service.NewProfileService(tx)

		if fixture.Site != nil {
			if _, err := service.NewSystemSettingService(tx).UpdateSettings(service.SystemSettingsInput{
				SiteName:   fixture.Site.Name,
				FooterText: fixture.Site.Footer,
			}); err != nil {
				return err
			}
		}

		var pending []pendingProfile
		var walk func(parentID *uint, parentURL string, node Node) error
		walk = func(parentID *uint, parentURL string, node Node) error {
			input, err := node.pageInput()
			if err != nil {
				return err
			}

			var page *db.Page
			if parentID == nil {
				page, err = pages.CreateRoot(input)
			} else {
				page, err = pages.AddChild(*parentID, input)
			}
			if err != nil {
				return fmt.Errorf("create %s %q: %w", node.Type, node.Title, err)
			}
			// 根页面不出现在 URL 中
			url := "/"
			if parentID != nil {
				url = parentURL + page.Slug + "/"
			}
			if _, exists := result.URLs[url]; exists {
				return fmt.Errorf("duplicate page url %s", url)
			}
			result.URLs[url] = page.ID
			result.Pages++

			if node.Profile != nil {
				pending = append(pending, pendingProfile{url: url, profile: node.Profile})
			}
			for _, child := range node.Children {
				if err := walk(&page.ID, url, child); err != nil {
					return err
				}
			}
			return nil
		}
		if err := walk(nil, "", fixture.Root); err != nil {
			return err
		}

		for _, item := range pending {
			page, err := pages.Get(result.URLs[item.url])
			if err != nil {
				return err
			}
			input, err := item.profile.input(result.URLs)
			if err != nil {
				return fmt.Errorf("profile %s: %w", item.url, err)
			}
			if err := profiles.Save(page, input); err != nil {
				return fmt.Errorf("profile %s: %w", item.url, err)
			}
			result.Profiles++
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return result, nil
}

func (n Node) pageInput() (service.PageInput, error) {
	body, err := bodyJSON(n.Body)
	if err != nil {
		return service.PageInput{}, fmt.Errorf("body of %q: %w", n.Title, err)
	}
	return service.PageInput{
		Type:             n.Type,
		Title:            n.Title,
		Slug:             n.Slug,
		Introduction:     n.Introduction,
		ImageURL:         n.Image,
		Body:             body,
		Tags:             n.Tags,
		Live:             !n.Draft,
		FirstPublishedAt: n.Published,
	}, nil
}

// bodyJSON 接受 YAML 形式的 block 列表或已编码的 JSON 字符串
func bodyJSON(node yaml.Node) (string, error) {
	if node.Kind == 0 {
		return "", nil
	}
	if node.Kind == yaml.ScalarNode {
		return strings.TrimSpace(node.Value), nil
	}
	var value interface{}
	if err := node.Decode(&value); err != nil {
		return "", err
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

func (p *Profile) input(urls map[string]uint) (service.ProfileInput, error) {
	lookup := func(refs []string) ([]uint, error) {
		ids := make([]uint, 0, len(refs))
		for _, ref := range refs {
			id, ok := urls[normalizeRef(ref)]
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrUnknownReference, ref)
			}
			ids = append(ids, id)
		}
		return ids, nil
	}

	input := service.ProfileInput{
		FirstName:      p.FirstName,
		LastName:       p.LastName,
		JobTitle:       p.JobTitle,
		PersonType:     p.PersonType,
		IntroSubtitle:  p.IntroSubtitle,
		IntroParagraph: p.IntroParagraph,
		MainParagraph:  p.MainParagraph,
		LinkedinLink:   p.LinkedinLink,
		Nationality:    p.Nationality,
		Origin:         p.Origin,
		PartnerType:    p.PartnerType,
		BreadType:      p.BreadType,
		Ingredients:    p.Ingredients,
		City:           p.City,
		Country:        p.Country,
	}
	if p.Location != "" {
		ids, err := lookup([]string{p.Location})
		if err != nil {
			return input, err
		}
		input.LocationID = &ids[0]
	}

	var err error
	if input.PartnerIDs, err = lookup(p.Partners); err != nil {
		return input, err
	}
	if input.IndustryIDs, err = lookup(p.Industries); err != nil {
		return input, err
	}
	if input.CoveredMarketIDs, err = lookup(p.CoveredMarkets); err != nil {
		return input, err
	}
	for _, skill := range p.Skills {
		input.Skills = append(input.Skills, service.SkillInput{Name: skill.Name, Level: skill.Level})
	}
	return input, nil
}

func normalizeRef(ref string) string {
	trimmed := strings.Trim(strings.TrimSpace(ref), "/")
	if trimmed == "" {
		return "/"
	}
	return "/" + trimmed + "/"
}
