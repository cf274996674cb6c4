package db

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

// PathStepLen is the width of one materialized path segment.
const PathStepLen = 4

const pathAlphabetBase = 36

// maxPathStep is the largest sibling number a single segment can encode ("zzzz").
const maxPathStep = pathAlphabetBase*pathAlphabetBase*pathAlphabetBase*pathAlphabetBase - 1

// ErrPathOverflow is returned when a parent has run out of child path steps.
var ErrPathOverflow = errors.New("page path step overflow")

// Page is a node of the content tree. Path is a materialized path made of
// fixed-width base36 steps, so a subtree is a path prefix and tree order is
// path order.
type Page struct {
	gorm.Model
	ParentID         *uint  `gorm:"index"`
	Path             string `gorm:"size:255;uniqueIndex;not null"`
	Depth            int    `gorm:"not null"`
	Type             string `gorm:"size:40;index;not null"`
	Title            string `gorm:"not null"`
	Slug             string `gorm:"size:255;index;not null"`
	Live             bool   `gorm:"index"`
	FirstPublishedAt *time.Time
	LastPublishedAt  *time.Time
	Introduction     string `gorm:"type:text"`
	ImageURL         string
	Body             string `gorm:"type:text"`
	SearchText       string `gorm:"type:text" json:"-"` // 正文 block 的纯文本，仅供搜索
	Tags             []Tag  `gorm:"many2many:page_tags;"`
}

// IsRoot reports whether the page has no parent.
func (p Page) IsRoot() bool {
	return p.ParentID == nil
}

// EncodePathStep renders a 1-based sibling number as a path segment.
func EncodePathStep(n int) (string, error) {
	if n < 1 || n > maxPathStep {
		return "", ErrPathOverflow
	}
	step := strings.ToUpper(strconv.FormatInt(int64(n), pathAlphabetBase))
	return strings.Repeat("0", PathStepLen-len(step)) + step, nil
}

// DecodePathStep parses the last segment of a path.
func DecodePathStep(path string) (int, error) {
	if len(path) < PathStepLen {
		return 0, errors.New("page path too short")
	}
	n, err := strconv.ParseInt(path[len(path)-PathStepLen:], pathAlphabetBase, 64)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// AncestorPaths lists the paths of every strict ancestor, root first.
func AncestorPaths(path string) []string {
	depth := len(path) / PathStepLen
	if depth <= 1 {
		return nil
	}
	paths := make([]string, 0, depth-1)
	for i := 1; i < depth; i++ {
		paths = append(paths, path[:i*PathStepLen])
	}
	return paths
}
