// Package view 提供公开页面使用的 HTML 模板。
package view

import (
	"embed"
	"html/template"
	"net/url"
	"strconv"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

// FuncMap 返回模板中可用的辅助函数
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"add": func(a, b int) int {
			return a + b
		},
		"sub": func(a, b int) int {
			return a - b
		},
		"pageURL": PageURL,
		"date": func(t *time.Time) string {
			if t == nil || t.IsZero() {
				return ""
			}
			return t.Format("2 January 2006")
		},
	}
}

// Templates parses every embedded template. Each file is addressed by its
// base name, e.g. "index.html".
func Templates() (*template.Template, error) {
	return template.New("").Funcs(FuncMap()).ParseFS(templateFS, "templates/*.html")
}

// PageURL appends a page number to base, preserving other query values.
func PageURL(base string, number int) string {
	parsed, err := url.Parse(base)
	if err != nil {
		return base
	}
	query := parsed.Query()
	query.Set("page", strconv.Itoa(number))
	parsed.RawQuery = query.Encode()
	return parsed.String()
}
