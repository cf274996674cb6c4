package blocks

import (
	"bytes"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify, extension.Table),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	sanitizer = bluemonday.UGCPolicy()
)

// TeamMember is what a team block lists.
type TeamMember struct {
	Name     string
	JobTitle string
	URL      string
}

// RenderOptions supplies data some blocks need at render time.
type RenderOptions struct {
	// TeamMembers loads the people a team block shows. Nil renders an empty team.
	TeamMembers func() ([]TeamMember, error)
}

const blockTemplates = `
{{define "heading_block"}}{{$tag := or .Size "h2"}}{{if eq $tag "h3"}}<h3>{{.Text}}</h3>{{else if eq $tag "h4"}}<h4>{{.Text}}</h4>{{else}}<h2>{{.Text}}</h2>{{end}}{{end}}
{{define "paragraph_block"}}<div class="block-paragraph">{{.}}</div>{{end}}
{{define "image_block"}}<figure class="block-image"><img src="{{.Image}}" alt="{{.Caption}}">{{if or .Caption .Attribution}}<figcaption>{{.Caption}}{{if .Attribution}} <span class="attribution">{{.Attribution}}</span>{{end}}</figcaption>{{end}}</figure>{{end}}
{{define "block_quote"}}<blockquote class="block-quote"><p>{{.Text}}</p>{{if .AttributeName}}<footer>{{.AttributeName}}</footer>{{end}}</blockquote>{{end}}
{{define "embed_block"}}<div class="block-embed"><a href="{{.}}" rel="noopener">{{.}}</a></div>{{end}}
{{define "counter_panel"}}<section class="block-counters"><h2>{{.Title}}</h2><p>{{.Subtitle}}</p><ul>{{range .Counters}}<li><i class="{{.Icon}}"></i><span class="counter" data-finish="{{.Finish}}">{{.Finish}}</span> {{.Text}}</li>{{end}}</ul></section>{{end}}
{{define "process_panel"}}<section class="block-process"><h2>{{.Title}}</h2><ol>{{range .Processes}}<li value="{{.Number}}"><i class="{{.Icon}}"></i><strong>{{.Title}}</strong> {{.Subtitle}}</li>{{end}}</ol></section>{{end}}
{{define "services_panel"}}<section class="block-services"><h2>{{.Title}}</h2>{{range .Services}}<div class="service"><i class="{{.Icon}}"></i><h3>{{.Title}}</h3><p>{{.Subtitle}}</p><div class="popup">{{.Popup}}</div></div>{{end}}</section>{{end}}
{{define "team_block"}}<section class="block-team"><h2>{{.Title}}</h2><p>{{.Description}}</p><ul>{{range .Members}}<li><a href="{{.URL}}">{{.Name}}</a>{{if .JobTitle}} <span>{{.JobTitle}}</span>{{end}}</li>{{end}}</ul></section>{{end}}
`

var templates = template.Must(template.New("blocks").Parse(blockTemplates))

type renderedService struct {
	Service
	Popup template.HTML
}

type renderedServicePanel struct {
	Title    string
	Services []renderedService
}

type renderedTeam struct {
	Team
	Members []TeamMember
}

// Render produces sanitised HTML for the whole stream.
func Render(stream Stream, opts RenderOptions) (template.HTML, error) {
	var buf bytes.Buffer
	for _, block := range stream {
		data, err := renderData(block, opts)
		if err != nil {
			return "", err
		}
		if err := templates.ExecuteTemplate(&buf, block.Type, data); err != nil {
			return "", err
		}
	}
	return template.HTML(buf.String()), nil
}

// RenderMarkdown converts rich text to sanitised HTML.
func RenderMarkdown(content string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(content), &buf); err != nil {
		return "", err
	}
	safe := sanitizer.SanitizeBytes(buf.Bytes())
	return template.HTML(safe), nil
}

func renderData(block Block, opts RenderOptions) (any, error) {
	switch block.Type {
	case TypeHeading:
		var v Heading
		return v, block.Decode(&v)
	case TypeParagraph:
		var v string
		if err := block.Decode(&v); err != nil {
			return nil, err
		}
		return RenderMarkdown(v)
	case TypeImage:
		var v Image
		return v, block.Decode(&v)
	case TypeQuote:
		var v Quote
		return v, block.Decode(&v)
	case TypeEmbed:
		var v string
		return v, block.Decode(&v)
	case TypeCounterPanel:
		var v CounterPanel
		return v, block.Decode(&v)
	case TypeProcessPanel:
		var v ProcessPanel
		return v, block.Decode(&v)
	case TypeServicePanel:
		var v ServicePanel
		if err := block.Decode(&v); err != nil {
			return nil, err
		}
		out := renderedServicePanel{Title: v.Title, Services: make([]renderedService, 0, len(v.Services))}
		for _, service := range v.Services {
			popup, err := RenderMarkdown(service.PopupText)
			if err != nil {
				return nil, err
			}
			out.Services = append(out.Services, renderedService{Service: service, Popup: popup})
		}
		return out, nil
	case TypeTeam:
		var v Team
		if err := block.Decode(&v); err != nil {
			return nil, err
		}
		out := renderedTeam{Team: v}
		if opts.TeamMembers != nil {
			members, err := opts.TeamMembers()
			if err != nil {
				return nil, err
			}
			out.Members = members
		}
		return out, nil
	default:
		return nil, ErrUnknownBlock
	}
}
