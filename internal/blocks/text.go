package blocks

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var textPolicy = bluemonday.StrictPolicy()

// Text extracts the readable text of a stream, one block per line. Markup
// in rich text is dropped; block type names and URLs are not included.
func (s Stream) Text() string {
	var parts []string
	add := func(values ...string) {
		for _, value := range values {
			plain := strings.Join(strings.Fields(html.UnescapeString(textPolicy.Sanitize(value))), " ")
			if plain != "" {
				parts = append(parts, plain)
			}
		}
	}

	for _, block := range s {
		switch block.Type {
		case TypeHeading:
			var v Heading
			if block.Decode(&v) == nil {
				add(v.Text)
			}
		case TypeParagraph:
			var v string
			if block.Decode(&v) == nil {
				add(v)
			}
		case TypeImage:
			var v Image
			if block.Decode(&v) == nil {
				add(v.Caption, v.Attribution)
			}
		case TypeQuote:
			var v Quote
			if block.Decode(&v) == nil {
				add(v.Text, v.AttributeName)
			}
		case TypeCounterPanel:
			var v CounterPanel
			if block.Decode(&v) == nil {
				add(v.Title, v.Subtitle)
				for _, counter := range v.Counters {
					add(counter.Text)
				}
			}
		case TypeProcessPanel:
			var v ProcessPanel
			if block.Decode(&v) == nil {
				add(v.Title)
				for _, process := range v.Processes {
					add(process.Title, process.Subtitle)
				}
			}
		case TypeServicePanel:
			var v ServicePanel
			if block.Decode(&v) == nil {
				add(v.Title)
				for _, service := range v.Services {
					add(service.Title, service.Subtitle, service.PopupText)
				}
			}
		case TypeTeam:
			var v Team
			if block.Decode(&v) == nil {
				add(v.Title, v.Description)
			}
		}
	}
	return strings.Join(parts, "\n")
}
