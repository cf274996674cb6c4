// Package blocks defines the stream of typed content blocks stored in a
// page body, and how it is validated and rendered.
package blocks

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// Block type names.
const (
	TypeHeading      = "heading_block"
	TypeParagraph    = "paragraph_block"
	TypeImage        = "image_block"
	TypeQuote        = "block_quote"
	TypeEmbed        = "embed_block"
	TypeCounterPanel = "counter_panel"
	TypeProcessPanel = "process_panel"
	TypeServicePanel = "services_panel"
	TypeTeam         = "team_block"
)

var (
	ErrUnknownBlock = errors.New("unknown block type")
	ErrInvalidBlock = errors.New("invalid block value")
)

// Block is one entry of a stream. Value holds the type-specific payload.
type Block struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
	ID    string          `json:"id,omitempty"`
}

// Stream is an ordered page body.
type Stream []Block

// Heading is a title with an optional h2-h4 size.
type Heading struct {
	Text string `json:"heading_text"`
	Size string `json:"size"`
}

// Image is an image URL with caption and attribution.
type Image struct {
	Image       string `json:"image"`
	Caption     string `json:"caption"`
	Attribution string `json:"attribution"`
}

// Quote is a block quote with an optional attribution.
type Quote struct {
	Text          string `json:"text"`
	AttributeName string `json:"attribute_name"`
}

// Counter is an animated counter entry.
type Counter struct {
	Finish int    `json:"finish"`
	Text   string `json:"text"`
	Icon   string `json:"icon"`
}

// CounterPanel groups counters under a title.
type CounterPanel struct {
	Title    string    `json:"title"`
	Subtitle string    `json:"subtitle"`
	Counters []Counter `json:"counters"`
}

// Process is a numbered step.
type Process struct {
	Number   int    `json:"number"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Icon     string `json:"icon"`
}

// ProcessPanel groups process steps under a title.
type ProcessPanel struct {
	Title     string    `json:"title"`
	Processes []Process `json:"processes"`
}

// Service is a service tile; PopupText is markdown.
type Service struct {
	Icon      string `json:"icon"`
	Title     string `json:"title"`
	Subtitle  string `json:"subtitle"`
	PopupText string `json:"popup_text"`
}

// ServicePanel groups services under a title.
type ServicePanel struct {
	Services []Service `json:"services"`
	Title    string    `json:"title"`
}

// Team renders the live innovation team.
type Team struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

var headingSizes = map[string]bool{"": true, "h2": true, "h3": true, "h4": true}

// Parse decodes and validates a stored body. An empty body is an empty stream.
func Parse(body string) (Stream, error) {
	if strings.TrimSpace(body) == "" {
		return nil, nil
	}
	var stream Stream
	if err := json.Unmarshal([]byte(body), &stream); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBlock, err)
	}
	if err := stream.Validate(); err != nil {
		return nil, err
	}
	return stream, nil
}

// Validate checks every block against its schema.
func (s Stream) Validate() error {
	for i, block := range s {
		if err := validateBlock(block); err != nil {
			return fmt.Errorf("block %d (%s): %w", i, block.Type, err)
		}
	}
	return nil
}

// Normalize assigns IDs to blocks that lack one.
func (s Stream) Normalize() Stream {
	out := make(Stream, len(s))
	for i, block := range s {
		if strings.TrimSpace(block.ID) == "" {
			block.ID = uuid.NewString()
		}
		out[i] = block
	}
	return out
}

// Encode serialises the stream for storage.
func (s Stream) Encode() (string, error) {
	if len(s) == 0 {
		return "", nil
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Decode unmarshals a block value into dst.
func (b Block) Decode(dst any) error {
	if err := json.Unmarshal(b.Value, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBlock, err)
	}
	return nil
}

func validateBlock(block Block) error {
	if len(block.Value) == 0 {
		return fmt.Errorf("%w: missing value", ErrInvalidBlock)
	}

	switch block.Type {
	case TypeHeading:
		var v Heading
		if err := block.Decode(&v); err != nil {
			return err
		}
		if strings.TrimSpace(v.Text) == "" {
			return fmt.Errorf("%w: heading_text is required", ErrInvalidBlock)
		}
		if !headingSizes[v.Size] {
			return fmt.Errorf("%w: size %q", ErrInvalidBlock, v.Size)
		}
	case TypeParagraph:
		var v string
		return block.Decode(&v)
	case TypeImage:
		var v Image
		if err := block.Decode(&v); err != nil {
			return err
		}
		if strings.TrimSpace(v.Image) == "" {
			return fmt.Errorf("%w: image is required", ErrInvalidBlock)
		}
	case TypeQuote:
		var v Quote
		if err := block.Decode(&v); err != nil {
			return err
		}
		if strings.TrimSpace(v.Text) == "" {
			return fmt.Errorf("%w: text is required", ErrInvalidBlock)
		}
	case TypeEmbed:
		var v string
		if err := block.Decode(&v); err != nil {
			return err
		}
		u, err := url.Parse(strings.TrimSpace(v))
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: embed url %q", ErrInvalidBlock, v)
		}
	case TypeCounterPanel:
		var v CounterPanel
		if err := block.Decode(&v); err != nil {
			return err
		}
		if strings.TrimSpace(v.Title) == "" {
			return fmt.Errorf("%w: title is required", ErrInvalidBlock)
		}
	case TypeProcessPanel:
		var v ProcessPanel
		if err := block.Decode(&v); err != nil {
			return err
		}
		if strings.TrimSpace(v.Title) == "" {
			return fmt.Errorf("%w: title is required", ErrInvalidBlock)
		}
	case TypeServicePanel:
		var v ServicePanel
		if err := block.Decode(&v); err != nil {
			return err
		}
		if strings.TrimSpace(v.Title) == "" {
			return fmt.Errorf("%w: title is required", ErrInvalidBlock)
		}
	case TypeTeam:
		var v Team
		if err := block.Decode(&v); err != nil {
			return err
		}
		if strings.TrimSpace(v.Title) == "" {
			return fmt.Errorf("%w: title is required", ErrInvalidBlock)
		}
	default:
		return ErrUnknownBlock
	}
	return nil
}
