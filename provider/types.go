package provider

import (
	"strconv"
	"strings"
	"time"

	"github.com/poiesic/boardvec/core"
)

// channelResponse mirrors the provider's channel endpoint payload. Only
// the fields the pipeline consumes are mapped.
type channelResponse struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Slug   string `json:"slug"`
	Length int    `json:"length"`
	UserID *int64 `json:"user_id"`
	Status string `json:"status"`
}

// contentsResponse is one page of a channel's contents.
type contentsResponse struct {
	Contents []blockResponse `json:"contents"`
}

// blockResponse mirrors one content block. The canonical source URL
// appears either nested under "source" or as a flat "source_url"
// depending on the endpoint that produced the payload; normalization
// happens in sourceURL below so the ambiguity never leaves this
// package.
type blockResponse struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
	Class       string `json:"class"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`

	Source *struct {
		URL string `json:"url"`
	} `json:"source"`
	SourceURL string `json:"source_url"`

	Image *struct {
		Display struct {
			URL string `json:"url"`
		} `json:"display"`
	} `json:"image"`
}

func (b *blockResponse) sourceURL() string {
	if b.Source != nil && b.Source.URL != "" {
		return b.Source.URL
	}
	return b.SourceURL
}

func (b *blockResponse) imageURL() string {
	if b.Image == nil {
		return ""
	}
	return b.Image.Display.URL
}

// classToContentType maps the provider's block class to the internal
// content type. Link blocks start as documents; the extraction router
// reclassifies links pointing at video hosts.
func classToContentType(class string) core.ContentType {
	switch strings.ToLower(class) {
	case "link":
		return core.ContentTypeDocument
	case "image":
		return core.ContentTypeImage
	case "media":
		return core.ContentTypeVideo
	case "attachment":
		return core.ContentTypeAttachment
	case "text":
		return core.ContentTypeText
	default:
		return core.ContentTypeDocument
	}
}

func (c *channelResponse) toCollection() *core.Collection {
	col := &core.Collection{
		ExternalID: c.ID,
		Title:      c.Title,
		Slug:       c.Slug,
	}
	if c.UserID != nil {
		col.AccountID = strconv.FormatInt(*c.UserID, 10)
	}
	return col
}

func (b *blockResponse) toItem(collectionID core.ID) *core.Item {
	item := &core.Item{
		ExternalID:   b.ID,
		CollectionID: collectionID,
		Title:        b.Title,
		Description:  b.Description,
		Content:      b.Content,
		SourceURL:    b.sourceURL(),
		ImageURL:     b.imageURL(),
		Type:         classToContentType(b.Class),
	}
	if t, err := time.Parse(time.RFC3339, b.CreatedAt); err == nil {
		item.InsertedAt = t
	}
	if t, err := time.Parse(time.RFC3339, b.UpdatedAt); err == nil {
		item.UpdatedAt = t
	}
	return item
}
