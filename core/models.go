package core

import (
	"encoding/binary"
	"strconv"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is the storage key for domain entities. It is derived from an
// entity's external identifier by content hashing, so the same provider
// object always maps to the same record.
type ID uint64

// IDFromContent generates a deterministic ID from a string using BLAKE2b
// hashing. Identical input produces identical IDs, which is what makes
// upsert-by-external-identifier idempotent.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// IDFromExternal maps a provider numeric identifier to a storage ID.
func IDFromExternal(externalID int64) ID {
	return IDFromContent(strconv.FormatInt(externalID, 10))
}

// ContentType classifies an Item and selects its extraction strategy.
type ContentType int

const (
	// ContentTypeDocument is a link to an arbitrary web page.
	ContentTypeDocument ContentType = iota + 1
	// ContentTypeImage is an image block.
	ContentTypeImage
	// ContentTypeVideo is a link to a recognized video host.
	ContentTypeVideo
	// ContentTypeAttachment is an uploaded file, typically a PDF.
	ContentTypeAttachment
	// ContentTypeText is a block whose content is already plain text.
	ContentTypeText
)

// String returns the provider-facing name of the content type.
func (t ContentType) String() string {
	switch t {
	case ContentTypeDocument:
		return "document"
	case ContentTypeImage:
		return "image"
	case ContentTypeVideo:
		return "video"
	case ContentTypeAttachment:
		return "attachment"
	case ContentTypeText:
		return "text"
	default:
		return "unknown"
	}
}

// Collection represents one external content board. It is created on
// first sync and updated on every subsequent sync, never deleted by
// this subsystem.
type Collection struct {
	ExternalID int64
	Title      string
	Slug       string
	AccountID  string // owning account, empty for anonymous syncs
	LastSynced time.Time
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// StorageID returns the Collection's storage key, derived from its slug.
func (c *Collection) StorageID() ID {
	return IDFromContent("collection:" + c.Slug)
}

// Item represents one content block within a Collection. ExternalID is
// globally unique across collections; re-syncs upsert by it rather than
// duplicating records.
type Item struct {
	ExternalID   int64
	CollectionID ID
	Title        string
	Description  string
	Content      string
	SourceURL    string
	ImageURL     string
	Type         ContentType
	Vector       []float32 // representative embedding, first chunk's vector
	InsertedAt   time.Time
	UpdatedAt    time.Time
}

// StorageID returns the Item's storage key, derived from its external
// identifier alone. Collection membership does not participate, which
// is what makes the identifier globally unique in the store.
func (i *Item) StorageID() ID {
	return IDFromExternal(i.ExternalID)
}

// Chunk is a bounded-size segment of an Item's extracted content.
// Chunks are transient: only the first chunk's vector is persisted.
type Chunk struct {
	Text   string
	Vector []float32
	Index  int
	Total  int
}

// Identity names the party a sync is billed to. AccountID and SessionID
// are mutually exclusive; AccountID takes precedence when both are set.
type Identity struct {
	AccountID string
	SessionID string
	IP        string
}

// IsAuthenticated reports whether the identity is a signed-in account.
func (id Identity) IsAuthenticated() bool {
	return id.AccountID != ""
}

// Key returns the stable string quota records are tracked by.
func (id Identity) Key() string {
	if id.AccountID != "" {
		return "acct:" + id.AccountID
	}
	return "anon:" + id.SessionID + ":" + id.IP
}

// Tier is a subscription level determining quota ceilings.
type Tier int

const (
	// TierFree has a lifetime item cap and a legacy per-channel cap.
	TierFree Tier = iota + 1
	// TierStarter is the entry paid tier with a monthly item ceiling.
	TierStarter
	// TierPro is the larger paid tier.
	TierPro
)

// String returns the tier's plan name.
func (t Tier) String() string {
	switch t {
	case TierFree:
		return "free"
	case TierStarter:
		return "starter"
	case TierPro:
		return "pro"
	default:
		return "unknown"
	}
}

// IsPaid reports whether the tier is metered by monthly ceiling rather
// than lifetime cap.
func (t Tier) IsPaid() bool {
	return t == TierStarter || t == TierPro
}

// UsageRecord tracks cumulative items processed for one
// (identity, collection) pair. The counter only increases.
type UsageRecord struct {
	IdentityKey    string
	CollectionID   ID
	ItemsProcessed int
	FreeTier       bool
	FirstProcessed time.Time
	LastProcessed  time.Time
}

// MonthlyUsage tracks items processed by a paid account in one calendar
// month. A new record starts each month; nothing is reset in place.
type MonthlyUsage struct {
	IdentityKey    string
	Month          string // calendar month key, e.g. "2026-08"
	ItemsProcessed int
	Tier           Tier
	Limit          int // tier ceiling at time of recording
	UpdatedAt      time.Time
}

// ChannelLimits tracks the free tier's two per-collection monthly
// counters, independent of item-processing quota.
type ChannelLimits struct {
	IdentityKey     string
	CollectionID    ID
	Month           string
	ChatUsed        int
	ChatLimit       int
	GenerationUsed  int
	GenerationLimit int
	UpdatedAt       time.Time
}

// MonthKey formats a timestamp as the calendar-month key used by
// monthly quota records.
func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// SearchResult is an Item match with its relevance score.
type SearchResult struct {
	Item  *Item
	Score float32
}
