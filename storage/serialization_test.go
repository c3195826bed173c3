package storage

import (
	"testing"
	"time"

	"github.com/poiesic/boardvec/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectionSerialization(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	original := &core.Collection{
		ExternalID: 4821,
		Title:      "Field Notes",
		Slug:       "field-notes",
		AccountID:  "acct-17",
		LastSynced: now,
		InsertedAt: now.Add(-time.Hour),
		UpdatedAt:  now,
	}

	decoded, err := UnmarshalCollection(MarshalCollection(original))
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestCollectionSerializationZeroTimes(t *testing.T) {
	original := &core.Collection{ExternalID: 1, Slug: "s"}
	decoded, err := UnmarshalCollection(MarshalCollection(original))
	require.NoError(t, err)
	assert.True(t, decoded.LastSynced.IsZero())
	assert.True(t, decoded.InsertedAt.IsZero())
}

func TestItemSerialization(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	original := &core.Item{
		ExternalID:   991203,
		CollectionID: core.IDFromContent("collection:field-notes"),
		Title:        "A tower in Paris",
		Description:  "postcard scan",
		Content:      "Title: A tower in Paris\n\nThe Eiffel Tower at dusk.",
		SourceURL:    "https://example.com/tower",
		ImageURL:     "https://cdn.example.com/tower.jpg",
		Type:         core.ContentTypeImage,
		Vector:       []float32{0.25, -0.5, 0.125, 1.0},
		InsertedAt:   now,
		UpdatedAt:    now,
	}

	decoded, err := UnmarshalItem(MarshalItem(original))
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestItemSerializationEmptyVector(t *testing.T) {
	original := &core.Item{ExternalID: 7, Content: "x", Type: core.ContentTypeText}
	decoded, err := UnmarshalItem(MarshalItem(original))
	require.NoError(t, err)
	assert.Nil(t, decoded.Vector)
	assert.Equal(t, original.ExternalID, decoded.ExternalID)
}

func TestItemSerializationTruncated(t *testing.T) {
	data := MarshalItem(&core.Item{
		ExternalID: 7,
		Content:    "some longer extracted content body",
		Type:       core.ContentTypeDocument,
	})
	_, err := UnmarshalItem(data[:len(data)/2])
	assert.Error(t, err)
}

func TestUsageRecordSerialization(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	original := &core.UsageRecord{
		IdentityKey:    "anon:1724826000000-ab12:203.0.113.9",
		CollectionID:   core.IDFromContent("collection:field-notes"),
		ItemsProcessed: 25,
		FreeTier:       true,
		FirstProcessed: now.Add(-24 * time.Hour),
		LastProcessed:  now,
	}

	decoded, err := UnmarshalUsageRecord(MarshalUsageRecord(original))
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestMonthlyUsageSerialization(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	original := &core.MonthlyUsage{
		IdentityKey:    "acct:17",
		Month:          "2026-08",
		ItemsProcessed: 180,
		Tier:           core.TierPro,
		Limit:          1000,
		UpdatedAt:      now,
	}

	decoded, err := UnmarshalMonthlyUsage(MarshalMonthlyUsage(original))
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestChannelLimitsSerialization(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	original := &core.ChannelLimits{
		IdentityKey:     "acct:17",
		CollectionID:    core.IDFromContent("collection:field-notes"),
		Month:           "2026-08",
		ChatUsed:        3,
		ChatLimit:       10,
		GenerationUsed:  1,
		GenerationLimit: 5,
		UpdatedAt:       now,
	}

	decoded, err := UnmarshalChannelLimits(MarshalChannelLimits(original))
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestIDSerialization(t *testing.T) {
	id := core.IDFromContent("block:991203")
	decoded, err := UnmarshalID(MarshalID(id))
	require.NoError(t, err)
	assert.Equal(t, id, decoded)
}
