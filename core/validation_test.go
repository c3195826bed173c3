package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateCollection(t *testing.T) {
	tests := []struct {
		name       string
		collection *Collection
		wantErr    error
	}{
		{
			name:       "valid collection",
			collection: &Collection{Slug: "reading-list", ExternalID: 99},
			wantErr:    nil,
		},
		{
			name:       "nil collection",
			collection: nil,
			wantErr:    ErrInvalidCollection,
		},
		{
			name:       "empty slug",
			collection: &Collection{ExternalID: 99},
			wantErr:    ErrEmptySlug,
		},
		{
			name:       "zero external id",
			collection: &Collection{Slug: "reading-list"},
			wantErr:    ErrEmptyExternalID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCollection(tt.collection)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidateItem(t *testing.T) {
	tests := []struct {
		name    string
		item    *Item
		wantErr error
	}{
		{
			name:    "valid item",
			item:    &Item{ExternalID: 1, Content: "extracted text", Type: ContentTypeDocument},
			wantErr: nil,
		},
		{
			name:    "nil item",
			item:    nil,
			wantErr: ErrInvalidItem,
		},
		{
			name:    "zero external id",
			item:    &Item{Content: "text", Type: ContentTypeText},
			wantErr: ErrEmptyExternalID,
		},
		{
			name:    "empty content",
			item:    &Item{ExternalID: 1, Type: ContentTypeText},
			wantErr: ErrEmptyContent,
		},
		{
			name:    "unknown content type",
			item:    &Item{ExternalID: 1, Content: "text"},
			wantErr: ErrInvalidContentType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateItem(tt.item)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidateContentType(t *testing.T) {
	for _, ct := range []ContentType{
		ContentTypeDocument, ContentTypeImage, ContentTypeVideo,
		ContentTypeAttachment, ContentTypeText,
	} {
		assert.NoError(t, ValidateContentType(ct))
	}
	assert.ErrorIs(t, ValidateContentType(ContentType(42)), ErrInvalidContentType)
}

func TestValidateTier(t *testing.T) {
	assert.NoError(t, ValidateTier(TierFree))
	assert.NoError(t, ValidateTier(TierStarter))
	assert.NoError(t, ValidateTier(TierPro))
	assert.ErrorIs(t, ValidateTier(Tier(0)), ErrInvalidTier)
}

func TestValidateIdentity(t *testing.T) {
	assert.NoError(t, ValidateIdentity(Identity{AccountID: "a1"}))
	assert.NoError(t, ValidateIdentity(Identity{SessionID: "s1", IP: "1.2.3.4"}))
	assert.ErrorIs(t, ValidateIdentity(Identity{IP: "1.2.3.4"}), ErrInvalidIdentity)
}
