// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import "fmt"

// ValidateCollection validates a Collection according to domain rules.
//
// Validation rules:
//   - Slug must not be empty
//   - ExternalID must not be zero
//
// NOT validated (populated during sync):
//   - LastSynced (zero until first sync completes)
//   - AccountID (empty for anonymous syncs)
func ValidateCollection(collection *Collection) error {
	if collection == nil {
		return fmt.Errorf("%w: collection is nil", ErrInvalidCollection)
	}

	if collection.Slug == "" {
		return fmt.Errorf("%w: %w", ErrInvalidCollection, ErrEmptySlug)
	}

	if collection.ExternalID == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidCollection, ErrEmptyExternalID)
	}

	return nil
}

// ValidateItem validates an Item before it is stored.
//
// Validation rules:
//   - ExternalID must not be zero
//   - Content must not be empty (items with no extracted text are
//     never stored)
//   - Type must be a known content type
//
// NOT validated (populated by later pipeline stages):
//   - Vector (can be empty until embedding runs)
//   - CollectionID (set by the orchestrator)
func ValidateItem(item *Item) error {
	if item == nil {
		return fmt.Errorf("%w: item is nil", ErrInvalidItem)
	}

	if item.ExternalID == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidItem, ErrEmptyExternalID)
	}

	if item.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidItem, ErrEmptyContent)
	}

	if err := ValidateContentType(item.Type); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidItem, err)
	}

	return nil
}

// ValidateContentType validates that a ContentType has a known value.
func ValidateContentType(t ContentType) error {
	switch t {
	case ContentTypeDocument, ContentTypeImage, ContentTypeVideo,
		ContentTypeAttachment, ContentTypeText:
		return nil
	default:
		return fmt.Errorf("%w: value %d", ErrInvalidContentType, t)
	}
}

// ValidateTier validates that a Tier has a known value.
func ValidateTier(t Tier) error {
	switch t {
	case TierFree, TierStarter, TierPro:
		return nil
	default:
		return fmt.Errorf("%w: value %d", ErrInvalidTier, t)
	}
}

// ValidateIdentity validates that an Identity can be tracked for quota.
func ValidateIdentity(id Identity) error {
	if id.AccountID == "" && id.SessionID == "" {
		return ErrInvalidIdentity
	}
	return nil
}
