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

import "errors"

// Domain validation errors
var (
	// ErrInvalidCollection indicates a Collection failed validation.
	ErrInvalidCollection = errors.New("invalid collection")

	// ErrInvalidItem indicates an Item failed validation.
	ErrInvalidItem = errors.New("invalid item")

	// ErrEmptySlug indicates the collection Slug field is empty.
	ErrEmptySlug = errors.New("collection slug cannot be empty")

	// ErrEmptyExternalID indicates the item has no external identifier.
	ErrEmptyExternalID = errors.New("external identifier cannot be zero")

	// ErrEmptyContent indicates the Content field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrInvalidContentType indicates an invalid ContentType value.
	ErrInvalidContentType = errors.New("invalid content type")

	// ErrInvalidTier indicates an invalid Tier value.
	ErrInvalidTier = errors.New("invalid subscription tier")

	// ErrInvalidIdentity indicates an Identity with neither account nor
	// session information.
	ErrInvalidIdentity = errors.New("identity requires an account id or a session id")
)
