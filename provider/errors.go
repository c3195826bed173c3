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

package provider

import "errors"

var (
	// ErrNotFound indicates the requested collection or item does not
	// exist on the content board.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates a private collection was requested
	// without valid credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUnavailable indicates the provider returned a transient
	// server-side failure.
	ErrUnavailable = errors.New("provider unavailable")

	// ErrEmptySlug indicates a request was made without a collection slug.
	ErrEmptySlug = errors.New("collection slug is required")
)
