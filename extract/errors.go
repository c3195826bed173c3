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

package extract

import "errors"

var (
	// ErrExtractionFailed indicates every strategy in an item's
	// fallback chain failed. The item is skipped, not stored.
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrEmptyContent indicates a text item carried no usable content.
	ErrEmptyContent = errors.New("empty content")

	// ErrNoSourceURL indicates an item that requires a source URL to
	// extract from has none.
	ErrNoSourceURL = errors.New("no source URL")

	// ErrContentTooShort indicates extracted text fell below the
	// usefulness threshold and was discarded.
	ErrContentTooShort = errors.New("content too short")
)
