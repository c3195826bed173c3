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

package quota

import "errors"

var (
	// ErrUsageRepositoryRequired indicates the engine was constructed
	// without a usage repository.
	ErrUsageRepositoryRequired = errors.New("usage repository is required")

	// ErrInvalidCount indicates a non-positive count was passed where
	// a positive one is required.
	ErrInvalidCount = errors.New("count must be positive")
)
