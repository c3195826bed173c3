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

// Package provider implements the content board API client.
//
// The board exposes a channel endpoint, a paginated contents endpoint,
// and a per-block detail endpoint. The detail endpoint is the only one
// that reliably carries a block's canonical source URL, so the client
// enriches list results with batched detail fetches. All rate limiting
// lives here: fixed inter-page delays, staggered starts inside a
// detail batch, and a cool-down between batches.
//
// Response-shape quirks (the source URL appearing in two different
// locations) are normalized in this package; downstream code sees one
// canonical Item shape.
package provider
