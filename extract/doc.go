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

// Package extract turns heterogeneous content items into normalized
// text.
//
// Each content type gets its own strategy: documents and attachments
// go through an article reader service with degraded fallbacks, videos
// combine metadata, page-scrape, and caption-track sources, images go
// through a vision model, and text items pass through. Fallback chains
// are ordered Strategy slices tried in sequence, so each chain is
// plain data that tests can exercise step by step.
//
// Failure semantics differ by type: a document whose whole chain fails
// is skipped, a video always degrades to at least a title line, and an
// image falls back to its own title and description.
package extract
