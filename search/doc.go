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

// Package search provides semantic search over ingested items.
//
// A query is embedded with the same model used at ingestion time and
// matched against each item's representative vector. Items that also
// carry every query word verbatim (after stop-word filtering) get a
// fixed score boost, so exact-phrase saves rank above loosely related
// ones.
package search
