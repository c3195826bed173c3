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

// Package quota meters ingestion volume per identity and tier.
//
// The free tier carries two overlapping caps, a lifetime total and a
// legacy per-collection cap; paid tiers carry a calendar-month ceiling.
// All dimensions share the partial-allow policy: a request bigger than
// the remaining budget is down-scoped to the remainder rather than
// rejected, and only an exhausted budget rejects outright, always with
// a message naming the numbers.
//
// Checking and recording are deliberately separate operations.
// CheckUsageLimit is side-effect-free so the presentation layer can
// call it for previews; RecordUsage runs once per sync with the count
// of items actually stored. The check-then-record pair is not atomic,
// so two concurrent syncs for one identity can race past a nearly
// exhausted budget; enforcement is best-effort, not linearizable.
package quota
