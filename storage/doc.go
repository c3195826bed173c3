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


// Package storage provides the storage abstraction layer for boardvec.
//
// This package defines repository interfaces that decouple storage
// implementation from the ingestion pipeline and quota engine. It allows
// different storage backends (BadgerDB, in-memory, etc.) to be used
// interchangeably.
//
// # Constructor Return Type Pattern
//
// This package follows a strict "return interface" pattern for all public
// constructors to enforce abstraction and enable multiple storage backend
// implementations:
//
//	repo, err := badger.NewItemRepository(backend)  // returns storage.ItemRepository
//
// # Ownership
//
// Collection and Item records are owned by the pipeline, which only ever
// upserts, never deletes. Usage, monthly-usage, and channel-limits
// records are owned exclusively by the quota engine.
//
// # Serialization
//
// Records are serialized with the MUS binary format. Field order in the
// serializers is the wire format; it must not be reordered once data has
// been written.
package storage
