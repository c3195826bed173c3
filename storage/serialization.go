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


package storage

import (
	"time"

	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/boardvec/core"
)

// Serialization for stored records, built on the MUS format primitives.
// Field order is the wire format; changing it breaks existing databases.

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, varint.Uint64.Size(uint64(id)))
	varint.Uint64.Marshal(uint64(id), buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	v, _, err := varint.Uint64.Unmarshal(data)
	return core.ID(v), err
}

// MarshalExternalID serializes a provider external identifier to bytes.
// Used as the value of index entries.
func MarshalExternalID(externalID int64) []byte {
	buf := make([]byte, varint.Int64.Size(externalID))
	varint.Int64.Marshal(externalID, buf)
	return buf
}

// UnmarshalExternalID deserializes a provider external identifier.
func UnmarshalExternalID(data []byte) (int64, error) {
	v, _, err := varint.Int64.Unmarshal(data)
	return v, err
}

// MarshalCollection serializes a Collection to bytes.
func MarshalCollection(collection *core.Collection) []byte {
	size := varint.Int64.Size(collection.ExternalID) +
		sizeString(collection.Title) +
		sizeString(collection.Slug) +
		sizeString(collection.AccountID) +
		sizeTime(collection.LastSynced) +
		sizeTime(collection.InsertedAt) +
		sizeTime(collection.UpdatedAt)
	buf := make([]byte, size)
	n := varint.Int64.Marshal(collection.ExternalID, buf)
	n += marshalString(collection.Title, buf[n:])
	n += marshalString(collection.Slug, buf[n:])
	n += marshalString(collection.AccountID, buf[n:])
	n += marshalTime(collection.LastSynced, buf[n:])
	n += marshalTime(collection.InsertedAt, buf[n:])
	marshalTime(collection.UpdatedAt, buf[n:])
	return buf
}

// UnmarshalCollection deserializes a Collection from bytes.
func UnmarshalCollection(data []byte) (*core.Collection, error) {
	var (
		collection core.Collection
		n, total   int
		err        error
	)
	if collection.ExternalID, n, err = varint.Int64.Unmarshal(data); err != nil {
		return nil, err
	}
	total = n
	if collection.Title, n, err = unmarshalString(data[total:]); err != nil {
		return nil, err
	}
	total += n
	if collection.Slug, n, err = unmarshalString(data[total:]); err != nil {
		return nil, err
	}
	total += n
	if collection.AccountID, n, err = unmarshalString(data[total:]); err != nil {
		return nil, err
	}
	total += n
	if collection.LastSynced, n, err = unmarshalTime(data[total:]); err != nil {
		return nil, err
	}
	total += n
	if collection.InsertedAt, n, err = unmarshalTime(data[total:]); err != nil {
		return nil, err
	}
	total += n
	if collection.UpdatedAt, _, err = unmarshalTime(data[total:]); err != nil {
		return nil, err
	}
	return &collection, nil
}

// MarshalItem serializes an Item to bytes.
func MarshalItem(item *core.Item) []byte {
	size := varint.Int64.Size(item.ExternalID) +
		varint.Uint64.Size(uint64(item.CollectionID)) +
		sizeString(item.Title) +
		sizeString(item.Description) +
		sizeString(item.Content) +
		sizeString(item.SourceURL) +
		sizeString(item.ImageURL) +
		varint.Int.Size(int(item.Type)) +
		sizeVector(item.Vector) +
		sizeTime(item.InsertedAt) +
		sizeTime(item.UpdatedAt)
	buf := make([]byte, size)
	n := varint.Int64.Marshal(item.ExternalID, buf)
	n += varint.Uint64.Marshal(uint64(item.CollectionID), buf[n:])
	n += marshalString(item.Title, buf[n:])
	n += marshalString(item.Description, buf[n:])
	n += marshalString(item.Content, buf[n:])
	n += marshalString(item.SourceURL, buf[n:])
	n += marshalString(item.ImageURL, buf[n:])
	n += varint.Int.Marshal(int(item.Type), buf[n:])
	n += marshalVector(item.Vector, buf[n:])
	n += marshalTime(item.InsertedAt, buf[n:])
	marshalTime(item.UpdatedAt, buf[n:])
	return buf
}

// UnmarshalItem deserializes an Item from bytes.
func UnmarshalItem(data []byte) (*core.Item, error) {
	var (
		item     core.Item
		n, total int
		err      error
	)
	if item.ExternalID, n, err = varint.Int64.Unmarshal(data); err != nil {
		return nil, err
	}
	total = n
	collectionID, n, err := varint.Uint64.Unmarshal(data[total:])
	if err != nil {
		return nil, err
	}
	item.CollectionID = core.ID(collectionID)
	total += n
	if item.Title, n, err = unmarshalString(data[total:]); err != nil {
		return nil, err
	}
	total += n
	if item.Description, n, err = unmarshalString(data[total:]); err != nil {
		return nil, err
	}
	total += n
	if item.Content, n, err = unmarshalString(data[total:]); err != nil {
		return nil, err
	}
	total += n
	if item.SourceURL, n, err = unmarshalString(data[total:]); err != nil {
		return nil, err
	}
	total += n
	if item.ImageURL, n, err = unmarshalString(data[total:]); err != nil {
		return nil, err
	}
	total += n
	contentType, n, err := varint.Int.Unmarshal(data[total:])
	if err != nil {
		return nil, err
	}
	item.Type = core.ContentType(contentType)
	total += n
	if item.Vector, n, err = unmarshalVector(data[total:]); err != nil {
		return nil, err
	}
	total += n
	if item.InsertedAt, n, err = unmarshalTime(data[total:]); err != nil {
		return nil, err
	}
	total += n
	if item.UpdatedAt, _, err = unmarshalTime(data[total:]); err != nil {
		return nil, err
	}
	return &item, nil
}

// MarshalUsageRecord serializes a UsageRecord to bytes.
func MarshalUsageRecord(record *core.UsageRecord) []byte {
	size := sizeString(record.IdentityKey) +
		varint.Uint64.Size(uint64(record.CollectionID)) +
		varint.Int.Size(record.ItemsProcessed) +
		1 + // free-tier flag
		sizeTime(record.FirstProcessed) +
		sizeTime(record.LastProcessed)
	buf := make([]byte, size)
	n := marshalString(record.IdentityKey, buf)
	n += varint.Uint64.Marshal(uint64(record.CollectionID), buf[n:])
	n += varint.Int.Marshal(record.ItemsProcessed, buf[n:])
	n += marshalBool(record.FreeTier, buf[n:])
	n += marshalTime(record.FirstProcessed, buf[n:])
	marshalTime(record.LastProcessed, buf[n:])
	return buf
}

// UnmarshalUsageRecord deserializes a UsageRecord from bytes.
func UnmarshalUsageRecord(data []byte) (*core.UsageRecord, error) {
	var (
		record   core.UsageRecord
		n, total int
		err      error
	)
	if record.IdentityKey, n, err = unmarshalString(data); err != nil {
		return nil, err
	}
	total = n
	collectionID, n, err := varint.Uint64.Unmarshal(data[total:])
	if err != nil {
		return nil, err
	}
	record.CollectionID = core.ID(collectionID)
	total += n
	if record.ItemsProcessed, n, err = varint.Int.Unmarshal(data[total:]); err != nil {
		return nil, err
	}
	total += n
	if record.FreeTier, n, err = unmarshalBool(data[total:]); err != nil {
		return nil, err
	}
	total += n
	if record.FirstProcessed, n, err = unmarshalTime(data[total:]); err != nil {
		return nil, err
	}
	total += n
	if record.LastProcessed, _, err = unmarshalTime(data[total:]); err != nil {
		return nil, err
	}
	return &record, nil
}

// MarshalMonthlyUsage serializes a MonthlyUsage to bytes.
func MarshalMonthlyUsage(usage *core.MonthlyUsage) []byte {
	size := sizeString(usage.IdentityKey) +
		sizeString(usage.Month) +
		varint.Int.Size(usage.ItemsProcessed) +
		varint.Int.Size(int(usage.Tier)) +
		varint.Int.Size(usage.Limit) +
		sizeTime(usage.UpdatedAt)
	buf := make([]byte, size)
	n := marshalString(usage.IdentityKey, buf)
	n += marshalString(usage.Month, buf[n:])
	n += varint.Int.Marshal(usage.ItemsProcessed, buf[n:])
	n += varint.Int.Marshal(int(usage.Tier), buf[n:])
	n += varint.Int.Marshal(usage.Limit, buf[n:])
	marshalTime(usage.UpdatedAt, buf[n:])
	return buf
}

// UnmarshalMonthlyUsage deserializes a MonthlyUsage from bytes.
func UnmarshalMonthlyUsage(data []byte) (*core.MonthlyUsage, error) {
	var (
		usage    core.MonthlyUsage
		n, total int
		err      error
	)
	if usage.IdentityKey, n, err = unmarshalString(data); err != nil {
		return nil, err
	}
	total = n
	if usage.Month, n, err = unmarshalString(data[total:]); err != nil {
		return nil, err
	}
	total += n
	if usage.ItemsProcessed, n, err = varint.Int.Unmarshal(data[total:]); err != nil {
		return nil, err
	}
	total += n
	tier, n, err := varint.Int.Unmarshal(data[total:])
	if err != nil {
		return nil, err
	}
	usage.Tier = core.Tier(tier)
	total += n
	if usage.Limit, n, err = varint.Int.Unmarshal(data[total:]); err != nil {
		return nil, err
	}
	total += n
	if usage.UpdatedAt, _, err = unmarshalTime(data[total:]); err != nil {
		return nil, err
	}
	return &usage, nil
}

// MarshalChannelLimits serializes a ChannelLimits to bytes.
func MarshalChannelLimits(limits *core.ChannelLimits) []byte {
	size := sizeString(limits.IdentityKey) +
		varint.Uint64.Size(uint64(limits.CollectionID)) +
		sizeString(limits.Month) +
		varint.Int.Size(limits.ChatUsed) +
		varint.Int.Size(limits.ChatLimit) +
		varint.Int.Size(limits.GenerationUsed) +
		varint.Int.Size(limits.GenerationLimit) +
		sizeTime(limits.UpdatedAt)
	buf := make([]byte, size)
	n := marshalString(limits.IdentityKey, buf)
	n += varint.Uint64.Marshal(uint64(limits.CollectionID), buf[n:])
	n += marshalString(limits.Month, buf[n:])
	n += varint.Int.Marshal(limits.ChatUsed, buf[n:])
	n += varint.Int.Marshal(limits.ChatLimit, buf[n:])
	n += varint.Int.Marshal(limits.GenerationUsed, buf[n:])
	n += varint.Int.Marshal(limits.GenerationLimit, buf[n:])
	marshalTime(limits.UpdatedAt, buf[n:])
	return buf
}

// UnmarshalChannelLimits deserializes a ChannelLimits from bytes.
func UnmarshalChannelLimits(data []byte) (*core.ChannelLimits, error) {
	var (
		limits   core.ChannelLimits
		n, total int
		err      error
	)
	if limits.IdentityKey, n, err = unmarshalString(data); err != nil {
		return nil, err
	}
	total = n
	collectionID, n, err := varint.Uint64.Unmarshal(data[total:])
	if err != nil {
		return nil, err
	}
	limits.CollectionID = core.ID(collectionID)
	total += n
	if limits.Month, n, err = unmarshalString(data[total:]); err != nil {
		return nil, err
	}
	total += n
	if limits.ChatUsed, n, err = varint.Int.Unmarshal(data[total:]); err != nil {
		return nil, err
	}
	total += n
	if limits.ChatLimit, n, err = varint.Int.Unmarshal(data[total:]); err != nil {
		return nil, err
	}
	total += n
	if limits.GenerationUsed, n, err = varint.Int.Unmarshal(data[total:]); err != nil {
		return nil, err
	}
	total += n
	if limits.GenerationLimit, n, err = varint.Int.Unmarshal(data[total:]); err != nil {
		return nil, err
	}
	total += n
	if limits.UpdatedAt, _, err = unmarshalTime(data[total:]); err != nil {
		return nil, err
	}
	return &limits, nil
}

// field-level helpers

func sizeString(v string) int {
	return varint.Int.Size(len(v)) + len(v)
}

func marshalString(v string, bs []byte) int {
	n := varint.Int.Marshal(len(v), bs)
	return n + copy(bs[n:], v)
}

func unmarshalString(bs []byte) (string, int, error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return "", n, err
	}
	if length < 0 || len(bs)-n < length {
		return "", n, ErrTruncatedData
	}
	return string(bs[n : n+length]), n + length, nil
}

func sizeVector(v []float32) int {
	size := varint.Int.Size(len(v))
	for _, f := range v {
		size += raw.Float32.Size(f)
	}
	return size
}

func marshalVector(v []float32, bs []byte) int {
	n := varint.Int.Marshal(len(v), bs)
	for _, f := range v {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	return n
}

func unmarshalVector(bs []byte) ([]float32, int, error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if length < 0 {
		return nil, n, ErrTruncatedData
	}
	if length == 0 {
		return nil, n, nil
	}
	vector := make([]float32, length)
	for i := range vector {
		f, m, err := raw.Float32.Unmarshal(bs[n:])
		if err != nil {
			return nil, n, err
		}
		vector[i] = f
		n += m
	}
	return vector, n, nil
}

func marshalBool(v bool, bs []byte) int {
	if v {
		bs[0] = 1
	} else {
		bs[0] = 0
	}
	return 1
}

func unmarshalBool(bs []byte) (bool, int, error) {
	if len(bs) < 1 {
		return false, 0, ErrTruncatedData
	}
	return bs[0] == 1, 1, nil
}

// Timestamps are stored as Unix microseconds. The zero time is stored
// as 0 and round-trips back to the zero time.

func sizeTime(t time.Time) int {
	return varint.Int64.Size(timeToMicro(t))
}

func marshalTime(t time.Time, bs []byte) int {
	return varint.Int64.Marshal(timeToMicro(t), bs)
}

func unmarshalTime(bs []byte) (time.Time, int, error) {
	micro, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	if micro == 0 {
		return time.Time{}, n, nil
	}
	return time.UnixMicro(micro).UTC(), n, nil
}

func timeToMicro(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}
