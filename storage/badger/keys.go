package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/poiesic/boardvec/core"
)

// Key prefixes for different data types
const (
	collectionRecordPrefix = "colrec"
	itemRecordPrefix       = "itmrec"
	itemCollectionPrefix   = "itmcol"
	usageRecordPrefix      = "usgrec"
	monthlyUsagePrefix     = "usgmon"
	channelLimitsPrefix    = "usgchn"
)

// makeCollectionKey generates a key for a collection by storage ID.
func makeCollectionKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", collectionRecordPrefix, id))
}

// makeItemKey generates a key for an item by storage ID.
func makeItemKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", itemRecordPrefix, id))
}

// makeItemCollectionKey generates a composite key for the
// collection-membership index.
// Format: prefix:collectionID:itemID
func makeItemCollectionKey(collectionID, itemID core.ID) []byte {
	prefix := itemCollectionPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 16 // 8 bytes for collectionID + 8 bytes for itemID
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(collectionID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(itemID))
	return buf
}

// makePartialItemCollectionKey generates a partial key for iterating one
// collection's membership index.
// Format: prefix:collectionID
func makePartialItemCollectionKey(collectionID core.ID) []byte {
	prefix := itemCollectionPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 8 // 8 bytes for collectionID
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(collectionID))
	return buf
}

// makeUsageKey generates a key for one (identity, collection) usage record.
// Identity keys are stored verbatim; they may themselves contain colons.
func makeUsageKey(identityKey string, collectionID core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%s:%d", usageRecordPrefix, identityKey, collectionID))
}

// makePartialUsageKey generates a prefix covering all usage records whose
// identity key starts with identityPrefix.
func makePartialUsageKey(identityPrefix string) []byte {
	return []byte(usageRecordPrefix + ":" + identityPrefix)
}

// makeMonthlyUsageKey generates a key for one (identity, month) record.
func makeMonthlyUsageKey(identityKey, month string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", monthlyUsagePrefix, identityKey, month))
}

// makeChannelLimitsKey generates a key for one
// (identity, collection, month) chat/generation counter record.
func makeChannelLimitsKey(identityKey string, collectionID core.ID, month string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%d:%s", channelLimitsPrefix, identityKey, collectionID, month))
}
