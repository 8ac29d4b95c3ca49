package badger

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/poiesic/searchgate/core"
)

// Key prefixes for different data types
const (
	documentPrefix    = "docrec"
	documentURLPrefix = "docrecu"
	queryRecordPrefix = "qryrec"
	queryDatePrefix   = "qryrecd"
)

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", documentPrefix, id))
}

// makeDocumentURLKey generates a key for the URL index.
// Format: prefix:url
func makeDocumentURLKey(url string) []byte {
	prefix := documentURLPrefix + ":"
	buf := make([]byte, len(prefix)+len(url))
	offset := copy(buf, []byte(prefix))
	copy(buf[offset:], []byte(url))
	return buf
}

// makeQueryRecordKey generates a key for a query record by ID.
func makeQueryRecordKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", queryRecordPrefix, id))
}

// makeQueryDateKey generates a composite key for the date index.
// Format: prefix:timestamp:id
func makeQueryDateKey(timestamp time.Time, id core.ID) []byte {
	prefix := queryDatePrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 16 // 8 bytes for timestamp + 8 bytes for ID
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialQueryDateKey generates a partial key for date range queries.
// Format: prefix:timestamp
func makePartialQueryDateKey(timestamp time.Time) []byte {
	prefix := queryDatePrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 8 // 8 bytes for timestamp
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	return buf
}
