// Package badger implements the storage interfaces on BadgerDB.
//
// Documents and query records are stored under distinct key prefixes with
// MUS-encoded values. Query records additionally maintain a BigEndian
// timestamp index so date-range and most-recent scans map onto badger's
// lexicographic key order. Vector search is a full scan over the document
// keyspace; the corpus sizes this gateway serves keep that acceptable.
package badger
