package badger

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/searchgate/core"
	"github.com/poiesic/searchgate/storage"
)

// QueryRepository implements storage.QueryRepository for BadgerDB.
type QueryRepository struct {
	backend *Backend
}

var _ storage.QueryRepository = (*QueryRepository)(nil)

// NewQueryRepository creates a new QueryRepository.
func NewQueryRepository(backend *Backend) (*QueryRepository, error) {
	if backend == nil {
		return nil, ErrBackendRequired
	}
	return &QueryRepository{backend: backend}, nil
}

// Close releases repository resources.
func (r *QueryRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *QueryRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// RecordQuery persists one received query.
func (r *QueryRepository) RecordQuery(ctx context.Context, record *core.QueryRecord) (*core.QueryRecord, error) {
	if record.ReceivedAt.IsZero() {
		record.ReceivedAt = time.Now().UTC()
	}
	if err := core.ValidateQueryRecord(record); err != nil {
		return nil, err
	}
	record.Id = core.IDFromContent(record.CorrelationID)

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeQueryRecordKey(record.Id)
		if err := tx.Set(key, storage.MarshalQueryRecord(record)); err != nil {
			return err
		}

		dateKey := makeQueryDateKey(record.ReceivedAt, record.Id)
		if err := tx.Set(dateKey, storage.MarshalID(record.Id)); err != nil {
			return err
		}

		return tx.Commit()
	}, true)

	return record, err
}

// GetQuery retrieves a query record by ID.
func (r *QueryRepository) GetQuery(ctx context.Context, id core.ID) (*core.QueryRecord, error) {
	var result *core.QueryRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeQueryRecordKey(id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var err error
			result, err = storage.UnmarshalQueryRecord(val)
			return err
		})
	}, false)
	return result, err
}

// GetQueriesByDateRange retrieves query records where start <= ReceivedAt < end,
// ordered by time ascending.
func (r *QueryRepository) GetQueriesByDateRange(ctx context.Context, start, end time.Time) ([]*core.QueryRecord, error) {
	var results []*core.QueryRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(queryDatePrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		startKey := makePartialQueryDateKey(start)
		endKey := makePartialQueryDateKey(end)

		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			// Stop once past the end of the range; the timestamp segment is
			// BigEndian so byte order matches time order.
			if compareDateKeys(key, endKey) >= 0 {
				break
			}

			var id core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				id, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			record, err := r.readQueryRecord(tx, id)
			if err != nil {
				return err
			}
			if record != nil {
				results = append(results, record)
			}
		}
		return nil
	}, false)
	return results, err
}

// GetRecentQueries retrieves up to limit query records, most recent first.
func (r *QueryRepository) GetRecentQueries(ctx context.Context, limit int) ([]*core.QueryRecord, error) {
	var results []*core.QueryRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(queryDatePrefix + ":")
		opts.Reverse = true
		iter := tx.NewIterator(opts)
		defer iter.Close()

		// Seek to the highest possible key within the prefix.
		seekKey := append([]byte(queryDatePrefix+":"), 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff)

		for iter.Seek(seekKey); iter.Valid() && len(results) < limit; iter.Next() {
			var id core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				id, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			record, err := r.readQueryRecord(tx, id)
			if err != nil {
				return err
			}
			if record != nil {
				results = append(results, record)
			}
		}
		return nil
	}, false)
	return results, err
}

// readQueryRecord reads a query record by ID.
// Returns nil without error if the record doesn't exist.
func (r *QueryRepository) readQueryRecord(tx *badger.Txn, id core.ID) (*core.QueryRecord, error) {
	item, err := tx.Get(makeQueryRecordKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var record *core.QueryRecord
	err = item.Value(func(val []byte) error {
		var err error
		record, err = storage.UnmarshalQueryRecord(val)
		return err
	})
	return record, err
}

// compareDateKeys compares two date index keys byte-wise up to the shorter
// length, mirroring badger's lexicographic ordering.
func compareDateKeys(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}
