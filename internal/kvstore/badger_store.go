package kvstore

import (
	"encoding/binary"
	"encoding/json"
	"errors"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/dreamware/vecdb/internal/vectortypes"
)

// Badger key layout: a one-byte namespace prefix keeps vectors, database
// metadata, and (via ScanRange's iteration) ordering all distinguishable
// within Badger's single flat keyspace.
const (
	vectorPrefix   = 'v'
	databasePrefix = 'd'
)

// BadgerStore is a KeyValueStorage backed by an embedded Badger database,
// the durable backend a storage node runs in production.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadgerStore opens (creating if necessary) a Badger database at dir.
func OpenBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerStore{db: db}, nil
}

func vectorKey(databaseID string, id int64) []byte {
	key := make([]byte, 0, 1+len(databaseID)+1+8)
	key = append(key, vectorPrefix)
	key = append(key, databaseID...)
	key = append(key, 0)
	var idBuf [8]byte
	// Big-endian with the sign bit flipped so lexicographic == numeric order,
	// negative ids included.
	binary.BigEndian.PutUint64(idBuf[:], uint64(id)^(1<<63))
	return append(key, idBuf[:]...)
}

func vectorPrefixKey(databaseID string) []byte {
	key := make([]byte, 0, 1+len(databaseID)+1)
	key = append(key, vectorPrefix)
	key = append(key, databaseID...)
	return append(key, 0)
}

func databaseKey(id string) []byte {
	key := make([]byte, 0, 1+len(id))
	key = append(key, databasePrefix)
	return append(key, id...)
}

// PutVector implements KeyValueStorage.
func (b *BadgerStore) PutVector(databaseID string, entry vectortypes.VectorEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(vectorKey(databaseID, entry.ID), data)
	})
}

// GetVector implements KeyValueStorage.
func (b *BadgerStore) GetVector(databaseID string, id int64) (vectortypes.VectorEntry, bool, error) {
	var entry vectortypes.VectorEntry
	found := false
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(vectorKey(databaseID, id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	return entry, found, err
}

// DeleteVector implements KeyValueStorage.
func (b *BadgerStore) DeleteVector(databaseID string, id int64) (bool, error) {
	_, found, err := b.GetVector(databaseID, id)
	if err != nil || !found {
		return false, err
	}
	err = b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(vectorKey(databaseID, id))
	})
	return err == nil, err
}

// GetAllVectors implements KeyValueStorage.
func (b *BadgerStore) GetAllVectors(databaseID string) ([]vectortypes.VectorEntry, error) {
	var out []vectortypes.VectorEntry
	prefix := vectorPrefixKey(databaseID)
	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var entry vectortypes.VectorEntry
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			}); err != nil {
				return err
			}
			out = append(out, entry)
		}
		return nil
	})
	return out, err
}

// ScanRange implements KeyValueStorage. Badger's iterator naturally walks
// keys in the big-endian-id order vectorKey produces, so the range
// (fromID, toID] maps directly onto a prefix-bounded forward scan.
func (b *BadgerStore) ScanRange(databaseID string, fromID, toID int64, limit int) ([]vectortypes.VectorEntry, error) {
	var out []vectortypes.VectorEntry
	prefix := vectorPrefixKey(databaseID)
	startKey := vectorKey(databaseID, fromID)

	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(startKey); it.ValidForPrefix(prefix); it.Next() {
			var entry vectortypes.VectorEntry
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			}); err != nil {
				return err
			}
			if entry.ID <= fromID {
				continue
			}
			if entry.ID > toID {
				break
			}
			out = append(out, entry)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
		return nil
	})
	return out, err
}

// PutDatabaseInfo implements KeyValueStorage.
func (b *BadgerStore) PutDatabaseInfo(info vectortypes.DatabaseInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(databaseKey(info.ID), data)
	})
}

// GetDatabaseInfo implements KeyValueStorage.
func (b *BadgerStore) GetDatabaseInfo(id string) (vectortypes.DatabaseInfo, bool, error) {
	var info vectortypes.DatabaseInfo
	found := false
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(databaseKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &info)
		})
	})
	return info, found, err
}

// DeleteDatabaseInfo implements KeyValueStorage.
func (b *BadgerStore) DeleteDatabaseInfo(id string) (bool, error) {
	_, found, err := b.GetDatabaseInfo(id)
	if err != nil || !found {
		return false, err
	}
	err = b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(databaseKey(id))
	})
	return err == nil, err
}

// GetAllDatabases implements KeyValueStorage.
func (b *BadgerStore) GetAllDatabases() ([]vectortypes.DatabaseInfo, error) {
	var out []vectortypes.DatabaseInfo
	prefix := []byte{databasePrefix}
	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var info vectortypes.DatabaseInfo
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &info)
			}); err != nil {
				return err
			}
			out = append(out, info)
		}
		return nil
	})
	return out, err
}

// Close implements KeyValueStorage.
func (b *BadgerStore) Close() error {
	return b.db.Close()
}
