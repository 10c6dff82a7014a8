// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package journal

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// recordTable is the key prefix separating segment records from any future
// table sharing the same database.
const recordTable = byte('S')

type dbKey [5]byte

func newDbKey(index uint32) dbKey {
	var k dbKey
	k[0] = recordTable
	binary.BigEndian.PutUint32(k[1:], index)
	return k
}

// LevelDBStore is a Store keeping segment records in a LevelDB database,
// CBOR-encoded, keyed by segment index in ascending byte order.
type LevelDBStore struct {
	db *leveldb.DB
}

// OpenLevelDB opens (or creates) a segment store at the given path.
func OpenLevelDB(path string) (*LevelDBStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open segment journal; %w", err)
	}
	return &LevelDBStore{db: db}, nil
}

// Put persists a record, replacing any record with the same index.
func (s *LevelDBStore) Put(record Record) error {
	data, err := cbor.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode segment record %d; %w", record.Index, err)
	}
	key := newDbKey(record.Index)
	return s.db.Put(key[:], data, nil)
}

// Get provides the record of the given segment, or ErrNotFound.
func (s *LevelDBStore) Get(index uint32) (Record, error) {
	key := newDbKey(index)
	data, err := s.db.Get(key[:], nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return Record{}, fmt.Errorf("%w: segment %d", ErrNotFound, index)
	}
	if err != nil {
		return Record{}, fmt.Errorf("failed to read segment record %d; %w", index, err)
	}
	var record Record
	if err := cbor.Unmarshal(data, &record); err != nil {
		return Record{}, fmt.Errorf("failed to decode segment record %d; %w", index, err)
	}
	return record, nil
}

// Last provides the highest stored segment index.
func (s *LevelDBStore) Last() (uint32, bool, error) {
	iter := s.db.NewIterator(util.BytesPrefix([]byte{recordTable}), nil)
	defer iter.Release()
	if !iter.Last() {
		return 0, false, iter.Error()
	}
	key := iter.Key()
	if len(key) != len(dbKey{}) {
		return 0, false, fmt.Errorf("malformed journal key of length %d", len(key))
	}
	return binary.BigEndian.Uint32(key[1:]), true, iter.Error()
}

// Close releases the underlying database.
func (s *LevelDBStore) Close() error {
	return s.db.Close()
}
