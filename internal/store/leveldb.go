package store

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/df-mc/goleveldb/leveldb"
	"github.com/df-mc/goleveldb/leveldb/opt"
	"github.com/df-mc/goleveldb/leveldb/util"
)

const recordPrefix = "generation/"

// LevelDB persists gob-encoded records in a LevelDB database.
type LevelDB struct {
	db *leveldb.DB
}

// OpenLevelDB opens (or creates) the database at path.
func OpenLevelDB(path string) (*LevelDB, error) {
	if path == "" {
		return nil, fmt.Errorf("leveldb path is empty")
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open leveldb %s: %w", path, err)
	}
	return &LevelDB{db: db}, nil
}

func recordKey(id string) []byte {
	return []byte(recordPrefix + id)
}

func (s *LevelDB) Save(rec *Record) error {
	if err := assignID(rec); err != nil {
		return err
	}
	var payload bytes.Buffer
	if err := gob.NewEncoder(&payload).Encode(rec); err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if err := s.db.Put(recordKey(rec.ID), payload.Bytes(), &opt.WriteOptions{Sync: true}); err != nil {
		return fmt.Errorf("write record %s: %w", rec.ID, err)
	}
	return nil
}

func (s *LevelDB) Load(id string) (*Record, error) {
	data, err := s.db.Get(recordKey(id), nil)
	switch {
	case errors.Is(err, leveldb.ErrNotFound):
		return nil, ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("read record %s: %w", id, err)
	}
	return decodeRecord(data)
}

func decodeRecord(data []byte) (*Record, error) {
	var rec Record
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return &rec, nil
}

func (s *LevelDB) Delete(id string) error {
	if err := s.db.Delete(recordKey(id), nil); err != nil {
		return fmt.Errorf("delete record %s: %w", id, err)
	}
	return nil
}

func (s *LevelDB) ForEach(fn func(rec *Record) bool) error {
	iter := s.db.NewIterator(util.BytesPrefix([]byte(recordPrefix)), nil)
	var records []*Record
	for iter.Next() {
		rec, err := decodeRecord(iter.Value())
		if err != nil {
			log.Printf("leveldb store skip %s: %v", iter.Key(), err)
			continue
		}
		records = append(records, rec)
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return fmt.Errorf("iterate records: %w", err)
	}

	sortByCreation(records)
	for _, rec := range records {
		if !fn(rec) {
			break
		}
	}
	return nil
}

func (s *LevelDB) Close() error {
	return s.db.Close()
}
