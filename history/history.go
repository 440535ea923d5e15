// Package history records completed dictations.
//
// Recordings are stored as JSON values in a badger database. When a
// recording carries an audio artifact, the artifact is copied into the
// store's audio directory so it survives the session's temp-file cleanup.
package history

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/whispermate/whispermate/internal/types"
)

const keyPrefix = "recording/"

// Store persists completed recordings. Safe for concurrent use.
type Store struct {
	db       *badger.DB
	audioDir string
}

// Open opens (or creates) a history store rooted at dir.
func Open(dir string) (*Store, error) {
	audioDir := filepath.Join(dir, "audio")
	if err := os.MkdirAll(audioDir, 0755); err != nil {
		return nil, fmt.Errorf("create audio dir: %w", err)
	}

	opts := badger.DefaultOptions(filepath.Join(dir, "db")).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	return &Store{db: db, audioDir: audioDir}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Add stores a recording. A missing id or timestamp is filled in. When
// AudioFilePath points at a session artifact, the file is copied into the
// store and the returned recording references the copy.
func (s *Store) Add(rec types.Recording) (types.Recording, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}

	if rec.AudioFilePath != "" {
		kept := filepath.Join(s.audioDir, rec.ID+".wav")
		if err := copyFile(rec.AudioFilePath, kept); err != nil {
			return types.Recording{}, fmt.Errorf("retain audio artifact: %w", err)
		}
		rec.AudioFilePath = kept
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return types.Recording{}, fmt.Errorf("marshal recording: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPrefix+rec.ID), data)
	})
	if err != nil {
		return types.Recording{}, fmt.Errorf("store recording: %w", err)
	}
	return rec, nil
}

// List returns all recordings, most recent first.
func (s *Store) List() ([]types.Recording, error) {
	var out []types.Recording

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var rec types.Recording
				if err := json.Unmarshal(val, &rec); err != nil {
					return fmt.Errorf("unmarshal recording: %w", err)
				}
				out = append(out, rec)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(out, func(a, b types.Recording) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	return out, nil
}

// Delete removes a recording and its retained audio, if any.
func (s *Store) Delete(id string) error {
	var audioPath string

	err := s.db.Update(func(txn *badger.Txn) error {
		key := []byte(keyPrefix + id)

		item, err := txn.Get(key)
		if err != nil {
			return fmt.Errorf("recording not found: %s", id)
		}
		err = item.Value(func(val []byte) error {
			var rec types.Recording
			if err := json.Unmarshal(val, &rec); err != nil {
				return err
			}
			audioPath = rec.AudioFilePath
			return nil
		})
		if err != nil {
			return err
		}

		return txn.Delete(key)
	})
	if err != nil {
		return err
	}

	if audioPath != "" {
		if err := os.Remove(audioPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove retained audio: %w", err)
		}
	}
	return nil
}

// ClearAll removes every recording and all retained audio.
func (s *Store) ClearAll() error {
	if err := s.db.DropAll(); err != nil {
		return fmt.Errorf("drop recordings: %w", err)
	}

	entries, err := os.ReadDir(s.audioDir)
	if err != nil {
		return fmt.Errorf("read audio dir: %w", err)
	}
	for _, e := range entries {
		if err := os.Remove(filepath.Join(s.audioDir, e.Name())); err != nil {
			return fmt.Errorf("remove retained audio: %w", err)
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
