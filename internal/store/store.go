// Package store persists completed download artifacts, so returning to a
// video whose download already finished restores the control straight to
// completed. In-flight requests are deliberately not persisted.
package store

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/tubetap/tubetap/internal/control"
)

// Artifact is one completed download.
type Artifact struct {
	VideoID string       `json:"videoId"`
	Kind    control.Kind `json:"kind"`
	URL     string       `json:"url"`
	Title   string       `json:"title,omitempty"`
	SavedAt time.Time    `json:"savedAt"`
}

// Store is the artifact persistence interface.
type Store interface {
	Artifact(videoID string, kind control.Kind) (Artifact, bool, error)
	SaveArtifact(Artifact) error
	Close() error
}

// NilStore disables persistence.
type NilStore struct{}

func (NilStore) Artifact(string, control.Kind) (Artifact, bool, error) { return Artifact{}, false, nil }
func (NilStore) SaveArtifact(Artifact) error                          { return nil }
func (NilStore) Close() error                                         { return nil }

var buckets = struct {
	Metadata  []byte
	Artifacts []byte
}{
	Metadata:  []byte("__metadata__"),
	Artifacts: []byte("artifacts"),
}

var metadataKeys = struct {
	Version []byte
}{
	Version: []byte("version"),
}

const currentVersion = 1

type boltStore struct {
	db *bbolt.DB
}

// Open creates or opens a bolt-backed artifact store at path.
func Open(path string) (Store, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open artifact store: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		metadata, err := tx.CreateBucketIfNotExists(buckets.Metadata)
		if err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists(buckets.Artifacts); err != nil {
			return err
		}
		versionBytes, err := json.Marshal(currentVersion)
		if err != nil {
			return err
		}
		return metadata.Put(metadataKeys.Version, versionBytes)
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize artifact store: %w", err)
	}
	return &boltStore{db: db}, nil
}

func key(videoID string, kind control.Kind) []byte {
	return []byte(videoID + "/" + string(kind))
}

func (s *boltStore) Artifact(videoID string, kind control.Kind) (artifact Artifact, found bool, err error) {
	err = s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(buckets.Artifacts).Get(key(videoID, kind))
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &artifact); err != nil {
			return err
		}
		found = true
		return nil
	})
	return artifact, found, err
}

func (s *boltStore) SaveArtifact(artifact Artifact) error {
	data, err := json.Marshal(artifact)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(buckets.Artifacts).Put(key(artifact.VideoID, artifact.Kind), data)
	})
}

func (s *boltStore) Close() error {
	return s.db.Close()
}
