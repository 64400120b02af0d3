package store

import (
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"
)

// CurrentSchemaVersion is the current schema version.
// Increment this when making breaking changes to the storage format.
const CurrentSchemaVersion = 1

var keySchema = []byte("schema")

// SchemaInfo records which format and embedding model produced the stored vectors.
type SchemaInfo struct {
	Version        int    `json:"version"`
	EmbeddingModel string `json:"embedding_model"`
}

// GetSchemaInfo returns the stored schema info; a fresh store yields the zero value.
func (s *BoltVectorStore) GetSchemaInfo() (SchemaInfo, error) {
	var info SchemaInfo
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketMeta).Get(keySchema)
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &info)
	})
	return info, err
}

func (s *BoltVectorStore) setSchemaInfo(info SchemaInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketMeta).Put(keySchema, data)
	})
}

// EnsureSchema stamps a fresh store with the current version and model, and
// rejects a store written by a newer version or a different embedding model.
// Vectors from different models live in different spaces and cannot be compared.
func (s *BoltVectorStore) EnsureSchema(embeddingModel string) error {
	info, err := s.GetSchemaInfo()
	if err != nil {
		return fmt.Errorf("failed to get schema info: %w", err)
	}

	switch {
	case info.Version == 0:
		return s.setSchemaInfo(SchemaInfo{Version: CurrentSchemaVersion, EmbeddingModel: embeddingModel})
	case info.Version > CurrentSchemaVersion:
		return fmt.Errorf("store created by newer version (v%d > v%d)", info.Version, CurrentSchemaVersion)
	case info.EmbeddingModel != embeddingModel:
		return fmt.Errorf("store was built with embedding model %q, configured model is %q; re-ingest with --reset",
			info.EmbeddingModel, embeddingModel)
	}
	return nil
}
