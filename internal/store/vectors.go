package store

import (
	"encoding/binary"
	"fmt"
	"math"
)

// VectorEntry is one stored embedding.
type VectorEntry struct {
	NodeID    string
	Embedding []float32
	Model     string
}

// UpsertVector inserts or replaces a node's embedding.
func (s *Store) UpsertVector(nodeID string, embedding []float32, model string) error {
	_, err := s.q.Exec(`
		INSERT INTO vectors (node_id, embedding, dim, model)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(node_id) DO UPDATE SET
			embedding=excluded.embedding, dim=excluded.dim, model=excluded.model`,
		nodeID, encodeVector(embedding), len(embedding), model)
	if err != nil {
		return fmt.Errorf("upsert vector: %w", err)
	}
	return nil
}

// UpsertVectorBatch stores entries inside a single transaction.
func (s *Store) UpsertVectorBatch(entries []VectorEntry) error {
	return s.WithTransaction(func(tx *Store) error {
		for _, e := range entries {
			if err := tx.UpsertVector(e.NodeID, e.Embedding, e.Model); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteVector removes a node's embedding.
func (s *Store) DeleteVector(nodeID string) error {
	_, err := s.q.Exec("DELETE FROM vectors WHERE node_id=?", nodeID)
	return err
}

// AllVectors returns every stored embedding ordered by node ID.
func (s *Store) AllVectors() ([]VectorEntry, error) {
	rows, err := s.q.Query("SELECT node_id, embedding, dim, model FROM vectors ORDER BY node_id")
	if err != nil {
		return nil, fmt.Errorf("list vectors: %w", err)
	}
	defer rows.Close()

	var result []VectorEntry
	for rows.Next() {
		var e VectorEntry
		var blob []byte
		var dim int
		if err := rows.Scan(&e.NodeID, &blob, &dim, &e.Model); err != nil {
			return nil, err
		}
		e.Embedding = decodeVector(blob, dim)
		result = append(result, e)
	}
	return result, rows.Err()
}

// CountVectors returns the number of stored embeddings.
func (s *Store) CountVectors() (int, error) {
	var count int
	err := s.q.QueryRow("SELECT COUNT(*) FROM vectors").Scan(&count)
	return count, err
}

// encodeVector packs float32s as little-endian bytes.
func encodeVector(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(x))
	}
	return buf
}

func decodeVector(blob []byte, dim int) []float32 {
	if len(blob) < dim*4 {
		dim = len(blob) / 4
	}
	v := make([]float32, dim)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return v
}
