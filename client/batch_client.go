// File: client/batch_client.go
// Package client: outbound batching of JSON items.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// BatchSender packs serialized JSON items into JSON array batches bounded
// by item count and byte size. The size of a batch counts the enclosing
// brackets and the separators between items.

package client

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// BatchSender accumulates serialized items and cuts batches greedily.
// A limit <= 0 disables that bound.
type BatchSender struct {
	maxCount int
	maxSize  int
	items    [][]byte
	size     int // running size of items, brackets included
	batches  [][]byte
}

// NewBatchSender creates a BatchSender with the given bounds.
func NewBatchSender(maxCount, maxSize int) *BatchSender {
	return &BatchSender{maxCount: maxCount, maxSize: maxSize, size: 2}
}

// Append adds one serialized item. The open batch is closed first when it
// is already full or when item would push it over the size bound. An item
// larger than the bound on its own still forms a batch by itself.
func (bs *BatchSender) Append(item []byte) {
	if len(bs.items) > 0 && bs.full(len(item)) {
		bs.cut()
	}
	bs.items = append(bs.items, item)
	bs.size += len(item)
}

func (bs *BatchSender) full(next int) bool {
	if bs.maxCount > 0 && len(bs.items) >= bs.maxCount {
		return true
	}
	// One separator per accumulated item once next joins the array.
	return bs.maxSize > 0 && bs.size+next+len(bs.items) > bs.maxSize
}

func (bs *BatchSender) cut() {
	var b bytes.Buffer
	b.Grow(bs.size + len(bs.items))
	b.WriteByte('[')
	for i, it := range bs.items {
		if i > 0 {
			b.WriteByte(',')
		}
		b.Write(it)
	}
	b.WriteByte(']')
	bs.batches = append(bs.batches, b.Bytes())
	bs.items = bs.items[:0]
	bs.size = 2
}

// Flush closes the open batch and returns every batch produced so far.
func (bs *BatchSender) Flush() [][]byte {
	if len(bs.items) > 0 {
		bs.cut()
	}
	out := bs.batches
	bs.batches = nil
	return out
}

// Chunks serializes items with encoding/json and partitions them into
// ordered JSON array batches of at most maxCount items and maxSize bytes.
func Chunks[T any](items []T, maxCount, maxSize int) ([][]byte, error) {
	bs := NewBatchSender(maxCount, maxSize)
	for i, it := range items {
		raw, err := json.Marshal(it)
		if err != nil {
			return nil, fmt.Errorf("serialize item %d: %w", i, err)
		}
		bs.Append(raw)
	}
	return bs.Flush(), nil
}
