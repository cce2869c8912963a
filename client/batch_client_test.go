// File: client/batch_client_test.go
// Package client_test: unit tests for outbound batching.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package client_test

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-fe/client"
)

func TestChunksByCount(t *testing.T) {
	batches, err := client.Chunks([]string{"a", "b", "c"}, 2, 1000)
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.Equal(t, `["a","b"]`, string(batches[0]))
	assert.Equal(t, `["c"]`, string(batches[1]))
}

func TestChunksOversizeItemAlone(t *testing.T) {
	huge := strings.Repeat("x", 64)
	batches, err := client.Chunks([]string{huge}, 2, 10)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, `["`+huge+`"]`, string(batches[0]))

	batches, err = client.Chunks([]string{"a", huge, "b"}, 10, 10)
	require.NoError(t, err)
	require.Len(t, batches, 3)
	assert.Equal(t, `["a"]`, string(batches[0]))
	assert.Equal(t, `["b"]`, string(batches[2]))
}

func TestChunksSizeBoundary(t *testing.T) {
	// "[1,2]" is exactly five bytes.
	batches, err := client.Chunks([]int{1, 2}, 0, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"[1,2]"}, toStrings(batches))

	batches, err = client.Chunks([]int{1, 2}, 0, 4)
	require.NoError(t, err)
	assert.Equal(t, []string{"[1]", "[2]"}, toStrings(batches))
}

func TestChunksUnbounded(t *testing.T) {
	items := make([]int, 500)
	batches, err := client.Chunks(items, 0, 0)
	require.NoError(t, err)
	assert.Len(t, batches, 1)

	batches, err = client.Chunks([]int{}, 2, 10)
	require.NoError(t, err)
	assert.Empty(t, batches)
}

func TestChunksSerializationError(t *testing.T) {
	_, err := client.Chunks([]any{1, make(chan int)}, 2, 100)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "item 1")
}

func TestChunksProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 200; round++ {
		n := rng.Intn(40)
		items := make([]string, n)
		for i := range items {
			items[i] = fmt.Sprintf("%d-%s", i, strings.Repeat("z", rng.Intn(30)))
		}
		maxCount := rng.Intn(6)
		maxSize := rng.Intn(120)

		batches, err := client.Chunks(items, maxCount, maxSize)
		require.NoError(t, err)

		var concat []string
		for _, b := range batches {
			var got []string
			require.NoError(t, json.Unmarshal(b, &got))
			require.NotEmpty(t, got)
			if maxCount > 0 {
				assert.LessOrEqual(t, len(got), maxCount)
			}
			if maxSize > 0 && len(got) > 1 {
				assert.LessOrEqual(t, len(b), maxSize)
			}
			concat = append(concat, got...)
		}
		if n == 0 {
			assert.Empty(t, concat)
			continue
		}
		assert.Equal(t, items, concat, "round %d", round)
	}
}

func TestBatchSenderFlushStartsOver(t *testing.T) {
	bs := client.NewBatchSender(2, 0)
	bs.Append([]byte(`1`))
	bs.Append([]byte(`2`))
	bs.Append([]byte(`3`))
	assert.Equal(t, []string{"[1,2]", "[3]"}, toStrings(bs.Flush()))
	assert.Empty(t, bs.Flush())

	bs.Append([]byte(`4`))
	assert.Equal(t, []string{"[4]"}, toStrings(bs.Flush()))
}

func TestHexToBytes(t *testing.T) {
	b, err := client.HexToBytes("0xDEADbeef")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, b)

	b, err = client.HexToBytes("0102")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, b)

	_, err = client.HexToBytes("0xZZ")
	assert.Error(t, err)
}

func toStrings(bs [][]byte) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = string(b)
	}
	return out
}
