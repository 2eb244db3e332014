// Copyright (c) 2025 The Tidelock developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidelock/tide/kv"
	"github.com/tidelock/tide/lvldb"
)

func TestBucketIsolation(t *testing.T) {
	store, err := lvldb.NewMem()
	require.NoError(t, err)
	defer store.Close()

	b1 := kv.Bucket("b1").NewStore(store)
	b2 := kv.Bucket("b2").NewStore(store)

	require.NoError(t, b1.Put([]byte("key"), []byte("v1")))
	require.NoError(t, b2.Put([]byte("key"), []byte("v2")))

	got, err := b1.Get([]byte("key"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)

	got, err = b2.Get([]byte("key"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)

	require.NoError(t, b1.Delete([]byte("key")))
	has, err := b1.Has([]byte("key"))
	require.NoError(t, err)
	assert.False(t, has)

	has, err = b2.Has([]byte("key"))
	require.NoError(t, err)
	assert.True(t, has)
}

func TestBucketBatch(t *testing.T) {
	store, err := lvldb.NewMem()
	require.NoError(t, err)
	defer store.Close()

	bucket := kv.Bucket("b")
	batch := store.NewBatch()
	putter := bucket.NewPutter(batch)
	require.NoError(t, putter.Put([]byte("k1"), []byte("v1")))
	require.NoError(t, putter.Put([]byte("k2"), []byte("v2")))

	// nothing lands before the batch is written
	has, err := bucket.NewGetter(store).Has([]byte("k1"))
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, batch.Write())

	got, err := bucket.NewGetter(store).Get([]byte("k2"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)
}

func TestBucketNotFound(t *testing.T) {
	store, err := lvldb.NewMem()
	require.NoError(t, err)
	defer store.Close()

	getter := kv.Bucket("b").NewGetter(store)
	_, err = getter.Get([]byte("missing"))
	assert.True(t, getter.IsNotFound(err))
}
