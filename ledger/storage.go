// Copyright (c) 2025 The Tidelock developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/tidelock/tide/kv"
	"github.com/tidelock/tide/tide"
)

const (
	bucketPools     kv.Bucket = "ledger-pools"
	bucketPositions kv.Bucket = "ledger-positions"

	poolCacheSize = 256
)

// positionKey derives the composite record key of a (pool, owner) pair.
func positionKey(asset, owner tide.Address) tide.Bytes32 {
	return tide.Keccak(asset.Bytes(), owner.Bytes())
}

// storage is the keyed record store of the ledger: pools keyed by asset
// identity, positions keyed by (pool, owner).
type storage struct {
	store     kv.GetPutter
	pools     kv.GetPutter
	positions kv.GetPutter

	poolCache *lru.Cache
}

func newStorage(store kv.GetPutter) *storage {
	cache, _ := lru.New(poolCacheSize)
	return &storage{
		store:     store,
		pools:     bucketPools.NewStore(store),
		positions: bucketPositions.NewStore(store),
		poolCache: cache,
	}
}

// GetPool loads the pool record of an asset. A never-initialized pool
// decodes as an empty record, not an error.
func (s *storage) GetPool(asset tide.Address) (*Pool, error) {
	if cached, ok := s.poolCache.Get(asset); ok {
		pool := *cached.(*Pool)
		return &pool, nil
	}

	data, err := s.pools.Get(asset.Bytes())
	if err != nil && !s.pools.IsNotFound(err) {
		return nil, errors.Wrap(err, "failed to get pool")
	}

	var pool Pool
	if err := pool.Decode(data); err != nil {
		return nil, errors.Wrap(err, "failed to decode pool")
	}
	return &pool, nil
}

// GetPosition loads the position record of (asset, owner). A never-created
// position decodes as an empty record, not an error.
func (s *storage) GetPosition(asset, owner tide.Address) (*Position, error) {
	data, err := s.positions.Get(positionKey(asset, owner).Bytes())
	if err != nil && !s.positions.IsNotFound(err) {
		return nil, errors.Wrap(err, "failed to get position")
	}

	var pos Position
	if err := pos.Decode(data); err != nil {
		return nil, errors.Wrap(err, "failed to decode position")
	}
	return &pos, nil
}

// stage collects record mutations and commits them in one batch write.
// Nothing reaches the store, nor the pool cache, before Commit.
type stage struct {
	s     *storage
	batch kv.Batch
	pools []*Pool
}

func (s *storage) NewStage() *stage {
	return &stage{s: s, batch: s.store.NewBatch()}
}

func (st *stage) PutPool(pool *Pool) error {
	data, err := pool.Encode()
	if err != nil {
		return errors.Wrap(err, "failed to encode pool")
	}
	if err := bucketPools.NewPutter(st.batch).Put(pool.Asset.Bytes(), data); err != nil {
		return errors.Wrap(err, "failed to set pool")
	}
	st.pools = append(st.pools, pool)
	return nil
}

func (st *stage) PutPosition(pos *Position) error {
	data, err := pos.Encode()
	if err != nil {
		return errors.Wrap(err, "failed to encode position")
	}
	key := positionKey(pos.Pool, pos.Owner)
	if err := bucketPositions.NewPutter(st.batch).Put(key.Bytes(), data); err != nil {
		return errors.Wrap(err, "failed to set position")
	}
	return nil
}

func (st *stage) Commit() error {
	if err := st.batch.Write(); err != nil {
		return errors.Wrap(err, "failed to commit records")
	}
	for _, pool := range st.pools {
		cached := *pool
		st.s.poolCache.Add(pool.Asset, &cached)
	}
	return nil
}
