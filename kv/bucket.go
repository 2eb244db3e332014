// Copyright (c) 2025 The Tidelock developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

// Bucket provides logical bucket for kv store.
type Bucket string

// NewGetter creates a bucket getter from the source getter.
func (b Bucket) NewGetter(src Getter) Getter {
	return &bucketGetter{b, src}
}

// NewPutter creates a bucket putter from the source putter.
func (b Bucket) NewPutter(src Putter) Putter {
	return &bucketPutter{b, src}
}

// NewStore creates a bucket store from the source store.
func (b Bucket) NewStore(src GetPutter) GetPutter {
	return &bucketStore{
		bucketGetter{b, src},
		bucketPutter{b, src},
		src,
	}
}

type bucketGetter struct {
	b   Bucket
	src Getter
}

func (g *bucketGetter) Get(key []byte) ([]byte, error) {
	return g.src.Get(g.b.makeKey(key))
}

func (g *bucketGetter) Has(key []byte) (bool, error) {
	return g.src.Has(g.b.makeKey(key))
}

func (g *bucketGetter) IsNotFound(err error) bool {
	return g.src.IsNotFound(err)
}

type bucketPutter struct {
	b   Bucket
	src Putter
}

func (p *bucketPutter) Put(key, val []byte) error {
	return p.src.Put(p.b.makeKey(key), val)
}

func (p *bucketPutter) Delete(key []byte) error {
	return p.src.Delete(p.b.makeKey(key))
}

type bucketStore struct {
	bucketGetter
	bucketPutter
	src GetPutter
}

func (s *bucketStore) NewBatch() Batch {
	batch := s.src.NewBatch()
	return &bucketBatch{bucketPutter{s.bucketGetter.b, batch}, batch}
}

type bucketBatch struct {
	bucketPutter
	batch Batch
}

func (b *bucketBatch) Len() int { return b.batch.Len() }

func (b *bucketBatch) Write() error { return b.batch.Write() }

func (b Bucket) makeKey(key []byte) []byte {
	newKey := make([]byte, 0, len(b)+len(key))
	return append(append(newKey, b...), key...)
}
