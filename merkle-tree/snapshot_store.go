package merkle_tree

import (
	"encoding/binary"
	"math/big"
	"sync"

	"shield/compliance-prover/hasher"
)

// SnapshotStore caches built trees so repeated proof requests against the
// same membership snapshot never rebuild the tree. The primary key is a
// cheap digest of the leaf list, checked before any tree hashing happens;
// trees are also indexed by root for lookups. Trees are immutable once
// stored.
type SnapshotStore struct {
	mu     sync.RWMutex
	bySet  map[string]*Tree
	byRoot map[string]*Tree
}

func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		bySet:  make(map[string]*Tree),
		byRoot: make(map[string]*Tree),
	}
}

// setKey digests the depth and the ordered 32-byte leaf encodings with
// Keccak-256. A leaf that cannot be a field element reports !ok so the
// caller falls through to NewTree for the proper validation error.
func setKey(depth int, leaves []*big.Int) (string, bool) {
	buf := make([]byte, 8+32*len(leaves))
	binary.BigEndian.PutUint64(buf[:8], uint64(depth))
	for i, leaf := range leaves {
		if leaf == nil || leaf.Sign() < 0 || leaf.BitLen() > 256 {
			return "", false
		}
		leaf.FillBytes(buf[8+32*i : 8+32*(i+1)])
	}
	return string(hasher.Keccak(buf)), true
}

// Build returns the cached tree for the leaf set, hashing it into a new
// tree only on the first request.
func (s *SnapshotStore) Build(depth int, leaves []*big.Int) (*Tree, error) {
	key, keyed := setKey(depth, leaves)
	if keyed {
		s.mu.RLock()
		cached, ok := s.bySet[key]
		s.mu.RUnlock()
		if ok {
			return cached, nil
		}
	}

	tree, err := NewTree(depth, leaves)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if keyed {
		if cached, ok := s.bySet[key]; ok {
			return cached, nil
		}
		s.bySet[key] = tree
	}
	s.byRoot[tree.Root().String()] = tree
	return tree, nil
}

// Get returns the cached tree for a root, if any.
func (s *SnapshotStore) Get(root *big.Int) (*Tree, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tree, ok := s.byRoot[root.String()]
	return tree, ok
}

func (s *SnapshotStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byRoot)
}
