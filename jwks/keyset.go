package jwks

import (
	"sort"

	"github.com/lestrrat-go/jwx/v2/jwk"
)

// KeySet is an immutable view of one fetched JWKS document, indexed by key
// ID. A KeySet is never modified after it is built; a refresh replaces it.
type KeySet struct {
	keys map[string]jwk.Key
}

// NewKeySet indexes the signing keys of set by kid. Keys without a kid and
// keys whose "use" is present and not "sig" are skipped. When two keys
// share a kid the first one wins.
func NewKeySet(set jwk.Set) *KeySet {
	ks := &KeySet{keys: make(map[string]jwk.Key)}
	if set == nil {
		return ks
	}

	for i := 0; i < set.Len(); i++ {
		key, ok := set.Key(i)
		if !ok {
			continue
		}
		kid := key.KeyID()
		if kid == "" {
			continue
		}
		if use := key.KeyUsage(); use != "" && use != string(jwk.ForSignature) {
			continue
		}
		if _, dup := ks.keys[kid]; dup {
			continue
		}
		ks.keys[kid] = key
	}

	return ks
}

// Lookup returns the key published under kid.
func (s *KeySet) Lookup(kid string) (jwk.Key, bool) {
	if s == nil {
		return nil, false
	}
	key, ok := s.keys[kid]
	return key, ok
}

// Len returns the number of usable signing keys.
func (s *KeySet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// KeyIDs returns the key IDs in the set, sorted.
func (s *KeySet) KeyIDs() []string {
	if s == nil {
		return nil
	}
	ids := make([]string, 0, len(s.keys))
	for kid := range s.keys {
		ids = append(ids, kid)
	}
	sort.Strings(ids)
	return ids
}
