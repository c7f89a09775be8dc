// Package state provides the content-addressed record store the vault
// engines persist to. It plays the same role the teacher's core/state.Manager
// plays for native/lending and native/swap: a narrow, RLP-backed KV surface.
// Engines hold the concrete *Store; there is no interface in between.
package state

import (
	"errors"
	"fmt"
	"reflect"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/provenance-io/hastra-sol-vault/storage"
)

// ErrAlreadyExists is returned by PutIfAbsent when the derived key is already
// occupied. Every "at most one outstanding X" invariant in the vault engines
// (one open redemption request, one open unbonding ticket, one claim record
// per epoch/user) is enforced by routing the initial write for that record
// through PutIfAbsent and mapping this sentinel to the domain-specific error.
var ErrAlreadyExists = errors.New("state: key already exists")

// Store is the persistence surface consumed by the vault engines. Keys are
// always the deterministic, already-derived PDA-style seeds produced by
// package seed; Store hashes them once more with keccak256 before touching
// the backing storage.Database so record keys never collide with unrelated
// byte strings of the same prefix.
type Store struct {
	db storage.Database
}

// NewStore wraps a storage.Database with the RLP/keccak key-addressing
// scheme used throughout the vault engines.
func NewStore(db storage.Database) *Store {
	return &Store{db: db}
}

func hashedKey(key []byte) []byte {
	return ethcrypto.Keccak256(key)
}

// Put RLP-encodes value and stores it under key, overwriting any existing
// record.
func (s *Store) Put(key []byte, value interface{}) error {
	if len(key) == 0 {
		return fmt.Errorf("state: key must not be empty")
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return s.db.Put(hashedKey(key), encoded)
}

// PutIfAbsent stores value under key only if no record currently exists
// there, returning ErrAlreadyExists otherwise. This is the single mutual
// exclusion primitive the engines use for every "create once" record.
func (s *Store) PutIfAbsent(key []byte, value interface{}) error {
	if len(key) == 0 {
		return fmt.Errorf("state: key must not be empty")
	}
	hashed := hashedKey(key)
	ok, err := s.db.Has(hashed)
	if err != nil {
		return err
	}
	if ok {
		return ErrAlreadyExists
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return s.db.Put(hashed, encoded)
}

// Get decodes the record stored under key into out, returning false if no
// record exists.
func (s *Store) Get(key []byte, out interface{}) (bool, error) {
	if len(key) == 0 {
		return false, fmt.Errorf("state: key must not be empty")
	}
	data, err := s.db.Get(hashedKey(key))
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

// Has reports whether a record exists under key without decoding it.
func (s *Store) Has(key []byte) (bool, error) {
	if len(key) == 0 {
		return false, fmt.Errorf("state: key must not be empty")
	}
	return s.db.Has(hashedKey(key))
}

// Delete removes the record stored under key, if any. Used to close
// short-lived records (redemption requests, unbonding tickets) once their
// state machine reaches its terminal transition.
func (s *Store) Delete(key []byte) error {
	if len(key) == 0 {
		return fmt.Errorf("state: key must not be empty")
	}
	return s.db.Delete(hashedKey(key))
}

// Append appends value to the RLP-encoded [][]byte list stored under key,
// ignoring duplicates, mirroring the teacher's KVAppend index convention
// (e.g. owner-to-record indices).
func (s *Store) Append(key []byte, value []byte) error {
	if len(key) == 0 {
		return fmt.Errorf("state: key must not be empty")
	}
	hashed := hashedKey(key)
	var list [][]byte
	if err := s.GetList(key, &list); err != nil {
		return err
	}
	for _, existing := range list {
		if string(existing) == string(value) {
			return nil
		}
	}
	list = append(list, append([]byte(nil), value...))
	encoded, err := rlp.EncodeToBytes(list)
	if err != nil {
		return err
	}
	return s.db.Put(hashed, encoded)
}

// GetList decodes the list stored under key into out, a pointer to a slice.
// A missing key decodes to an empty, non-nil slice.
func (s *Store) GetList(key []byte, out interface{}) error {
	if len(key) == 0 {
		return fmt.Errorf("state: key must not be empty")
	}
	data, err := s.db.Get(hashedKey(key))
	if errors.Is(err, storage.ErrNotFound) {
		val := reflect.ValueOf(out)
		if val.Kind() != reflect.Ptr || val.IsNil() {
			return fmt.Errorf("state: destination must be a non-nil pointer")
		}
		elem := val.Elem()
		if elem.Kind() != reflect.Slice {
			return fmt.Errorf("state: destination must point to a slice")
		}
		elem.Set(reflect.MakeSlice(elem.Type(), 0, 0))
		return nil
	}
	if err != nil {
		return err
	}
	return rlp.DecodeBytes(data, out)
}
