package rpc

import (
	"github.com/provenance-io/hastra-sol-vault/native/common"
	"github.com/provenance-io/hastra-sol-vault/native/seed"
	"github.com/provenance-io/hastra-sol-vault/state"
)

// StateQuotaStore backs common.Quota's per-caller request throttling with the
// same record store every engine persists to, the adapted home for the
// teacher's native/common/quota.go counters once plugged into this RPC layer.
type StateQuotaStore struct {
	store *state.Store
}

// NewStateQuotaStore constructs a quota counter store over store.
func NewStateQuotaStore(store *state.Store) *StateQuotaStore {
	return &StateQuotaStore{store: store}
}

type storedQuotaNow struct {
	ReqCount   uint32
	AmountUsed uint64
	EpochID    uint64
}

func quotaKey(module string, epoch uint64, addr []byte) []byte {
	return seed.Derive("rpc/quota", []byte(module), seed.Uint64Seed(epoch), addr)
}

// Load implements common.Store.
func (s *StateQuotaStore) Load(module string, epoch uint64, addr []byte) (common.QuotaNow, bool, error) {
	var stored storedQuotaNow
	ok, err := s.store.Get(quotaKey(module, epoch, addr), &stored)
	if err != nil {
		return common.QuotaNow{}, false, err
	}
	if !ok {
		return common.QuotaNow{}, false, nil
	}
	return common.QuotaNow{ReqCount: stored.ReqCount, AmountUsed: stored.AmountUsed, EpochID: stored.EpochID}, true, nil
}

// Save implements common.Store.
func (s *StateQuotaStore) Save(module string, epoch uint64, addr []byte, counters common.QuotaNow) error {
	stored := storedQuotaNow{ReqCount: counters.ReqCount, AmountUsed: counters.AmountUsed, EpochID: counters.EpochID}
	return s.store.Put(quotaKey(module, epoch, addr), stored)
}
