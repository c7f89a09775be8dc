package common

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrQuotaRequestsExceeded = errors.New("quota requests exceeded")
	ErrQuotaAmountCapExceeded = errors.New("quota amount cap exceeded")
	ErrQuotaCounterOverflow  = errors.New("quota counter overflow")
)

// Store provides persistence for quota counters. The RPC server's
// per-caller request limiter (rpc.NewStateQuotaStore) is the concrete
// implementation, backed by the same state.Store every engine persists to.
type Store interface {
	Load(module string, epoch uint64, addr []byte) (QuotaNow, bool, error)
	Save(module string, epoch uint64, addr []byte, counters QuotaNow) error
}

// QuotaNow captures the current quota usage counters for an address.
type QuotaNow struct {
	ReqCount    uint32
	AmountUsed  uint64
	EpochID     uint64
}

// Quota defines the limits enforced for a module interaction per address.
type Quota struct {
	MaxRequestsPerMin uint32
	MaxAmountPerEpoch  uint64
	EpochSeconds       uint32
}

// CheckQuota verifies whether the additional request and amount usage fit
// within the configured quota. The returned QuotaNow reflects the updated
// counters when the quota is not exceeded.
func CheckQuota(q Quota, nowEpoch uint64, prev QuotaNow, addReq uint32, addAmount uint64) (QuotaNow, error) {
	next := prev
	if prev.EpochID != nowEpoch {
		next = QuotaNow{EpochID: nowEpoch}
	}

	if addReq > 0 {
		if next.ReqCount > math.MaxUint32-addReq {
			return prev, ErrQuotaCounterOverflow
		}
		next.ReqCount += addReq
	}
	if q.MaxRequestsPerMin > 0 && next.ReqCount > q.MaxRequestsPerMin {
		return prev, ErrQuotaRequestsExceeded
	}

	if addAmount > 0 {
		if next.AmountUsed > math.MaxUint64-addAmount {
			return prev, ErrQuotaCounterOverflow
		}
		next.AmountUsed += addAmount
	}
	if q.MaxAmountPerEpoch > 0 && next.AmountUsed > q.MaxAmountPerEpoch {
		return prev, ErrQuotaAmountCapExceeded
	}

	return next, nil
}

// Apply loads the persisted counters for the provided address and updates them
// with the supplied increments when within quota limits. The updated counters
// are stored back to the underlying persistence layer. When the quota is
// exceeded the original counters are returned alongside the error.
func Apply(store Store, module string, nowEpoch uint64, addr []byte, q Quota, addReq uint32, addAmount uint64) (QuotaNow, error) {
	if store == nil {
		return QuotaNow{}, fmt.Errorf("quota: store unavailable")
	}
	if len(addr) == 0 {
		return QuotaNow{}, fmt.Errorf("quota: address required")
	}
	prev, _, err := store.Load(module, nowEpoch, addr)
	if err != nil {
		return QuotaNow{}, err
	}
	next, err := CheckQuota(q, nowEpoch, prev, addReq, addAmount)
	if err != nil {
		return prev, err
	}
	if err := store.Save(module, nowEpoch, addr, next); err != nil {
		return QuotaNow{}, err
	}
	return next, nil
}
