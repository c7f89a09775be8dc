package common

import (
	"errors"

	"github.com/provenance-io/hastra-sol-vault/crypto"
)

// MaxAdmins bounds every admin list in the protocol (freeze administrators,
// rewards administrators) to keep authority checks O(1)-ish and the config
// record's size bounded, per the four-level authority model.
const MaxAdmins = 5

var (
	ErrUnauthorized  = errors.New("common: caller is not an authorized administrator")
	ErrTooManyAdmins = errors.New("common: admin list exceeds maximum size")
)

// Roster is the ordered set of addresses holding one of the protocol's
// privileged roles. Order is preserved (not sorted) so callers can reason
// about insertion order. UpdateAdminList skips duplicate adds; the engines'
// Initialize stores the lists exactly as given, duplicates included.
type Roster struct {
	UpgradeAuthority crypto.Address
	FreezeAdmins     []crypto.Address
	RewardsAdmins    []crypto.Address
}

// Clone returns a deep copy of the roster.
func (r *Roster) Clone() *Roster {
	if r == nil {
		return nil
	}
	clone := &Roster{UpgradeAuthority: r.UpgradeAuthority}
	clone.FreezeAdmins = append([]crypto.Address(nil), r.FreezeAdmins...)
	clone.RewardsAdmins = append([]crypto.Address(nil), r.RewardsAdmins...)
	return clone
}

// IsUpgradeAuthority reports whether caller holds the top-level authority.
func (r *Roster) IsUpgradeAuthority(caller crypto.Address) bool {
	return r != nil && r.UpgradeAuthority.Equal(caller)
}

// IsFreezeAdmin reports whether caller is the upgrade authority or listed as
// a freeze administrator, matching the "higher authority satisfies a lower
// check" rule.
func (r *Roster) IsFreezeAdmin(caller crypto.Address) bool {
	if r.IsUpgradeAuthority(caller) {
		return true
	}
	return contains(r.FreezeAdmins, caller)
}

// IsRewardsAdmin reports whether caller is the upgrade authority or listed as
// a rewards administrator. Freeze administrators are a disjoint role: the
// freeze/thaw and stake-pause capabilities do not imply the ability to
// complete redemptions or publish rewards.
func (r *Roster) IsRewardsAdmin(caller crypto.Address) bool {
	if r.IsUpgradeAuthority(caller) {
		return true
	}
	return contains(r.RewardsAdmins, caller)
}

func contains(list []crypto.Address, addr crypto.Address) bool {
	for _, a := range list {
		if a.Equal(addr) {
			return true
		}
	}
	return false
}

// RequireUpgradeAuthority rejects the call unless caller is the upgrade
// authority.
func RequireUpgradeAuthority(r *Roster, caller crypto.Address) error {
	if !r.IsUpgradeAuthority(caller) {
		return ErrUnauthorized
	}
	return nil
}

// RequireFreezeAdmin rejects the call unless caller holds at least freeze
// administrator privilege.
func RequireFreezeAdmin(r *Roster, caller crypto.Address) error {
	if !r.IsFreezeAdmin(caller) {
		return ErrUnauthorized
	}
	return nil
}

// RequireRewardsAdmin rejects the call unless caller holds at least rewards
// administrator privilege.
func RequireRewardsAdmin(r *Roster, caller crypto.Address) error {
	if !r.IsRewardsAdmin(caller) {
		return ErrUnauthorized
	}
	return nil
}

// UpdateAdminList applies an idempotent add/remove update to an admin list,
// silently ignoring duplicate adds and missing removes, and rejecting an add
// that would push the list past MaxAdmins.
func UpdateAdminList(list []crypto.Address, add, remove []crypto.Address) ([]crypto.Address, error) {
	updated := append([]crypto.Address(nil), list...)
	for _, rm := range remove {
		for i, a := range updated {
			if a.Equal(rm) {
				updated = append(updated[:i], updated[i+1:]...)
				break
			}
		}
	}
	for _, add := range add {
		if contains(updated, add) {
			continue
		}
		if len(updated) >= MaxAdmins {
			return nil, ErrTooManyAdmins
		}
		updated = append(updated, add)
	}
	return updated, nil
}
