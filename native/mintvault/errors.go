package mintvault

import (
	"errors"

	"github.com/provenance-io/hastra-sol-vault/native/tokenledger"
)

// Error kinds named per the protocol's naming contract. These are sentinel
// values, not a type hierarchy, mirroring the teacher's errors.New var-block
// convention in native/lending/engine.go.
var (
	ErrProtocolPaused          = errors.New("mintvault: protocol is paused")
	ErrUnauthorized            = errors.New("mintvault: caller is not authorized for this operation")
	ErrZeroAmount              = errors.New("mintvault: amount must be greater than zero")
	ErrOverflow                = errors.New("mintvault: amount exceeds representable range")
	ErrInsufficientBalance     = errors.New("mintvault: insufficient balance")
	ErrInsufficientRedeemReserve = errors.New("mintvault: redeem reserve account holds insufficient balance")
	ErrRedemptionAlreadyOpen   = errors.New("mintvault: a redemption request is already open for this user")
	ErrNoOpenRedemption        = errors.New("mintvault: no open redemption request for this user")
	ErrInvalidVaultTokenAccount = errors.New("mintvault: supplied account does not match the bound vault token account")
	ErrInvalidMint             = errors.New("mintvault: token account mint does not match the declared mint")
	ErrInvalidProof            = errors.New("mintvault: merkle proof does not resolve to the epoch root")
	ErrAlreadyClaimed          = errors.New("mintvault: reward already claimed for this epoch")
	ErrEpochMissing            = errors.New("mintvault: rewards epoch does not exist")
	ErrEpochAlreadyExists      = errors.New("mintvault: rewards epoch already exists at this index")
	ErrCrossProgramCallRejected = errors.New("mintvault: caller is not the allowed external mint program")
	ErrAdminListTooLong        = errors.New("mintvault: administrator list exceeds the maximum size")
	ErrAlreadyInitialized      = errors.New("mintvault: config already initialized")
	ErrNotInitialized          = errors.New("mintvault: config has not been initialized")

	// ErrAccountFrozen is surfaced directly from the token ledger, matching
	// spec.md's "surfaced from the token ledger" note for AccountFrozen.
	ErrAccountFrozen = tokenledger.ErrAccountFrozen
)
