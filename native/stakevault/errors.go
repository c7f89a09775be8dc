package stakevault

import (
	"errors"

	"github.com/provenance-io/hastra-sol-vault/native/tokenledger"
)

// Error kinds named per the protocol's naming contract, mirrored from
// native/mintvault/errors.go's sentinel-var convention.
var (
	ErrProtocolPaused           = errors.New("stakevault: protocol is paused")
	ErrUnauthorized             = errors.New("stakevault: caller is not authorized for this operation")
	ErrZeroAmount               = errors.New("stakevault: amount must be greater than zero")
	ErrOverflow                 = errors.New("stakevault: amount exceeds representable range")
	ErrInsufficientBalance      = errors.New("stakevault: insufficient balance")
	ErrTicketAlreadyOpen        = errors.New("stakevault: an unbonding ticket is already open for this user")
	ErrNoTicket                 = errors.New("stakevault: no unbonding ticket exists for this user")
	ErrNotUnbonded              = errors.New("stakevault: unbonding period has not elapsed")
	ErrInvalidVaultTokenAccount = errors.New("stakevault: supplied account does not match the bound vault token account")
	ErrInvalidMint              = errors.New("stakevault: token account mint does not match the declared mint")
	ErrDuplicateRewardId        = errors.New("stakevault: reward publication already recorded for this id/amount pair")
	ErrCrossProgramCallRejected = errors.New("stakevault: mint vault rejected the cross-program reward mint")
	ErrAdminListTooLong         = errors.New("stakevault: administrator list exceeds the maximum size")
	ErrAlreadyInitialized       = errors.New("stakevault: config already initialized")
	ErrNotInitialized           = errors.New("stakevault: config has not been initialized")

	// ErrAccountFrozen is surfaced directly from the token ledger, matching
	// spec.md's "surfaced from the token ledger" note for AccountFrozen.
	ErrAccountFrozen = tokenledger.ErrAccountFrozen
)
