package rpc

import (
	"encoding/json"

	vaultcrypto "github.com/provenance-io/hastra-sol-vault/crypto"
)

type stakeVaultInitializeParams struct {
	UnbondingPeriodSeconds int64    `json:"unbondingPeriodSeconds"`
	FreezeAdmins           []string `json:"freezeAdmins"`
	RewardsAdmins          []string `json:"rewardsAdmins"`
	ReserveMint            string   `json:"reserveMint"`
	ShareMint              string   `json:"shareMint"`
	ReserveAccount         string   `json:"reserveAccount"`
	VaultAuthority         string   `json:"vaultAuthority"`
}

func (s *Server) handleStakeVaultInitialize(caller vaultcrypto.Address, payload json.RawMessage) (interface{}, error) {
	var p stakeVaultInitializeParams
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, err
	}
	freezeAdmins, err := parseAddressList(p.FreezeAdmins)
	if err != nil {
		return nil, err
	}
	rewardsAdmins, err := parseAddressList(p.RewardsAdmins)
	if err != nil {
		return nil, err
	}
	reserveMint, err := parseMintID(p.ReserveMint)
	if err != nil {
		return nil, err
	}
	shareMint, err := parseMintID(p.ShareMint)
	if err != nil {
		return nil, err
	}
	reserveAccount, err := parseAddress(p.ReserveAccount)
	if err != nil {
		return nil, err
	}
	vaultAuthority, err := parseAddress(p.VaultAuthority)
	if err != nil {
		return nil, err
	}
	if err := s.stakeVault.Initialize(caller, p.UnbondingPeriodSeconds, freezeAdmins, rewardsAdmins, reserveMint, shareMint, reserveAccount, vaultAuthority); err != nil {
		return nil, err
	}
	return map[string]bool{"ok": true}, nil
}

func (s *Server) handleStakeVaultPause(caller vaultcrypto.Address, payload json.RawMessage) (interface{}, error) {
	var p struct {
		Paused bool `json:"paused"`
	}
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, err
	}
	if err := s.stakeVault.Pause(caller, p.Paused); err != nil {
		return nil, err
	}
	return map[string]bool{"paused": p.Paused}, nil
}

func (s *Server) handleStakeVaultUpdateConfig(caller vaultcrypto.Address, payload json.RawMessage) (interface{}, error) {
	var p struct {
		UnbondingPeriodSeconds int64 `json:"unbondingPeriodSeconds"`
	}
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, err
	}
	if err := s.stakeVault.UpdateConfig(caller, p.UnbondingPeriodSeconds); err != nil {
		return nil, err
	}
	return map[string]bool{"ok": true}, nil
}

func (s *Server) handleStakeVaultUpdateFreezeAdmins(caller vaultcrypto.Address, payload json.RawMessage) (interface{}, error) {
	var p adminListUpdateParams
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, err
	}
	add, err := parseAddressList(p.Add)
	if err != nil {
		return nil, err
	}
	remove, err := parseAddressList(p.Remove)
	if err != nil {
		return nil, err
	}
	if err := s.stakeVault.UpdateFreezeAdministrators(caller, add, remove); err != nil {
		return nil, err
	}
	return map[string]bool{"ok": true}, nil
}

func (s *Server) handleStakeVaultUpdateRewardsAdmins(caller vaultcrypto.Address, payload json.RawMessage) (interface{}, error) {
	var p adminListUpdateParams
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, err
	}
	add, err := parseAddressList(p.Add)
	if err != nil {
		return nil, err
	}
	remove, err := parseAddressList(p.Remove)
	if err != nil {
		return nil, err
	}
	if err := s.stakeVault.UpdateRewardsAdministrators(caller, add, remove); err != nil {
		return nil, err
	}
	return map[string]bool{"ok": true}, nil
}

func (s *Server) handleStakeVaultSetTokenAccountConfig(caller vaultcrypto.Address, payload json.RawMessage) (interface{}, error) {
	var p struct {
		NewAccount        string `json:"newAccount"`
		NewVaultAuthority string `json:"newVaultAuthority"`
	}
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, err
	}
	newAccount, err := parseAddress(p.NewAccount)
	if err != nil {
		return nil, err
	}
	newVaultAuthority, err := parseAddress(p.NewVaultAuthority)
	if err != nil {
		return nil, err
	}
	if err := s.stakeVault.SetStakeVaultTokenAccountConfig(caller, newAccount, newVaultAuthority); err != nil {
		return nil, err
	}
	return map[string]bool{"ok": true}, nil
}

func (s *Server) handleStakeVaultDeposit(caller vaultcrypto.Address, payload json.RawMessage) (interface{}, error) {
	var p struct {
		Amount         string `json:"amount"`
		ReserveAccount string `json:"reserveAccount"`
	}
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, err
	}
	amount, err := parseAmount(p.Amount)
	if err != nil {
		return nil, err
	}
	reserveAccount, err := parseAddress(p.ReserveAccount)
	if err != nil {
		return nil, err
	}
	if err := s.stakeVault.Deposit(caller, amount, reserveAccount); err != nil {
		return nil, err
	}
	return map[string]string{"amount": formatAmount(amount)}, nil
}

func (s *Server) handleStakeVaultUnbond(caller vaultcrypto.Address, payload json.RawMessage) (interface{}, error) {
	var p struct {
		Shares string `json:"shares"`
	}
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, err
	}
	shares, err := parseAmount(p.Shares)
	if err != nil {
		return nil, err
	}
	if err := s.stakeVault.Unbond(caller, shares); err != nil {
		return nil, err
	}
	return map[string]string{"shares": formatAmount(shares)}, nil
}

func (s *Server) handleStakeVaultRedeem(caller vaultcrypto.Address, _ json.RawMessage) (interface{}, error) {
	if err := s.stakeVault.Redeem(caller); err != nil {
		return nil, err
	}
	return map[string]bool{"ok": true}, nil
}

func (s *Server) handleStakeVaultPublishRewards(caller vaultcrypto.Address, payload json.RawMessage) (interface{}, error) {
	var p struct {
		RewardID uint32 `json:"rewardId"`
		Amount   string `json:"amount"`
	}
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, err
	}
	amount, err := parseAmount(p.Amount)
	if err != nil {
		return nil, err
	}
	if err := s.stakeVault.PublishRewards(caller, p.RewardID, amount); err != nil {
		return nil, err
	}
	return map[string]interface{}{"rewardId": p.RewardID, "amount": formatAmount(amount)}, nil
}

func (s *Server) handleStakeVaultFreezeTokenAccount(caller vaultcrypto.Address, payload json.RawMessage) (interface{}, error) {
	var p struct {
		Account string `json:"account"`
	}
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, err
	}
	account, err := parseAddress(p.Account)
	if err != nil {
		return nil, err
	}
	if err := s.stakeVault.FreezeTokenAccount(caller, account); err != nil {
		return nil, err
	}
	return map[string]bool{"frozen": true}, nil
}

func (s *Server) handleStakeVaultThawTokenAccount(caller vaultcrypto.Address, payload json.RawMessage) (interface{}, error) {
	var p struct {
		Account string `json:"account"`
	}
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, err
	}
	account, err := parseAddress(p.Account)
	if err != nil {
		return nil, err
	}
	if err := s.stakeVault.ThawTokenAccount(caller, account); err != nil {
		return nil, err
	}
	return map[string]bool{"frozen": false}, nil
}

// The three read queries below are unsigned: no caller is passed through
// (handle() leaves it as the zero Address), matching spec §4.6's "no pause
// gate, no authority check" note.

func (s *Server) handleStakeVaultSharesToAssets(_ vaultcrypto.Address, payload json.RawMessage) (interface{}, error) {
	var p struct {
		Shares string `json:"shares"`
	}
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, err
	}
	shares, err := parseAmount(p.Shares)
	if err != nil {
		return nil, err
	}
	assets, err := s.stakeVault.SharesToAssets(shares)
	if err != nil {
		return nil, err
	}
	return map[string]string{"assets": formatAmount(assets)}, nil
}

func (s *Server) handleStakeVaultAssetsToShares(_ vaultcrypto.Address, payload json.RawMessage) (interface{}, error) {
	var p struct {
		Amount string `json:"amount"`
	}
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, err
	}
	amount, err := parseAmount(p.Amount)
	if err != nil {
		return nil, err
	}
	shares, err := s.stakeVault.AssetsToShares(amount)
	if err != nil {
		return nil, err
	}
	return map[string]string{"shares": formatAmount(shares)}, nil
}

func (s *Server) handleStakeVaultExchangeRate(_ vaultcrypto.Address, _ json.RawMessage) (interface{}, error) {
	rate, err := s.stakeVault.ExchangeRate()
	if err != nil {
		return nil, err
	}
	return map[string]string{"rate": formatAmount(rate)}, nil
}
