package rpc

import (
	"encoding/json"

	vaultcrypto "github.com/provenance-io/hastra-sol-vault/crypto"
	"github.com/provenance-io/hastra-sol-vault/native/mintvault"
)

type mintVaultInitializeParams struct {
	FreezeAdmins               []string `json:"freezeAdmins"`
	RewardsAdmins              []string `json:"rewardsAdmins"`
	AllowedExternalMintProgram string   `json:"allowedExternalMintProgram"`
	ReserveMint                string   `json:"reserveMint"`
	DerivativeMint             string   `json:"derivativeMint"`
	ReserveAccount             string   `json:"reserveAccount"`
	RedeemReserveAccount       string   `json:"redeemReserveAccount"`
	VaultAuthority             string   `json:"vaultAuthority"`
}

func (s *Server) handleMintVaultInitialize(caller vaultcrypto.Address, payload json.RawMessage) (interface{}, error) {
	var p mintVaultInitializeParams
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
	allowedProgram, err := parseAddress(p.AllowedExternalMintProgram)
	if err != nil {
		return nil, err
	}
	reserveMint, err := parseMintID(p.ReserveMint)
	if err != nil {
		return nil, err
	}
	derivativeMint, err := parseMintID(p.DerivativeMint)
	if err != nil {
		return nil, err
	}
	reserveAccount, err := parseAddress(p.ReserveAccount)
	if err != nil {
		return nil, err
	}
	redeemReserveAccount, err := parseAddress(p.RedeemReserveAccount)
	if err != nil {
		return nil, err
	}
	vaultAuthority, err := parseAddress(p.VaultAuthority)
	if err != nil {
		return nil, err
	}
	if err := s.mintVault.Initialize(caller, freezeAdmins, rewardsAdmins, allowedProgram, reserveMint, derivativeMint, reserveAccount, redeemReserveAccount, vaultAuthority); err != nil {
		return nil, err
	}
	return map[string]bool{"ok": true}, nil
}

func (s *Server) handleMintVaultPause(caller vaultcrypto.Address, payload json.RawMessage) (interface{}, error) {
	var p struct {
		Paused bool `json:"paused"`
	}
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, err
	}
	if err := s.mintVault.Pause(caller, p.Paused); err != nil {
		return nil, err
	}
	return map[string]bool{"paused": p.Paused}, nil
}

type adminListUpdateParams struct {
	Add    []string `json:"add"`
	Remove []string `json:"remove"`
}

func (s *Server) handleMintVaultUpdateFreezeAdmins(caller vaultcrypto.Address, payload json.RawMessage) (interface{}, error) {
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
	if err := s.mintVault.UpdateFreezeAdministrators(caller, add, remove); err != nil {
		return nil, err
	}
	return map[string]bool{"ok": true}, nil
}

func (s *Server) handleMintVaultUpdateRewardsAdmins(caller vaultcrypto.Address, payload json.RawMessage) (interface{}, error) {
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
	if err := s.mintVault.UpdateRewardsAdministrators(caller, add, remove); err != nil {
		return nil, err
	}
	return map[string]bool{"ok": true}, nil
}

func (s *Server) handleMintVaultUpdateVaultTokenAccount(caller vaultcrypto.Address, payload json.RawMessage) (interface{}, error) {
	var p struct {
		NewAccount string `json:"newAccount"`
	}
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, err
	}
	newAccount, err := parseAddress(p.NewAccount)
	if err != nil {
		return nil, err
	}
	if err := s.mintVault.UpdateVaultTokenAccount(caller, newAccount); err != nil {
		return nil, err
	}
	return map[string]bool{"ok": true}, nil
}

func (s *Server) handleMintVaultSetVaultTokenAccountConfig(caller vaultcrypto.Address, payload json.RawMessage) (interface{}, error) {
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
	if err := s.mintVault.SetVaultTokenAccountConfig(caller, newAccount, newVaultAuthority); err != nil {
		return nil, err
	}
	return map[string]bool{"ok": true}, nil
}

func (s *Server) handleMintVaultDeposit(caller vaultcrypto.Address, payload json.RawMessage) (interface{}, error) {
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
	if err := s.mintVault.Deposit(caller, amount, reserveAccount); err != nil {
		return nil, err
	}
	return map[string]string{"amount": formatAmount(amount)}, nil
}

func (s *Server) handleMintVaultRequestRedeem(caller vaultcrypto.Address, payload json.RawMessage) (interface{}, error) {
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
	if err := s.mintVault.RequestRedeem(caller, amount); err != nil {
		return nil, err
	}
	return map[string]string{"amount": formatAmount(amount)}, nil
}

func (s *Server) handleMintVaultCompleteRedeem(caller vaultcrypto.Address, payload json.RawMessage) (interface{}, error) {
	var p struct {
		User string `json:"user"`
	}
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, err
	}
	user, err := parseAddress(p.User)
	if err != nil {
		return nil, err
	}
	if err := s.mintVault.CompleteRedeem(caller, user); err != nil {
		return nil, err
	}
	return map[string]bool{"ok": true}, nil
}

func (s *Server) handleMintVaultSweepRedeemVaultFunds(caller vaultcrypto.Address, payload json.RawMessage) (interface{}, error) {
	var p struct {
		Destination string `json:"destination"`
		Amount      string `json:"amount"`
	}
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, err
	}
	destination, err := parseAddress(p.Destination)
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount(p.Amount)
	if err != nil {
		return nil, err
	}
	if err := s.mintVault.SweepRedeemVaultFunds(caller, destination, amount); err != nil {
		return nil, err
	}
	return map[string]string{"amount": formatAmount(amount)}, nil
}

func (s *Server) handleMintVaultCreateRewardsEpoch(caller vaultcrypto.Address, payload json.RawMessage) (interface{}, error) {
	var p struct {
		Index uint64 `json:"index"`
		Root  string `json:"root"`
		Total string `json:"total"`
	}
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, err
	}
	root, err := parseRoot(p.Root)
	if err != nil {
		return nil, err
	}
	total, err := parseAmount(p.Total)
	if err != nil {
		return nil, err
	}
	if err := s.mintVault.CreateRewardsEpoch(caller, p.Index, root, total); err != nil {
		return nil, err
	}
	return map[string]interface{}{"index": p.Index}, nil
}

func (s *Server) handleMintVaultClaimRewards(caller vaultcrypto.Address, payload json.RawMessage) (interface{}, error) {
	var p struct {
		Amount     string            `json:"amount"`
		EpochIndex uint64            `json:"epochIndex"`
		Proof      []merkleStepParam `json:"proof"`
	}
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, err
	}
	amount, err := parseAmount(p.Amount)
	if err != nil {
		return nil, err
	}
	proof := make([]mintvault.MerkleStep, 0, len(p.Proof))
	for _, step := range p.Proof {
		sibling, err := parseRoot(step.Sibling)
		if err != nil {
			return nil, err
		}
		proof = append(proof, mintvault.MerkleStep{Sibling: sibling, IsLeft: step.IsLeft})
	}
	if err := s.mintVault.ClaimRewards(caller, amount, p.EpochIndex, proof); err != nil {
		return nil, err
	}
	return map[string]string{"amount": formatAmount(amount)}, nil
}

func (s *Server) handleMintVaultFreezeTokenAccount(caller vaultcrypto.Address, payload json.RawMessage) (interface{}, error) {
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
	if err := s.mintVault.FreezeTokenAccount(caller, account); err != nil {
		return nil, err
	}
	return map[string]bool{"frozen": true}, nil
}

func (s *Server) handleMintVaultThawTokenAccount(caller vaultcrypto.Address, payload json.RawMessage) (interface{}, error) {
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
	if err := s.mintVault.ThawTokenAccount(caller, account); err != nil {
		return nil, err
	}
	return map[string]bool{"frozen": false}, nil
}
