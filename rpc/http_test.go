package rpc

import (
	"encoding/hex"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	vaultcrypto "github.com/provenance-io/hastra-sol-vault/crypto"
	"github.com/provenance-io/hastra-sol-vault/native/mintvault"
	"github.com/provenance-io/hastra-sol-vault/native/stakevault"
	"github.com/provenance-io/hastra-sol-vault/native/tokenledger"
	"github.com/provenance-io/hastra-sol-vault/state"
	"github.com/provenance-io/hastra-sol-vault/storage"
)

type fixture struct {
	server      *Server
	ledger      *tokenledger.Ledger
	mintEngine  *mintvault.Engine
	stakeEngine *stakevault.Engine
	upgrade     *vaultcrypto.PrivateKey
	reserveMint tokenledger.MintID
	derivMint   tokenledger.MintID
	shareMint   tokenledger.MintID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := state.NewStore(storage.NewMemDB())
	ledger := tokenledger.NewLedger(store)

	upgrade, err := vaultcrypto.GeneratePrivateKey()
	require.NoError(t, err)
	upgradeAddr := upgrade.PubKey().Address()

	mintEngine := mintvault.NewEngine(store, ledger, upgradeAddr)
	stakeEngine := stakevault.NewEngine(store, ledger, mintEngine, upgradeAddr)

	reserveMint, err := ledger.CreateMint("reserve", 6, upgradeAddr, upgradeAddr, upgradeAddr)
	require.NoError(t, err)
	derivMint, err := ledger.CreateMint("derivative", 6, mintEngine.MintAuthority(), mintEngine.MintAuthority(), mintEngine.FreezeAuthority())
	require.NoError(t, err)
	shareMint, err := ledger.CreateMint("share", 6, stakeEngine.ShareAuthority(), stakeEngine.ShareAuthority(), stakeEngine.FreezeAuthority())
	require.NoError(t, err)

	require.NoError(t, mintEngine.Initialize(upgradeAddr, nil, []vaultcrypto.Address{upgradeAddr}, stakeEngine.ExternalMintAuthority(), reserveMint, derivMint, upgradeAddr, upgradeAddr, upgradeAddr))
	require.NoError(t, stakeEngine.Initialize(upgradeAddr, 3600, nil, []vaultcrypto.Address{upgradeAddr}, derivMint, shareMint, upgradeAddr, upgradeAddr))

	server := NewServer(ServerConfig{RateLimitPerMinute: 1000}, mintEngine, stakeEngine, NewStateQuotaStore(store), nil)

	return &fixture{
		server:      server,
		ledger:      ledger,
		mintEngine:  mintEngine,
		stakeEngine: stakeEngine,
		upgrade:     upgrade,
		reserveMint: reserveMint,
		derivMint:   derivMint,
		shareMint:   shareMint,
	}
}

// signedCall builds a full JSON-RPC request body with a signed envelope for
// method, where payload is the method-specific params object and signer
// proves the caller field.
func signedCall(t *testing.T, method string, signer *vaultcrypto.PrivateKey, payload interface{}) []byte {
	t.Helper()
	payloadBytes, err := json.Marshal(payload)
	require.NoError(t, err)

	hash := signingHash(method, payloadBytes)
	sig, err := signer.Sign(hash[:])
	require.NoError(t, err)

	env := signedEnvelope{
		Payload:   payloadBytes,
		Caller:    signer.PubKey().Address().String(),
		Signature: hex.EncodeToString(sig),
	}
	envBytes, err := json.Marshal(env)
	require.NoError(t, err)

	req := RPCRequest{JSONRPC: jsonRPCVersion, Method: method, Params: []json.RawMessage{envBytes}, ID: 1}
	body, err := json.Marshal(req)
	require.NoError(t, err)
	return body
}

func unsignedCall(t *testing.T, method string, payload interface{}) []byte {
	t.Helper()
	payloadBytes, err := json.Marshal(payload)
	require.NoError(t, err)
	req := RPCRequest{JSONRPC: jsonRPCVersion, Method: method, Params: []json.RawMessage{payloadBytes}, ID: 1}
	body, err := json.Marshal(req)
	require.NoError(t, err)
	return body
}

func doRPC(t *testing.T, server *Server, body []byte) RPCResponse {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", newReader(body))
	rec := httptest.NewRecorder()
	server.handle(rec, req)
	var resp RPCResponse
	require.NoError(t, json.NewDecoder(rec.Result().Body).Decode(&resp))
	return resp
}

func newReader(b []byte) io.Reader {
	return &byteReader{data: b}
}

type byteReader struct {
	data []byte
	off  int
}

func (r *byteReader) Read(p []byte) (int, error) {
	if r.off >= len(r.data) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.off:])
	r.off += n
	return n, nil
}

func TestMintVaultDepositAndRedeemRoundTrip(t *testing.T) {
	f := newFixture(t)
	user, err := vaultcrypto.GeneratePrivateKey()
	require.NoError(t, err)
	userAddr := user.PubKey().Address()

	require.NoError(t, f.ledger.MintTo(f.reserveMint, userAddr, big.NewInt(1_000_000_000), f.upgrade.PubKey().Address()))

	body := signedCall(t, "mintvault_deposit", user, map[string]string{
		"amount":         "100000000",
		"reserveAccount": f.upgrade.PubKey().Address().String(),
	})
	resp := doRPC(t, f.server, body)
	require.Nil(t, resp.Error, "deposit error: %+v", resp.Error)

	balance, err := f.ledger.BalanceOf(f.derivMint, userAddr)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(100_000_000), balance)

	body = signedCall(t, "mintvault_requestRedeem", user, map[string]string{"amount": "100000000"})
	resp = doRPC(t, f.server, body)
	require.Nil(t, resp.Error, "request redeem error: %+v", resp.Error)

	require.NoError(t, f.ledger.MintTo(f.reserveMint, f.upgrade.PubKey().Address(), big.NewInt(1_000_000_000_000), f.upgrade.PubKey().Address()))

	body = signedCall(t, "mintvault_completeRedeem", f.upgrade, map[string]string{"user": userAddr.String()})
	resp = doRPC(t, f.server, body)
	require.Nil(t, resp.Error, "complete redeem error: %+v", resp.Error)

	balance, err = f.ledger.BalanceOf(f.derivMint, userAddr)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(0), balance)
}

func TestMintVaultDepositRejectsBadSignature(t *testing.T) {
	f := newFixture(t)
	user, err := vaultcrypto.GeneratePrivateKey()
	require.NoError(t, err)

	payload := map[string]string{"amount": "1", "reserveAccount": f.upgrade.PubKey().Address().String()}
	payloadBytes, err := json.Marshal(payload)
	require.NoError(t, err)

	env := signedEnvelope{
		Payload:   payloadBytes,
		Caller:    user.PubKey().Address().String(),
		Signature: hex.EncodeToString(make([]byte, 65)),
	}
	envBytes, err := json.Marshal(env)
	require.NoError(t, err)
	req := RPCRequest{JSONRPC: jsonRPCVersion, Method: "mintvault_deposit", Params: []json.RawMessage{envBytes}, ID: 1}
	body, err := json.Marshal(req)
	require.NoError(t, err)

	resp := doRPC(t, f.server, body)
	require.NotNil(t, resp.Error)
	require.Equal(t, codeUnauthorized, resp.Error.Code)
}

func TestMintVaultPauseRequiresUpgradeAuthority(t *testing.T) {
	f := newFixture(t)
	attacker, err := vaultcrypto.GeneratePrivateKey()
	require.NoError(t, err)

	body := signedCall(t, "mintvault_pause", attacker, map[string]bool{"paused": true})
	resp := doRPC(t, f.server, body)
	require.NotNil(t, resp.Error)
	require.Equal(t, codeUnauthorized, resp.Error.Code)

	body = signedCall(t, "mintvault_pause", f.upgrade, map[string]bool{"paused": true})
	resp = doRPC(t, f.server, body)
	require.Nil(t, resp.Error)
}

func TestStakeVaultDepositUnbondRedeemAndExchangeRate(t *testing.T) {
	f := newFixture(t)
	user, err := vaultcrypto.GeneratePrivateKey()
	require.NoError(t, err)
	userAddr := user.PubKey().Address()

	require.NoError(t, f.ledger.MintTo(f.derivMint, userAddr, big.NewInt(1_000_000), f.mintEngine.MintAuthority()))

	body := signedCall(t, "stakevault_deposit", user, map[string]string{
		"amount":         "1000000",
		"reserveAccount": f.upgrade.PubKey().Address().String(),
	})
	resp := doRPC(t, f.server, body)
	require.Nil(t, resp.Error, "stake deposit error: %+v", resp.Error)

	rateBody := unsignedCall(t, "stakevault_exchangeRate", map[string]string{})
	resp = doRPC(t, f.server, rateBody)
	require.Nil(t, resp.Error)

	shares, err := f.ledger.BalanceOf(f.shareMint, userAddr)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(1_000_000), shares)

	unbondBody := signedCall(t, "stakevault_unbond", user, map[string]string{"shares": "1000000"})
	resp = doRPC(t, f.server, unbondBody)
	require.Nil(t, resp.Error, "unbond error: %+v", resp.Error)

	redeemBody := signedCall(t, "stakevault_redeem", user, map[string]string{})
	resp = doRPC(t, f.server, redeemBody)
	require.NotNil(t, resp.Error, "redeem should fail before the unbonding period elapses")
}

func TestUnknownMethodReturnsMethodNotFound(t *testing.T) {
	f := newFixture(t)
	body := unsignedCall(t, "mintvault_doesNotExist", map[string]string{})
	resp := doRPC(t, f.server, body)
	require.NotNil(t, resp.Error)
	require.Equal(t, codeMethodNotFound, resp.Error.Code)
}
