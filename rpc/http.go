// Package rpc exposes both vault engines over a JSON-RPC-style HTTP
// endpoint, grounded on the teacher's rpc/http.go envelope
// (RPCRequest/RPCResponse/RPCError, writeError/writeResult, numeric
// JSON-RPC-ish error codes) and handler-dispatch style, trimmed of the
// gRPC/HTTP2/websocket/JWT/swap-partner machinery that has no home in this
// domain (see DESIGN.md).
package rpc

import (
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	vaultcrypto "github.com/provenance-io/hastra-sol-vault/crypto"
	"github.com/provenance-io/hastra-sol-vault/native/common"
	"github.com/provenance-io/hastra-sol-vault/native/mintvault"
	"github.com/provenance-io/hastra-sol-vault/native/stakevault"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000
	codeRateLimited    = -32020
	codeModulePaused   = -32050
)

// RPCRequest is a single JSON-RPC-style call. Params carries exactly one
// element for every method defined here: either the bare method payload (for
// unauthenticated read queries) or a signedEnvelope (for every mutating
// call).
type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      int               `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

// signedEnvelope wraps a mutating call's payload with the caller's claimed
// address and a signature over it, since the host chain's tx-signing
// machinery (the teacher's core/types.Transaction) has no equivalent here.
// The signed hash is sha256(method + ":" + payload), so a signature can never
// be replayed against a different method.
type signedEnvelope struct {
	Payload   json.RawMessage `json:"payload"`
	Caller    string          `json:"caller"`
	Signature string          `json:"signature"`
}

func signingHash(method string, payload json.RawMessage) [32]byte {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte(":"))
	h.Write(payload)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// verifyCaller decodes and authenticates a signed envelope, returning the
// proven caller address and the raw method payload.
func verifyCaller(method string, raw json.RawMessage) (vaultcrypto.Address, json.RawMessage, error) {
	var env signedEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return vaultcrypto.Address{}, nil, fmt.Errorf("invalid request envelope: %w", err)
	}
	claimed, err := parseAddress(env.Caller)
	if err != nil {
		return vaultcrypto.Address{}, nil, fmt.Errorf("invalid caller: %w", err)
	}
	sigHex := trimHexPrefix(env.Signature)
	sig, err := hex.DecodeString(sigHex)
	if err != nil {
		return vaultcrypto.Address{}, nil, fmt.Errorf("invalid signature encoding: %w", err)
	}
	hash := signingHash(method, env.Payload)
	recovered, err := vaultcrypto.RecoverAddress(hash[:], sig)
	if err != nil {
		return vaultcrypto.Address{}, nil, fmt.Errorf("signature verification failed: %w", err)
	}
	if !recovered.Equal(claimed) {
		return vaultcrypto.Address{}, nil, errors.New("signature does not match claimed caller")
	}
	return claimed, env.Payload, nil
}

// ServerConfig controls the RPC listener. TLS is optional: when both cert and
// key paths are empty the server falls back to plaintext HTTP, matching a
// local/dev deployment; in production an operator terminates TLS here or in
// front of vaultd.
type ServerConfig struct {
	ListenAddress      string
	TLSCertFile        string
	TLSKeyFile         string
	RateLimitPerMinute uint32
}

// Server dispatches mintvault_* and stakevault_* RPC methods against the two
// vault engines.
type Server struct {
	mintVault  *mintvault.Engine
	stakeVault *stakevault.Engine
	quotaStore common.Store
	quota      common.Quota
	logger     *slog.Logger

	tlsCertFile string
	tlsKeyFile  string

	serverMu   sync.Mutex
	httpServer *http.Server
}

// NewServer constructs a Server. quotaStore may be nil to disable per-caller
// request throttling.
func NewServer(cfg ServerConfig, mintVault *mintvault.Engine, stakeVault *stakevault.Engine, quotaStore common.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		mintVault:   mintVault,
		stakeVault:  stakeVault,
		quotaStore:  quotaStore,
		quota:       common.Quota{MaxRequestsPerMin: cfg.RateLimitPerMinute, EpochSeconds: 60},
		logger:      logger,
		tlsCertFile: cfg.TLSCertFile,
		tlsKeyFile:  cfg.TLSKeyFile,
	}
}

// Start listens on addr and serves until the listener is closed or an error
// occurs.
func (s *Server) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.logger.Info("rpc listening", "addr", listener.Addr().String())
	return s.Serve(listener)
}

// Serve runs the RPC server using the provided listener. The listener is
// closed when Serve returns.
func (s *Server) Serve(listener net.Listener) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handle)

	srv := &http.Server{
		Addr:              listener.Addr().String(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	tlsConfig, err := s.buildTLSConfig()
	if err != nil {
		_ = listener.Close()
		return err
	}
	if tlsConfig != nil {
		srv.TLSConfig = tlsConfig
	}

	s.serverMu.Lock()
	s.httpServer = srv
	s.serverMu.Unlock()
	defer func() {
		s.serverMu.Lock()
		s.httpServer = nil
		s.serverMu.Unlock()
	}()

	if tlsConfig != nil {
		return srv.Serve(tls.NewListener(listener, tlsConfig))
	}
	return srv.Serve(listener)
}

// Shutdown gracefully terminates the RPC server if it is running.
func (s *Server) Shutdown(ctx context.Context) error {
	s.serverMu.Lock()
	srv := s.httpServer
	s.serverMu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func (s *Server) buildTLSConfig() (*tls.Config, error) {
	certPath := strings.TrimSpace(s.tlsCertFile)
	keyPath := strings.TrimSpace(s.tlsKeyFile)
	if certPath == "" && keyPath == "" {
		return nil, nil
	}
	if certPath == "" || keyPath == "" {
		return nil, fmt.Errorf("both TLS certificate and key paths must be provided")
	}
	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return nil, fmt.Errorf("load TLS key pair: %w", err)
	}
	return &tls.Config{Certificates: []tls.Certificate{cert}, MinVersion: tls.VersionTLS12}, nil
}

// handlerFunc is the shape every mintvault_*/stakevault_* method implements.
// caller is the zero Address for unsigned (read-only) methods; payload is the
// method-specific JSON object — either the bare params element (unsigned
// methods) or the verified envelope's Payload field (signed methods).
type handlerFunc func(s *Server, caller vaultcrypto.Address, payload json.RawMessage) (interface{}, error)

var methodTable = map[string]struct {
	fn       handlerFunc
	signed   bool
	module   string
}{
	"mintvault_initialize":                   {fn: (*Server).handleMintVaultInitialize, signed: true, module: "mintvault"},
	"mintvault_pause":                        {fn: (*Server).handleMintVaultPause, signed: true, module: "mintvault"},
	"mintvault_updateFreezeAdministrators":   {fn: (*Server).handleMintVaultUpdateFreezeAdmins, signed: true, module: "mintvault"},
	"mintvault_updateRewardsAdministrators":  {fn: (*Server).handleMintVaultUpdateRewardsAdmins, signed: true, module: "mintvault"},
	"mintvault_updateVaultTokenAccount":      {fn: (*Server).handleMintVaultUpdateVaultTokenAccount, signed: true, module: "mintvault"},
	"mintvault_setVaultTokenAccountConfig":   {fn: (*Server).handleMintVaultSetVaultTokenAccountConfig, signed: true, module: "mintvault"},
	"mintvault_deposit":                      {fn: (*Server).handleMintVaultDeposit, signed: true, module: "mintvault"},
	"mintvault_requestRedeem":                {fn: (*Server).handleMintVaultRequestRedeem, signed: true, module: "mintvault"},
	"mintvault_completeRedeem":               {fn: (*Server).handleMintVaultCompleteRedeem, signed: true, module: "mintvault"},
	"mintvault_sweepRedeemVaultFunds":        {fn: (*Server).handleMintVaultSweepRedeemVaultFunds, signed: true, module: "mintvault"},
	"mintvault_createRewardsEpoch":           {fn: (*Server).handleMintVaultCreateRewardsEpoch, signed: true, module: "mintvault"},
	"mintvault_claimRewards":                 {fn: (*Server).handleMintVaultClaimRewards, signed: true, module: "mintvault"},
	"mintvault_freezeTokenAccount":           {fn: (*Server).handleMintVaultFreezeTokenAccount, signed: true, module: "mintvault"},
	"mintvault_thawTokenAccount":             {fn: (*Server).handleMintVaultThawTokenAccount, signed: true, module: "mintvault"},

	"stakevault_initialize":                  {fn: (*Server).handleStakeVaultInitialize, signed: true, module: "stakevault"},
	"stakevault_pause":                       {fn: (*Server).handleStakeVaultPause, signed: true, module: "stakevault"},
	"stakevault_updateConfig":                {fn: (*Server).handleStakeVaultUpdateConfig, signed: true, module: "stakevault"},
	"stakevault_updateFreezeAdministrators":  {fn: (*Server).handleStakeVaultUpdateFreezeAdmins, signed: true, module: "stakevault"},
	"stakevault_updateRewardsAdministrators": {fn: (*Server).handleStakeVaultUpdateRewardsAdmins, signed: true, module: "stakevault"},
	"stakevault_setStakeVaultTokenAccountConfig": {fn: (*Server).handleStakeVaultSetTokenAccountConfig, signed: true, module: "stakevault"},
	"stakevault_deposit":                     {fn: (*Server).handleStakeVaultDeposit, signed: true, module: "stakevault"},
	"stakevault_unbond":                      {fn: (*Server).handleStakeVaultUnbond, signed: true, module: "stakevault"},
	"stakevault_redeem":                      {fn: (*Server).handleStakeVaultRedeem, signed: true, module: "stakevault"},
	"stakevault_publishRewards":              {fn: (*Server).handleStakeVaultPublishRewards, signed: true, module: "stakevault"},
	"stakevault_freezeTokenAccount":          {fn: (*Server).handleStakeVaultFreezeTokenAccount, signed: true, module: "stakevault"},
	"stakevault_thawTokenAccount":            {fn: (*Server).handleStakeVaultThawTokenAccount, signed: true, module: "stakevault"},
	"stakevault_sharesToAssets":              {fn: (*Server).handleStakeVaultSharesToAssets, signed: false, module: "stakevault"},
	"stakevault_assetsToShares":              {fn: (*Server).handleStakeVaultAssetsToShares, signed: false, module: "stakevault"},
	"stakevault_exchangeRate":                {fn: (*Server).handleStakeVaultExchangeRate, signed: false, module: "stakevault"},
}

// handle is the single entry point every RPC request flows through: decode,
// dispatch, authenticate (for signed methods), rate-limit, execute, encode.
func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, nil, codeInvalidRequest, "only POST is supported", nil)
		return
	}

	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() { _ = reader.Close() }()

	var req RPCRequest
	if err := json.NewDecoder(reader).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid request body", err.Error())
		return
	}
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "exactly one params element is required", nil)
		return
	}

	entry, ok := methodTable[strings.TrimSpace(req.Method)]
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, "unknown method", req.Method)
		return
	}

	payload := req.Params[0]
	var caller vaultcrypto.Address
	if entry.signed {
		verified, rawPayload, err := verifyCaller(req.Method, payload)
		if err != nil {
			writeError(w, http.StatusUnauthorized, req.ID, codeUnauthorized, err.Error(), nil)
			return
		}
		if s.quotaStore != nil && s.quota.MaxRequestsPerMin > 0 {
			epoch := uint64(time.Now().Unix() / 60)
			if _, err := common.Apply(s.quotaStore, entry.module, epoch, verified.Bytes(), s.quota, 1, 0); err != nil {
				writeError(w, http.StatusTooManyRequests, req.ID, codeRateLimited, "rate limit exceeded", nil)
				return
			}
		}
		caller = verified
		payload = rawPayload
	}

	result, err := entry.fn(s, caller, payload)
	if err != nil {
		status, code := classifyError(err)
		writeError(w, status, req.ID, code, err.Error(), nil)
		return
	}
	writeResult(w, req.ID, result)
}

func classifyError(err error) (int, int) {
	switch {
	case errors.Is(err, mintvault.ErrUnauthorized), errors.Is(err, stakevault.ErrUnauthorized):
		return http.StatusForbidden, codeUnauthorized
	case errors.Is(err, mintvault.ErrProtocolPaused), errors.Is(err, stakevault.ErrProtocolPaused):
		return http.StatusServiceUnavailable, codeModulePaused
	case errors.Is(err, mintvault.ErrZeroAmount), errors.Is(err, mintvault.ErrOverflow),
		errors.Is(err, mintvault.ErrInvalidVaultTokenAccount), errors.Is(err, mintvault.ErrInvalidMint),
		errors.Is(err, mintvault.ErrInvalidProof), errors.Is(err, mintvault.ErrAdminListTooLong),
		errors.Is(err, stakevault.ErrZeroAmount), errors.Is(err, stakevault.ErrOverflow),
		errors.Is(err, stakevault.ErrInvalidVaultTokenAccount), errors.Is(err, stakevault.ErrInvalidMint),
		errors.Is(err, stakevault.ErrAdminListTooLong):
		return http.StatusBadRequest, codeInvalidParams
	default:
		return http.StatusInternalServerError, codeServerError
	}
}
