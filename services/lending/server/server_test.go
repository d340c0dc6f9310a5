package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"openchain/crypto"
	"openchain/native/lending"
	"openchain/native/token"
	"openchain/storage"
)

const adminToken = "test-admin-token"

type fixture struct {
	server *Server
	engine *lending.Engine
	ledger *token.Ledger
	oracle *lending.StaticOracle

	admin crypto.Address
	user  crypto.Address
	mint  crypto.Address
	feed  crypto.Address
}

func fillAddr(prefix crypto.AddressPrefix, fill byte) crypto.Address {
	raw := bytes.Repeat([]byte{fill}, 20)
	return crypto.MustNewAddress(prefix, raw)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := storage.NewMemDB()
	f := &fixture{
		ledger: token.NewLedger(db),
		oracle: lending.NewStaticOracle(),
		admin:  fillAddr(crypto.AccountPrefix, 0x01),
		user:   fillAddr(crypto.AccountPrefix, 0x02),
		mint:   fillAddr(crypto.MintPrefix, 0x03),
		feed:   fillAddr(crypto.AccountPrefix, 0x04),
	}
	engine := lending.NewEngine()
	engine.SetState(lending.NewStore(db))
	engine.SetTokenLedger(f.ledger)
	engine.SetOracle(f.oracle)
	engine.SetPoolAddress(fillAddr(crypto.AccountPrefix, 0x05))
	current := time.Unix(1_800_000_000, 0)
	engine.SetClock(func() time.Time { return current })
	f.engine = engine

	_, err := engine.InitializePool(f.admin, crypto.Address{})
	require.NoError(t, err)
	_, err = engine.RegisterAsset(f.admin, f.mint, lending.AssetConfig{
		PriceFeed:            f.feed,
		Decimals:             0,
		LTV:                  750_000_000_000_000_000,
		LiquidationThreshold: 950_000_000_000_000_000,
		CanBeCollateral:      true,
		CanBeBorrowed:        true,
	})
	require.NoError(t, err)
	f.oracle.SetPrice(f.feed, 1)
	require.NoError(t, f.ledger.Mint(f.mint, f.user, 5000))

	f.server = New(engine, slog.Default(), nil, Config{
		AdminTokens:   []string{adminToken},
		RatePerSecond: 1000,
		Burst:         1000,
	})
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.server.Router().ServeHTTP(rec, req)
	return rec
}

func TestDepositEndpoint(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/v1/lending/deposit", amountRequest{
		User:   f.user.String(),
		Mint:   f.mint.String(),
		Amount: "1000",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp positionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "1000", resp.CollateralBalance)
	require.Equal(t, "0", resp.BorrowBalance)
	require.Equal(t, f.user.String(), resp.Owner)
}

func TestDepositRejectsMalformedAmount(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/v1/lending/deposit", amountRequest{
		User:   f.user.String(),
		Mint:   f.mint.String(),
		Amount: "not-a-number",
	}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDepositRejectsWrongPrefix(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/v1/lending/deposit", amountRequest{
		User:   f.mint.String(), // mint where an account is expected
		Mint:   f.mint.String(),
		Amount: "10",
	}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBorrowOverLTVConflicts(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/v1/lending/deposit", amountRequest{
		User: f.user.String(), Mint: f.mint.String(), Amount: "1000",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	// Same clock instant would trip the cooldown before the LTV check, so
	// borrow as a fresh request after the window.
	f.engine.SetClock(func() time.Time { return time.Unix(1_800_000_000+lending.ActionCooldown+1, 0) })

	rec = f.do(t, http.MethodPost, "/v1/lending/borrow", borrowRequest{
		User: f.user.String(), Mint: f.mint.String(), Amount: "800", DestChain: 0,
	}, "")
	require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
}

func TestPositionNotFound(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/v1/lending/positions/"+f.user.String()+"/"+f.mint.String(), nil, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAssetEndpoint(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/v1/lending/assets/"+f.mint.String(), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp assetResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, f.mint.String(), resp.Mint)
	require.True(t, resp.Active)
	require.Equal(t, "750000000000000000", resp.LTV)
}

func TestAdminRoutesRequireToken(t *testing.T) {
	f := newFixture(t)
	body := adminRequest{Caller: f.admin.String()}

	rec := f.do(t, http.MethodPost, "/v1/lending/pause", body, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodPost, "/v1/lending/pause", body, "wrong-token")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodPost, "/v1/lending/pause", body, adminToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestPausedPoolForbidsDeposits(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/v1/lending/pause", adminRequest{Caller: f.admin.String()}, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, "/v1/lending/deposit", amountRequest{
		User: f.user.String(), Mint: f.mint.String(), Amount: "10",
	}, "")
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodPost, "/v1/lending/unpause", adminRequest{Caller: f.admin.String()}, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, "/v1/lending/deposit", amountRequest{
		User: f.user.String(), Mint: f.mint.String(), Amount: "10",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestReceiveMessageEndpoint(t *testing.T) {
	f := newFixture(t)
	var user, asset [20]byte
	copy(user[:], f.user.Bytes())
	copy(asset[:], f.mint.Bytes())
	msg := &lending.CrossChainMessage{
		User:        user,
		Action:      lending.ActionBorrow,
		Asset:       asset,
		Amount:      250,
		SourceChain: 3,
	}
	payload, err := msg.Encode()
	require.NoError(t, err)

	rec := f.do(t, http.MethodPost, "/v1/lending/messages", messageRequest{
		Payload: base64.StdEncoding.EncodeToString(payload),
	}, adminToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp messageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, lending.ActionBorrow, resp.Action)
	require.Equal(t, "250", resp.Amount)

	balance, err := f.ledger.BalanceOf(token.SyntheticAsset(f.mint), f.user)
	require.NoError(t, err)
	require.Equal(t, uint64(250), balance)
}

func TestPoolEndpoint(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/v1/lending/pool", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp poolResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, f.admin.String(), resp.Admin)
	require.False(t, resp.Paused)
	require.Equal(t, uint32(1), resp.TotalAssets)
}
