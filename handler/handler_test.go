package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/blurmagic/backend/config"
	"github.com/blurmagic/backend/handler"
	"github.com/blurmagic/backend/model"
	"github.com/blurmagic/backend/repository"
	"github.com/blurmagic/backend/router"
	"github.com/blurmagic/backend/service"
	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	testJWTSecret  = "test-jwt-secret"
	testMerchant   = "0x742d35cc6634c0532925a3b844bc454e4438f44e"
	testQuotaLimit = service.FreeDailyLimit
)

// stubVerifier satisfies service.TransferVerifier with a canned result.
type stubVerifier struct {
	result *service.VerifyResult
	err    error
}

func (s *stubVerifier) VerifyTransfer(ctx context.Context, txid, toAddress string, amountUSDT float64) (*service.VerifyResult, error) {
	return s.result, s.err
}

type testEnv struct {
	engine *gin.Engine
	db     *gorm.DB
	tron   *stubVerifier
	bsc    *stubVerifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, model.AutoMigrate(db))

	cfg := &config.Config{
		AuthJWTSecret:           testJWTSecret,
		TronKeyEncryptionSecret: "test-encryption-secret",
		MerchantBSCAddress:      testMerchant,
		PriceUSDT:               10,
		MonthlyCredits:          1000,
		PeriodDays:              30,
		RateLimitPerMin:         10000,
	}

	users := repository.NewUserRepository(db)
	payments := repository.NewPaymentRepository(db)
	ledger := repository.NewLedgerRepository(db)

	tron := &stubVerifier{result: &service.VerifyResult{Reason: service.ReasonNoMatch}}
	bsc := &stubVerifier{result: &service.VerifyResult{Reason: service.ReasonNoMatch}}

	settlement := service.NewSettlementService(db)
	wallet := service.NewWalletService(users, cfg.TronKeyEncryptionSecret)
	claims := service.NewClaimService(users, settlement, tron, bsc,
		cfg.MerchantBSCAddress, cfg.PriceUSDT, cfg.MonthlyCredits, cfg.PeriodDays)
	entitlements := service.NewEntitlementService(db, users)

	paymentHandler := handler.NewPaymentHandler(wallet, claims, payments, cfg.PriceUSDT, cfg.MonthlyCredits)
	entitlementHandler := handler.NewEntitlementHandler(entitlements, ledger)

	return &testEnv{
		engine: router.SetupRouter(cfg, paymentHandler, entitlementHandler),
		db:     db,
		tron:   tron,
		bsc:    bsc,
	}
}

func bearerToken(t *testing.T, uid string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": uid}).
		SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return "Bearer " + token
}

func doJSON(t *testing.T, env *testEnv, method, path, auth string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer = bytes.NewBuffer(nil)
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rr := httptest.NewRecorder()
	env.engine.ServeHTTP(rr, req)
	return rr
}

func TestHealthIsPublic(t *testing.T) {
	env := newTestEnv(t)
	rr := doJSON(t, env, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestMissingBearerIsUnauthorized(t *testing.T) {
	env := newTestEnv(t)
	rr := doJSON(t, env, http.MethodGet, "/entitlements", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestBadTokenIsUnauthorized(t *testing.T) {
	env := newTestEnv(t)
	rr := doJSON(t, env, http.MethodGet, "/entitlements", "Bearer not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestEntitlementsForNewUser(t *testing.T) {
	env := newTestEnv(t)
	rr := doJSON(t, env, http.MethodGet, "/entitlements", bearerToken(t, "user-1"), nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var ent service.Entitlements
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &ent))
	assert.Equal(t, model.PlanFree, ent.Plan)
	assert.Equal(t, int64(testQuotaLimit), ent.Remaining)
	assert.True(t, ent.CanUse)
}

func TestConsumeInsufficientCreditsIs402(t *testing.T) {
	env := newTestEnv(t)
	rr := doJSON(t, env, http.MethodPost, "/credits/consume", bearerToken(t, "user-1"),
		map[string]interface{}{"count": testQuotaLimit + 1, "reason": "process_image"})
	require.Equal(t, http.StatusPaymentRequired, rr.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "insufficient_credits", body["code"])
}

func TestConsumeInvalidCountIs400(t *testing.T) {
	env := newTestEnv(t)
	rr := doJSON(t, env, http.MethodPost, "/credits/consume", bearerToken(t, "user-1"),
		map[string]interface{}{"count": 0, "reason": "process_image"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestTronClaimWithoutDepositAddressIs400(t *testing.T) {
	env := newTestEnv(t)
	rr := doJSON(t, env, http.MethodPost, "/payments/tron/claim", bearerToken(t, "user-1"),
		map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestBSCClaimRequiresTxID(t *testing.T) {
	env := newTestEnv(t)
	rr := doJSON(t, env, http.MethodPost, "/payments/bsc/claim", bearerToken(t, "user-1"),
		map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestTronDepositThenClaimGrantsCredits(t *testing.T) {
	env := newTestEnv(t)
	auth := bearerToken(t, "user-1")

	// deposit address is created once and reused
	rr := doJSON(t, env, http.MethodPost, "/payments/tron/deposit", auth, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var dep map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &dep))
	address, _ := dep["address"].(string)
	require.NotEmpty(t, address)

	rr = doJSON(t, env, http.MethodPost, "/payments/tron/deposit", auth, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var dep2 map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &dep2))
	assert.Equal(t, address, dep2["address"])

	// no matching transfer yet
	rr = doJSON(t, env, http.MethodPost, "/payments/tron/claim", auth, map[string]interface{}{})
	require.Equal(t, http.StatusOK, rr.Code)
	var claim map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &claim))
	assert.Equal(t, false, claim["paid"])

	// transfer shows up
	env.tron.result = &service.VerifyResult{
		Found:  true,
		TxID:   "tx-paid-1",
		From:   "TSenderAddr",
		Amount: "10000000",
	}
	rr = doJSON(t, env, http.MethodPost, "/payments/tron/claim", auth, map[string]interface{}{})
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &claim))
	assert.Equal(t, true, claim["paid"])
	assert.Equal(t, true, claim["processed"])

	// a retry of the same claim is already settled
	rr = doJSON(t, env, http.MethodPost, "/payments/tron/claim", auth, map[string]interface{}{})
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &claim))
	assert.Equal(t, true, claim["paid"])
	assert.Equal(t, false, claim["processed"])

	// entitlements reflect the grant
	rr = doJSON(t, env, http.MethodGet, "/entitlements", auth, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var ent service.Entitlements
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &ent))
	assert.Equal(t, model.PlanPro, ent.Plan)
	assert.Equal(t, int64(1000), ent.CreditsBalance)

	// ledger shows exactly one grant
	rr = doJSON(t, env, http.MethodGet, "/credits/ledger", auth, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var ledgerBody struct {
		Entries []model.CreditLedgerEntry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &ledgerBody))
	require.Len(t, ledgerBody.Entries, 1)
	assert.Equal(t, model.LedgerGrant, ledgerBody.Entries[0].Type)
}

func TestBSCClaimGrantsCredits(t *testing.T) {
	env := newTestEnv(t)
	auth := bearerToken(t, "user-2")

	env.bsc.result = &service.VerifyResult{
		Found:       true,
		TxID:        "0xdeadbeef",
		From:        "0x1111111111111111111111111111111111111111",
		Amount:      "10000000000000000000",
		BlockNumber: 123,
	}
	rr := doJSON(t, env, http.MethodPost, "/payments/bsc/claim", auth,
		map[string]interface{}{"txid": "0xdeadbeef"})
	require.Equal(t, http.StatusOK, rr.Code)

	var claim map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &claim))
	assert.Equal(t, true, claim["paid"])
	assert.Equal(t, true, claim["processed"])

	var p model.Payment
	require.NoError(t, env.db.First(&p, "id = ?", model.PaymentID(model.ChainBEP20, "0xdeadbeef")).Error)
	assert.Equal(t, "user-2", p.UID)
	assert.Equal(t, testMerchant, p.ToAddress)

	// payment history lists it
	rr = doJSON(t, env, http.MethodGet, "/payments/history", auth, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var hist struct {
		Payments []model.Payment `json:"payments"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &hist))
	require.Len(t, hist.Payments, 1)
}

func TestPaymentStatusLookup(t *testing.T) {
	env := newTestEnv(t)
	auth := bearerToken(t, "user-1")

	env.bsc.result = &service.VerifyResult{
		Found:  true,
		TxID:   "0xdeadbeef",
		From:   "0x1111111111111111111111111111111111111111",
		Amount: "10000000000000000000",
	}
	rr := doJSON(t, env, http.MethodPost, "/payments/bsc/claim", auth,
		map[string]interface{}{"txid": "0xdeadbeef"})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, env, http.MethodGet, "/payments/status/BEP20/0xdeadbeef", auth, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var status struct {
		Payment model.Payment `json:"payment"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &status))
	assert.Equal(t, model.PaymentConfirmed, status.Payment.Status)
	assert.Equal(t, "0xdeadbeef", status.Payment.TxID)

	// unknown tx and another user's payment both read as not found
	rr = doJSON(t, env, http.MethodGet, "/payments/status/BEP20/0xunknown", auth, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	rr = doJSON(t, env, http.MethodGet, "/payments/status/BEP20/0xdeadbeef", bearerToken(t, "user-2"), nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestBSCPendingClaimReportsReason(t *testing.T) {
	env := newTestEnv(t)
	env.bsc.result = &service.VerifyResult{Reason: service.ReasonPending, TxID: "0xdeadbeef"}

	rr := doJSON(t, env, http.MethodPost, "/payments/bsc/claim", bearerToken(t, "user-1"),
		map[string]interface{}{"txid": "0xdeadbeef"})
	require.Equal(t, http.StatusOK, rr.Code)

	var claim map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &claim))
	assert.Equal(t, false, claim["paid"])
	assert.Equal(t, service.ReasonPending, claim["reason"])
}
