package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"tradeboard/pointhub/internal/config"
	"tradeboard/pointhub/internal/model"
	"tradeboard/pointhub/internal/repository"
	"tradeboard/pointhub/internal/service"
	"tradeboard/pointhub/internal/testutil"
	jwtpkg "tradeboard/pointhub/pkg/jwt"
	"tradeboard/pointhub/pkg/response"
)

type testServer struct {
	router  *gin.Engine
	db      *gorm.DB
	jwt     *jwtpkg.Manager
	adminID uuid.UUID
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	store := repository.NewPGStore(db)
	logger := zap.NewNop()
	adminID := uuid.New()

	cfg := &config.Config{
		Server: config.ServerConfig{Mode: "test"},
		Admin:  config.AdminConfig{UserIDs: []string{adminID.String()}},
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
			MaxAge:         time.Hour,
		},
	}
	jwtManager := jwtpkg.NewManager("test-key", "pointhub", time.Minute)

	ledger := service.NewLedgerService(store)
	viewGate := service.NewViewGateService(store, ledger, service.ViewGateOptions{ViewCost: 1})
	listings := service.NewListingService(store, ledger, service.ListingOptions{}, logger)
	referrals := service.NewReferralService(store, ledger, service.ReferralRewards{Inviter: 10, Invitee: 30})
	accounts := service.NewAccountService(store, ledger, referrals, 100, logger)
	recharges := service.NewRechargeService(store, ledger)

	router := SetupRouter(cfg, logger, jwtManager,
		NewContactHandler(viewGate),
		NewListingHandler(listings, viewGate),
		NewReferralHandler(referrals),
		NewUserHandler(accounts, ledger),
		NewRechargeHandler(recharges),
		NewAdminHandler(listings, recharges, ledger),
	)
	return &testServer{router: router, db: db, jwt: jwtManager, adminID: adminID}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) post(t *testing.T, path string, body interface{}) *httptest.ResponseRecorder {
	return s.do(t, http.MethodPost, path, body, nil)
}

func (s *testServer) adminPost(t *testing.T, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	token, err := s.jwt.GenerateAccessToken(s.adminID)
	require.NoError(t, err)
	return s.do(t, http.MethodPost, path, body, http.Header{"Authorization": {"Bearer " + token}})
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	env := struct {
		Data json.RawMessage `json:"data"`
	}{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.NoError(t, json.Unmarshal(env.Data, out))
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) response.ErrorBody {
	t.Helper()
	var env response.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env.Error
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestPreflightReturnsEmpty200(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodOptions, "/api/v1/contacts/reveal", nil, http.Header{
		"Origin":                        {"https://app.example.com"},
		"Access-Control-Request-Method": {"POST"},
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRevealContactFlow(t *testing.T) {
	s := newTestServer(t)
	viewer := testutil.CreateUser(t, s.db, "VIEWRA", 1)
	owner := testutil.CreateUser(t, s.db, "OWNERB", 0)
	listing := testutil.CreateListing(t, s.db, owner.ID, testutil.WithViews(2, 0))
	body := gin.H{"viewer_id": viewer.ID, "listing_id": listing.ID}

	w := s.post(t, "/api/v1/contacts/reveal", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res service.RevealResult
	decodeData(t, w, &res)
	assert.Equal(t, owner.Contact, res.Contact)
	assert.False(t, res.AlreadyViewed)

	w = s.post(t, "/api/v1/contacts/reveal", body)
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &res)
	assert.True(t, res.AlreadyViewed)

	// Viewer is out of points for a second listing.
	other := testutil.CreateListing(t, s.db, owner.ID)
	w = s.post(t, "/api/v1/contacts/reveal", gin.H{"viewer_id": viewer.ID, "listing_id": other.ID})
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Equal(t, response.CodeInsufficientFunds, decodeError(t, w).Code)
}

func TestErrorMapping(t *testing.T) {
	s := newTestServer(t)
	viewer := testutil.CreateUser(t, s.db, "VIEWRA", 5)
	owner := testutil.CreateUser(t, s.db, "OWNERB", 0)
	full := testutil.CreateListing(t, s.db, owner.ID, testutil.WithViews(1, 1))
	withdrawn := testutil.CreateListing(t, s.db, owner.ID, testutil.Withdrawn())

	tests := []struct {
		name   string
		body   interface{}
		status int
		code   string
	}{
		{"malformed body", gin.H{"viewer_id": "not-a-uuid"}, http.StatusBadRequest, response.CodeValidation},
		{"missing listing", gin.H{"viewer_id": viewer.ID, "listing_id": uuid.New()}, http.StatusNotFound, response.CodeNotFound},
		{"quota exhausted", gin.H{"viewer_id": viewer.ID, "listing_id": full.ID}, http.StatusConflict, response.CodeQuotaExhausted},
		{"withdrawn", gin.H{"viewer_id": viewer.ID, "listing_id": withdrawn.ID}, http.StatusConflict, response.CodeListingWithdrawn},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.post(t, "/api/v1/contacts/reveal", tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decodeError(t, w).Code)
		})
	}
}

func TestRegisterPublishAndHistory(t *testing.T) {
	s := newTestServer(t)
	inviter := testutil.CreateUser(t, s.db, "ABC123", 0)

	w := s.post(t, "/api/v1/users/register", gin.H{"contact": "wx-dave", "invite_code": "ABC123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var reg struct {
		User     model.User              `json:"user"`
		Referral *service.ReferralResult `json:"referral"`
	}
	decodeData(t, w, &reg)
	assert.Equal(t, int64(130), reg.User.Points)
	require.NotNil(t, reg.Referral)
	assert.Equal(t, int64(10), reg.Referral.InviterReward)

	w = s.post(t, "/api/v1/referrals/process", gin.H{"inviter_code": "ABC123", "invitee_id": reg.User.ID})
	require.Equal(t, http.StatusOK, w.Code)
	var ref service.ReferralResult
	decodeData(t, w, &ref)
	assert.True(t, ref.AlreadyProcessed)

	w = s.post(t, "/api/v1/referrals/info", gin.H{"user_id": inviter.ID})
	require.Equal(t, http.StatusOK, w.Code)
	var info service.InvitationInfo
	decodeData(t, w, &info)
	assert.Equal(t, 1, info.SuccessfulInvites)

	w = s.post(t, "/api/v1/listings/publish", gin.H{"owner_id": reg.User.ID, "title": "desk", "price": "30.00", "view_limit": 20})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var listing model.Listing
	decodeData(t, w, &listing)
	assert.Equal(t, 20, listing.ViewLimit)

	w = s.post(t, "/api/v1/listings/detail", gin.H{"listing_id": listing.ID})
	require.Equal(t, http.StatusOK, w.Code)
	var detail service.ListingDetail
	decodeData(t, w, &detail)
	assert.Equal(t, 20, detail.Remaining)

	w = s.post(t, "/api/v1/listings/withdraw", gin.H{"owner_id": reg.User.ID, "listing_id": listing.ID})
	require.Equal(t, http.StatusOK, w.Code)
	var withdrawn struct {
		Refund int64 `json:"refund"`
	}
	decodeData(t, w, &withdrawn)
	assert.Equal(t, int64(20), withdrawn.Refund)

	w = s.post(t, "/api/v1/users/profile", gin.H{"user_id": reg.User.ID})
	require.Equal(t, http.StatusOK, w.Code)
	var profile model.User
	decodeData(t, w, &profile)
	assert.Equal(t, int64(130), profile.Points)
	assert.Equal(t, 1, profile.TotalListings)
	assert.NotContains(t, w.Body.String(), "wx-dave")

	w = s.post(t, "/api/v1/points/history", gin.H{"user_id": reg.User.ID, "limit": 2})
	require.Equal(t, http.StatusOK, w.Code)
	var history struct {
		Entries []model.LedgerEntry `json:"entries"`
	}
	decodeData(t, w, &history)
	assert.Len(t, history.Entries, 2)
}

func TestAdminRoutesRequireOperator(t *testing.T) {
	s := newTestServer(t)

	w := s.post(t, "/api/v1/admin/sweep/expired", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, response.CodeUnauthorized, decodeError(t, w).Code)

	token, err := s.jwt.GenerateAccessToken(uuid.New())
	require.NoError(t, err)
	w = s.do(t, http.MethodPost, "/api/v1/admin/sweep/expired", nil, http.Header{"Authorization": {"Bearer " + token}})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminSweepsAndRecharges(t *testing.T) {
	s := newTestServer(t)
	owner := testutil.CreateUser(t, s.db, "OWNERB", 50)
	now := time.Now()
	testutil.CreateListing(t, s.db, owner.ID, testutil.WithViews(10, 3), testutil.WithCreatedAt(now.Add(-73*time.Hour)))
	testutil.CreateListing(t, s.db, owner.ID, testutil.WithViews(4, 0), testutil.WithExpireAt(now.Add(-time.Minute)))

	w := s.adminPost(t, "/api/v1/admin/sweep/expired", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"data":{"count":1}}`, w.Body.String())

	w = s.adminPost(t, "/api/v1/admin/sweep/stale", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stale service.SweepResult
	decodeData(t, w, &stale)
	require.Equal(t, 1, stale.Count)
	assert.Equal(t, int64(7), stale.Results[0].Refund)
	assert.Equal(t, int64(61), testutil.ReloadUser(t, s.db, owner.ID).Points)

	w = s.post(t, "/api/v1/recharges/submit", gin.H{"user_id": owner.ID, "amount": 100})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var submitted model.RechargeRequest
	decodeData(t, w, &submitted)
	assert.Equal(t, int64(115), submitted.Points)

	w = s.adminPost(t, "/api/v1/admin/recharges/pending", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var pending struct {
		Requests []model.RechargeRequest `json:"requests"`
	}
	decodeData(t, w, &pending)
	assert.Len(t, pending.Requests, 1)

	review := gin.H{"request_id": submitted.ID, "approved": true, "admin_note": "ok"}
	w = s.adminPost(t, "/api/v1/admin/recharges/review", review)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = s.adminPost(t, "/api/v1/admin/recharges/review", review)
	require.Equal(t, http.StatusOK, w.Code)
	var again service.ReviewResult
	decodeData(t, w, &again)
	assert.True(t, again.AlreadyProcessed)
	assert.Equal(t, int64(176), testutil.ReloadUser(t, s.db, owner.ID).Points)

	w = s.adminPost(t, "/api/v1/admin/ledger/audit", gin.H{"user_id": owner.ID})
	require.Equal(t, http.StatusOK, w.Code)
	var report service.AuditReport
	decodeData(t, w, &report)
	assert.True(t, report.Consistent)
	assert.Equal(t, int64(176), report.LedgerSum)
}
