package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentmate/internal/domain"
	"rentmate/internal/repository"
	"rentmate/internal/testutil"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

func setup(t *testing.T) (*gin.Engine, map[string]*domain.Talent) {
	t.Helper()
	ctx := context.Background()
	db := testutil.OpenDB(t)
	talents := repository.NewTalentRepository(db)
	blocked := repository.NewBlockedTalentRepository(db)
	settings := repository.NewSettingsRepository(db)

	seed := map[string]*domain.Talent{
		"ayu":  {Name: "Ayu", City: "Jakarta", PricePerHour: 150000, Verified: true},
		"sari": {Name: "Sari", City: "Bandung", PricePerHour: 120000, Verified: true},
		"new":  {Name: "Nina", City: "Jakarta", PricePerHour: 100000},
		"bad":  {Name: "Bella", City: "Jakarta", PricePerHour: 90000, Verified: true},
	}
	for _, tl := range seed {
		require.NoError(t, talents.Create(ctx, tl))
	}
	require.NoError(t, blocked.Block(ctx, &domain.BlockedTalent{TalentID: seed["bad"].ID, BlockedBy: 1}))
	_, err := settings.EnsureDefaults(ctx, &domain.PlatformSettings{
		CommissionPercent: 20,
		Cities:            []string{"Jakarta", "Bandung"},
		BankAccounts:      []domain.BankAccount{{Bank: domain.PaymentBCA, AccountNumber: "123", AccountHolder: "PT RentMate"}},
	})
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(NewService(talents, blocked, settings)).RegisterRoutes(r.Group("/api/v1"))
	return r, seed
}

func get(t *testing.T, r http.Handler, path string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

func TestListTalents_HidesUnverifiedAndBlocked(t *testing.T) {
	r, _ := setup(t)

	w, env := get(t, r, "/api/v1/talents?city=jakarta")
	require.Equal(t, http.StatusOK, w.Code)
	var data struct {
		Talents []domain.Talent `json:"talents"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Len(t, data.Talents, 1)
	assert.Equal(t, "Ayu", data.Talents[0].Name)

	_, env = get(t, r, "/api/v1/talents?q=sa")
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Len(t, data.Talents, 1)
	assert.Equal(t, "Sari", data.Talents[0].Name)
}

func TestGetTalent(t *testing.T) {
	r, seed := setup(t)

	w, _ := get(t, r, "/api/v1/talents/"+itoa(seed["ayu"].ID))
	assert.Equal(t, http.StatusOK, w.Code)

	for _, hidden := range []string{"new", "bad"} {
		w, env := get(t, r, "/api/v1/talents/"+itoa(seed[hidden].ID))
		assert.Equal(t, http.StatusNotFound, w.Code, hidden)
		assert.False(t, env.Success)
	}

	w, _ = get(t, r, "/api/v1/talents/abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCitiesAndPaymentSettings(t *testing.T) {
	r, _ := setup(t)

	_, env := get(t, r, "/api/v1/cities")
	var cities struct {
		Cities []string `json:"cities"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &cities))
	assert.Equal(t, []string{"Jakarta", "Bandung"}, cities.Cities)

	_, env = get(t, r, "/api/v1/payment-settings")
	var ps PaymentSettings
	require.NoError(t, json.Unmarshal(env.Data, &ps))
	require.Len(t, ps.BankAccounts, 1)
	assert.Equal(t, domain.PaymentBCA, ps.BankAccounts[0].Bank)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
