package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"StockReview/pkg/bootstrap"
	"StockReview/pkg/config"
	"StockReview/pkg/kvstore"
	"StockReview/pkg/model"
	"StockReview/pkg/monitor"
	"StockReview/pkg/recordstore"
	"StockReview/pkg/service"
)

var now = time.Date(2024, time.March, 15, 15, 0, 0, 0, time.UTC)

type envelope[T any] struct {
	Data  T      `json:"data"`
	Error string `json:"error"`
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := recordstore.NewMemory()
	t.Cleanup(func() { db.Close() })
	clock := func() time.Time { return now }
	svcs := service.New(db, kvstore.NewMemory(), service.Options{Clock: clock})

	mon := monitor.NewMonitor(nil)
	mon.RegisterComponent("recordstore", func(ctx context.Context) error {
		_, err := db.Count(ctx, recordstore.MarketIndices)
		return err
	})

	srv := NewServer(config.Default())
	srv.SetupRoutes(NewHandlers(svcs, bootstrap.New(db, svcs, clock), mon))
	return srv.Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var env envelope[T]
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return env
}

func TestReadiness(t *testing.T) {
	h := newTestServer(t)

	if w := do(t, h, http.MethodGet, "/health", ""); w.Code != http.StatusOK {
		t.Errorf("/health = %d", w.Code)
	}
	if w := do(t, h, http.MethodGet, "/ready", ""); w.Code != http.StatusServiceUnavailable {
		t.Errorf("/ready before init = %d", w.Code)
	}
	w := do(t, h, http.MethodPost, "/api/v1/admin/init", "")
	if got := decode[map[string]bool](t, w); w.Code != http.StatusOK || !got.Data["seeded"] {
		t.Fatalf("init = %d %s", w.Code, w.Body.String())
	}
	if w := do(t, h, http.MethodGet, "/ready", ""); w.Code != http.StatusOK {
		t.Errorf("/ready after init = %d %s", w.Code, w.Body.String())
	}
}

func TestStatusMapping(t *testing.T) {
	h := newTestServer(t)
	do(t, h, http.MethodPost, "/api/v1/admin/init", "")

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"list indices", http.MethodGet, "/api/v1/market/indices", "", http.StatusOK},
		{"missing index", http.MethodGet, "/api/v1/market/indices/999999", "", http.StatusNotFound},
		{"bad id", http.MethodGet, "/api/v1/trades/abc", "", http.StatusBadRequest},
		{"missing trade", http.MethodGet, "/api/v1/trades/99", "", http.StatusNotFound},
		{"zero price", http.MethodPost, "/api/v1/trades", `{"stockCode":"688981","type":"buy","price":0,"quantity":100}`, http.StatusBadRequest},
		{"duplicate sentiment", http.MethodPost, "/api/v1/market/sentiment", `{"date":"2024-03-15"}`, http.StatusConflict},
		{"malformed sentiment date", http.MethodPost, "/api/v1/market/sentiment", `{"date":"2024-3-5"}`, http.StatusBadRequest},
		{"garbage sentiment date", http.MethodPut, "/api/v1/market/sentiment", `{"date":"garbage"}`, http.StatusBadRequest},
		{"bad theme", http.MethodPut, "/api/v1/settings/theme", `{"theme":"purple"}`, http.StatusBadRequest},
		{"unknown favorite", http.MethodPost, "/api/v1/favorites/stocks/000000", "", http.StatusNotFound},
		{"bad date", http.MethodGet, "/api/v1/market/sentiment?date=yesterday", "", http.StatusBadRequest},
		{"half range", http.MethodGet, "/api/v1/trades?start=2024-03-01", "", http.StatusBadRequest},
		{"bad format", http.MethodPost, "/api/v1/exports", `{"format":"pdf"}`, http.StatusBadRequest},
		{"unknown share", http.MethodGet, "/api/v1/shared/nope", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, tt.method, tt.path, tt.body)
			if w.Code != tt.want {
				t.Errorf("%s %s = %d, want %d: %s", tt.method, tt.path, w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestTradeFlow(t *testing.T) {
	h := newTestServer(t)
	do(t, h, http.MethodPost, "/api/v1/admin/init", "")

	w := do(t, h, http.MethodPost, "/api/v1/trades",
		`{"stockCode":"688981","stockName":"中芯国际","type":"卖出","price":70,"quantity":100,"date":"2024-03-15T15:00:00Z"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create sell = %d %s", w.Code, w.Body.String())
	}
	rec := decode[model.TradeRecord](t, w).Data
	if rec.ProfitAmount == nil || *rec.ProfitAmount != 975 || !*rec.IsProfit || *rec.HoldDays != 10 {
		t.Errorf("sell record = %+v", rec)
	}

	w = do(t, h, http.MethodGet, "/api/v1/trades?code=688981&type=sell", "")
	if list := decode[[]model.TradeRecord](t, w).Data; len(list) != 2 {
		t.Errorf("sells of 688981 = %d, want 2", len(list))
	}
	w = do(t, h, http.MethodGet, "/api/v1/trades?start=2024-03-15&end=2024-03-15", "")
	if list := decode[[]model.TradeRecord](t, w).Data; len(list) != 3 {
		t.Errorf("trades on 2024-03-15 = %d, want 3", len(list))
	}

	w = do(t, h, http.MethodGet, "/api/v1/trade-analysis", "")
	a := decode[model.TradeAnalysis](t, w).Data
	if a.TotalTrades != 3 || a.ProfitTrades != 2 || a.TotalProfit != 1709 {
		t.Errorf("analysis = %+v", a)
	}
}

func TestExportShareFlow(t *testing.T) {
	h := newTestServer(t)

	w := do(t, h, http.MethodPost, "/api/v1/knowledge", `{"title":"止损","content":"**三个点**无条件离场","tags":["纪律"]}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create knowledge = %d %s", w.Code, w.Body.String())
	}
	w = do(t, h, http.MethodPost, "/api/v1/exports", `{"format":"html"}`)
	exp := decode[model.ExportRecord](t, w).Data
	if w.Code != http.StatusCreated || exp.ID == 0 {
		t.Fatalf("export = %d %s", w.Code, w.Body.String())
	}

	w = do(t, h, http.MethodPost, "/api/v1/exports/1/share?ttl=1h", "")
	share := decode[model.SharedExport](t, w).Data
	if w.Code != http.StatusCreated || share.Token == "" || !share.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("share = %d %s", w.Code, w.Body.String())
	}

	w = do(t, h, http.MethodGet, "/api/v1/shared/"+share.Token, "")
	if w.Code != http.StatusOK || !strings.HasPrefix(w.Header().Get("Content-Type"), "text/html") {
		t.Fatalf("shared = %d %q", w.Code, w.Header().Get("Content-Type"))
	}
	if !strings.Contains(w.Body.String(), "<strong>三个点</strong>") {
		t.Errorf("shared body = %s", w.Body.String())
	}

	w = do(t, h, http.MethodGet, "/api/v1/knowledge?tag="+url.QueryEscape("纪律"), "")
	if list := decode[[]model.KnowledgeEntry](t, w).Data; len(list) != 1 {
		t.Errorf("knowledge by tag = %d", len(list))
	}
}

func TestSettingsAndSession(t *testing.T) {
	h := newTestServer(t)

	w := do(t, h, http.MethodPatch, "/api/v1/settings", `{"theme":"dark","favoriteSectors":["BK0001"]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("patch = %d %s", w.Code, w.Body.String())
	}
	settings := decode[model.UserSettings](t, do(t, h, http.MethodGet, "/api/v1/settings", "")).Data
	if settings.Theme != model.ThemeDark || len(settings.FavoriteSectors) != 1 || settings.DefaultModule != model.DefaultModule {
		t.Errorf("settings = %+v", settings)
	}

	w = do(t, h, http.MethodPost, "/api/v1/session", `{"username":"alice"}`)
	id := decode[map[string]string](t, w).Data["userId"]
	if w.Code != http.StatusOK || id == "" {
		t.Fatalf("login = %d %s", w.Code, w.Body.String())
	}
	do(t, h, http.MethodDelete, "/api/v1/session", "")
	cur := decode[map[string]any](t, do(t, h, http.MethodGet, "/api/v1/session", "")).Data
	if cur["loggedIn"] != false {
		t.Errorf("session after logout = %v", cur)
	}
}
