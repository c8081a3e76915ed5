package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/dukerupert/lifemate/internal/advisor"
	"github.com/dukerupert/lifemate/internal/catalog"
	"github.com/dukerupert/lifemate/internal/database"
	"github.com/dukerupert/lifemate/internal/geo"
	"github.com/dukerupert/lifemate/internal/i18n"
	"github.com/dukerupert/lifemate/internal/idgen"
	"github.com/dukerupert/lifemate/internal/kv"
	"github.com/dukerupert/lifemate/internal/model"
	"github.com/dukerupert/lifemate/internal/store"
	"github.com/dukerupert/lifemate/internal/voice"
)

type fixture struct {
	mux   *http.ServeMux
	prefs *store.PreferenceStore
	lists *store.ShoppingListStore
	svc   *fakeCompletion
}

type fakeCompletion struct {
	reply string
	err   error
}

func (f *fakeCompletion) Complete(context.Context, advisor.Request) (string, error) {
	return f.reply, f.err
}

func setupFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	kvs := kv.New(db, slog.Default())
	ids := idgen.New()
	cat := catalog.Default()
	prefs := store.NewPreferenceStore(kvs)
	lists := store.NewShoppingListStore(kvs, ids)
	products := store.NewProductStore(kvs, ids, cat)
	svc := &fakeCompletion{}

	shopping := NewShoppingHandler(lists, products, voice.NewParser(cat.Units), prefs, nil, slog.Default())
	milk := NewMilkHandler(store.NewMilkVendorStore(kvs, ids), nil)
	att := NewAttendanceHandler(store.NewAttendanceStore(kvs), store.NewHistoryStore(kvs, ids), nil, time.UTC)
	settings := NewSettingsHandler(prefs, nil)
	adv := NewAdvisorHandler(advisor.New(svc, time.Hour, cat, slog.Default()), cat, geo.NewLocator(nil), prefs, slog.Default())

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/lists", shopping.List)
	mux.HandleFunc("POST /api/lists", shopping.Create)
	mux.HandleFunc("POST /api/lists/{id}/duplicate", shopping.Duplicate)
	mux.HandleFunc("POST /api/lists/{id}/items", shopping.AddItem)
	mux.HandleFunc("PUT /api/lists/{id}/items/{item_id}", shopping.UpdateItem)
	mux.HandleFunc("POST /api/lists/{id}/voice", shopping.Voice)
	mux.HandleFunc("POST /api/expenses", shopping.SaveExpenses)
	mux.HandleFunc("POST /api/vendors", milk.Create)
	mux.HandleFunc("POST /api/vendors/{id}/records", milk.AddRecord)
	mux.HandleFunc("GET /api/vendors/{id}/totals", milk.Totals)
	mux.HandleFunc("POST /api/attendance/{date}/toggle", att.Toggle)
	mux.HandleFunc("PUT /api/attendance/{date}", att.UpdateDay)
	mux.HandleFunc("PUT /api/attendance/settings", att.UpdateSettings)
	mux.HandleFunc("POST /api/attendance/history", att.SaveHistory)
	mux.HandleFunc("GET /api/attendance", att.Month)
	mux.HandleFunc("PUT /api/language", settings.UpdateLanguage)
	mux.HandleFunc("GET /api/horoscope/{sign}", adv.Horoscope)
	mux.HandleFunc("GET /api/weather", adv.Weather)
	mux.HandleFunc("POST /api/remedies", adv.Remedies)
	mux.HandleFunc("POST /api/calculator", Calculate)

	return &fixture{mux: mux, prefs: prefs, lists: lists, svc: svc}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestCreateListAndDuplicate(t *testing.T) {
	f := setupFixture(t)

	rec := f.do(t, "POST", "/api/lists", map[string]any{"name": "Weekly", "productIds": []int64{201}})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body)
	}
	created := decodeBody[listResponse](t, rec)
	if len(created.Items) != 1 || created.Items[0].Name != "Potato" {
		t.Fatalf("items = %+v, want one Potato", created.Items)
	}

	rec = f.do(t, "POST", "/api/lists", map[string]any{"name": "weekly"})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate name status = %d, want 409", rec.Code)
	}

	rec = f.do(t, "POST", "/api/lists/"+itoa(created.ID)+"/duplicate", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("duplicate status = %d", rec.Code)
	}
	if got := decodeBody[listResponse](t, rec).Name; got != "Weekly (Copy)" {
		t.Errorf("copy name = %q, want %q", got, "Weekly (Copy)")
	}

	rec = f.do(t, "POST", "/api/lists/999/duplicate", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing list status = %d, want 404", rec.Code)
	}
}

func TestItemPriceInvariantOverHTTP(t *testing.T) {
	f := setupFixture(t)
	l, _ := f.lists.Add("Trip", nil)

	rec := f.do(t, "POST", "/api/lists/"+itoa(l.ID)+"/items", model.ShoppingListItem{Name: "Rice", Quantity: 2, Unit: model.UnitKg})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add item status = %d, body %s", rec.Code, rec.Body)
	}
	item := decodeBody[model.ShoppingListItem](t, rec)

	rec = f.do(t, "POST", "/api/lists/"+itoa(l.ID)+"/items", model.ShoppingListItem{Name: "rice", Quantity: 1})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate item status = %d, want 409", rec.Code)
	}

	rec = f.do(t, "PUT", "/api/lists/"+itoa(l.ID)+"/items/"+itoa(item.ID), map[string]any{"expectedPrice": 45})
	if rec.Code != http.StatusOK {
		t.Fatalf("update item status = %d", rec.Code)
	}
	if got := decodeBody[model.ShoppingListItem](t, rec).ActualPrice; got != 90 {
		t.Errorf("actualPrice = %v, want 90", got)
	}

	rec = f.do(t, "GET", "/api/lists", nil)
	lists := decodeBody[[]listResponse](t, rec)
	if len(lists) != 1 || lists[0].Total != 90 || lists[0].PurchasedTotal != 0 {
		t.Errorf("totals = %+v", lists)
	}
}

func TestVoiceAdd(t *testing.T) {
	f := setupFixture(t)
	l, _ := f.lists.Add("Trip", nil)
	path := "/api/lists/" + itoa(l.ID) + "/voice"

	rec := f.do(t, "POST", path, voiceRequest{Transcript: "2 kg potato"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("voice status = %d, body %s", rec.Code, rec.Body)
	}
	res := decodeBody[voiceResponse](t, rec)
	if !res.Added || res.Item.ID != 201 || res.Item.Quantity != 2 || res.Item.Unit != model.UnitKg {
		t.Errorf("voice result = %+v", res)
	}

	rec = f.do(t, "POST", path, voiceRequest{Transcript: "add potato"})
	if rec.Code != http.StatusOK {
		t.Fatalf("repeat status = %d", rec.Code)
	}
	if decodeBody[voiceResponse](t, rec).Added {
		t.Error("repeat voice add should be skipped")
	}

	rec = f.do(t, "POST", path, voiceRequest{Transcript: "  "})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("empty transcript status = %d, want 422", rec.Code)
	}
}

func TestSaveExpensesHandler(t *testing.T) {
	f := setupFixture(t)

	rec := f.do(t, "POST", "/api/expenses", expensesRequest{Name: "Market", Expenses: []model.Expense{{Name: "Milk", Quantity: 0, Price: 10}}})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("no valid lines status = %d, want 400", rec.Code)
	}

	rec = f.do(t, "POST", "/api/expenses", expensesRequest{Name: "Market", Expenses: []model.Expense{{Name: "Milk", Quantity: 2, Price: 30}}})
	if rec.Code != http.StatusCreated {
		t.Fatalf("save status = %d, body %s", rec.Code, rec.Body)
	}
	l := decodeBody[listResponse](t, rec)
	if l.PurchasedTotal != 60 {
		t.Errorf("purchasedTotal = %v, want 60", l.PurchasedTotal)
	}
}

func TestMilkVendorFlow(t *testing.T) {
	f := setupFixture(t)

	rec := f.do(t, "POST", "/api/vendors", map[string]string{"name": "Ramesh"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create vendor status = %d", rec.Code)
	}
	v := decodeBody[model.MilkVendorList](t, rec)
	base := "/api/vendors/" + itoa(v.ID)

	for _, r := range []model.MilkRecord{
		{Date: "2024-05-01", Quantity: 1.5, PricePerLitre: 60},
		{Date: "2024-05-02", Quantity: 2, PricePerLitre: 60},
	} {
		if rec := f.do(t, "POST", base+"/records", r); rec.Code != http.StatusCreated {
			t.Fatalf("add record status = %d", rec.Code)
		}
	}
	if rec := f.do(t, "POST", base+"/records", model.MilkRecord{Date: "May 3", Quantity: 1, PricePerLitre: 60}); rec.Code != http.StatusBadRequest {
		t.Errorf("bad date status = %d, want 400", rec.Code)
	}

	rec = f.do(t, "GET", base+"/totals", nil)
	totals := decodeBody[[]model.MilkMonthTotal](t, rec)
	if len(totals) != 1 || totals[0].Litres != 3.5 || totals[0].Amount != 210 {
		t.Errorf("totals = %+v", totals)
	}
}

func TestAttendanceHandlers(t *testing.T) {
	f := setupFixture(t)

	rec := f.do(t, "POST", "/api/attendance/2024-02-05/toggle", nil)
	if got := decodeBody[model.AttendanceRecord](t, rec).Status; got != model.StatusPresent {
		t.Fatalf("first toggle = %q, want present", got)
	}

	rec = f.do(t, "PUT", "/api/attendance/2024-02-06", map[string]any{"overtimeHours": 2})
	if rec.Code != http.StatusNotFound {
		t.Errorf("overtime on unmarked day status = %d, want 404", rec.Code)
	}

	rec = f.do(t, "PUT", "/api/attendance/2024-02-05", map[string]any{"overtimeHours": 2, "isOvertimeDay": true})
	if rec.Code != http.StatusOK {
		t.Fatalf("update day status = %d, body %s", rec.Code, rec.Body)
	}

	f.do(t, "PUT", "/api/attendance/settings", map[string]any{"monthlySalary": 29000, "overtimeRatePerHour": 100})

	rec = f.do(t, "GET", "/api/attendance?year=2024&month=2", nil)
	month := decodeBody[monthResponse](t, rec)
	if month.Summary.PresentDays != 1 || month.Summary.TotalOvertimeHours != 2 {
		t.Errorf("summary = %+v", month.Summary)
	}
	if month.Payroll.DaysInMonth != 29 || month.Payroll.TotalOvertimePay != 200 {
		t.Errorf("payroll = %+v", month.Payroll)
	}

	if rec := f.do(t, "POST", "/api/attendance/history", map[string]int{"year": 2024, "month": 3}); rec.Code != http.StatusBadRequest {
		t.Errorf("empty month save status = %d, want 400", rec.Code)
	}
	if rec := f.do(t, "POST", "/api/attendance/history", map[string]int{"year": 2024, "month": 2}); rec.Code != http.StatusCreated {
		t.Fatalf("save history status = %d", rec.Code)
	}
	if rec := f.do(t, "POST", "/api/attendance/history", map[string]int{"year": 2024, "month": 2}); rec.Code != http.StatusConflict {
		t.Errorf("second save status = %d, want 409", rec.Code)
	}
	if rec := f.do(t, "GET", "/api/attendance?month=13", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("month 13 status = %d, want 400", rec.Code)
	}
}

func TestAdvisorErrorsAreLocalized(t *testing.T) {
	f := setupFixture(t)
	if err := f.prefs.SetLanguage(i18n.Hindi); err != nil {
		t.Fatalf("set language: %v", err)
	}
	f.svc.err = errors.New("quota exceeded")

	rec := f.do(t, "GET", "/api/horoscope/aries", nil)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	want := i18n.Message(i18n.MsgHoroscopeFailed, i18n.Hindi)
	if got := decodeBody[map[string]string](t, rec)["error"]; got != want {
		t.Errorf("error = %q, want %q", got, want)
	}

	rec = f.do(t, "GET", "/api/weather", nil)
	want = i18n.Message(i18n.MsgWeatherGeoUnsupported, i18n.Hindi)
	if got := decodeBody[map[string]string](t, rec)["error"]; got != want {
		t.Errorf("no location error = %q, want %q", got, want)
	}

	rec = f.do(t, "GET", "/api/weather?lat=abc&lon=1", nil)
	want = i18n.Message(i18n.MsgWeatherGeoUnavailable, i18n.Hindi)
	if got := decodeBody[map[string]string](t, rec)["error"]; got != want {
		t.Errorf("bad location error = %q, want %q", got, want)
	}

	if rec := f.do(t, "POST", "/api/remedies", map[string]string{"query": " "}); rec.Code != http.StatusBadRequest {
		t.Errorf("empty remedy status = %d, want 400", rec.Code)
	}
	if rec := f.do(t, "GET", "/api/horoscope/dragon", nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown sign status = %d, want 404", rec.Code)
	}
}

func TestHoroscopeSuccess(t *testing.T) {
	f := setupFixture(t)
	f.svc.reply = `{"horoscope":"A calm day.","luckyTip":"Drink water."}`

	rec := f.do(t, "GET", "/api/horoscope/aries?lang=en", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if got := decodeBody[advisor.Horoscope](t, rec).LuckyTip; got != "Drink water." {
		t.Errorf("luckyTip = %q", got)
	}
}

func TestUpdateLanguage(t *testing.T) {
	f := setupFixture(t)

	if rec := f.do(t, "PUT", "/api/language", map[string]string{"language": "xx"}); rec.Code != http.StatusBadRequest {
		t.Errorf("unsupported status = %d, want 400", rec.Code)
	}
	rec := f.do(t, "PUT", "/api/language", map[string]string{"language": "TA"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if lang, ok := f.prefs.Language(); !ok || lang != i18n.Tamil {
		t.Errorf("language = %q (%v), want ta", lang, ok)
	}
}

func TestCalculate(t *testing.T) {
	f := setupFixture(t)

	rec := f.do(t, "POST", "/api/calculator", map[string][]string{"keys": {"1", "2", "×", "3", "="}})
	if got := decodeBody[map[string]string](t, rec)["display"]; got != "36" {
		t.Errorf("display = %q, want 36", got)
	}
	if rec := f.do(t, "POST", "/api/calculator", map[string][]string{"keys": {"%"}}); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown key status = %d, want 400", rec.Code)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
