package httpserver

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"utilitypay/backend/services/portal/internal/clients"
	"utilitypay/backend/services/portal/internal/http/handlers"
	"utilitypay/backend/services/portal/internal/http/middleware"
	"utilitypay/backend/services/portal/internal/models"
	"utilitypay/backend/services/portal/internal/service"
	"utilitypay/backend/services/portal/internal/web"
)

type fakeAPI struct {
	mu            sync.Mutex
	utilityStatus int
	utilityBody   string
	billStatus    int
	billBody      string
	utilityCalls  int
	bills         []map[string]interface{}
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch r.URL.Path {
	case "/api/utilities":
		f.utilityCalls++
		w.WriteHeader(f.utilityStatus)
		_, _ = io.WriteString(w, f.utilityBody)
	case "/api/bills":
		var bill map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&bill)
		f.bills = append(f.bills, bill)
		w.WriteHeader(f.billStatus)
		_, _ = io.WriteString(w, f.billBody)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeAPI) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.utilityCalls, len(f.bills)
}

func newTestRouter(t *testing.T, api *fakeAPI) http.Handler {
	t.Helper()
	backend := httptest.NewServer(api)
	t.Cleanup(backend.Close)

	renderer, err := web.NewRenderer()
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	logger := zap.NewNop()
	enrollment := service.NewEnrollmentService(clients.NewBillingClient(backend.URL, backend.Client()), service.NewMemoryLedger(time.Minute), logger)

	return NewRouter(RouterDeps{
		Pages:      handlers.NewPageHandlers(renderer, logger),
		Enrollment: handlers.NewEnrollmentHandlers(enrollment, renderer, logger),
		Receipt:    handlers.NewReceiptHandlers(service.NewReceiptService(""), renderer, logger),
		Health:     handlers.NewHealthHandler(),
		Static:     web.StaticHandler(),
	}, middleware.SessionMiddleware(middleware.SessionConfig{CookieName: "portal_session", DefaultUserID: 1}))
}

func postForm(router http.Handler, path string, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func enrollmentValues() url.Values {
	return url.Values{
		"name":          {"Water Bill"},
		"provider_name": {"City Water Board"},
		"description":   {"Monthly supply"},
		"amount":        {"550.00"},
		"due_date":      {"2024-02-15"},
	}
}

func TestEnrollmentSuccessRedirectsHome(t *testing.T) {
	api := &fakeAPI{utilityStatus: 201, utilityBody: `{"utility_id": 8}`, billStatus: 200}
	router := newTestRouter(t, api)

	rec := postForm(router, "/add_service", enrollmentValues())
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d: %s", rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc != "/home" {
		t.Fatalf("expected /home, got %q", loc)
	}
	if strings.Contains(rec.Body.String(), "error-alert") {
		t.Fatalf("success must not show an error")
	}

	_, bills := api.counts()
	if bills != 1 {
		t.Fatalf("expected one bill, got %d", bills)
	}
	bill := api.bills[0]
	if bill["amount"] != 550.0 || bill["utility_id"] != 8.0 || bill["user_id"] != 1.0 {
		t.Fatalf("unexpected bill payload %v", bill)
	}

	// the flash notice is shown once on the home page
	req := httptest.NewRequest(http.MethodGet, "/home", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	home := httptest.NewRecorder()
	router.ServeHTTP(home, req)
	if !strings.Contains(home.Body.String(), "initial Bill added successfully!") {
		t.Fatalf("expected success notice on home page")
	}
}

func TestEnrollmentLongNameKeepsFlashCookieSmall(t *testing.T) {
	api := &fakeAPI{utilityStatus: 201, utilityBody: `{"utility_id": 8}`, billStatus: 200}
	router := newTestRouter(t, api)

	values := enrollmentValues()
	values.Set("name", strings.Repeat("Water & Power ", 3000))
	rec := postForm(router, "/add_service", values)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", rec.Code)
	}

	var flash *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "portal_flash" {
			flash = c
		}
	}
	if flash == nil {
		t.Fatalf("expected flash cookie")
	}
	if size := len(flash.String()); size >= 4096 {
		t.Fatalf("flash cookie too large for browsers: %d bytes", size)
	}

	req := httptest.NewRequest(http.MethodGet, "/home", nil)
	req.AddCookie(flash)
	home := httptest.NewRecorder()
	router.ServeHTTP(home, req)
	if !strings.Contains(home.Body.String(), "initial Bill added successfully!") {
		t.Fatalf("expected success notice on home page")
	}
}

func TestEnrollmentKeepsNonCanonicalUtilityIDAsString(t *testing.T) {
	api := &fakeAPI{utilityStatus: 201, utilityBody: `{"utility_id": "007"}`, billStatus: 200}
	router := newTestRouter(t, api)

	rec := postForm(router, "/add_service", enrollmentValues())
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d: %s", rec.Code, rec.Body.String())
	}
	if _, b := api.counts(); b != 1 {
		t.Fatalf("expected one bill, got %d", b)
	}
	if got := api.bills[0]["utility_id"]; got != "007" {
		t.Fatalf("expected utility_id \"007\", got %v", got)
	}
}

func TestEnrollmentValidationKeepsValues(t *testing.T) {
	api := &fakeAPI{utilityStatus: 201, utilityBody: `{"utility_id": 8}`, billStatus: 200}
	router := newTestRouter(t, api)

	values := enrollmentValues()
	values.Set("due_date", "")
	rec := postForm(router, "/add_service", values)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, service.MsgRequiredFields) {
		t.Fatalf("expected required-field message in body")
	}
	if !strings.Contains(body, `value="City Water Board"`) {
		t.Fatalf("entered values must be kept")
	}
	if !strings.Contains(body, "window.alert(") {
		t.Fatalf("expected alert script")
	}
	if u, b := api.counts(); u != 0 || b != 0 {
		t.Fatalf("validation failure must not call the API, got %d/%d", u, b)
	}
}

func TestEnrollmentBillFailureShowsServerMessage(t *testing.T) {
	api := &fakeAPI{utilityStatus: 201, utilityBody: `{"utility_id": 8}`, billStatus: 500, billBody: `{"message": "Invalid due date"}`}
	router := newTestRouter(t, api)

	values := enrollmentValues()
	values.Set("submission_token", "tok-1")
	rec := postForm(router, "/add_service", values)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `<div class="error-alert">Invalid due date</div>`) {
		t.Fatalf("expected exact server message, body: %s", rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `value="tok-1"`) {
		t.Fatalf("retry must keep the submission token")
	}

	// retry with the same token reuses the created utility
	api.mu.Lock()
	api.billStatus = 200
	api.mu.Unlock()
	rec = postForm(router, "/add_service", values)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect on retry, got %d", rec.Code)
	}
	if u, b := api.counts(); u != 1 || b != 2 {
		t.Fatalf("expected 1 utility and 2 bill calls, got %d/%d", u, b)
	}
}

func TestEnrollmentMissingUtilityIDNeverPostsBill(t *testing.T) {
	api := &fakeAPI{utilityStatus: 200, utilityBody: `{"status": "ok"}`, billStatus: 200}
	router := newTestRouter(t, api)

	rec := postForm(router, "/add_service", enrollmentValues())
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), service.MsgMissingUtilityID) {
		t.Fatalf("expected missing id message")
	}
	if _, b := api.counts(); b != 0 {
		t.Fatalf("bill must not be posted, got %d", b)
	}
}

func TestAddServiceFormIssuesToken(t *testing.T) {
	router := newTestRouter(t, &fakeAPI{})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/add_service", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `name="submission_token" value="`) {
		t.Fatalf("expected submission token field")
	}
	if strings.Contains(rec.Body.String(), `name="submission_token" value=""`) {
		t.Fatalf("submission token must not be empty")
	}
}

func TestPaymentSuccessRendersSuppliedPayload(t *testing.T) {
	router := newTestRouter(t, &fakeAPI{})

	req := httptest.NewRequest(http.MethodPost, "/payment-success", strings.NewReader(`{"amount": 500, "date": "2024-01-01", "transactionId": "TXN123"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var view models.ReceiptView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := models.ReceiptView{Amount: "500", Date: "2024-01-01", TransactionID: "TXN123"}
	if view != want {
		t.Fatalf("expected %+v, got %+v", want, view)
	}

	form := url.Values{"amount": {"500"}, "date": {"2024-01-01"}, "transactionId": {"TXN123"}}
	html := postForm(router, "/payment-success", form).Body.String()
	for _, fragment := range []string{"Rs. 500", "2024-01-01", "TXN123", "window.print()"} {
		if !strings.Contains(html, fragment) {
			t.Fatalf("expected %q in receipt page", fragment)
		}
	}
	if strings.Contains(html, "Demo receipt") {
		t.Fatalf("supplied payload must not be labelled as demo")
	}
}

func TestPaymentSuccessWithoutPayloadIsDemo(t *testing.T) {
	router := newTestRouter(t, &fakeAPI{})

	today := time.Now().Format("2006-01-02")
	req := httptest.NewRequest(http.MethodGet, "/payment-success", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var view models.ReceiptView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !view.Demo || view.TransactionID == "" {
		t.Fatalf("expected demo receipt with transaction id, got %+v", view)
	}
	// tolerate a midnight rollover between the two clock reads
	if view.Date != today && view.Date != time.Now().Format("2006-01-02") {
		t.Fatalf("expected today's date, got %q", view.Date)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/payment-success", nil))
	if !strings.Contains(rec.Body.String(), "Demo receipt") {
		t.Fatalf("expected demo label in page")
	}
}

func TestPageRoutes(t *testing.T) {
	router := newTestRouter(t, &fakeAPI{})

	render := func(method, path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
		return rec
	}

	root, login := render(http.MethodGet, "/"), render(http.MethodGet, "/login")
	if root.Code != http.StatusOK || root.Body.String() != login.Body.String() {
		t.Fatalf("/ and /login must render the same view")
	}

	for _, path := range []string{"/register", "/home", "/admin", "/health", "/static/portal.css"} {
		if rec := render(http.MethodGet, path); rec.Code != http.StatusOK {
			t.Fatalf("GET %s: expected 200, got %d", path, rec.Code)
		}
	}

	if rec := render(http.MethodGet, "/unknown"); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown path, got %d", rec.Code)
	}

	rec := render(http.MethodDelete, "/add_service")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
	if allow := rec.Header().Get("Allow"); allow != "GET, POST" {
		t.Fatalf("unexpected Allow header %q", allow)
	}
}
