package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(srv *httptest.Server) *VenueClient {
	return &VenueClient{
		BaseURL:    srv.URL,
		APIKey:     "key",
		Secret:     "secret",
		Account:    "acc",
		HTTPClient: srv.Client(),
	}
}

func TestGetOwnOrders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/orders" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("X-VENUE-APIKEY") != "key" {
			t.Errorf("missing api key header")
		}
		q := r.URL.Query()
		if q.Get("owner") != "acc" {
			t.Errorf("owner = %s", q.Get("owner"))
		}
		if q.Get("signature") == "" || q.Get("timestamp") == "" {
			t.Errorf("request not signed")
		}
		w.Write([]byte(`[
			{"id":"1","owner":"acc","sellAsset":"SAI","sellAmount":100,"buyAsset":"WETH","buyAmount":1},
			{"id":"2","owner":"other","sellAsset":"SAI","sellAmount":50,"buyAsset":"WETH","buyAmount":0.5}
		]`))
	}))
	defer srv.Close()

	orders, err := newTestClient(srv).GetOwnOrders(context.Background())
	if err != nil {
		t.Fatalf("get own orders: %v", err)
	}
	if len(orders) != 1 || orders[0].ID != "1" {
		t.Fatalf("expected only own order, got %+v", orders)
	}
}

func TestGetBalance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/balances/SAI" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"asset":"SAI","amount":123.5}`))
	}))
	defer srv.Close()

	amount, err := newTestClient(srv).GetBalance(context.Background(), "SAI")
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if amount != 123.5 {
		t.Fatalf("amount = %v", amount)
	}
}

func TestPlace(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		q := r.URL.Query()
		if q.Get("haveAsset") != "SAI" || q.Get("wantAsset") != "WETH" {
			t.Errorf("assets wrong: %v", q)
		}
		if q.Get("haveAmount") != "100" {
			t.Errorf("haveAmount = %s", q.Get("haveAmount"))
		}
		w.Write([]byte(`{"orderId":"o42"}`))
	}))
	defer srv.Close()

	id, err := newTestClient(srv).Place(context.Background(), "SAI", 100, "WETH", 1.01)
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if id != "o42" {
		t.Fatalf("orderId = %s", id)
	}
}

func TestPlaceEmptyID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	if _, err := newTestClient(srv).Place(context.Background(), "SAI", 100, "WETH", 1); err == nil {
		t.Fatalf("expected error on empty orderId")
	}
}

func TestCancelGoneOrderIsNoop(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s", r.Method)
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	// 重复撤单必须是空操作，不能让整批失败
	if err := newTestClient(srv).Cancel(context.Background(), "dead"); err != nil {
		t.Fatalf("cancel of gone order should be nil, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d", calls)
	}
}

func TestCancelServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if err := newTestClient(srv).Cancel(context.Background(), "1"); err == nil {
		t.Fatalf("expected error on 500")
	}
}

func TestSignParamsDeterministic(t *testing.T) {
	fixed := time.UnixMilli(1700000000000)
	signNow = func() time.Time { return fixed }
	defer func() { signNow = time.Now }()

	// 同一组参数不同遍历顺序，签名必须逐字节一致
	q1, s1 := SignParams(map[string]string{"b": "2", "a": "1"}, "secret")
	q2, s2 := SignParams(map[string]string{"a": "1", "b": "2"}, "secret")
	if q1 != q2 || s1 != s2 {
		t.Fatalf("sign output differs: %q/%q vs %q/%q", q1, s1, q2, s2)
	}
	if q1 != "a=1&b=2&timestamp=1700000000000" {
		t.Fatalf("query = %q", q1)
	}

	mac := hmac.New(sha256.New, []byte("secret"))
	mac.Write([]byte(q1))
	if want := hex.EncodeToString(mac.Sum(nil)); s1 != want {
		t.Fatalf("signature = %q, want %q", s1, want)
	}

	_, other := SignParams(map[string]string{"a": "1", "b": "2"}, "other-secret")
	if other == s1 {
		t.Fatalf("different secrets produced the same signature")
	}
}
