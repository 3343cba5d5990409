package sheets

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"boothbabe/backend/internal/domain"
)

func testSale() domain.SaleRecord {
	return domain.SaleRecord{
		ID:           "sale-1",
		OrderNumber:  "BB-20260901-001",
		CreatedAtISO: "2026-09-01T12:00:00.000Z",
		Subtotal:     decimal.NewFromInt(25),
		Total:        decimal.NewFromInt(25),
		EventTag:     "Comic Con",
		LineItems: []domain.SaleLine{
			{ItemType: "Pouches", Series: "Core", Pattern: "Pokemon", UnitPrice: decimal.NewFromInt(10), Quantity: 1},
		},
	}
}

func TestSendAcknowledged(t *testing.T) {
	var gotContentType string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := New(server.URL, "hunter2", time.Second)
	acked, err := client.Send(context.Background(), testSale())
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if !acked {
		t.Fatalf("expected the sale to be acknowledged")
	}
	if gotContentType != "text/plain;charset=utf-8" {
		t.Fatalf("unexpected content type %q", gotContentType)
	}

	var sent map[string]any
	if err := json.Unmarshal(gotBody, &sent); err != nil {
		t.Fatalf("body should be JSON despite the text/plain header: %v", err)
	}
	if sent["secret"] != "hunter2" {
		t.Fatalf("secret missing from payload: %v", sent)
	}
	if sent["orderNumber"] != "BB-20260901-001" {
		t.Fatalf("order number missing from payload: %v", sent)
	}
	if sent["event"] != "Comic Con" {
		t.Fatalf("event tag missing from payload: %v", sent)
	}
}

func TestSendOpaqueBodyCountsAsAcked(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>it worked, probably</html>"))
	}))
	defer server.Close()

	client := New(server.URL, "", time.Second)
	acked, err := client.Send(context.Background(), testSale())
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if !acked {
		t.Fatalf("a 2xx with a non-JSON body should count as acknowledged")
	}
}

func TestSendExplicitRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":false}`))
	}))
	defer server.Close()

	client := New(server.URL, "", time.Second)
	acked, err := client.Send(context.Background(), testSale())
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if acked {
		t.Fatalf("ok:false should not count as acknowledged")
	}
}

func TestSendServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := New(server.URL, "", time.Second)
	acked, err := client.Send(context.Background(), testSale())
	if err == nil {
		t.Fatalf("expected an error for a 5xx response")
	}
	if acked {
		t.Fatalf("a failed request must not count as acknowledged")
	}
}

func TestSendNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := New(server.URL, "", time.Second)
	if _, err := client.Send(context.Background(), testSale()); err == nil {
		t.Fatalf("expected an error when the endpoint is unreachable")
	}
}

func TestDisabledClient(t *testing.T) {
	client := New("", "", 0)
	if client.Enabled() {
		t.Fatalf("a client without an endpoint should be disabled")
	}
	if _, err := client.Send(context.Background(), testSale()); err == nil {
		t.Fatalf("sending through a disabled client should error")
	}
}
