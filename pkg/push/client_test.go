package push

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/helmshare/helmshare-backend/pkg/errors"
)

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := NewClient("  "); err == nil {
		t.Fatal("expected error for blank api key")
	}
}

func TestSendSuccess(t *testing.T) {
	var captured sendRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages:send" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Fatalf("unexpected auth header %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(sendResponse{MessageID: "m1"})
	}))
	defer server.Close()

	client, err := NewClient("test-key", WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := client.Send(context.Background(), "tok-1", Payload{
		Notification: Body{Title: "Booking confirmed", Body: "See you at the marina"},
		Data:         map[string]string{"type": "booking"},
		Priority:     "normal",
	})
	if err != nil {
		t.Fatalf("unexpected send error: %v", err)
	}
	if result.MessageID != "m1" {
		t.Fatalf("expected message id m1, got %q", result.MessageID)
	}
	if captured.To != "tok-1" {
		t.Fatalf("expected token tok-1, got %q", captured.To)
	}
	if captured.Payload.Notification.Title != "Booking confirmed" {
		t.Fatalf("payload title lost: %+v", captured.Payload)
	}
}

func TestSendGatewayRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(sendResponse{Error: "invalid token"})
	}))
	defer server.Close()

	client, err := NewClient("test-key", WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = client.Send(context.Background(), "bad-token", Payload{})
	if err == nil {
		t.Fatal("expected gateway error")
	}
	if !pkgerrors.HasCode(err, pkgerrors.CodeGateway) {
		t.Fatalf("expected gateway code, got %v", err)
	}
}

func TestSendEmptyToken(t *testing.T) {
	client, err := NewClient("test-key")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := client.Send(context.Background(), "", Payload{}); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSendMissingMessageID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client, err := NewClient("test-key", WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := client.Send(context.Background(), "tok", Payload{}); !pkgerrors.HasCode(err, pkgerrors.CodeGateway) {
		t.Fatalf("expected gateway error, got %v", err)
	}
}
