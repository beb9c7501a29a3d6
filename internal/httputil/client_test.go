package httputil

import (
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewSecureClient_Defaults(t *testing.T) {
	client := NewSecureClient(ClientOptions{})

	if client.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", client.Timeout)
	}
	transport := client.Transport.(*http.Transport)
	if !transport.DisableCompression {
		t.Error("expected DisableCompression to be true")
	}
	if transport.ResponseHeaderTimeout != 30*time.Second {
		t.Errorf("ResponseHeaderTimeout = %v, want 30s", transport.ResponseHeaderTimeout)
	}
}

func TestNewDownloadClient_Timeout(t *testing.T) {
	client := NewDownloadClient(10 * time.Minute)
	if client.Timeout != 10*time.Minute {
		t.Errorf("Timeout = %v, want 10m", client.Timeout)
	}
}

func TestRedirectChecker(t *testing.T) {
	publicLookup := func(string) ([]net.IP, error) {
		return []net.IP{net.ParseIP("185.199.108.133")}, nil
	}
	rebindLookup := func(string) ([]net.IP, error) {
		return []net.IP{net.ParseIP("185.199.108.133"), net.ParseIP("10.1.2.3")}, nil
	}
	failingLookup := func(string) ([]net.IP, error) {
		return nil, errors.New("no such host")
	}

	tests := []struct {
		name    string
		target  string
		via     int
		lookup  func(string) ([]net.IP, error)
		wantErr string
	}{
		{name: "public host", target: "https://objects.githubusercontent.com/a", lookup: publicLookup},
		{name: "http downgrade", target: "http://objects.githubusercontent.com/a", lookup: publicLookup, wantErr: "non-HTTPS"},
		{name: "too many", target: "https://objects.githubusercontent.com/a", via: 3, lookup: publicLookup, wantErr: "too many redirects"},
		{name: "literal loopback", target: "https://127.0.0.1/a", lookup: publicLookup, wantErr: "loopback"},
		{name: "rebinding", target: "https://evil.example.com/a", lookup: rebindLookup, wantErr: "blocked IP"},
		{name: "lookup failure", target: "https://nowhere.example.com/a", lookup: failingLookup, wantErr: "failed to resolve"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := redirectChecker(3, tt.lookup)
			req, err := http.NewRequest(http.MethodGet, tt.target, nil)
			if err != nil {
				t.Fatal(err)
			}
			err = check(req, make([]*http.Request, tt.via))
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestNewSecureClient_RedirectToHTTPBlocked(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "http://example.com/asset.deb", http.StatusFound)
	}))
	defer server.Close()

	client := NewSecureClient(ClientOptions{})
	client.Transport = server.Client().Transport

	resp, err := client.Get(server.URL)
	if resp != nil {
		resp.Body.Close()
	}
	if err == nil || !strings.Contains(err.Error(), "non-HTTPS") {
		t.Fatalf("expected non-HTTPS redirect error, got %v", err)
	}
}
