package resolve

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"sync/atomic"
	"testing"
	"time"
)

func fakeLookup(addrs map[string]string) func(context.Context, string) ([]netip.Addr, error) {
	return func(_ context.Context, host string) ([]netip.Addr, error) {
		a, ok := addrs[host]
		if !ok {
			return nil, errors.New("no such host")
		}
		return []netip.Addr{netip.MustParseAddr(a)}, nil
	}
}

func TestGuard_Check(t *testing.T) {
	g := NewGuard([]string{"licdn.com", "gravatar.com"})
	g.lookup = fakeLookup(map[string]string{
		"media.licdn.com":    "151.101.1.1",
		"licdn.com":          "151.101.1.2",
		"evil.licdn.com":     "10.0.0.5",
		"meta.licdn.com":     "169.254.169.254",
		"cgnat.licdn.com":    "100.64.1.1",
		"mapped.licdn.com":   "::ffff:127.0.0.1",
		"v6.gravatar.com":    "2606:4700::6810:1",
		"loop6.gravatar.com": "::1",
		"example.com":        "93.184.216.34",
	})

	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://media.licdn.com/dms/image/abc", false},
		{"https://licdn.com/pic.jpg", false},
		{"https://v6.gravatar.com/avatar/x", false},
		{"http://media.licdn.com/dms/image/abc", true},
		{"https://example.com/pic.jpg", true},
		{"https://evil.licdn.com/pic.jpg", true},
		{"https://meta.licdn.com/latest/meta-data", true},
		{"https://cgnat.licdn.com/pic.jpg", true},
		{"https://mapped.licdn.com/pic.jpg", true},
		{"https://loop6.gravatar.com/pic.jpg", true},
		{"https://127.0.0.1/pic.jpg", true},
		{"https://localhost/pic.jpg", true},
		{"https://printer.local/pic.jpg", true},
		{"https://unknown.licdn.com/pic.jpg", true},
		{"::not a url", true},
	}
	for _, tt := range tests {
		err := g.Check(context.Background(), tt.url)
		if (err != nil) != tt.wantErr {
			t.Errorf("Check(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
		}
	}
}

func TestGuard_PrivateAddressError(t *testing.T) {
	g := NewGuard([]string{"licdn.com"})
	g.lookup = fakeLookup(map[string]string{"media.licdn.com": "192.168.1.10"})

	err := g.Check(context.Background(), "https://media.licdn.com/x.jpg")
	if !errors.Is(err, errPrivateAddress) {
		t.Errorf("error = %v, want errPrivateAddress", err)
	}
}

func TestGuard_ClientRefusesPrivateDial(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	base := &http.Client{Timeout: 2 * time.Second}
	c := NewGuard(nil).Client(base)

	resp, err := c.Get(srv.URL)
	if err == nil {
		resp.Body.Close()
		t.Fatal("dial to loopback succeeded")
	}
	if !errors.Is(err, errPrivateAddress) {
		t.Errorf("error = %v, want errPrivateAddress", err)
	}
	if hits.Load() != 0 {
		t.Errorf("server hit %d times, want 0", hits.Load())
	}
	if base.Transport != nil || base.CheckRedirect != nil {
		t.Error("base client was modified")
	}
}

func TestGuard_ClientChecksRedirects(t *testing.T) {
	g := NewGuard([]string{"licdn.com"})
	g.lookup = fakeLookup(map[string]string{
		"media.licdn.com": "151.101.1.1",
		"evil.licdn.com":  "10.0.0.5",
	})
	c := g.Client(&http.Client{})

	hop := func(url string, via int) error {
		req, err := http.NewRequest(http.MethodHead, url, nil)
		if err != nil {
			t.Fatal(err)
		}
		return c.CheckRedirect(req, make([]*http.Request, via))
	}

	if err := hop("https://media.licdn.com/dms/b.jpg", 1); err != nil {
		t.Errorf("allowed hop rejected: %v", err)
	}
	if err := hop("http://127.0.0.1/latest/meta-data", 1); err == nil {
		t.Error("hop to loopback allowed")
	}
	if err := hop("https://evil.licdn.com/x.jpg", 1); !errors.Is(err, errPrivateAddress) {
		t.Errorf("hop to private host error = %v, want errPrivateAddress", err)
	}
	if err := hop("https://media.licdn.com/dms/b.jpg", maxPhotoRedirects); err == nil {
		t.Error("redirect limit not enforced")
	}
}

func TestDialControl(t *testing.T) {
	tests := []struct {
		addr    string
		wantErr bool
	}{
		{"151.101.1.1:443", false},
		{"[2606:4700::6810:1]:443", false},
		{"127.0.0.1:443", true},
		{"10.0.0.5:443", true},
		{"169.254.169.254:80", true},
		{"[::1]:443", true},
		{"not-an-address", true},
	}
	for _, tt := range tests {
		err := dialControl("tcp", tt.addr, nil)
		if (err != nil) != tt.wantErr {
			t.Errorf("dialControl(%q) error = %v, wantErr %v", tt.addr, err, tt.wantErr)
		}
	}
}
