package resolve

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"syscall"
	"time"
)

const maxPhotoRedirects = 5

var (
	errHostNotAllowed = errors.New("host not in photo allow-list")
	errPrivateAddress = errors.New("host resolves to a private address")
)

var deniedHostnames = []string{"localhost", "metadata.google.internal", "metadata"}

var deniedSuffixes = []string{".localhost", ".local", ".internal", ".lan", ".home.arpa"}

var deniedPrefixes = []netip.Prefix{
	netip.MustParsePrefix("0.0.0.0/8"),
	netip.MustParsePrefix("100.64.0.0/10"),
	netip.MustParsePrefix("192.0.0.0/24"),
	netip.MustParsePrefix("198.18.0.0/15"),
}

// Guard decides whether a remote photo URL is safe to fetch. A URL passes
// when it is https, its host is on the allow-list, and every address the
// host resolves to is public.
type Guard struct {
	allowed []string
	lookup  func(ctx context.Context, host string) ([]netip.Addr, error)
}

// NewGuard returns a guard for the given allowed hosts. Subdomains of an
// allowed host are allowed too.
func NewGuard(allowed []string) *Guard {
	hosts := make([]string, 0, len(allowed))
	for _, h := range allowed {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			hosts = append(hosts, strings.TrimPrefix(h, "."))
		}
	}
	return &Guard{
		allowed: hosts,
		lookup: func(ctx context.Context, host string) ([]netip.Addr, error) {
			return net.DefaultResolver.LookupNetIP(ctx, "ip", host)
		},
	}
}

// Check returns nil if rawURL may be fetched.
func (g *Guard) Check(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse photo url: %w", err)
	}
	if u.Scheme != "https" {
		return fmt.Errorf("photo url scheme %q not allowed", u.Scheme)
	}
	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if host == "" {
		return fmt.Errorf("photo url has no host")
	}
	if _, err := netip.ParseAddr(host); err == nil {
		return fmt.Errorf("%s: ip literals not allowed: %w", host, errHostNotAllowed)
	}
	for _, d := range deniedHostnames {
		if host == d {
			return fmt.Errorf("%s: %w", host, errHostNotAllowed)
		}
	}
	for _, s := range deniedSuffixes {
		if strings.HasSuffix(host, s) {
			return fmt.Errorf("%s: %w", host, errHostNotAllowed)
		}
	}
	if !g.hostAllowed(host) {
		return fmt.Errorf("%s: %w", host, errHostNotAllowed)
	}

	addrs, err := g.lookup(ctx, host)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", host, err)
	}
	if len(addrs) == 0 {
		return fmt.Errorf("resolve %s: no addresses", host)
	}
	for _, a := range addrs {
		if !publicAddr(a) {
			return fmt.Errorf("%s -> %s: %w", host, a, errPrivateAddress)
		}
	}
	return nil
}

func (g *Guard) hostAllowed(host string) bool {
	for _, a := range g.allowed {
		if host == a || strings.HasSuffix(host, "."+a) {
			return true
		}
	}
	return false
}

func publicAddr(a netip.Addr) bool {
	a = a.Unmap()
	if !a.IsValid() || a.IsUnspecified() || a.IsLoopback() || a.IsPrivate() ||
		a.IsLinkLocalUnicast() || a.IsLinkLocalMulticast() || a.IsMulticast() ||
		a.IsInterfaceLocalMulticast() {
		return false
	}
	for _, p := range deniedPrefixes {
		if p.Contains(a) {
			return false
		}
	}
	return true
}

// Client returns a copy of base for fetching guarded URLs. Every redirect
// hop must pass Check, and when base uses an *http.Transport (or none) the
// copy refuses to dial non-public addresses, so a host that re-resolves
// after Check still cannot reach the internal network.
func (g *Guard) Client(base *http.Client) *http.Client {
	if base == nil {
		base = &http.Client{Timeout: 15 * time.Second}
	}
	hc := *base
	switch t := base.Transport.(type) {
	case nil:
		hc.Transport = guardedTransport(http.DefaultTransport.(*http.Transport))
	case *http.Transport:
		hc.Transport = guardedTransport(t)
	}
	hc.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxPhotoRedirects {
			return fmt.Errorf("stopped after %d redirects", len(via))
		}
		return g.Check(req.Context(), req.URL.String())
	}
	return &hc
}

func guardedTransport(base *http.Transport) *http.Transport {
	t := base.Clone()
	t.Proxy = nil
	d := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
		Control:   dialControl,
	}
	t.DialContext = d.DialContext
	return t
}

// dialControl runs after DNS resolution, on the address actually dialed.
func dialControl(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("dial %s: %w", address, err)
	}
	a, err := netip.ParseAddr(host)
	if err != nil {
		return fmt.Errorf("dial %s: %w", address, err)
	}
	if !publicAddr(a) {
		return fmt.Errorf("dial %s: %w", address, errPrivateAddress)
	}
	return nil
}
