package resolve

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amishk599/jobdeck/internal/company"
	"github.com/amishk599/jobdeck/internal/model"
)

func TestLogoResolver_KeepsAdapterLogo(t *testing.T) {
	up := failingUpstream(t)
	r := NewLogoResolver(up.deps(), NewCache[Resolved[string]]())

	got := r.Resolve(context.Background(), LogoQuery{Company: "Acme", Existing: "https://cdn.acme.io/logo.png"})
	if got.Source != model.SourceAdapter || got.Value != "https://cdn.acme.io/logo.png" {
		t.Errorf("Resolve = %+v, want adapter logo", got)
	}
	if up.count("HEAD /acme.com") != 0 {
		t.Error("adapter logo should not trigger verification")
	}
}

func TestLogoResolver_VerifiesGuessedLogo(t *testing.T) {
	up := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead && r.URL.Path == "/acme.com" {
			writeImage(w)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})
	r := NewLogoResolver(up.deps(), NewCache[Resolved[string]]())

	got := r.Resolve(context.Background(), LogoQuery{Company: "Acme, Inc.", Existing: "https://ui-avatars.com/api/?name=A"})
	if got.Source != model.SourceClearbit || got.Value != "https://logo.clearbit.com/acme.com" {
		t.Errorf("Resolve = %+v, want verified clearbit logo", got)
	}

	// Cached for the same company.
	r.Resolve(context.Background(), LogoQuery{Company: "Acme, Inc.", Existing: "https://ui-avatars.com/api/?name=A"})
	if n := up.count("HEAD /acme.com"); n != 1 {
		t.Errorf("HEAD calls = %d, want 1", n)
	}
}

func TestLogoResolver_BrandSearch(t *testing.T) {
	up := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodHead:
			w.Header().Set("Content-Type", "text/html")
			w.WriteHeader(http.StatusOK)
		case r.URL.Path == "/v1/companies/suggest":
			if r.URL.Query().Get("query") != "Globex" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			writeJSON(w, `[{"name":"Globex Partners","domain":"globexpartners.com","logo":"https://logo.clearbit.com/globexpartners.com"},
				{"name":"Globex","domain":"globex.io","logo":"https://logo.clearbit.com/globex.io"}]`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	r := NewLogoResolver(up.deps(), NewCache[Resolved[string]]())

	got := r.Resolve(context.Background(), LogoQuery{Company: "Globex"})
	if got.Source != model.SourceClearbit || got.Value != "https://logo.clearbit.com/globex.io" {
		t.Errorf("Resolve = %+v, want exact-name brand match", got)
	}
}

func TestLogoResolver_FallsBackToAvatar(t *testing.T) {
	up := failingUpstream(t)
	r := NewLogoResolver(up.deps(), NewCache[Resolved[string]]())

	got := r.Resolve(context.Background(), LogoQuery{Company: "Initech"})
	if got.Source != model.SourceUIAvatars || got.Value != company.AvatarURL("Initech", 128) {
		t.Errorf("Resolve = %+v, want avatar fallback", got)
	}
	if fb := r.Fallback(LogoQuery{}); fb.Value == "" {
		t.Error("Fallback returned empty logo")
	}
}

func TestPhotoResolver_AllUpstreamsFail(t *testing.T) {
	up := failingUpstream(t)
	guard := NewGuard([]string{"licdn.com"})
	guard.lookup = fakeLookup(map[string]string{"media.licdn.com": "151.101.1.1"})
	r := NewPhotoResolver(up.deps(), guard, "key", 5, NewCache[Resolved[string]]())

	got := r.Resolve(context.Background(), PhotoQuery{
		Name:     "Jane Doe",
		Email:    "jane@acme.com",
		PhotoURL: "https://media.licdn.com/dms/jane.jpg",
	})
	if got.Source != model.SourceUIAvatars || got.Value != company.AvatarURL("Jane Doe", photoAvatarSize) {
		t.Errorf("Resolve = %+v, want avatar fallback", got)
	}
}

func TestPhotoResolver_RealPhoto(t *testing.T) {
	up := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead && r.URL.Path == "/dms/jane.jpg" {
			writeImage(w)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})
	guard := NewGuard([]string{"licdn.com"})
	guard.lookup = fakeLookup(map[string]string{"media.licdn.com": "151.101.1.1"})
	r := NewPhotoResolver(up.deps(), guard, "", 5, NewCache[Resolved[string]]())

	got := r.Resolve(context.Background(), PhotoQuery{Name: "Jane", PhotoURL: "https://media.licdn.com/dms/jane.jpg"})
	if got.Source != model.SourceProxycurl {
		t.Errorf("Source = %q, want proxycurl", got.Source)
	}
}

func TestPhotoResolver_RejectsPrivatePhotoHost(t *testing.T) {
	up := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead && r.URL.Path == "/dms/jane.jpg" {
			writeImage(w)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})
	guard := NewGuard([]string{"licdn.com"})
	guard.lookup = func(context.Context, string) ([]netip.Addr, error) {
		return []netip.Addr{netip.MustParseAddr("10.1.2.3")}, nil
	}
	r := NewPhotoResolver(up.deps(), guard, "", 5, NewCache[Resolved[string]]())

	got := r.Resolve(context.Background(), PhotoQuery{Name: "Jane", PhotoURL: "https://media.licdn.com/dms/jane.jpg"})
	if got.Source == model.SourceProxycurl {
		t.Error("photo on private address accepted")
	}
	if up.count("HEAD /dms/jane.jpg") != 0 {
		t.Error("guarded URL was fetched")
	}
}

func TestPhotoResolver_RedirectToInternalAddress(t *testing.T) {
	var internalHits atomic.Int32
	internal := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		internalHits.Add(1)
		writeImage(w)
	}))
	defer internal.Close()

	d := failingUpstream(t).deps()
	d.HTTP = &http.Client{
		Timeout: 5 * time.Second,
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			switch req.URL.Hostname() {
			case "media.licdn.com":
				return &http.Response{
					StatusCode: http.StatusFound,
					Header:     http.Header{"Location": {internal.URL + "/latest/meta-data"}},
					Body:       http.NoBody,
					Request:    req,
				}, nil
			case "127.0.0.1":
				return http.DefaultTransport.RoundTrip(req)
			}
			return &http.Response{StatusCode: http.StatusNotFound, Header: http.Header{}, Body: http.NoBody, Request: req}, nil
		}),
	}
	guard := NewGuard([]string{"licdn.com"})
	guard.lookup = fakeLookup(map[string]string{"media.licdn.com": "13.107.42.14"})
	r := NewPhotoResolver(d, guard, "", 5, NewCache[Resolved[string]]())

	got := r.Resolve(context.Background(), PhotoQuery{Name: "Jane", PhotoURL: "https://media.licdn.com/dms/jane.jpg"})
	if got.Source == model.SourceProxycurl {
		t.Error("redirected photo accepted as proxycurl")
	}
	if n := internalHits.Load(); n != 0 {
		t.Errorf("internal server hit %d times, want 0", n)
	}
}

func TestPhotoResolver_Gravatar(t *testing.T) {
	up := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead && strings.HasPrefix(r.URL.Path, "/avatar/") && r.URL.Query().Get("d") == "404" {
			writeImage(w)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})
	r := NewPhotoResolver(up.deps(), NewGuard(nil), "", 5, NewCache[Resolved[string]]())

	got := r.Resolve(context.Background(), PhotoQuery{Name: "Jane", Email: " Jane@Acme.com "})
	if got.Source != model.SourceGravatar || got.Value != GravatarURL("jane@acme.com") {
		t.Errorf("Resolve = %+v, want gravatar", got)
	}
}

func TestPhotoResolver_HeadshotPoolRoundRobin(t *testing.T) {
	up := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && r.URL.Path == "/api/v1/faces" {
			if r.Header.Get("Authorization") != "API-Key gp-key" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			writeJSON(w, `{"faces":[
				{"urls":[{"64":"https://images.generated.photos/a-64.jpg"},{"512":"https://images.generated.photos/a-512.jpg"}]},
				{"urls":[{"512":"https://images.generated.photos/b-512.jpg"}]}]}`)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})
	r := NewPhotoResolver(up.deps(), NewGuard(nil), "gp-key", 2, NewCache[Resolved[string]]())

	var got []string
	for _, name := range []string{"A", "B", "C"} {
		res := r.Resolve(context.Background(), PhotoQuery{Name: name})
		if res.Source != model.SourceGeneratedPhotos {
			t.Fatalf("Source = %q, want generated_photos", res.Source)
		}
		got = append(got, res.Value)
	}

	want := []string{
		"https://images.generated.photos/a-512.jpg",
		"https://images.generated.photos/b-512.jpg",
		"https://images.generated.photos/a-512.jpg",
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("photo %d = %q, want %q", i, got[i], want[i])
		}
	}
	if n := up.count("GET /api/v1/faces"); n != 1 {
		t.Errorf("faces fetched %d times, want 1", n)
	}
}

func TestPhotoResolver_HeadshotPoolRetriesAfterFailure(t *testing.T) {
	var failing atomic.Bool
	failing.Store(true)
	up := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/faces" || failing.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		writeJSON(w, `{"faces":[{"urls":[{"512":"https://images.generated.photos/a-512.jpg"}]}]}`)
	})
	r := NewPhotoResolver(up.deps(), NewGuard(nil), "gp-key", 1, nil)
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return clock }

	if _, ok, err := r.fromPool(context.Background(), PhotoQuery{}); ok || err == nil {
		t.Fatalf("first load ok=%v err=%v, want failure", ok, err)
	}
	if _, ok, _ := r.fromPool(context.Background(), PhotoQuery{}); ok {
		t.Fatal("pool served before retry window")
	}
	if n := up.count("GET /api/v1/faces"); n != 1 {
		t.Fatalf("faces fetched %d times inside retry window, want 1", n)
	}

	failing.Store(false)
	clock = clock.Add(headshotPoolRetry)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	got, ok, err := r.fromPool(ctx, PhotoQuery{})
	if err != nil || !ok || got != "https://images.generated.photos/a-512.jpg" {
		t.Fatalf("retry = %q ok=%v err=%v, want loaded pool", got, ok, err)
	}

	failing.Store(true)
	clock = clock.Add(headshotPoolTTL)
	if _, ok, err := r.fromPool(context.Background(), PhotoQuery{}); !ok || err != nil {
		t.Errorf("refresh failure ok=%v err=%v, want old pool kept", ok, err)
	}
	if n := up.count("GET /api/v1/faces"); n != 3 {
		t.Errorf("faces fetched %d times, want 3", n)
	}
}

func TestEmailResolver_Finder(t *testing.T) {
	up := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v2/email-finder" && r.URL.Query().Get("api_key") == "hk" {
			writeJSON(w, `{"data":{"email":"jane.doe@acme.com","score":91}}`)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})
	r := NewEmailResolver(up.deps(), "hk", 70, NewCache[Resolved[string]]())

	got := r.Resolve(context.Background(), EmailQuery{FirstName: "Jane", LastName: "Doe", Company: "Acme"})
	if got.Source != model.SourceHunter || got.Value != "jane.doe@acme.com" {
		t.Errorf("Resolve = %+v, want hunter finder email", got)
	}
}

func TestEmailResolver_LowConfidenceUsesDomainSearch(t *testing.T) {
	up := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v2/email-finder":
			writeJSON(w, `{"data":{"email":"jd@acme.com","score":40}}`)
		case "/v2/domain-search":
			writeJSON(w, `{"data":{"emails":[
				{"value":"info@acme.com","type":"generic","confidence":95},
				{"value":"talent@acme.com","type":"generic","confidence":80}]}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	r := NewEmailResolver(up.deps(), "hk", 70, NewCache[Resolved[string]]())

	got := r.Resolve(context.Background(), EmailQuery{FirstName: "Jane", LastName: "Doe", Company: "Acme"})
	if got.Value != "talent@acme.com" || got.Source != model.SourceHunter {
		t.Errorf("Resolve = %+v, want HR mailbox", got)
	}
}

func TestEmailResolver_NoKeyFallsBack(t *testing.T) {
	up := failingUpstream(t)
	r := NewEmailResolver(up.deps(), "", 0, NewCache[Resolved[string]]())

	got := r.Resolve(context.Background(), EmailQuery{Company: "Acme Corp"})
	if got.Value != "careers@acme.com" || got.Source != model.SourcePlaceholder {
		t.Errorf("Resolve = %+v, want careers@ fallback", got)
	}
	if len(up.calls) != 0 {
		t.Errorf("unexpected upstream calls: %v", up.calls)
	}
	if fb := r.Fallback(EmailQuery{}); fb.Value != "careers@example.com" {
		t.Errorf("Fallback = %q", fb.Value)
	}
}

func TestPickDomainEmail(t *testing.T) {
	tests := []struct {
		name   string
		emails []hunterEmail
		want   string
	}{
		{"hr generic first", []hunterEmail{
			{Value: "ceo@x.com", Type: "personal", Confidence: 99, Department: "executive"},
			{Value: "hello@x.com", Type: "generic", Confidence: 99},
			{Value: "jobs@x.com", Type: "generic", Confidence: 50},
		}, "jobs@x.com"},
		{"best generic", []hunterEmail{
			{Value: "hello@x.com", Type: "generic", Confidence: 60},
			{Value: "info@x.com", Type: "generic", Confidence: 90},
			{Value: "amy@x.com", Type: "personal", Confidence: 99, Department: "hr"},
		}, "info@x.com"},
		{"hr personal", []hunterEmail{
			{Value: "bob@x.com", Type: "personal", Confidence: 99, Department: "engineering"},
			{Value: "amy@x.com", Type: "personal", Confidence: 70, Department: "hr"},
			{Value: "cat@x.com", Type: "personal", Confidence: 85, Department: "hr"},
		}, "cat@x.com"},
		{"none", []hunterEmail{{Value: "bob@x.com", Type: "personal", Department: "sales"}}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pickDomainEmail(tt.emails); got != tt.want {
				t.Errorf("pickDomainEmail = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPersonResolver_Placeholder(t *testing.T) {
	up := failingUpstream(t)
	r := NewPersonResolver(up.deps(), "pk", NewCache[Resolved[Person]]())

	mgr := r.Resolve(context.Background(), PersonQuery{Company: "Acme", Role: "Senior Backend Engineer", Kind: KindManager})
	if mgr.Source != model.SourcePlaceholder || mgr.Value.Title != "Engineering Manager" || mgr.Value.Name == "" {
		t.Errorf("manager = %+v", mgr)
	}
	hr := r.Resolve(context.Background(), PersonQuery{Company: "Acme", Role: "Product Designer", Kind: KindHR})
	if hr.Source != model.SourcePlaceholder || hr.Value.Title != "Talent Acquisition Partner" {
		t.Errorf("hr = %+v", hr)
	}
}

func TestPersonResolver_Proxycurl(t *testing.T) {
	var keyword string
	up := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer pk" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/proxycurl/api/linkedin/company/resolve":
			writeJSON(w, `{"url":"https://www.linkedin.com/company/acme"}`)
		case "/proxycurl/api/linkedin/company/employees/search/":
			keyword = r.URL.Query().Get("keyword_regex")
			writeJSON(w, `{"employees":[{"profile_url":"https://www.linkedin.com/in/jd","profile":{
				"first_name":"Jane","last_name":"Doe","full_name":"Jane Doe",
				"occupation":"Engineering Manager at Acme","headline":"Building teams",
				"profile_pic_url":"https://media.licdn.com/dms/jane.jpg"}}]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	r := NewPersonResolver(up.deps(), "pk", NewCache[Resolved[Person]]())

	got := r.Resolve(context.Background(), PersonQuery{Company: "Acme", Role: "Backend Engineer", Kind: KindManager})
	if got.Source != model.SourceProxycurl {
		t.Fatalf("Source = %q, want proxycurl", got.Source)
	}
	want := Person{
		FirstName: "Jane", LastName: "Doe", Name: "Jane Doe",
		Title: "Engineering Manager at Acme", Tagline: "Building teams",
		PhotoURL: "https://media.licdn.com/dms/jane.jpg",
	}
	if got.Value != want {
		t.Errorf("Person = %+v, want %+v", got.Value, want)
	}
	if !strings.Contains(keyword, "engineering manager") {
		t.Errorf("keyword_regex = %q, want engineering manager set", keyword)
	}

	r.Resolve(context.Background(), PersonQuery{Company: "Acme", Role: "Recruiter", Kind: KindHR})
	if n := up.count("GET /proxycurl/api/linkedin/company/resolve"); n != 1 {
		t.Errorf("company resolved %d times, want 1", n)
	}
}
