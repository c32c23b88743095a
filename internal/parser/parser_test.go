package parser

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
)

func TestParse_Empty(t *testing.T) {
	for _, in := range []string{"", "   ", "<div></div>"} {
		res := Parse(in)
		if len(res.Requirements) != 0 || len(res.Benefits) != 0 || len(res.Culture) != 0 || len(res.TechStack) != 0 {
			t.Errorf("Parse(%q) = %+v, want empty lists", in, res)
		}
		if res.Requirements == nil || res.Benefits == nil || res.Culture == nil || res.TechStack == nil {
			t.Errorf("Parse(%q) returned nil slices", in)
		}
		if res.Salary != "" || res.TeamSize != "" {
			t.Errorf("Parse(%q) salary=%q team=%q, want empty", in, res.Salary, res.TeamSize)
		}
	}
}

func TestParse_LabelSectionBullets(t *testing.T) {
	text := "About the job\nWe build things.\n\nRequirements:\n- 5+ years of Go\n- Kubernetes experience\n- Strong communication\n\nBenefits:\n• Health insurance\n• 401(k) match"
	res := Parse(text)

	wantReq := []string{"5+ years of Go", "Kubernetes experience", "Strong communication"}
	if !reflect.DeepEqual(res.Requirements, wantReq) {
		t.Errorf("Requirements = %v, want %v", res.Requirements, wantReq)
	}
	wantBen := []string{"Health insurance", "401(k) match"}
	if !reflect.DeepEqual(res.Benefits, wantBen) {
		t.Errorf("Benefits = %v, want %v", res.Benefits, wantBen)
	}
}

func TestParse_HTML(t *testing.T) {
	text := `<p>Intro &amp; overview</p>
<h2>What you'll bring</h2>
<ul><li>Experience with <strong>PostgreSQL</strong></li><li>Comfort with AWS</li></ul>
<h3>Perks</h3>
<ul><li>Unlimited PTO</li></ul>
<script>var x = "Requirements";</script>`
	res := Parse(text)

	wantReq := []string{"Experience with PostgreSQL", "Comfort with AWS"}
	if !reflect.DeepEqual(res.Requirements, wantReq) {
		t.Errorf("Requirements = %v, want %v", res.Requirements, wantReq)
	}
	if !reflect.DeepEqual(res.Benefits, []string{"Unlimited PTO"}) {
		t.Errorf("Benefits = %v", res.Benefits)
	}
	if !reflect.DeepEqual(res.TechStack, []string{"PostgreSQL", "AWS"}) {
		t.Errorf("TechStack = %v", res.TechStack)
	}
	if !reflect.DeepEqual(res.Culture, []string{"unlimited pto"}) {
		t.Errorf("Culture = %v", res.Culture)
	}
}

func TestParse_HeaderTieBreak(t *testing.T) {
	tests := []struct {
		header string
		want   sectionKind
	}{
		{"Skills & Benefits", kindRequirements},
		{"Team Benefits", kindBenefits},
		{"About the Team", kindTeam},
		{"Qualifications", kindRequirements},
		{"What we offer", kindBenefits},
		{"Responsibilities", kindTeam},
		{"How to apply", kindOther},
	}
	for _, tt := range tests {
		if got := classify(tt.header); got != tt.want {
			t.Errorf("classify(%q) = %v, want %v", tt.header, got, tt.want)
		}
	}

	res := Parse("Skills & Benefits:\n- Deep Python knowledge\n- Weekly team lunches")
	if len(res.Requirements) != 2 || len(res.Benefits) != 0 {
		t.Errorf("mixed header: requirements=%v benefits=%v", res.Requirements, res.Benefits)
	}
}

func TestParse_NonBulletFallback(t *testing.T) {
	res := Parse("## Requirements\nYou have shipped production services in Rust.\nok\n")
	want := []string{"You have shipped production services in Rust."}
	if !reflect.DeepEqual(res.Requirements, want) {
		t.Errorf("Requirements = %v, want %v", res.Requirements, want)
	}
}

func TestParse_KeywordFallback(t *testing.T) {
	text := "We are hiring.\nYou bring 3+ years of experience with distributed systems.\nWe provide health insurance and a learning budget.\nApply today."
	res := Parse(text)
	if !reflect.DeepEqual(res.Requirements, []string{"You bring 3+ years of experience with distributed systems."}) {
		t.Errorf("Requirements = %v", res.Requirements)
	}
	if !reflect.DeepEqual(res.Benefits, []string{"We provide health insurance and a learning budget."}) {
		t.Errorf("Benefits = %v", res.Benefits)
	}
}

func TestParse_Salary(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Pay: $120,000 - $180,000 per year plus equity", "$120,000 - $180,000 per year"},
		{"Range is $120k-$150k.", "$120k-$150k"},
		{"We pay up to $95,000 a year", "up to $95,000 a year"},
		{"Base of $200,000+ for this role", "$200,000+"},
		{"Salary: €70,000", "€70,000"},
		{"No numbers here", ""},
	}
	for _, tt := range tests {
		if got := Parse(tt.text).Salary; got != tt.want {
			t.Errorf("salary(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestParse_TechStack(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"Worked at Google on search", []string{}},
		{"We write Golang and Go services", []string{"Go"}},
		{"JavaScript and Java on Node.js", []string{"JavaScript", "Java", "Node.js"}},
		{"Ready to go to the rest of the world", []string{}},
		{"Built with C++, C# and REST APIs on k8s", []string{"C++", "C#", "REST", "Kubernetes"}},
	}
	for _, tt := range tests {
		if got := Parse(tt.text).TechStack; !reflect.DeepEqual(got, tt.want) {
			t.Errorf("tech(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestParse_TeamSize(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"## The Team\nYou will join a team of 5-10 engineers.", "team of 5-10 engineers"},
		{"We have 40+ engineers across the globe.", "40+ engineers"},
		{"A small team that moves quickly.", "small team"},
		{"Nothing about size.", ""},
	}
	for _, tt := range tests {
		if got := Parse(tt.text).TeamSize; got != tt.want {
			t.Errorf("team(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestParse_TeamSectionPreferred(t *testing.T) {
	text := "The company has 500 employees.\n\n## About the team\nWe are a team of 8 engineers."
	if got := Parse(text).TeamSize; got != "8 engineers" {
		t.Errorf("TeamSize = %q, want team section match", got)
	}
}

func TestParse_Culture(t *testing.T) {
	res := Parse("We are a Remote First, collaborative team with flexible hours.")
	want := []string{"remote-first", "flexible hours", "collaborative"}
	if !reflect.DeepEqual(res.Culture, want) {
		t.Errorf("Culture = %v, want %v", res.Culture, want)
	}
}

func TestParse_Caps(t *testing.T) {
	var b strings.Builder
	b.WriteString("Requirements:\n")
	for i := 0; i < 15; i++ {
		fmt.Fprintf(&b, "- Requirement number %d\n", i)
	}
	res := Parse(b.String())
	if len(res.Requirements) != maxRequirements {
		t.Errorf("len(Requirements) = %d, want %d", len(res.Requirements), maxRequirements)
	}
	if res.Requirements[0] != "Requirement number 0" {
		t.Errorf("first requirement = %q", res.Requirements[0])
	}
}

func TestParse_Deterministic(t *testing.T) {
	text := "Requirements:\n- Go\n- SQL\nBenefits:\n- Equity\nWe are remote-first. $100k - $120k"
	first := Parse(text)
	for i := 0; i < 5; i++ {
		if got := Parse(text); !reflect.DeepEqual(got, first) {
			t.Fatalf("Parse not deterministic: %+v vs %+v", got, first)
		}
	}
}
