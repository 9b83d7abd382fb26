package reflection

import (
	"fmt"
	"strings"
	"testing"

	"github.com/lcalzada-xor/axss/pkg/models"
)

func page(inner string) string {
	return fmt.Sprintf("<html><head><title>Search</title></head><body><div class=\"results\">%s</div></body></html>", inner)
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		payload        string
		wantVulnerable bool
		wantReflected  bool
		wantContext    models.Context
	}{
		{
			name:           "Script tag reflected in page text",
			body:           page("Results for <script>alert(1)</script>"),
			payload:        "<script>alert(1)</script>",
			wantVulnerable: true,
			wantReflected:  true,
			wantContext:    models.ContextTag,
		},
		{
			name:           "Entity encoded script tag",
			body:           page("Results for &lt;script&gt;alert(1)&lt;/script&gt;"),
			payload:        "<script>alert(1)</script>",
			wantVulnerable: false,
			wantReflected:  false,
			wantContext:    models.ContextUnknown,
		},
		{
			name:           "Not reflected at all",
			body:           page("No results"),
			payload:        "<svg/onload=alert(1)>",
			wantVulnerable: false,
			wantReflected:  false,
			wantContext:    models.ContextUnknown,
		},
		{
			name:           "Image onerror in page text",
			body:           page("<img src=x onerror=alert(1)>"),
			payload:        "<img src=x onerror=alert(1)>",
			wantVulnerable: true,
			wantReflected:  true,
			wantContext:    models.ContextTag,
		},
		{
			name:           "Attribute breakout",
			body:           page(`<input name="q" value="" onmouseover="alert(1)">`),
			payload:        `" onmouseover="alert(1)`,
			wantVulnerable: true,
			wantReflected:  true,
			wantContext:    models.ContextAttribute,
		},
		{
			name:           "Script string breakout",
			body:           page(`<script>var q = '';alert(1);//';</script>`),
			payload:        `';alert(1);//`,
			wantVulnerable: true,
			wantReflected:  true,
			wantContext:    models.ContextScript,
		},
		{
			name:           "Plain text without markup is not executable",
			body:           page(`<a href="javascript:alert(1)">next</a>`),
			payload:        "javascript:alert(1)",
			wantVulnerable: false,
			wantReflected:  true,
			wantContext:    models.ContextAttribute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Detect(tt.body, tt.payload)
			if v.Vulnerable != tt.wantVulnerable {
				t.Errorf("Vulnerable = %v, want %v (detail %q)", v.Vulnerable, tt.wantVulnerable, v.Detail)
			}
			if v.Reflected != tt.wantReflected {
				t.Errorf("Reflected = %v, want %v", v.Reflected, tt.wantReflected)
			}
			if v.Context != tt.wantContext {
				t.Errorf("Context = %s, want %s", v.Context, tt.wantContext)
			}
		})
	}
}

func TestDetect_EncodedNearReflection(t *testing.T) {
	body := page(`<input value="&quot;onmouseover=alert(1)"><!-- "onmouseover=alert(1) -->`)
	v := Detect(body, `"onmouseover=alert(1)`)
	if v.Vulnerable {
		t.Fatal("encoded reflection must not be vulnerable")
	}
	if !v.Encoded || v.Context != models.ContextUnknown || v.Detail != "Reflected but encoded" {
		t.Errorf("unexpected verdict %+v", v)
	}
}

func TestIsReflected(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		payload string
		want    bool
	}{
		{"Verbatim", "a<b>x</b>c", "<b>x</b>", true},
		{"Fully encoded", "a&lt;b&gt;hello world&lt;/b&gt;c", "<b>hello world</b>", false},
		{"Partial reflection after tag stripping", "<p>hello world</p>", "<i>hello world</i>", true},
		{"Partial reflection too short", "<p>hi</p>", "<i>hi</i>", false},
		{"Empty payload", "anything", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsReflected(tt.body, tt.payload); got != tt.want {
				t.Errorf("IsReflected() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsEncoded(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		payload string
		want    bool
	}{
		{
			name:    "Brackets removed, quote encoded",
			body:    `<input value="&quot;scriptalert(1)/script">`,
			payload: `"><script>alert(1)</script>`,
			want:    true,
		},
		{
			name:    "Payload without dangerous characters",
			body:    "&lt; alert(1)",
			payload: "alert(1)",
			want:    false,
		},
		{
			name:    "No entities anywhere",
			body:    `<p>"scriptalert(1)/script</p>`,
			payload: `"><script>alert(1)</script>`,
			want:    false,
		},
		{
			name:    "Entity far away from reflection",
			body:    "&lt;" + strings.Repeat("x", 200) + "onclick=alert(1)",
			payload: `"onclick=alert(1)`,
			want:    false,
		},
		{
			name:    "Numeric apostrophe entity",
			body:    "x=&#39;onclick=alert(1)",
			payload: `'onclick=alert(1)`,
			want:    true,
		},
		{
			name:    "Reflection at start of body",
			body:    "scriptalert(1)/script&gt;",
			payload: "<script>alert(1)</script>",
			want:    true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsEncoded(tt.body, tt.payload); got != tt.want {
				t.Errorf("IsEncoded() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEncodeHTML(t *testing.T) {
	got := EncodeHTML(`<a href="x">'&'</a>`)
	want := "&lt;a href=&quot;x&quot;&gt;&#x27;&amp;&#x27;&lt;/a&gt;"
	if got != want {
		t.Errorf("EncodeHTML() = %q, want %q", got, want)
	}
}

func TestStripTags(t *testing.T) {
	if got := StripTags("<b>bold</b> and <i>italic</i>"); got != "bold and italic" {
		t.Errorf("StripTags() = %q", got)
	}
}
