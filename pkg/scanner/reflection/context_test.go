package reflection

import (
	"testing"

	"github.com/lcalzada-xor/axss/pkg/models"
)

func TestDetectContext(t *testing.T) {
	const marker = "xssmarker42"

	tests := []struct {
		name    string
		body    string
		payload string
		want    models.Context
	}{
		{"Script block", page(`<script>var a = "xssmarker42";</script>`), marker, models.ContextScript},
		{"Comment", page(`<!-- xssmarker42 -->`), marker, models.ContextComment},
		{"Attribute value", page(`<input value="xssmarker42">`), marker, models.ContextAttribute},
		{"Page text", page(`xssmarker42`), marker, models.ContextTag},
		{"Not present", page(`nothing here`), marker, models.ContextUnknown},
		{
			name:    "Script wins over text",
			body:    page(`<p>xssmarker42</p><script>var a = "xssmarker42";</script>`),
			payload: marker,
			want:    models.ContextScript,
		},
		{
			name:    "Attribute wins over text",
			body:    page(`<p>xssmarker42</p><img alt="xssmarker42">`),
			payload: marker,
			want:    models.ContextAttribute,
		},
		{
			name:    "Closing a script block from inside it",
			body:    page(`<script>var a = "</script><script>alert(1)</script>";</script>`),
			payload: "</script><script>alert(1)</script>",
			want:    models.ContextScript,
		},
		{
			name:    "Injected tag is page text",
			body:    page(`<svg/onload=alert(1)>`),
			payload: "<svg/onload=alert(1)>",
			want:    models.ContextTag,
		},
		{
			name:    "Tag-stripped text inside attribute",
			body:    page(`<input value="alert(1)">`),
			payload: "<script>alert(1)</script>",
			want:    models.ContextAttribute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectContext(tt.body, tt.payload); got != tt.want {
				t.Errorf("DetectContext() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDetectContext_Malformed(t *testing.T) {
	bodies := []string{
		`<div <input value="xssmarker42`,
		`<!-- xssmarker42`,
		`<script>xssmarker42`,
		`"><<<>>>xssmarker42<</`,
		"\x00\xff<xssmarker42>",
		`value="xssmarker42"`,
	}
	for _, body := range bodies {
		// Must not panic; the exact context is best effort.
		_ = DetectContext(body, "xssmarker42")
	}

	if got := DetectContext(`<!-- xssmarker42`, "xssmarker42"); got != models.ContextComment {
		t.Errorf("unterminated comment: got %s", got)
	}
	if got := DetectContext(`<script>xssmarker42`, "xssmarker42"); got != models.ContextScript {
		t.Errorf("unterminated script: got %s", got)
	}
}

func TestIsExecutable(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		payload string
		ctx     models.Context
		want    bool
	}{
		{"Complete script block", "<script>alert(1)</script>", "<script>alert(1)</script>", models.ContextTag, true},
		{"Script open tag only", "<script>alert(1)", "<script>alert(1)</script>", models.ContextUnknown, false},
		{"Handler wired to alert", `<div onclick="alert(1)">`, "x onclick=alert(1)", models.ContextUnknown, true},
		{"Dangerous element", "<textarea onfocus=x>", "<textarea onfocus=alert(1) autofocus>", models.ContextUnknown, true},
		{"Script context alert", "var a = '';alert(1)", "';alert(1)", models.ContextScript, true},
		{"Attribute context with handler elsewhere", `<p onblur="x()">`, `" x="`, models.ContextAttribute, true},
		{"Attribute context without quotes", `<p onblur="x()">`, `x`, models.ContextAttribute, false},
		{"Tag context renders markup", "<img src=logo.png> hello", "hello", models.ContextTag, true},
		{"Comment context never falls back", "<!-- hello -->", "hello", models.ContextComment, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsExecutable(tt.body, tt.payload, tt.ctx); got != tt.want {
				t.Errorf("IsExecutable() = %v, want %v", got, tt.want)
			}
		})
	}
}
