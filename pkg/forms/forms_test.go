package forms

import (
	"testing"

	"github.com/lcalzada-xor/axss/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const commentsPage = `<html><body>
<form id="comment-form" name="comment" action="/comments" method="post">
  <input type="hidden" name="csrf_token" value="abc123">
  <input type="text" name="author" value="anon">
  <input type="submit" name="send" value="Send">
  <input type="image" name="img" src="go.png">
  <input type="checkbox" name="notify" value="yes">
  <input value="no name">
  <textarea name="body">
     hello there
  </textarea>
  <select name="topic">
    <option value="general">General</option>
    <option value="bugs" selected>Bugs</option>
  </select>
  <select name="lang"><option value="en">English</option><option value="es">Spanish</option></select>
  <select name="empty"></select>
</form>
<form action="search" method="GET"><input name="q"></form>
<form><input name="x"></form>
</body></html>`

func TestParseForms(t *testing.T) {
	forms := ParseForms(commentsPage, "http://t.local/blog/post?id=1")
	require.Len(t, forms, 3)

	c := forms[0]
	assert.Equal(t, "http://t.local/comments", c.Action)
	assert.Equal(t, models.MethodPOST, c.Method)
	assert.Equal(t, "comment-form", c.ID)
	assert.Equal(t, "comment", c.Name)
	assert.Equal(t, map[string]string{
		"csrf_token": "abc123",
		"author":     "anon",
		"notify":     "yes",
		"body":       "hello there",
		"topic":      "bugs",
		"lang":       "en",
		"empty":      "",
	}, c.Fields)

	s := forms[1]
	assert.Equal(t, "http://t.local/blog/search", s.Action)
	assert.Equal(t, models.MethodGET, s.Method)
	assert.Equal(t, map[string]string{"q": ""}, s.Fields)

	d := forms[2]
	assert.Equal(t, "http://t.local/blog/post?id=1", d.Action)
	assert.Equal(t, models.MethodGET, d.Method)
}

func TestParseForms_Malformed(t *testing.T) {
	forms := ParseForms(`<form action="/x"><input name="a" value="1"><div></form></div><form`, "http://t.local/")
	require.NotEmpty(t, forms)
	assert.Equal(t, "http://t.local/x", forms[0].Action)
	assert.Equal(t, "1", forms[0].Fields["a"])

	assert.Empty(t, ParseForms("", "http://t.local/"))
}

func TestExtractLinks(t *testing.T) {
	body := `<a href="/a">A</a>
<a href="b?x=1#frag">B</a>
<a href="#top">top</a>
<a href="javascript:void(0)">js</a>
<a href="MAILTO:me@x.io">mail</a>
<a href="tel:123">call</a>
<a href="https://other.example/c">C</a>
<a href="/a">again</a>
<a>no href</a>`

	links := ExtractLinks(body, "http://t.local/dir/page")
	assert.Equal(t, []string{
		"http://t.local/a",
		"http://t.local/dir/b?x=1#frag",
		"https://other.example/c",
	}, links)
}

func TestIsPseudoLink(t *testing.T) {
	for _, href := range []string{"#", "#x", "javascript:alert(1)", " JavaScript:x", "mailto:a@b", "tel:1"} {
		assert.True(t, IsPseudoLink(href), href)
	}
	for _, href := range []string{"/a", "http://x", "page#frag"} {
		assert.False(t, IsPseudoLink(href), href)
	}
}
