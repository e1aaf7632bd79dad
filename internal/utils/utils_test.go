package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTTLCache(t *testing.T) {
	c := NewTTLCache[int](2)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("a", 1, time.Minute)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok)

	c.Set("b", 2, time.Minute)
	c.Delete("b")
	_, ok = c.Get("b")
	assert.False(t, ok)
}

func TestRenderContent(t *testing.T) {
	out := RenderContent("**bold** <script>alert(1)</script>", "")
	assert.Contains(t, out, "<strong>bold</strong>")
	assert.NotContains(t, out, "<script>")

	out = RenderContent(`<p onclick="x()">hi</p><img src="https://example.com/a.png">`, "html1,secret")
	assert.Contains(t, out, "<p>hi</p>")
	assert.Contains(t, out, `loading="lazy"`)
	assert.NotContains(t, out, "onclick")
}

func TestStripTags(t *testing.T) {
	assert.Equal(t, "Tom & Jerry", StripTags(" <b>Tom</b> &amp; Jerry "))
}

func TestHasHTMLOption(t *testing.T) {
	assert.True(t, HasHTMLOption("secret,html2"))
	assert.False(t, HasHTMLOption("secret,mail"))
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "hello world", PlainText("<p>hello</p>\n<p>world</p>", 0))
	assert.Equal(t, "hel…", PlainText("<p>hello</p>", 3))
}

func TestPositiveInt(t *testing.T) {
	assert.Equal(t, 3, PositiveInt("3", 1))
	assert.Equal(t, 1, PositiveInt("-3", 1))
	assert.Equal(t, 1, PositiveInt("x", 1))
}
