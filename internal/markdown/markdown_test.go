package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderEmpty(t *testing.T) {
	out, err := New().Render([]byte("  \n\t"))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRenderGFM(t *testing.T) {
	src := "# Hello World\n\n" +
		"Some **bold** text and ~~strike~~.\n\n" +
		"| a | b |\n|---|---|\n| 1 | 2 |\n\n" +
		"- [x] done\n- [ ] todo\n\n" +
		"```js\nimport React from 'react'\n```\n\n" +
		"https://jspm.org\n"

	out, err := New().Render([]byte(src))
	require.NoError(t, err)

	assert.Contains(t, out, `<h1 id="hello-world">Hello World</h1>`)
	assert.Contains(t, out, "<strong>bold</strong>")
	assert.Contains(t, out, "<del>strike</del>")
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, `type="checkbox"`)
	assert.Contains(t, out, `class="language-js"`)
	assert.Contains(t, out, `href="https://jspm.org"`)
	assert.Contains(t, out, `rel="nofollow`)
}

func TestRenderSanitizes(t *testing.T) {
	src := "Hello <script>alert(1)</script>\n\n" +
		`<img src="x.png" onerror="alert(1)">` + "\n\n" +
		"[click](javascript:alert(1))\n\n" +
		`<div onclick="steal()">inline</div>` + "\n"

	out, err := New().Render([]byte(src))
	require.NoError(t, err)

	assert.NotContains(t, out, "<script")
	assert.NotContains(t, out, "onerror")
	assert.NotContains(t, out, "onclick")
	assert.NotContains(t, out, "javascript:")
	assert.Contains(t, out, `src="x.png"`)
	assert.Contains(t, out, "inline")
}

func TestRenderTruncates(t *testing.T) {
	src := strings.Repeat("word ", MaxSourceSize)
	out, err := New().Render([]byte(src))
	require.NoError(t, err)
	assert.Less(t, len(out), MaxSourceSize+64)
}
