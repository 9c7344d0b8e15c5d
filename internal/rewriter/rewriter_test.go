package rewriter

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/aleister1102/faleproxy/internal/config"
	"github.com/aleister1102/faleproxy/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleHTMLWithYale = `<!DOCTYPE html>
<html>
<head>
  <title>Yale University Test Page</title>
  <style>.yale { color: blue; } /* Yale */</style>
  <script>var school = "Yale";</script>
</head>
<body>
  <header>
    <h1>Welcome to Yale University</h1>
    <nav>
      <ul>
        <li><a href="https://www.yale.edu/about">About Yale</a></li>
        <li><a href="https://www.yale.edu/admissions">Yale Admissions</a></li>
        <li><a href="https://www.yale.edu/academics" title="Yale Academics">Academics</a></li>
      </ul>
    </nav>
  </header>
  <main>
    <p>Yale University is a private Ivy League research university in New Haven, Connecticut.</p>
    <p>Yale was founded in 1701 as the Collegiate School.</p>
    <img src="https://www.yale.edu/logo.png" alt="Yale Logo">
    <!-- Yale comment -->
  </main>
</body>
</html>`

func newTestRewriter(t *testing.T) *Rewriter {
	t.Helper()
	r, err := NewRewriter(config.NewDefaultRewriterConfig(), zerolog.Nop())
	require.NoError(t, err)
	return r
}

func transform(t *testing.T, r *Rewriter, body, contentType string) *models.RewriteResult {
	t.Helper()
	result, err := r.Transform(&models.Page{
		URL:         "https://example.com/",
		StatusCode:  200,
		ContentType: contentType,
		Content:     []byte(body),
	})
	require.NoError(t, err)
	return result
}

func load(t *testing.T, content string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	require.NoError(t, err)
	return doc
}

func TestRewriter_ReplacesVisibleText(t *testing.T) {
	result := transform(t, newTestRewriter(t), sampleHTMLWithYale, "text/html; charset=utf-8")
	doc := load(t, result.HTML)

	assert.Equal(t, "Fale University Test Page", result.Title)
	assert.Equal(t, "Fale University Test Page", strings.TrimSpace(doc.Find("title").Text()))
	assert.Equal(t, "Welcome to Fale University", strings.TrimSpace(doc.Find("h1").Text()))
	assert.Contains(t, doc.Find("p").First().Text(), "Fale University is a private")
	assert.Equal(t, "Fale was founded in 1701 as the Collegiate School.", doc.Find("p").Eq(1).Text())
	assert.Equal(t, "About Fale", doc.Find("a").First().Text())
	assert.Equal(t, "Fale Admissions", doc.Find("a").Eq(1).Text())
	assert.True(t, strings.HasPrefix(result.HTML, "<!DOCTYPE html>"))
}

func TestRewriter_PreservesAttributes(t *testing.T) {
	result := transform(t, newTestRewriter(t), sampleHTMLWithYale, "text/html")
	doc := load(t, result.HTML)

	hrefs := doc.Find("a").Map(func(_ int, s *goquery.Selection) string {
		return s.AttrOr("href", "")
	})
	assert.Equal(t, []string{
		"https://www.yale.edu/about",
		"https://www.yale.edu/admissions",
		"https://www.yale.edu/academics",
	}, hrefs)
	assert.Contains(t, result.HTML, `href="https://www.yale.edu/about"`)
	assert.Equal(t, "Yale Academics", doc.Find("a").Eq(2).AttrOr("title", ""))
	assert.Equal(t, "Yale Logo", doc.Find("img").AttrOr("alt", ""))
	assert.Equal(t, "https://www.yale.edu/logo.png", doc.Find("img").AttrOr("src", ""))
}

func TestRewriter_NoYaleLeftInTextNodes(t *testing.T) {
	r := newTestRewriter(t)
	result := transform(t, r, sampleHTMLWithYale, "text/html")

	doc, err := ParseDocument([]byte(result.HTML), "text/html")
	require.NoError(t, err)
	for _, node := range doc.TextNodes(DefaultSkipTags...) {
		assert.NotContains(t, node.Data, "Yale")
	}
}

func TestRewriter_SkipsScriptStyleAndComments(t *testing.T) {
	result := transform(t, newTestRewriter(t), sampleHTMLWithYale, "text/html")

	assert.Contains(t, result.HTML, `var school = "Yale";`)
	assert.Contains(t, result.HTML, `/* Yale */`)
	assert.Contains(t, result.HTML, `<!-- Yale comment -->`)
}

func TestRewriter_NoscriptAttributesUntouched(t *testing.T) {
	body := `<html><head><title>Yale</title></head><body>` +
		`<noscript><a href="https://example.com/Yale">About Yale</a><img src="/Yale.png" alt="Yale"></noscript>` +
		`</body></html>`
	result := transform(t, newTestRewriter(t), body, "text/html")
	doc := load(t, result.HTML)

	assert.Contains(t, result.HTML, `href="https://example.com/Yale"`)
	assert.Contains(t, result.HTML, `src="/Yale.png"`)
	assert.Contains(t, result.HTML, `alt="Yale"`)
	assert.Contains(t, result.HTML, ">About Fale</a>")
	assert.Equal(t, 2, result.Replacements)
	assert.Equal(t, "Fale", result.Title)
	assert.Equal(t, 1, doc.Find("noscript").Length())
}

func TestRewriter_RawTextElementsUntouched(t *testing.T) {
	for _, tag := range []string{"iframe", "noembed", "noframes", "xmp"} {
		t.Run(tag, func(t *testing.T) {
			inner := `<a href="https://example.com/Yale">Yale</a>`
			body := `<html><body><p>Yale</p><` + tag + `>` + inner + `</` + tag + `></body></html>`
			result := transform(t, newTestRewriter(t), body, "text/html")

			assert.Contains(t, result.HTML, "<p>Fale</p>")
			assert.Contains(t, result.HTML, "https://example.com/Yale")
			assert.NotContains(t, result.HTML, "https://example.com/Fale")
			assert.Equal(t, 1, result.Replacements)
		})
	}
}

func TestRewriter_CountsReplacements(t *testing.T) {
	result := transform(t, newTestRewriter(t), sampleHTMLWithYale, "text/html")
	// title, h1, two anchors, two paragraphs
	assert.Equal(t, 6, result.Replacements)
}

func TestRewriter_CaseSensitive(t *testing.T) {
	body := `<html><head><title>yale YALE Yale</title></head><body><p>Yalebridge, yale and YALE</p></body></html>`
	result := transform(t, newTestRewriter(t), body, "text/html")
	doc := load(t, result.HTML)

	assert.Equal(t, "yale YALE Fale", result.Title)
	assert.Equal(t, "Falebridge, yale and YALE", doc.Find("p").Text())
	assert.Equal(t, 2, result.Replacements)
}

func TestRewriter_NoMatches(t *testing.T) {
	body := `<html><head><title>Harvard</title></head><body><p>Nothing here</p></body></html>`
	result := transform(t, newTestRewriter(t), body, "")

	assert.Equal(t, "Harvard", result.Title)
	assert.Equal(t, 0, result.Replacements)
	assert.Contains(t, result.HTML, "<p>Nothing here</p>")
}

func TestRewriter_EscapesReplacementText(t *testing.T) {
	r, err := NewRewriter(config.RewriterConfig{Term: "Yale", Replacement: "<b>Fale</b>"}, zerolog.Nop())
	require.NoError(t, err)

	result := transform(t, r, `<p>Yale</p>`, "text/html")
	assert.Contains(t, result.HTML, "&lt;b&gt;Fale&lt;/b&gt;")
	assert.Equal(t, 0, load(t, result.HTML).Find("b").Length())
}

func TestRewriter_CustomSkipTags(t *testing.T) {
	r, err := NewRewriter(config.RewriterConfig{
		Term:        "Yale",
		Replacement: "Fale",
		SkipTags:    []string{"code"},
	}, zerolog.Nop())
	require.NoError(t, err)

	result := transform(t, r, `<p>Yale <code>Yale</code></p><script>Yale</script>`, "text/html")
	doc := load(t, result.HTML)

	assert.Equal(t, "Yale", doc.Find("code").Text())
	assert.Equal(t, "Fale", doc.Find("script").Text())
}

func TestRewriter_EmptyBody(t *testing.T) {
	result := transform(t, newTestRewriter(t), "", "text/html")
	assert.Empty(t, result.Title)
	assert.Contains(t, result.HTML, "<body></body>")
}

func TestRewriter_DecodesLatin1(t *testing.T) {
	// "Café Yale" in ISO-8859-1
	body := []byte("<html><head><title>Caf\xe9 Yale</title></head><body></body></html>")
	result, err := newTestRewriter(t).Transform(&models.Page{
		ContentType: "text/html; charset=iso-8859-1",
		Content:     body,
	})
	require.NoError(t, err)
	assert.Equal(t, "Café Fale", result.Title)
}

func TestRewriter_DecodesMetaCharset(t *testing.T) {
	body := []byte(`<html><head><meta charset="windows-1252"><title>Yale` + "\x96" + `Page</title></head></html>`)
	result, err := newTestRewriter(t).Transform(&models.Page{
		ContentType: "text/html",
		Content:     body,
	})
	require.NoError(t, err)
	assert.Equal(t, "Fale–Page", result.Title)
}

func TestRewriter_UTF8BeyondSniffWindow(t *testing.T) {
	body := "<html><head><title>Yale</title></head><body>" + strings.Repeat(" ", 2048) + "<p>Yale – naïve</p></body></html>"
	result := transform(t, newTestRewriter(t), body, "text/html")
	assert.Contains(t, result.HTML, "Fale – naïve")
}

func TestRewriter_RejectsNonMarkup(t *testing.T) {
	_, err := newTestRewriter(t).Transform(&models.Page{
		ContentType: "image/png",
		Content:     []byte{0x89, 'P', 'N', 'G'},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported content type")
}

func TestRewriter_NilPage(t *testing.T) {
	_, err := newTestRewriter(t).Transform(nil)
	assert.Error(t, err)
}

func TestNewRewriter_EmptyTerm(t *testing.T) {
	_, err := NewRewriter(config.RewriterConfig{Replacement: "Fale"}, zerolog.Nop())
	assert.Error(t, err)
}

func TestReplaceText(t *testing.T) {
	r := newTestRewriter(t)

	tests := []struct {
		input string
		want  string
		count int
	}{
		{input: "Yale University", want: "Fale University", count: 1},
		{input: "Yale and Yale", want: "Fale and Fale", count: 2},
		{input: "yale", want: "yale", count: 0},
		{input: "", want: "", count: 0},
	}
	for _, tt := range tests {
		got, n := r.ReplaceText(tt.input)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.count, n)
	}
}
