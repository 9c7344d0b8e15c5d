package rewriter

import (
	"mime"
	"strings"

	"github.com/aleister1102/faleproxy/internal/common/errorwrapper"
	"github.com/aleister1102/faleproxy/internal/config"
	"github.com/aleister1102/faleproxy/internal/models"
	"github.com/aleister1102/faleproxy/internal/logger"
	"github.com/rs/zerolog"
)

// Rewriter replaces a literal term with a replacement in the visible text of
// HTML documents. Attribute values are never touched. A Rewriter holds no
// per-call state and is safe for concurrent use.
type Rewriter struct {
	term        string
	replacement string
	skipTags    []string
	logger      zerolog.Logger
}

// NewRewriter creates a rewriter from config. Matching is exact and case-sensitive.
func NewRewriter(cfg config.RewriterConfig, zLogger zerolog.Logger) (*Rewriter, error) {
	if cfg.Term == "" {
		return nil, errorwrapper.NewValidationError("term", cfg.Term, "term cannot be empty")
	}

	skipTags := cfg.SkipTags
	if skipTags == nil {
		skipTags = DefaultSkipTags
	}

	return &Rewriter{
		term:        cfg.Term,
		replacement: cfg.Replacement,
		skipTags:    skipTags,
		logger:      logger.Component(zLogger, "Rewriter"),
	}, nil
}

// ReplaceText returns s with every occurrence of the term replaced, and the
// number of replacements made.
func (r *Rewriter) ReplaceText(s string) (string, int) {
	count := strings.Count(s, r.term)
	if count == 0 {
		return s, 0
	}
	return strings.ReplaceAll(s, r.term, r.replacement), count
}

// RewriteDocument mutates doc in place and returns the number of replacements.
func (r *Rewriter) RewriteDocument(doc *Document) int {
	total := 0
	for _, node := range doc.TextNodes(r.skipTags...) {
		rewritten, n := r.ReplaceText(node.Data)
		if n > 0 {
			node.Data = rewritten
			total += n
		}
	}
	return total
}

// Transform parses page, rewrites its text and serializes it back.
func (r *Rewriter) Transform(page *models.Page) (*models.RewriteResult, error) {
	if page == nil {
		return nil, errorwrapper.NewError("no page to transform")
	}
	if err := checkContentType(page.ContentType); err != nil {
		return nil, err
	}

	doc, err := ParseDocument(page.Content, page.ContentType)
	if err != nil {
		return nil, err
	}

	replacements := r.RewriteDocument(doc)

	out, err := doc.HTML()
	if err != nil {
		return nil, err
	}

	r.logger.Debug().
		Str("url", page.URL).
		Int("replacements", replacements).
		Int("content_size", len(out)).
		Msg("Document rewritten")

	return &models.RewriteResult{
		HTML:         out,
		Title:        doc.Title(),
		Replacements: replacements,
	}, nil
}

// checkContentType rejects bodies that are clearly not markup. A missing or
// unparsable header is given the benefit of the doubt.
func checkContentType(contentType string) error {
	if contentType == "" {
		return nil
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil
	}
	switch {
	case strings.HasPrefix(mediaType, "text/"),
		mediaType == "application/xhtml+xml",
		mediaType == "application/xml":
		return nil
	}
	return errorwrapper.NewError("unsupported content type '%s'", mediaType)
}
