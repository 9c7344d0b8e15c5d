package models

// Page is an upstream document as retrieved, before any rewriting.
type Page struct {
	URL         string // normalized URL that was requested
	FinalURL    string // URL after redirects
	StatusCode  int
	ContentType string
	Content     []byte
}

// RewriteResult is the outcome of rewriting a Page.
type RewriteResult struct {
	HTML         string
	Title        string
	Replacements int
}
