// source.go implements the memoized source cache and the context and
// function-name recovery heuristics built on top of it.

package errwatch

import (
	"io"
	"net/http"
	"regexp"
	"strings"
	"sync"
)

const (
	// defaultLinesOfContext is the total size of the context window
	// gathered around a frame's line.
	defaultLinesOfContext = 11

	// nameSearchLines bounds the backward walk of guessFunctionName.
	nameSearchLines = 10
)

// urlPattern splits a URL into protocol, domain, port and path. Anything
// it cannot split is treated as cross-origin and never fetched.
var urlPattern = regexp.MustCompile(`^(\w+)://([^:/?#]+)(?::(\d+))?([/?#].*)?$`)

// SourceLoader fetches the raw text of a resource. Returning an error
// yields an empty cache entry, never a propagated failure.
type SourceLoader func(url string) (string, error)

// SourceCacheOption configures a SourceCache.
type SourceCacheOption func(*sourceCacheConfig)

type sourceCacheConfig struct {
	documentURL    string
	remoteFetching bool
	loader         SourceLoader
	client         *http.Client
	linesOfContext int
}

// WithDocumentURL sets the document URL whose domain defines "same
// origin". Without it no remote fetch is ever attempted.
func WithDocumentURL(url string) SourceCacheOption {
	return func(c *sourceCacheConfig) {
		c.documentURL = url
	}
}

// WithRemoteFetching enables synchronous best-effort fetching of
// same-origin resources. Disabled by default.
func WithRemoteFetching() SourceCacheOption {
	return func(c *sourceCacheConfig) {
		c.remoteFetching = true
	}
}

// WithSourceLoader replaces the fetch path entirely, including the
// same-origin policy. Intended for tests and server-side ingestion where
// sources are available locally.
func WithSourceLoader(loader SourceLoader) SourceCacheOption {
	return func(c *sourceCacheConfig) {
		c.loader = loader
	}
}

// WithHTTPClient sets the client used for remote fetching.
func WithHTTPClient(client *http.Client) SourceCacheOption {
	return func(c *sourceCacheConfig) {
		if client != nil {
			c.client = client
		}
	}
}

// WithLinesOfContext sets the total context window size (default 11).
func WithLinesOfContext(n int) SourceCacheOption {
	return func(c *sourceCacheConfig) {
		if n > 0 {
			c.linesOfContext = n
		}
	}
}

// SourceCache memoizes the text lines of resources by URL. Entries are
// populated lazily and never evicted; a resource that cannot be fetched
// (cross-origin, network failure, parse failure) is cached as empty so
// the rest of the pipeline degrades instead of erroring.
type SourceCache struct {
	mu    sync.Mutex
	lines map[string][]string
	cfg   sourceCacheConfig
}

// NewSourceCache creates a SourceCache with the given options.
func NewSourceCache(opts ...SourceCacheOption) *SourceCache {
	cfg := sourceCacheConfig{
		client:         http.DefaultClient,
		linesOfContext: defaultLinesOfContext,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &SourceCache{
		lines: make(map[string][]string),
		cfg:   cfg,
	}
}

// GetLines returns the memoized text lines of url. The result is empty,
// never an error, when the resource is unavailable for any reason.
func (c *SourceCache) GetLines(url string) []string {
	if url == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if lines, ok := c.lines[url]; ok {
		return lines
	}

	var lines []string
	if src := c.load(url); src != "" {
		lines = strings.Split(src, "\n")
	}
	c.lines[url] = lines
	return lines
}

// load fetches raw source text, returning "" on any failure.
func (c *SourceCache) load(url string) string {
	if c.cfg.loader != nil {
		src, err := c.cfg.loader(url)
		if err != nil {
			return ""
		}
		return src
	}

	if !c.cfg.remoteFetching || !c.sameOrigin(url) {
		return ""
	}

	resp, err := c.cfg.client.Get(url)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ""
	}
	return string(body)
}

// sameOrigin reports whether url's domain equals the document's domain.
// Parse failure on either side means not same-origin.
func (c *SourceCache) sameOrigin(url string) bool {
	doc := urlPattern.FindStringSubmatch(c.cfg.documentURL)
	if doc == nil {
		return false
	}
	target := urlPattern.FindStringSubmatch(url)
	if target == nil {
		return false
	}
	return doc[2] == target[2]
}

// gatherContext returns a window of source lines around line (1-based),
// clipped to file boundaries, or nil when the file is unavailable or the
// window is empty. For an odd window size the extra line trails the
// target; for an even size it precedes it.
func (c *SourceCache) gatherContext(url string, line int) []string {
	source := c.GetLines(url)
	if len(source) == 0 || line < 1 {
		return nil
	}

	before := c.cfg.linesOfContext / 2
	after := before + c.cfg.linesOfContext%2

	start := line - before - 1
	if start < 0 {
		start = 0
	}
	end := line + after - 1
	if end > len(source) {
		end = len(source)
	}
	if end <= start {
		return nil
	}

	context := make([]string, end-start)
	copy(context, source[start:end])
	return context
}

var (
	// Assignment-style definitions: name = function, name: function,
	// name = eval, name = new Function.
	reGuessFunction = regexp.MustCompile(`['"]?([0-9A-Za-z$_]+)['"]?\s*[:=]\s*(function|eval|new Function)`)

	// Raw function declarations: function name(args).
	reFunctionArgNames = regexp.MustCompile(`function ([^(]*)\(([^)]*)\)`)
)

// guessFunctionName recovers the name of the function enclosing line by
// walking backward up to nameSearchLines lines, re-testing the two
// definition grammars after each prepend. Heuristic: minified or
// duplicated code can yield a wrong name.
func (c *SourceCache) guessFunctionName(url string, line int) string {
	source := c.GetLines(url)
	if len(source) == 0 {
		return UnknownFunction
	}

	accum := ""
	for i := 0; i < nameSearchLines; i++ {
		idx := line - 1 - i
		if idx < 0 || idx >= len(source) {
			break
		}
		accum = source[idx] + accum
		if m := reGuessFunction.FindStringSubmatch(accum); m != nil {
			return m[1]
		}
		if m := reFunctionArgNames.FindStringSubmatch(accum); m != nil {
			return m[1]
		}
	}
	return UnknownFunction
}

// findSourceInLine locates the first lexical occurrence of fragment on
// the given source line, returning its 0-based index or nil. The match
// must fall on word boundaries so that "x" does not hit "max".
func (c *SourceCache) findSourceInLine(fragment, url string, line int) *int {
	if fragment == "" {
		return nil
	}
	source := c.GetLines(url)
	if line < 1 || line > len(source) {
		return nil
	}

	re, err := regexp.Compile(`\b` + regexp.QuoteMeta(fragment) + `\b`)
	if err != nil {
		return nil
	}
	text := source[line-1]
	if !re.MatchString(text) {
		return nil
	}
	return Int(strings.Index(text, fragment))
}
