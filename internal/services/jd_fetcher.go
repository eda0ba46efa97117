package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"alfredoptarigan/resume-ats/internal/logger"
)

const (
	defaultFetchTimeout = 20 * time.Second
	maxJobPageBytes     = 5 << 20
	fetchUserAgent      = "Mozilla/5.0 (compatible; ResumeATS/1.0)"
)

// jobContentSelectors are tried in order; the first match is the posting body.
var jobContentSelectors = []string{
	".job-description",
	"#job-description",
	".job-details",
	".posting-content",
	"[data-testid='job-description']",
	"main",
	"article",
	"#content",
}

// blockElements start a new line in the extracted text.
var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"dd": true, "div": true, "dl": true, "dt": true,
	"figcaption": true, "figure": true, "h1": true, "h2": true,
	"h3": true, "h4": true, "h5": true, "h6": true,
	"hr": true, "li": true, "main": true, "ol": true,
	"p": true, "pre": true, "section": true, "table": true,
	"td": true, "th": true, "tr": true, "ul": true,
}

// JobFetcher turns a job posting URL into plain text.
type JobFetcher interface {
	FetchJobDescription(ctx context.Context, rawURL string) (string, error)
}

type jobFetcher struct {
	client *http.Client
	logger *zap.Logger
}

func NewJobFetcher(timeout time.Duration, log *zap.Logger) JobFetcher {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &jobFetcher{
		client: &http.Client{Timeout: timeout},
		logger: logger.OrNop(log),
	}
}

func (f *jobFetcher) FetchJobDescription(ctx context.Context, rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return "", fmt.Errorf("%w: invalid URL %q", ErrJobFetch, rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrJobFetch, err)
	}
	req.Header.Set("User-Agent", fetchUserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrJobFetch, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: HTTP status %d", ErrJobFetch, resp.StatusCode)
	}

	body := io.LimitReader(resp.Body, maxJobPageBytes)

	var text string
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain") {
		raw, err := io.ReadAll(body)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrJobFetch, err)
		}
		text = CleanText(string(raw))
	} else {
		text, err = jobTextFromHTML(body)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrJobFetch, err)
		}
	}

	if text == "" {
		return "", fmt.Errorf("%w: no text found at %s", ErrJobFetch, rawURL)
	}

	f.logger.Info("📄 job description fetched",
		zap.String("host", parsed.Host),
		zap.Int("chars", len(text)),
	)
	return text, nil
}

// jobTextFromHTML keeps one line per block element of the posting body, so
// section headers survive for requirement extraction. Inline markup stays on
// its line and <br> breaks it.
func jobTextFromHTML(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("nav, footer, header, script, style, noscript, form, .cookie-banner").Remove()

	var content *goquery.Selection
	for _, selector := range jobContentSelectors {
		if sel := doc.Find(selector); sel.Length() > 0 {
			content = sel.First()
			break
		}
	}
	if content == nil {
		content = doc.Find("body")
	}

	var b strings.Builder
	writeBlockText(&b, content)

	var lines []string
	for _, line := range strings.Split(b.String(), "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return CleanText(strings.Join(lines, "\n")), nil
}

func writeBlockText(b *strings.Builder, sel *goquery.Selection) {
	sel.Contents().Each(func(_ int, s *goquery.Selection) {
		switch name := goquery.NodeName(s); {
		case name == "#text":
			b.WriteString(s.Text())
		case name == "br":
			b.WriteByte('\n')
		case blockElements[name]:
			b.WriteByte('\n')
			writeBlockText(b, s)
			b.WriteByte('\n')
		default:
			writeBlockText(b, s)
		}
	})
}
