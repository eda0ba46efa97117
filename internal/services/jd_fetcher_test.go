package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const postingHTML = `<html>
<head><title>Backend Engineer</title><style>.x{}</style></head>
<body>
<nav><a href="/">Jobs</a></nav>
<div class="job-description">
  <h2>Backend Engineer</h2>
  <p>We build   payment infrastructure.</p>
  <h3>Requirements:</h3>
  <ul>
    <li>5+ years experience with Go</li>
    <li><p>Docker and Kubernetes</p></li>
  </ul>
</div>
<footer>Cookie policy</footer>
</body>
</html>`

func TestFetchJobDescription_HTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "ResumeATS")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(postingHTML))
	}))
	defer srv.Close()

	text, err := NewJobFetcher(time.Second, nil).FetchJobDescription(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Backend Engineer\n"+
		"We build payment infrastructure.\n"+
		"Requirements:\n"+
		"5+ years experience with Go\n"+
		"Docker and Kubernetes", text)
}

func TestFetchJobDescription_PlainText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("  Data Analyst \r\n\n\n SQL required  "))
	}))
	defer srv.Close()

	text, err := NewJobFetcher(time.Second, nil).FetchJobDescription(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Data Analyst\n\nSQL required", text)
}

func TestFetchJobDescription_Failures(t *testing.T) {
	notFound := httptest.NewServer(http.NotFoundHandler())
	defer notFound.Close()

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body><script>var x;</script></body></html>"))
	}))
	defer empty.Close()

	fetcher := NewJobFetcher(time.Second, nil)
	for name, rawURL := range map[string]string{
		"status":       notFound.URL,
		"no text":      empty.URL,
		"bad scheme":   "ftp://example.com/job",
		"not a url":    "::::",
		"missing host": "https://",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := fetcher.FetchJobDescription(context.Background(), rawURL)
			assert.ErrorIs(t, err, ErrJobFetch)
		})
	}
}

const divPostingHTML = `<html><body>
<main>
  <h1>Senior Go Engineer</h1>
  <div>Requirements: 5 years of <span>backend</span> experience with Go, Kubernetes and PostgreSQL.<br>
  You will design APIs, mentor engineers, own production services and improve our deployment pipeline every quarter.</div>
  <div><div>Remote friendly.</div></div>
</main>
</body></html>`

func TestFetchJobDescription_DivBasedPosting(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(divPostingHTML))
	}))
	defer srv.Close()

	text, err := NewJobFetcher(time.Second, nil).FetchJobDescription(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Senior Go Engineer\n"+
		"Requirements: 5 years of backend experience with Go, Kubernetes and PostgreSQL.\n"+
		"You will design APIs, mentor engineers, own production services and improve our deployment pipeline every quarter.\n"+
		"Remote friendly.", text)

	result := Match("Go engineer with Kubernetes and PostgreSQL experience.", text)
	assert.Greater(t, result.MatchScore, 0)
	assert.NotEmpty(t, result.KeywordMatches)
}
