package snippet

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestLoadExtractsReadableText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head><title>Cats</title></head><body>
			<nav>menu menu menu</nav>
			<article><h1>About cats</h1>
			<p>The cat is a small domesticated carnivorous mammal. Cats are
			valued by humans for companionship and their ability to kill
			rodents. The domestic cat has a smaller skull and shorter bones
			than the European wildcat.</p></article>
		</body></html>`))
	}))
	defer srv.Close()

	l := NewLoader(srv.Client(), zap.NewNop())
	text := l.Load(context.Background(), srv.URL+"/cats")

	assert.Contains(t, text, "domesticated carnivorous mammal")
}

func TestLoadFailuresAreSilent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	l := NewLoader(srv.Client(), zap.NewNop())

	assert.Empty(t, l.Load(context.Background(), srv.URL))
	assert.Empty(t, l.Load(context.Background(), "ftp://nope.example"))
	assert.Empty(t, l.Load(context.Background(), "http://127.0.0.1:1/closed"))
}

func TestLoadSkipsNonHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4"))
	}))
	defer srv.Close()

	l := NewLoader(srv.Client(), zap.NewNop())
	assert.Empty(t, l.Load(context.Background(), srv.URL))
}

func TestTruncateAtWordBoundary(t *testing.T) {
	long := strings.Repeat("word ", 200)
	out := truncate(long, 50)

	assert.LessOrEqual(t, len([]rune(out)), 52)
	assert.True(t, strings.HasSuffix(out, "…"))
	assert.False(t, strings.Contains(strings.TrimSuffix(out, "…"), "  "))

	assert.Equal(t, "short", truncate("short", 50))
}
