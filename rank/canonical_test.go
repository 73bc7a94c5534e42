package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalEquivalences(t *testing.T) {
	equal := [][2]string{
		{"http://example.com", "http://example.com/"},
		{"http://example.com/foo", "http://example.com/foo/"},
		{"http://example.com/bar.html#section1", "http://example.com/bar.html"},
		{"https://example.com/", "http://example.com/"},
		{"http://example.com/foo//bar.html", "http://example.com/foo/bar.html"},
		{"http://www.example.com/", "http://example.com/"},
		{"HTTP://Example.COM/foo", "http://example.com/foo"},
		{
			"http://example.com/display?lang=en&article=fred",
			"http://example.com/display?article=fred&lang=en",
		},
		{"https://a.com/x?b=1&a=2", "http://a.com/x?a=2&b=1"},
		{
			"https://en.m.wikipedia.org/wiki/Go_(programming_language)",
			"https://en.wikipedia.org/wiki/Go_(programming_language)",
		},
		{
			"https://en.wikipedia.org/wiki/Python_2%E2%80%933_migration",
			"https://en.wikipedia.org/wiki/Python_2-3_migration",
		},
	}

	for _, pair := range equal {
		assert.Equal(t, Canonical(pair[0]), Canonical(pair[1]),
			"%q and %q should share a canonical key", pair[0], pair[1])
	}
}

func TestCanonicalDistinctions(t *testing.T) {
	unequal := [][2]string{
		{"ftp://example.com/", "http://example.com/"},
		{"http://foo.com/", "http://bar.com/"},
		{"http://example.com/foo", "http://example.com/bar"},
		{"http://example.com/?foo=", "http://example.com/?bar="},
		// The mobile-host fold and en-dash rule apply to Wikipedia only.
		{"http://a.m.example.org/x", "http://a.example.org/x"},
		{"http://example.com/a%E2%80%93b", "http://example.com/a-b"},
	}

	for _, pair := range unequal {
		assert.NotEqual(t, Canonical(pair[0]), Canonical(pair[1]),
			"%q and %q should not collide", pair[0], pair[1])
	}
}

func TestCanonicalUnparsable(t *testing.T) {
	// Garbage still dedupes against itself.
	assert.Equal(t, Canonical("::notaurl"), Canonical("::notaurl"))
	assert.NotEmpty(t, Canonical("::notaurl"))
}
