// ABOUTME: Tests for text sanitization helpers
// ABOUTME: Covers ASCII filtering, rune-safe truncation and profanity masking

package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAlphanumeric(t *testing.T) {
	assert.Equal(t,
		"abcdefghigklmnopqrstuvwxyzABCDEFGHIGKLMNOPQRSTUVWXYZ0123456789",
		Alphanumeric("abcdefghigklmnopqrstuvwxyz 😃 ABCDEFGHIGKLMNOPQRSTUVWXYZ >-< 0123456789"),
	)
	assert.Equal(t, "", Alphanumeric("ñü 😃"))
}

func TestName(t *testing.T) {
	assert.Equal(t, "alice42", Name(" Alice_42! "))
	assert.Equal(t, "bb", Name("BÖb"))
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello", 3, "hel"},
		{"héllo wörld", 4, "héll"},
		{"😃😃😃", 2, "😃😃"},
		{"anything", 0, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Truncate(tt.in, tt.max), "Truncate(%q, %d)", tt.in, tt.max)
	}
}

func TestProfanityFilter(t *testing.T) {
	f := NewProfanityFilter([]string{"darn", " heck "})

	assert.Equal(t, "well **** it", f.Filter("well darn it"))
	assert.Equal(t, "****! ****.", f.Filter("HECK! Darn."))
	assert.Equal(t, "darnation stays", f.Filter("darnation stays"))
	assert.Equal(t, "", f.Filter(""))
}

func TestProfanityFilter_FoldsUnicode(t *testing.T) {
	f := NewProfanityFilter([]string{"straße", "ΣΚΑΤΆ"})

	assert.Equal(t, "die ******* hier", f.Filter("die STRASSE hier"))
	assert.Equal(t, "****** ok", f.Filter("Straße ok"))
	assert.Equal(t, "*****!", f.Filter("σκατά!"))
}

func TestProfanityFilter_Empty(t *testing.T) {
	var nilFilter *ProfanityFilter
	assert.Equal(t, "darn", nilFilter.Filter("darn"))
	assert.Equal(t, "darn", NewProfanityFilter(nil).Filter("darn"))
}

func TestProfanityFilter_Clean(t *testing.T) {
	f := NewProfanityFilter(DefaultWords)
	assert.Equal(t, "oh **", f.Clean("oh crap that hurt", 5))
}
