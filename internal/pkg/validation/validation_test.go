package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Acme Inc":         "acme-inc",
		"Acme, Inc.":       "acme-inc",
		"  --Hello World--": "hello-world",
		"Café 2000":        "caf-2000",
		"!!!":              "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@b.com", NormalizeEmail("  A@B.Com "))
}

func TestIsValidEmail(t *testing.T) {
	assert.True(t, IsValidEmail("a@b.com"))
	assert.False(t, IsValidEmail("a@b"))
	assert.False(t, IsValidEmail("a b@c.com"))
}

func TestIsValidColor(t *testing.T) {
	assert.True(t, IsValidColor("#3b82f6"))
	assert.True(t, IsValidColor("#FFF"))
	assert.False(t, IsValidColor("3b82f6"))
	assert.False(t, IsValidColor("#12345"))
}
