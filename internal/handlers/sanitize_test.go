package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"photo.png", "photo.png"},
		{"My Photo (1).png", "My_Photo_1_.png"},
		{"../../etc/passwd", "passwd"},
		{"..\\..\\windows\\system32.png", "system32.png"},
		{"صورة.png", "png"},
		{"", ""},
		{"..", ""},
		{"///", ""},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, SanitizeFilename(tc.in), "input %q", tc.in)
	}
}
