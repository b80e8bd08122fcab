package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseInviteList(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want []string
	}{
		{
			name: "plain lines",
			raw:  "a@example.com\nb@example.com\n",
			want: []string{"a@example.com", "b@example.com"},
		},
		{
			name: "header row skipped",
			raw:  "email\na@example.com\nb@example.com",
			want: []string{"a@example.com", "b@example.com"},
		},
		{
			name: "quotes stripped and crlf normalized",
			raw:  "\"email\"\r\n\"a@example.com\"\r\n\"b@example.com\"\r\n",
			want: []string{"a@example.com", "b@example.com"},
		},
		{
			name: "duplicates removed preserving first occurrence",
			raw:  "B@example.com\na@example.com\nb@example.com\n",
			want: []string{"b@example.com", "a@example.com"},
		},
		{
			name: "blank lines and trailing commas",
			raw:  "a@example.com,\n\n  \nb@example.com\n",
			want: []string{"a@example.com", "b@example.com"},
		},
		{
			name: "first line with at-sign is data not header",
			raw:  "a@example.com\nb@example.com",
			want: []string{"a@example.com", "b@example.com"},
		},
		{
			name: "empty input",
			raw:  "",
			want: []string{},
		},
		{
			name: "header only",
			raw:  "email\n",
			want: []string{},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseInviteList(tc.raw))
		})
	}
}

func TestDedupeEmailsNormalizes(t *testing.T) {
	got := dedupeEmails([]string{" A@Example.com ", "a@example.com,", "", "b@example.com"})
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, got)
}
