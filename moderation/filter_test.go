package moderation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilter_Apply(t *testing.T) {
	filter, err := NewFilter([]string{"badger", "secret word"}, '*')
	require.NoError(t, err)

	tests := []struct {
		name       string
		input      string
		want       string
		wantMasked bool
	}{
		{name: "clean text untouched", input: "hello there", want: "hello there"},
		{name: "plain match", input: "the badger escaped", want: "the ****** escaped", wantMasked: true},
		{name: "case insensitive", input: "BADGER on the loose", want: "****** on the loose", wantMasked: true},
		{name: "spacing inside pattern", input: "that secret   word again", want: "that ************* again", wantMasked: true},
		{name: "empty input", input: "", want: ""},
		{name: "punctuation only", input: "?!...", want: "?!..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			got, masked := filter.Apply(tt.input)
			req.Equal(tt.want, got)
			req.Equal(tt.wantMasked, masked)
		})
	}
}

func TestNewFilter_IgnoresEmptyPatterns(t *testing.T) {
	req := require.New(t)
	filter, err := NewFilter([]string{"", "  ", "real"}, '#')
	req.NoError(err)

	got, masked := filter.Apply("a real match")
	req.True(masked)
	req.Equal("a #### match", got)
}
