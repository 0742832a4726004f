package banner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validBanner() Banner {
	return Banner{
		Name:     "diwali",
		Title:    "Festive boxes",
		Subtitle: "Handmade sweets",
		CTAText:  "Shop now",
		ImageURL: "https://cdn.example.com/banners/diwali.jpg",
		IsActive: true,
		Order:    1,
	}
}

func TestNew_DefaultsLink(t *testing.T) {
	b, err := New("b-1", validBanner())
	require.NoError(t, err)

	assert.Equal(t, "b-1", b.ID)
	assert.Equal(t, DefaultLinkURL, b.LinkURL)
	assert.False(t, b.CreatedAt.IsZero())
}

func TestBanner_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(b *Banner)
	}{
		{"missing name", func(b *Banner) { b.Name = "" }},
		{"missing title", func(b *Banner) { b.Title = " " }},
		{"missing subtitle", func(b *Banner) { b.Subtitle = "" }},
		{"missing cta", func(b *Banner) { b.CTAText = "" }},
		{"missing image", func(b *Banner) { b.ImageURL = "" }},
		{"negative order", func(b *Banner) { b.Order = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := validBanner()
			tt.mutate(&b)
			_, err := New("b-1", b)
			assert.ErrorIs(t, err, ErrInvalidBanner)
		})
	}
}
