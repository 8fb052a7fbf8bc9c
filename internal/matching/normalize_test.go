package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripExtension(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"balata.JPG", "balata"},
		{"kit.arrastre.520.png", "kit.arrastre.520"},
		{"sin-extension", "sin-extension"},
		{"carpeta.v2/imagen", "carpeta.v2/imagen"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, StripExtension(tt.input))
		})
	}
}

func TestNormalizeSearchTextSeparators(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"repeated separators", "FRENO__DEL..TRAS", "freno del tras"},
		{"accents", "Ñandú Cámara", "nandu camara"},
		{"mixed whitespace", "\tcadena \n 428H ", "cadena 428h"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeSearchText(tt.input))
		})
	}
}

func TestBuildSearchTextSkipsBlankFields(t *testing.T) {
	assert.Equal(t, "italika x 1", BuildSearchText(Item{ProviderSku: "X-1", Name: " ", Brand: "Italika"}))
	assert.Equal(t, "", BuildSearchText(Item{}))
}
