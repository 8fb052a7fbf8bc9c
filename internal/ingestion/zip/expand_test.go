package zip

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motorefacciones/import-service/internal/types"
)

func buildZip(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, body := range entries {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestIsZipName(t *testing.T) {
	assert.True(t, IsZipName("lista.zip"))
	assert.True(t, IsZipName("LISTA.ZIP"))
	assert.False(t, IsZipName("lista.xlsx"))
	assert.False(t, IsZipName("zip"))
}

func TestUnwrapSingleDataFile(t *testing.T) {
	content := buildZip(t, map[string]string{
		"precios/motos.csv":           "SKU,Precio\nA1,10\n",
		"__MACOSX/precios/._motos.csv": "junk",
		"LEEME.txt":                   "instrucciones",
	})

	file, err := NewExpander(DefaultExpandOptions()).Unwrap(context.Background(), content, "motos.zip")
	require.NoError(t, err)
	assert.Equal(t, "motos.csv", file.InnerFilename)
	assert.Equal(t, types.FileTypeCSV, file.Type)
	assert.Equal(t, "SKU,Precio\nA1,10\n", string(file.Content))
	assert.Len(t, file.Sha256, 64)
}

func TestUnwrapRejectsEmptyAndAmbiguous(t *testing.T) {
	expander := NewExpander(DefaultExpandOptions())

	_, err := expander.Unwrap(context.Background(), buildZip(t, map[string]string{"a.txt": "x"}), "a.zip")
	assert.ErrorIs(t, err, ErrNoDataFile)

	_, err = expander.Unwrap(context.Background(), buildZip(t, map[string]string{"a.csv": "x", "b.xlsx": "y"}), "b.zip")
	assert.ErrorIs(t, err, ErrAmbiguous)

	_, err = expander.Unwrap(context.Background(), []byte("not a zip"), "c.zip")
	assert.Error(t, err)
}

func TestExpandEnforcesSizeLimit(t *testing.T) {
	opts := DefaultExpandOptions()
	opts.MaxFileSize = 4
	content := buildZip(t, map[string]string{"big.csv": "0123456789"})

	_, err := NewExpander(opts).Expand(context.Background(), content)
	assert.ErrorContains(t, err, "exceeds maximum size")
}

func TestExpandHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewExpander(DefaultExpandOptions()).Expand(ctx, buildZip(t, map[string]string{"a.csv": "x"}))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"lista.csv", "lista.csv", false},
		{"dir/sub/lista.csv", "lista.csv", false},
		{"dir\\lista.csv", "lista.csv", false},
		{"../lista.csv", "", true},
		{"/etc/passwd", "", true},
		{"C:\\lista.csv", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := sanitizeFilename(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
