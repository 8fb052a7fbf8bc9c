// Package zip unwraps supplier price lists delivered inside ZIP archives
package zip

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/motorefacciones/import-service/internal/parsers"
	"github.com/motorefacciones/import-service/internal/types"
)

var (
	// ErrNoDataFile is returned when an archive holds no CSV or spreadsheet
	ErrNoDataFile = errors.New("archive contains no csv or xlsx file")
	// ErrAmbiguous is returned when an archive holds more than one data file
	ErrAmbiguous = errors.New("archive contains more than one csv or xlsx file")
)

// ExpandOptions contains options for ZIP expansion
type ExpandOptions struct {
	// MaxFileSize is the maximum size for a single file in bytes (0 = unlimited)
	MaxFileSize int64
	// MaxTotalSize is the maximum total size for all extracted files (0 = unlimited)
	MaxTotalSize int64
	// MaxFiles is the maximum number of entries to extract (0 = unlimited)
	MaxFiles int
	// AllowedExtensions filters which file extensions to extract (empty = all)
	AllowedExtensions []string
	// SkipPatterns contains patterns to skip (e.g., "__MACOSX")
	SkipPatterns []string
}

// DefaultExpandOptions returns default options for ZIP expansion
func DefaultExpandOptions() ExpandOptions {
	return ExpandOptions{
		MaxFileSize:       100 * 1024 * 1024, // 100MB per file
		MaxTotalSize:      200 * 1024 * 1024,
		MaxFiles:          100,
		AllowedExtensions: []string{".csv", ".xlsx", ".xls"},
		SkipPatterns: []string{
			"__MACOSX",
			".DS_Store",
			"Thumbs.db",
			"desktop.ini",
		},
	}
}

// ExpandedFile represents a file extracted from a ZIP archive
type ExpandedFile struct {
	InnerFilename string
	Type          types.FileType
	Content       []byte
	Sha256        string
}

// Expander handles ZIP file expansion
type Expander struct {
	options ExpandOptions
}

// NewExpander creates a new ZIP expander
func NewExpander(options ExpandOptions) *Expander {
	return &Expander{options: options}
}

// IsZipName reports whether a source filename names a ZIP archive.
// Spreadsheets are ZIP containers too, so only the extension counts.
func IsZipName(filename string) bool {
	return strings.EqualFold(path.Ext(filename), ".zip")
}

// Expand extracts every allowed entry of the archive in memory
func (e *Expander) Expand(ctx context.Context, content []byte) ([]ExpandedFile, error) {
	reader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to open ZIP: %w", err)
	}

	var expanded []ExpandedFile
	var totalSize int64
	fileCount := 0

	for _, file := range reader.File {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if file.FileInfo().IsDir() {
			continue
		}

		safeName, err := sanitizeFilename(file.Name)
		if err != nil {
			log.Warn().Str("entry", file.Name).Err(err).Msg("Skipping unsafe ZIP entry")
			continue
		}
		if e.shouldSkip(file.Name) || !e.isAllowedExtension(safeName) {
			continue
		}

		fileCount++
		if e.options.MaxFiles > 0 && fileCount > e.options.MaxFiles {
			return nil, fmt.Errorf("too many files in archive (limit: %d)", e.options.MaxFiles)
		}

		// Declared size first, actual bytes read are checked again below
		if e.options.MaxFileSize > 0 && int64(file.UncompressedSize64) > e.options.MaxFileSize {
			return nil, fmt.Errorf("file %s exceeds maximum size (%d > %d)",
				safeName, file.UncompressedSize64, e.options.MaxFileSize)
		}

		data, err := e.readFileWithLimit(file, safeName)
		if err != nil {
			return nil, err
		}

		totalSize += int64(len(data))
		if e.options.MaxTotalSize > 0 && totalSize > e.options.MaxTotalSize {
			return nil, fmt.Errorf("total extracted size exceeds maximum (%d > %d)",
				totalSize, e.options.MaxTotalSize)
		}

		hash := sha256.Sum256(data)
		expanded = append(expanded, ExpandedFile{
			InnerFilename: safeName,
			Type:          parsers.DetectFileType(safeName, data),
			Content:       data,
			Sha256:        hex.EncodeToString(hash[:]),
		})
	}

	return expanded, nil
}

// Unwrap returns the single data file inside the archive
func (e *Expander) Unwrap(ctx context.Context, content []byte, parentFilename string) (*ExpandedFile, error) {
	files, err := e.Expand(ctx, content)
	if err != nil {
		return nil, err
	}

	switch len(files) {
	case 0:
		return nil, fmt.Errorf("%s: %w", parentFilename, ErrNoDataFile)
	case 1:
		log.Debug().
			Str("archive", parentFilename).
			Str("entry", files[0].InnerFilename).
			Int("bytes", len(files[0].Content)).
			Msg("Unwrapped ZIP source")
		return &files[0], nil
	default:
		names := make([]string, len(files))
		for i, f := range files {
			names[i] = f.InnerFilename
		}
		return nil, fmt.Errorf("%s (%s): %w", parentFilename, strings.Join(names, ", "), ErrAmbiguous)
	}
}

// readFileWithLimit reads a file from ZIP with size limit enforcement
func (e *Expander) readFileWithLimit(file *zip.File, safeName string) ([]byte, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s in ZIP: %w", safeName, err)
	}
	defer func() {
		if closeErr := rc.Close(); closeErr != nil {
			log.Warn().Str("entry", safeName).Err(closeErr).Msg("Failed to close ZIP entry")
		}
	}()

	var reader io.Reader = rc
	if e.options.MaxFileSize > 0 {
		// One extra byte tells an oversized entry apart from one exactly at the limit
		reader = io.LimitReader(rc, e.options.MaxFileSize+1)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s from ZIP: %w", safeName, err)
	}
	if e.options.MaxFileSize > 0 && int64(len(data)) > e.options.MaxFileSize {
		return nil, fmt.Errorf("file %s exceeds maximum size (actual data > %d bytes)", safeName, e.options.MaxFileSize)
	}

	return data, nil
}

// sanitizeFilename rejects entries that would escape the archive root and
// flattens the rest to their base name.
func sanitizeFilename(filename string) (string, error) {
	if path.IsAbs(filename) || filepath.IsAbs(filename) {
		return "", fmt.Errorf("absolute path not allowed: %s", filename)
	}
	if len(filename) >= 2 && filename[1] == ':' {
		return "", fmt.Errorf("drive letter not allowed: %s", filename)
	}

	cleaned := path.Clean(strings.ReplaceAll(filename, "\\", "/"))
	if strings.HasPrefix(cleaned, "/") {
		return "", fmt.Errorf("path traversal not allowed: %s", filename)
	}
	for _, part := range strings.Split(cleaned, "/") {
		if part == ".." {
			return "", fmt.Errorf("path traversal not allowed: %s", filename)
		}
	}

	baseName := path.Base(cleaned)
	if baseName == "." || baseName == "/" || baseName == "" {
		return "", fmt.Errorf("invalid filename: %s", filename)
	}
	return baseName, nil
}

func (e *Expander) shouldSkip(name string) bool {
	for _, pattern := range e.options.SkipPatterns {
		if strings.Contains(name, pattern) {
			return true
		}
	}
	return strings.HasPrefix(path.Base(name), "._")
}

func (e *Expander) isAllowedExtension(filename string) bool {
	if len(e.options.AllowedExtensions) == 0 {
		return true
	}
	ext := path.Ext(filename)
	for _, allowed := range e.options.AllowedExtensions {
		if strings.EqualFold(ext, allowed) {
			return true
		}
	}
	return false
}
