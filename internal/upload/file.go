// Package upload normalises uploaded files into a single boundary value and
// classifies them as FASTA, CSV or PDB.
package upload

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// UploadedFile is the one value every transport (HTTP multipart, CLI path,
// chat session) is converted to before analysis.
type UploadedFile struct {
	Name    string
	Content []byte
}

// Open reads a file from disk.
func Open(path string) (UploadedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return UploadedFile{}, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return UploadedFile{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return UploadedFile{Name: filepath.Base(path), Content: data}, nil
}

// FromMultipart reads an uploaded form file, refusing anything larger than
// maxBytes.
func FromMultipart(fh *multipart.FileHeader, maxBytes int64) (UploadedFile, error) {
	if fh == nil {
		return UploadedFile{}, ErrFileNotFound
	}
	if maxBytes > 0 && fh.Size > maxBytes {
		return UploadedFile{}, fmt.Errorf("%w: %s is %d bytes (limit %d)", ErrFileTooLarge, fh.Filename, fh.Size, maxBytes)
	}
	f, err := fh.Open()
	if err != nil {
		return UploadedFile{}, fmt.Errorf("failed to open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()

	return FromReader(fh.Filename, f)
}

// FromReader drains r into an UploadedFile.
func FromReader(name string, r io.Reader) (UploadedFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return UploadedFile{}, fmt.Errorf("failed to read upload %s: %w", name, err)
	}
	return UploadedFile{Name: filepath.Base(name), Content: data}, nil
}

// Text returns the content as a string, or ErrDecode when it is not UTF-8.
func (f UploadedFile) Text() (string, error) {
	return Decode(f.Content)
}

// Size returns the content length in bytes.
func (f UploadedFile) Size() int {
	return len(f.Content)
}

// Digest returns the hex SHA-256 of the content.
func (f UploadedFile) Digest() string {
	sum := sha256.Sum256(f.Content)
	return hex.EncodeToString(sum[:])
}

// Decode validates content as UTF-8 text. A leading byte-order mark is dropped.
func Decode(content []byte) (string, error) {
	if !utf8.Valid(content) {
		return "", ErrDecode
	}
	return strings.TrimPrefix(string(content), "\uFEFF"), nil
}
