package upload

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seqs.fasta")
	require.NoError(t, os.WriteFile(path, []byte(">a\nACGT\n"), 0644))

	f, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, "seqs.fasta", f.Name)
	assert.Equal(t, 8, f.Size())

	_, err = Open(filepath.Join(t.TempDir(), "missing.fasta"))
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestDecode(t *testing.T) {
	s, err := Decode([]byte("\xEF\xBB\xBF>a\nACGT"))
	require.NoError(t, err)
	assert.Equal(t, ">a\nACGT", s)

	_, err = Decode([]byte{0xff, 0xfe, 0x00})
	assert.ErrorIs(t, err, ErrDecode)

	s, err = Decode(nil)
	require.NoError(t, err)
	assert.Empty(t, s)
}

func TestDigest(t *testing.T) {
	a := UploadedFile{Content: []byte("x")}
	b := UploadedFile{Content: []byte("x")}
	c := UploadedFile{Content: []byte("y")}
	assert.Equal(t, a.Digest(), b.Digest())
	assert.NotEqual(t, a.Digest(), c.Digest())
	assert.Len(t, a.Digest(), 64)
}

func TestFromMultipart(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "../../etc/seqs.fasta")
	require.NoError(t, err)
	_, err = fw.Write([]byte(">a\nACGT\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))

	fh := req.MultipartForm.File["file"][0]

	f, err := FromMultipart(fh, 1<<20)
	require.NoError(t, err)
	assert.Equal(t, "seqs.fasta", f.Name)
	assert.Equal(t, ">a\nACGT\n", string(f.Content))

	_, err = FromMultipart(fh, 2)
	assert.ErrorIs(t, err, ErrFileTooLarge)

	_, err = FromMultipart(nil, 0)
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestFromReader(t *testing.T) {
	f, err := FromReader("dir/x.csv", strings.NewReader("a,b"))
	require.NoError(t, err)
	assert.Equal(t, "x.csv", f.Name)
}
