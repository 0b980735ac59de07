package upload

import (
	"bufio"
	"bytes"
	"path/filepath"
	"strings"
)

// FileType is the category an upload is routed by.
type FileType string

const (
	FileTypeFASTA   FileType = "FASTA"
	FileTypeCSV     FileType = "CSV"
	FileTypePDB     FileType = "PDB"
	FileTypeUnknown FileType = "UNKNOWN"
)

var extensions = map[string]FileType{
	".fasta": FileTypeFASTA,
	".fa":    FileTypeFASTA,
	".fna":   FileTypeFASTA,
	".ffn":   FileTypeFASTA,
	".faa":   FileTypeFASTA,
	".frn":   FileTypeFASTA,
	".fas":   FileTypeFASTA,
	".csv":   FileTypeCSV,
	".pdb":   FileTypePDB,
	".ent":   FileTypePDB,
}

// Classify decides the file type from the name's extension, falling back to
// sniffing the first line of content. Rules are evaluated in the order
// FASTA, CSV, PDB; the first match wins. An unrecognised file yields
// FileTypeUnknown together with ErrUnsupportedFileType.
func Classify(name string, content []byte) (FileType, error) {
	if ft, ok := extensions[strings.ToLower(filepath.Ext(name))]; ok {
		return ft, nil
	}

	first := firstLine(content)
	switch {
	case strings.HasPrefix(first, ">"):
		return FileTypeFASTA, nil
	case strings.Contains(first, ","):
		return FileTypeCSV, nil
	case strings.HasPrefix(first, "HEADER"), strings.HasPrefix(first, "ATOM"):
		return FileTypePDB, nil
	}
	return FileTypeUnknown, ErrUnsupportedFileType
}

// ClassifyFile is Classify applied to an UploadedFile.
func ClassifyFile(f UploadedFile) (FileType, error) {
	return Classify(f.Name, f.Content)
}

// firstLine returns the first non-blank line, trimmed of surrounding space.
func firstLine(content []byte) string {
	sc := bufio.NewScanner(bytes.NewReader(content))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		line = strings.TrimPrefix(line, "\uFEFF")
		if line != "" {
			return line
		}
	}
	return ""
}
