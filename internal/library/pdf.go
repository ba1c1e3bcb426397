package library

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mmcdole/hearlearn/internal/domain"
)

// pdfHeaderWindow is how far into the file the %PDF- marker may appear
const pdfHeaderWindow = 1024

// ValidatePDF checks the extension and the header marker of a local file
func ValidatePDF(path string) error {
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return fmt.Errorf("%w: %s", domain.ErrNotPDF, filepath.Base(path))
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	head := make([]byte, pdfHeaderWindow)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if !bytes.Contains(head[:n], []byte("%PDF-")) {
		return fmt.Errorf("%w: %s has no PDF header", domain.ErrNotPDF, filepath.Base(path))
	}
	return nil
}
