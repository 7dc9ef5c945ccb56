package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractPDF reads the PDF text layer. A scanned PDF with no text layer
// comes back as an empty string, which the caller reports as EMPTY_DOCUMENT
// rather than a parse failure.
func extractPDF(raw []byte) (text string, err error) {
	defer func() {
		// The pdf reader panics on some malformed xref tables; treat those
		// as corrupt input, not a crash.
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("%w: pdf reader panic: %v", ErrCorruptDocument, r)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("%w: open pdf: %v", ErrCorruptDocument, err)
	}
	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: extract pdf text: %v", ErrCorruptDocument, err)
	}
	buf := new(strings.Builder)
	if _, err := io.Copy(buf, reader); err != nil {
		return "", fmt.Errorf("%w: read extracted text: %v", ErrCorruptDocument, err)
	}
	return buf.String(), nil
}
