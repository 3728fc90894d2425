package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// docxText walks word/document.xml and keeps visible run text. Deleted
// revisions are skipped. Table cells are tab separated.
func docxText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening docx: %w", err)
	}

	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}

	if doc == nil {
		return "", errors.New("docx has no word/document.xml")
	}

	if doc.UncompressedSize64 > MaxDocumentSize {
		return "", fmt.Errorf("document.xml too large: %d bytes", doc.UncompressedSize64)
	}

	rc, err := doc.Open()
	if err != nil {
		return "", fmt.Errorf("opening document.xml: %w", err)
	}
	defer rc.Close()

	dec := xml.NewDecoder(io.LimitReader(rc, MaxDocumentSize))

	var sb strings.Builder
	var inText, inCell bool
	var deleted, cellIdx int

	visible := func() bool { return deleted == 0 }
	endLine := func() {
		if visible() {
			sb.WriteByte('\n')
		}
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return "", fmt.Errorf("parsing document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "del":
				deleted++
			case "t":
				inText = true
			case "tab":
				if visible() {
					sb.WriteByte('\t')
				}
			case "br", "cr":
				endLine()
			case "tr":
				cellIdx = 0
			case "tc":
				if visible() && cellIdx > 0 {
					sb.WriteByte('\t')
				}
				inCell = true
				cellIdx++
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if !inCell {
					endLine()
				}
			case "tc":
				inCell = false
			case "tr":
				endLine()
			case "del":
				if deleted > 0 {
					deleted--
				}
			}
		case xml.CharData:
			if inText && visible() {
				sb.Write(t)
			}
		}
	}

	return sb.String(), nil
}
