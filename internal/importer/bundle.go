package importer

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ErrNoCSV is returned for an Airplane Manager bundle without a CSV entry.
var ErrNoCSV = errors.New("no CSV file found in the ZIP archive")

// ReceiptFile is a receipt payload taken from an import bundle.
type ReceiptFile struct {
	Filename    string
	Data        []byte
	ContentType string
}

// Bundle is the content of an Airplane Manager export archive.
type Bundle struct {
	CSV      []byte
	Receipts []ReceiptFile
}

var receiptExts = map[string]bool{".pdf": true, ".jpg": true, ".jpeg": true, ".png": true}

// ReadBundle opens an Airplane Manager ZIP. The first CSV entry is the row
// source; PDF and image entries are receipts.
func ReadBundle(data []byte) (*Bundle, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open bundle: %w", err)
	}
	b := &Bundle{}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		ext := strings.ToLower(path.Ext(f.Name))
		if ext != ".csv" && !receiptExts[ext] {
			continue
		}
		if ext == ".csv" && b.CSV != nil {
			continue
		}
		body, err := readEntry(f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
		if ext == ".csv" {
			b.CSV = body
			continue
		}
		b.Receipts = append(b.Receipts, ReceiptFile{
			Filename:    f.Name,
			Data:        body,
			ContentType: ContentTypeFor(f.Name, body),
		})
	}
	if b.CSV == nil {
		return nil, ErrNoCSV
	}
	return b, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

var contentTypes = map[string]string{
	".pdf":  "application/pdf",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// ContentTypeFor derives a MIME type from the file extension, sniffing data
// when the extension is unknown.
func ContentTypeFor(name string, data []byte) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	if len(data) > 0 {
		return mimetype.Detect(data).String()
	}
	return "application/octet-stream"
}

// ReceiptKey is what a receipt filename says about the expense it belongs to.
type ReceiptKey struct {
	Date       string
	TailNumber string
	TripNumber string
	ICAO       string
}

var receiptName = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})\s+(\w+)\s+(\d+)\s+(\w*)`)

// ParseReceiptFilename reads names like
// "2025-01-05 N491JL 322077 KAUS UploadID-1187369.pdf". Any directory part
// is ignored.
func ParseReceiptFilename(name string) (ReceiptKey, bool) {
	m := receiptName.FindStringSubmatch(path.Base(filepath.ToSlash(name)))
	if m == nil {
		return ReceiptKey{}, false
	}
	return ReceiptKey{Date: m[1], TailNumber: m[2], TripNumber: m[3], ICAO: m[4]}, true
}

// ExpenseKey is the receipt correlation key of an expense.
func ExpenseKey(date, tripNumber, icao string) string {
	return date + "|" + tripNumber + "|" + icao
}
