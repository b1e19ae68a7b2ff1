package main

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"routecatalog.transit.hk/internal/models"
)

const (
	fullFile          = "data_full.json"
	fullFormattedFile = "data_full_formatted.json"
	dataFile          = "data.json"
	dataFormattedFile = "data_formatted.json"
	checksumFile      = "checksum.md5"
	lastUpdatedFile   = "last_updated.txt"
)

// encodeJSON writes v with non-ASCII text and HTML characters left as is.
// A non-empty indent produces the formatted variant.
func encodeJSON(v interface{}, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// writeOutputs writes the full catalog, the fare-stripped catalog, their
// formatted variants, the checksum of data.json and the build timestamp into
// dir. Every name is prefixed with prefix. It returns the written paths.
func writeOutputs(dir, prefix string, file *models.CatalogFile, now time.Time) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	stripped := file.StripFares()
	contents := make(map[string][]byte)
	encodings := []struct {
		name   string
		value  interface{}
		indent string
	}{
		{fullFile, file, ""},
		{fullFormattedFile, file, "    "},
		{dataFile, stripped, ""},
		{dataFormattedFile, stripped, "    "},
	}
	for _, e := range encodings {
		b, err := encodeJSON(e.value, e.indent)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", e.name, err)
		}
		contents[e.name] = b
	}
	sum := md5.Sum(contents[dataFile])
	contents[checksumFile] = []byte(hex.EncodeToString(sum[:]))
	contents[lastUpdatedFile] = []byte(strconv.FormatInt(now.UnixMilli(), 10))

	order := []string{fullFile, fullFormattedFile, dataFile, dataFormattedFile, checksumFile, lastUpdatedFile}
	written := make([]string, 0, len(order))
	for _, name := range order {
		path := filepath.Join(dir, prefix+name)
		if err := os.WriteFile(path, contents[name], 0o644); err != nil {
			return written, fmt.Errorf("write %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}
