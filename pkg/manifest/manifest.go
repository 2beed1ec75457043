package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/kiln/internal/fsutil"
	"github.com/aretw0/kiln/pkg/domain"
)

// VersionKey is the top-level field rewritten by SetVersion.
const VersionKey = "version"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Document is a parsed manifest. Only the top level must be a JSON object.
type Document map[string]any

// Read loads and parses the manifest at path.
// A leading UTF-8 byte order mark is ignored.
func Read(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.ManifestReadError{Path: path, Err: err}
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	// Numbers stay json.Number so integers beyond float64 precision survive.
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, &domain.ManifestReadError{Path: path, Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &domain.ManifestReadError{Path: path, Err: errors.New("trailing data after JSON object")}
	}
	if doc == nil {
		return nil, &domain.ManifestReadError{Path: path, Err: errors.New("document is not a JSON object")}
	}
	return doc, nil
}

// Write pretty-prints doc and replaces the file at path.
// Strings are written as-is; &, < and > are not escaped.
func Write(path string, doc Document) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return &domain.ManifestWriteError{Path: path, Err: err}
	}
	data := buf.Bytes()

	perm := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}
	if err := fsutil.WriteFileAtomic(path, data, perm); err != nil {
		return &domain.ManifestWriteError{Path: path, Err: err}
	}
	return nil
}

// SetVersion rewrites the top-level version field of the manifest at path.
// Every other field is carried over; key order is not preserved.
func SetVersion(path, newVersion string) error {
	doc, err := Read(path)
	if err != nil {
		return err
	}
	doc[VersionKey] = newVersion
	return Write(path, doc)
}

// Lookup returns the string found by walking nested objects along keys.
func Lookup(path string, keys ...string) (string, error) {
	doc, err := Read(path)
	if err != nil {
		return "", err
	}
	return doc.Lookup(keys...)
}

// Lookup walks nested objects along keys and returns the string at the end.
func (d Document) Lookup(keys ...string) (string, error) {
	if len(keys) == 0 {
		return "", errors.New("no keys given")
	}

	var cur any = map[string]any(d)
	for i, key := range keys {
		obj, ok := cur.(map[string]any)
		if !ok {
			return "", fmt.Errorf("%v is not an object", keys[:i])
		}
		cur, ok = obj[key]
		if !ok {
			return "", fmt.Errorf("key %v not found", keys[:i+1])
		}
	}

	s, ok := cur.(string)
	if !ok {
		return "", fmt.Errorf("value at %v is not a string", keys)
	}
	return s, nil
}
