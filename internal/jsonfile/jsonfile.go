// Package jsonfile reads and writes the pipeline's JSON documents. Output is
// two-space indented and keeps non-ASCII text unescaped so that narration stays
// readable in the files.
package jsonfile

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
)

// Marshal encodes v the same way Write does.
func Marshal(v interface{}) ([]byte, error) {
	var compact bytes.Buffer
	enc := json.NewEncoder(&compact)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, errors.WithStack(err)
	}

	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", "  "); err != nil {
		return nil, errors.WithStack(err)
	}
	return out.Bytes(), nil
}

// Write encodes v into path, creating the parent directory when needed.
func Write(path string, v interface{}) error {
	data, err := Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encode %s", path)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.WithStack(err)
		}
	}
	return errors.WithStack(os.WriteFile(path, data, 0644))
}

// Read decodes the file at path into v.
func Read(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.WithStack(err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrapf(err, "decode %s", path)
	}
	return nil
}
