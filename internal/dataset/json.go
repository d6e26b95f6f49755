package dataset

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/errors"
)

// ReadJSON decodes a persisted intermediate file. A missing file is reported as
// MissingSourceFile so the calling stage can abort before writing anything.
func ReadJSON(path string, v any) error {
	f, err := openSource(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(v); err != nil {
		return errors.InvalidInput("decoding "+path, err)
	}
	return nil
}

func WriteJSON(path string, v any) error {
	return writeAtomic(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "    ")
		return enc.Encode(v)
	})
}

func openSource(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.MissingSourceFile(path, err)
		}
		return nil, errors.Internal("opening "+path, err)
	}
	return f, nil
}

// writeAtomic writes to a temporary sibling and renames it over path, so a
// failed stage leaves no partial output behind.
func writeAtomic(path string, write func(w io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Internal("creating temporary output", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return errors.Internal("writing "+path, err)
	}
	if err := tmp.Close(); err != nil {
		return errors.Internal("closing "+path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Internal("renaming output to "+path, err)
	}
	return nil
}
