package chapter

import (
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ivlev/doctimeline/internal/jsonfile"
	"github.com/maruel/natural"
	"github.com/pkg/errors"
)

// Pattern matches batch files inside a scripts directory.
const Pattern = "chapter_*.json"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate reports the first structural problem of a batch.
func Validate(b *Batch) error {
	if err := validate.Struct(b); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return errors.Errorf("chapter %q: field %s failed %q", b.ID, fe.Field(), fe.Tag())
		}
		return errors.WithStack(err)
	}
	return nil
}

// Read decodes and validates a single batch file.
func Read(path string) (*Batch, error) {
	var b Batch
	if err := jsonfile.Read(path, &b); err != nil {
		return nil, err
	}
	if err := Validate(&b); err != nil {
		return nil, errors.Wrap(err, filepath.Base(path))
	}
	return &b, nil
}

// Write stores a batch at path.
func Write(path string, b *Batch) error {
	return jsonfile.Write(path, b)
}

// Files lists the batch files of dir in natural order.
func Files(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, Pattern))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	sort.Sort(natural.StringSlice(files))
	return files, nil
}

// LoadDir reads every batch in dir. The result is ordered by chapter_index;
// file order only breaks ties.
func LoadDir(dir string) ([]*Batch, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, errors.Wrapf(err, "scripts directory %s", dir)
	}
	files, err := Files(dir)
	if err != nil {
		return nil, err
	}

	batches := make([]*Batch, 0, len(files))
	for _, f := range files {
		b, err := Read(f)
		if err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}

	sort.SliceStable(batches, func(i, j int) bool {
		return batches[i].ChapterIndex < batches[j].ChapterIndex
	})
	return batches, nil
}
