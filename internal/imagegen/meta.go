package imagegen

import (
	"github.com/ivlev/doctimeline/internal/jsonfile"
	"github.com/pkg/errors"
)

// ErrNoPrompts is returned for a meta file without image prompts.
var ErrNoPrompts = errors.New("meta has no image_prompts")

// Meta is the prompt list consumed by the image generator.
type Meta struct {
	Title        string   `json:"title"`
	ImagePrompts []string `json:"image_prompts"`
	Descriptions []string `json:"descriptions,omitempty"`
}

// ReadMeta loads a meta file. An empty title becomes "untitled".
func ReadMeta(path string) (*Meta, error) {
	var m Meta
	if err := jsonfile.Read(path, &m); err != nil {
		return nil, err
	}
	if m.Title == "" {
		m.Title = "untitled"
	}
	if len(m.ImagePrompts) == 0 {
		return nil, errors.Wrap(ErrNoPrompts, path)
	}
	return &m, nil
}

func WriteMeta(path string, m *Meta) error {
	return jsonfile.Write(path, m)
}
