package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

var (
	ErrUnknownLabel    = errors.New("unknown label")
	ErrFeatureMismatch = errors.New("feature order mismatch")
)

// Encoder maps category labels to the integer codes a model was trained on.
// The code of a label is its position in the class list.
type Encoder struct {
	field   string
	classes []string
	index   map[string]int
}

type encoderFile struct {
	Classes []string `json:"classes"`
}

func NewEncoder(field string, classes []string) (*Encoder, error) {
	if len(classes) == 0 {
		return nil, fmt.Errorf("%s encoder has no classes", field)
	}

	index := make(map[string]int, len(classes))
	for i, c := range classes {
		if _, dup := index[c]; dup {
			return nil, fmt.Errorf("%s encoder has duplicate class %q", field, c)
		}
		index[c] = i
	}

	return &Encoder{
		field:   field,
		classes: append([]string(nil), classes...),
		index:   index,
	}, nil
}

func LoadEncoder(field, path string) (*Encoder, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s encoder: %w", field, err)
	}

	var f encoderFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode %s encoder %s: %w", field, path, err)
	}

	return NewEncoder(field, f.Classes)
}

func (e *Encoder) Field() string {
	return e.field
}

// Classes returns the known labels in code order.
func (e *Encoder) Classes() []string {
	return append([]string(nil), e.classes...)
}

func (e *Encoder) Encode(label string) (int, error) {
	code, ok := e.index[label]
	if !ok {
		return 0, fmt.Errorf("%w: %s %q", ErrUnknownLabel, e.field, label)
	}
	return code, nil
}
