package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

var ErrEmptyFile = errors.New("file is empty")

var validate = validator.New()

// Validate checks a single posting. Scoring calls it before touching the record.
func (j *Job) Validate() error {
	if j == nil {
		return errors.New("job is nil")
	}
	return validate.Struct(j)
}

// LoadProfile reads a profile document in JSON or YAML form.
func LoadProfile(path string) (*Profile, error) {
	raw, err := readDocument(path)
	if err != nil {
		return nil, err
	}

	var profile Profile
	if err := decode(raw, &profile); err != nil {
		return nil, fmt.Errorf("decode profile %s: %w", path, err)
	}
	return &profile, nil
}

// LoadJobs reads postings from a JSON or YAML file. The document is either a
// plain list of postings or an object with a "jobs" list.
func LoadJobs(path string) (*Jobs, error) {
	raw, err := readDocument(path)
	if err != nil {
		return nil, err
	}

	if doc, ok := raw.(map[string]any); ok {
		list, found := doc["jobs"]
		if !found {
			return nil, fmt.Errorf("decode jobs %s: no \"jobs\" key in document", path)
		}
		raw = list
	}

	jobs := make([]*Job, 0)
	if err := decode(raw, &jobs); err != nil {
		return nil, fmt.Errorf("decode jobs %s: %w", path, err)
	}
	for _, job := range jobs {
		if job != nil {
			job.WorkMode = normalizeWorkMode(job.WorkMode)
		}
	}

	return &Jobs{Items: jobs}, nil
}

func readDocument(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyFile)
	}

	var raw any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return raw, nil
}

func decode(input any, result any) error {
	cfg := &mapstructure.DecoderConfig{
		Result:           result,
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook:       languageHook,
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

// languageHook accepts bare strings ("English") where a Language object is expected.
func languageHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(Language{}) || from.Kind() != reflect.String {
		return data, nil
	}
	return Language{Language: data.(string)}, nil
}
