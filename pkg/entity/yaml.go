package entity

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/scc-digitalhub/digitalhub-go/pkg/domain"
	"github.com/scc-digitalhub/digitalhub-go/pkg/fields"
	"gopkg.in/yaml.v3"
)

// ExportFilename is the name of file where the entity is exported.
//
//	{kind}_{name}_{id}.yml
//
// Tasks and runs have no name, so it is {kind}_{id}.yml.
// Projects are exported to projects-{name}.yaml.
func ExportFilename(e *Entity) string {
	switch {
	case e.Type == domain.Project:
		return fmt.Sprintf("%s-%s.yaml", domain.Project.Plural(), e.Name)
	case e.Type.Unnamed():
		return fmt.Sprintf("%s_%s.yml", e.Kind, e.ID)
	default:
		return fmt.Sprintf("%s_%s_%s.yml", e.Kind, e.Name, e.ID)
	}
}

// Export writes entities into dir as one YAML file, named after the first entity.
//
// Following entities (for example, tasks of a function) are written as subsequent documents.
//
// # Returns
//
// - string: path of the written file.
//
// - error
func Export(dir string, e *Entity, dependents ...*Entity) (string, error) {
	docs := make([]fields.Bag, 0, 1+len(dependents))
	docs = append(docs, e.ToDict())
	for _, d := range dependents {
		docs = append(docs, d.ToDict())
	}
	return WriteYAML(filepath.Join(dir, ExportFilename(e)), docs...)
}

// WriteYAML writes docs into the file at path, as a multi-document YAML.
func WriteYAML(path string, docs ...fields.Bag) (string, error) {
	if err := os.MkdirAll(filepath.Dir(path), os.FileMode(0o755)); err != nil {
		return "", err
	}

	buf := new(bytes.Buffer)
	enc := yaml.NewEncoder(buf)
	enc.SetIndent(2)
	for _, d := range docs {
		if err := enc.Encode(map[string]any(d)); err != nil {
			return "", err
		}
	}
	if err := enc.Close(); err != nil {
		return "", err
	}

	if err := os.WriteFile(path, buf.Bytes(), os.FileMode(0o644)); err != nil {
		return "", err
	}
	return path, nil
}

// ReadYAML reads entity dictionaries from the file at path.
//
// A file can be a single document, multiple documents, or a document of a list of entities.
func ReadYAML(path string) ([]fields.Bag, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeYAML(f)
}

// DecodeYAML is ReadYAML for a stream.
func DecodeYAML(r io.Reader) ([]fields.Bag, error) {
	dec := yaml.NewDecoder(r)
	docs := []fields.Bag{}
	for {
		var doc any
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		switch d := doc.(type) {
		case nil:
			// empty document
		case map[string]any:
			docs = append(docs, fields.Bag(d))
		case []any:
			for _, item := range d {
				b := fields.AsBag(item)
				if b == nil {
					return nil, fmt.Errorf("an item in list is not an object: %v", item)
				}
				docs = append(docs, b)
			}
		default:
			return nil, fmt.Errorf("a document is not an object nor a list: %v", doc)
		}
	}
	return docs, nil
}
