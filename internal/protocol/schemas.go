package protocol

import (
	"bytes"
	"embed"
	"fmt"
	"path"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

const schemaBaseURL = "mem://gridsnake/schemas/"

var (
	schemasOnce sync.Once
	schemas     map[string]*jsonschema.Schema
	schemasErr  error
)

// Schema returns the compiled schema for a message type
// (e.g. "direction_change" -> schemas/direction_change.schema.json).
func Schema(msgType string) (*jsonschema.Schema, error) {
	schemasOnce.Do(loadSchemas)
	if schemasErr != nil {
		return nil, schemasErr
	}
	s, ok := schemas[msgType]
	if !ok {
		return nil, fmt.Errorf("no schema for %q", msgType)
	}
	return s, nil
}

func loadSchemas() {
	ents, err := schemaFS.ReadDir("schemas")
	if err != nil {
		schemasErr = err
		return
	}
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		raw, err := schemaFS.ReadFile(path.Join("schemas", e.Name()))
		if err != nil {
			schemasErr = err
			return
		}
		if err := c.AddResource(schemaBaseURL+e.Name(), bytes.NewReader(raw)); err != nil {
			schemasErr = fmt.Errorf("schema %s: %w", e.Name(), err)
			return
		}
		names = append(names, e.Name())
	}
	out := make(map[string]*jsonschema.Schema, len(names))
	for _, name := range names {
		s, err := c.Compile(schemaBaseURL + name)
		if err != nil {
			schemasErr = fmt.Errorf("compile %s: %w", name, err)
			return
		}
		out[schemaType(name)] = s
	}
	schemas = out
}

func schemaType(fileName string) string {
	const suffix = ".schema.json"
	if len(fileName) > len(suffix) && fileName[len(fileName)-len(suffix):] == suffix {
		return fileName[:len(fileName)-len(suffix)]
	}
	return fileName
}
