package handler

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/BuzzLyutic/project-tracker-api/internal/apperr"
)

const (
	maxBodyBytes = 1 << 20
	schemaBase   = "mem://tracker/schemas/"
)

//go:embed schemas/*.json
var schemaFiles embed.FS

// schemaSet - скомпилированные схемы тел запросов.
type schemaSet struct {
	login         *jsonschema.Schema
	projectCreate *jsonschema.Schema
	taskCreate    *jsonschema.Schema
	taskUpdate    *jsonschema.Schema
}

func compileSchemas() (*schemaSet, error) {
	compiler := jsonschema.NewCompiler()

	entries, err := schemaFiles.ReadDir("schemas")
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		data, err := schemaFiles.ReadFile(path.Join("schemas", e.Name()))
		if err != nil {
			return nil, err
		}
		if err := compiler.AddResource(schemaBase+e.Name(), bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("add schema %s: %w", e.Name(), err)
		}
	}

	var set schemaSet
	for name, dst := range map[string]**jsonschema.Schema{
		"login.json":          &set.login,
		"project_create.json": &set.projectCreate,
		"task_create.json":    &set.taskCreate,
		"task_update.json":    &set.taskUpdate,
	} {
		s, err := compiler.Compile(schemaBase + name)
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", name, err)
		}
		*dst = s
	}
	return &set, nil
}

func mustCompileSchemas() *schemaSet {
	set, err := compileSchemas()
	if err != nil {
		panic(err)
	}
	return set
}

// decodeBody reads a JSON body, validates it against schema and decodes it
// into dst. Every failure is InvalidInput.
func decodeBody(w http.ResponseWriter, r *http.Request, schema *jsonschema.Schema, dst any) error {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return apperr.New(apperr.InvalidInput, "Request body is too large or unreadable.")
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return apperr.New(apperr.InvalidInput, "Empty request body.")
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return apperr.Newf(apperr.InvalidInput, "Invalid JSON: %v.", err)
	}
	if err := schema.Validate(doc); err != nil {
		return apperr.New(apperr.InvalidInput, schemaMessage(err))
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return apperr.Newf(apperr.InvalidInput, "Invalid request body: %v.", err)
	}
	return nil
}

// schemaMessage склеивает листовые причины ошибки валидации в одну строку.
func schemaMessage(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}

	var parts []string
	var collect func(e *jsonschema.ValidationError)
	collect = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			loc := strings.TrimPrefix(e.InstanceLocation, "/")
			if loc == "" {
				parts = append(parts, e.Message)
			} else {
				parts = append(parts, loc+": "+e.Message)
			}
			return
		}
		for _, c := range e.Causes {
			collect(c)
		}
	}
	collect(ve)

	return "Invalid request body: " + strings.Join(parts, "; ")
}
