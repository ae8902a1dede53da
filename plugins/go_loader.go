package plugins

import (
	"fmt"
	"reflect"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
	"gopkg.in/yaml.v3"
)

// Go plugins are single-file scripts interpreted at startup. Each script
// exports one function returning its schemas as plain maps, which then go
// through the same YAML parse and validation as file-based plugins.
const schemaFuncName = "SchemaDefinitions"

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// LoadGoDefinitionDir interprets every .go file directly under dir and
// collects the schemas their SchemaDefinitions functions return, sorted by
// path. A missing directory means no Go plugins are installed.
func LoadGoDefinitionDir(dir string) ([]DefinitionFile, error) {
	paths, err := schemaPaths(dir, "*.go")
	if err != nil || len(paths) == 0 {
		return nil, err
	}
	var defs []DefinitionFile
	for _, path := range paths {
		fromFile, err := evalSchemaScript(path)
		if err != nil {
			return nil, err
		}
		defs = append(defs, fromFile...)
	}
	return defs, nil
}

func evalSchemaScript(path string) ([]DefinitionFile, error) {
	ip := interp.New(interp.Options{})
	ip.Use(stdlib.Symbols)
	if _, err := ip.EvalPath(path); err != nil {
		return nil, fmt.Errorf("plugin: interpret %s: %w", path, err)
	}
	fn, err := ip.Eval(schemaFuncName)
	if err != nil {
		return nil, fmt.Errorf("plugin: %s does not declare %s(): %w", path, schemaFuncName, err)
	}
	schemas, err := callSchemaFunc(fn)
	if err != nil {
		return nil, fmt.Errorf("plugin: %s: %w", path, err)
	}
	defs := make([]DefinitionFile, 0, len(schemas))
	for n, schema := range schemas {
		source := fmt.Sprintf("%s#%d", path, n+1)
		payload, err := yaml.Marshal(schema)
		if err != nil {
			return nil, fmt.Errorf("plugin: %s: %w", source, err)
		}
		def, err := ParseDefinitionYAML(payload)
		if err != nil {
			return nil, fmt.Errorf("plugin: %s: %w", source, err)
		}
		defs = append(defs, DefinitionFile{Definition: def, Path: source})
	}
	return defs, nil
}

// callSchemaFunc invokes the script's schema function through reflection.
// The signature is checked up front so a malformed plugin reports what it
// got wrong instead of panicking mid-call.
func callSchemaFunc(fn reflect.Value) ([]map[string]any, error) {
	if !fn.IsValid() || fn.Kind() != reflect.Func {
		return nil, fmt.Errorf("%s is not a function", schemaFuncName)
	}
	sig := fn.Type()
	switch {
	case sig.NumIn() != 0:
		return nil, fmt.Errorf("%s must take no arguments", schemaFuncName)
	case sig.NumOut() < 1 || sig.NumOut() > 2:
		return nil, fmt.Errorf("%s must return a schema slice and an optional error", schemaFuncName)
	case sig.NumOut() == 2 && !sig.Out(1).Implements(errorType):
		return nil, fmt.Errorf("%s second return value must be an error", schemaFuncName)
	}
	out := fn.Call(nil)
	if len(out) == 2 && !out[1].IsNil() {
		return nil, out[1].Interface().(error)
	}

	raw := out[0]
	if raw.Kind() == reflect.Interface {
		raw = raw.Elem()
	}
	if !raw.IsValid() || raw.Kind() != reflect.Slice {
		return nil, fmt.Errorf("%s must return a slice of schema maps", schemaFuncName)
	}
	schemas := make([]map[string]any, raw.Len())
	for i := 0; i < raw.Len(); i++ {
		schema, ok := raw.Index(i).Interface().(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s result %d is not a schema map", schemaFuncName, i)
		}
		schemas[i] = schema
	}
	return schemas, nil
}
