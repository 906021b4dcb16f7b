package cli

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// print writes v as indented JSON with --json and as YAML otherwise. Both
// forms use the JSON field names.
func (a *app) print(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	if a.flags.jsonMode {
		_, err = fmt.Fprintln(a.stdout, string(data))
		return err
	}

	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return fmt.Errorf("decode output: %w", err)
	}
	out, err := yaml.Marshal(generic)
	if err != nil {
		return fmt.Errorf("render output: %w", err)
	}
	_, err = a.stdout.Write(out)
	return err
}

// printf writes a human message; it is suppressed with --json.
func (a *app) printf(format string, args ...any) {
	if a.flags.jsonMode {
		return
	}
	fmt.Fprintf(a.stdout, format, args...)
}
