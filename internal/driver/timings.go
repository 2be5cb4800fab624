package driver

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"lumen/internal/observ"
)

type timingPayload struct {
	Path   string        `yaml:"path,omitempty"`
	Report observ.Report `yaml:"report"`
}

// WriteTimings prints the timer as a text table or, for format "yaml", as
// a YAML document.
func WriteTimings(w io.Writer, format, path string, t *observ.Timer) error {
	switch format {
	case "", "text":
		if path != "" {
			if _, err := fmt.Fprintf(w, "%s\n", path); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, t.Summary())
		return err
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(timingPayload{Path: path, Report: t.Report()}); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown timings format %q (expected text|yaml)", format)
}
