package output

import (
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLFormatter formats each batch of records as one YAML document.
type YAMLFormatter struct {
	opts FormatterOptions
}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter(opts FormatterOptions) *YAMLFormatter {
	return &YAMLFormatter{opts: opts}
}

// Format writes records as a YAML sequence, preceded by a document marker
// so consecutive batches form a valid stream.
func (f *YAMLFormatter) Format(w io.Writer, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	if _, err := io.WriteString(w, "---\n"); err != nil {
		return err
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(records); err != nil {
		return err
	}
	return encoder.Close()
}
