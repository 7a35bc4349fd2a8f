package catalog

import (
	"fmt"
	"os"
	"strings"
)

func Template(format Format) (string, error) {
	switch Format(strings.ToLower(strings.TrimSpace(string(format)))) {
	case FormatTOML:
		return tomlTemplate, nil
	case FormatYAML:
		return yamlTemplate, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func WriteTemplate(path string, format Format, overwrite bool) error {
	template, err := Template(format)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("catalog already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const tomlTemplate = `[[unions]]
name = "UnionIntLongBool"
branches = ["int", "long", "boolean"]

[[records]]
name = "Event"
message_type = 1

[[records.fields]]
id = 1
name = "a"
union = "UnionIntLongBool"

[[records]]
name = "Measurement"
message_type = 2

[[records.fields]]
id = 1
name = "value"
branches = ["float", "double"]
required = true

[[records.fields]]
id = 2
name = "label"
branches = ["null", "string"]
`

const yamlTemplate = `unions:
  - name: UnionIntLongBool
    branches: [int, long, boolean]

records:
  - name: Event
    message_type: 1
    fields:
      - id: 1
        name: a
        union: UnionIntLongBool
  - name: Measurement
    message_type: 2
    fields:
      - id: 1
        name: value
        branches: [float, double]
        required: true
      - id: 2
        name: label
        branches: ["null", string]
`
