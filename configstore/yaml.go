package configstore

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// EncodeYAML renders c for operators editing the configuration by hand.
func EncodeYAML(c Configuration) ([]byte, error) {
	if c.Checkpoints == nil {
		c.Checkpoints = []CheckpointSpec{}
	}
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("configstore: encode yaml: %w", err)
	}
	return out, nil
}

// DecodeYAML parses a document produced by EncodeYAML. Unknown keys are
// rejected so typos do not silently fall back to zero values.
func DecodeYAML(data []byte) (Configuration, error) {
	var c Configuration
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return Configuration{}, fmt.Errorf("%w: %v", ErrConfigMalformed, err)
	}
	return c, nil
}
