package storage

import (
	"bytes"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

type yamlCodec struct{}

func (yamlCodec) Marshal(settings fileSettings) ([]byte, error) {
	return yaml.Marshal(settings)
}

func (yamlCodec) Unmarshal(data []byte, settings *fileSettings) error {
	return yaml.Unmarshal(data, settings)
}

type tomlCodec struct{}

func (tomlCodec) Marshal(settings fileSettings) ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(settings); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (tomlCodec) Unmarshal(data []byte, settings *fileSettings) error {
	_, err := toml.NewDecoder(bytes.NewReader(data)).Decode(settings)
	return err
}
