package config

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/a8m/envsubst"
	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"github.com/yosuke-furukawa/json5/encoding/json5"

	"go.viam.com/meshscan/logging"
)

// Read reads a config from the given file. ${VAR} references are expanded from the environment
// before decoding. The file is JSON5, so comments and trailing commas are allowed.
func Read(filePath string, logger logging.Logger) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	return FromReader(filePath, bytes.NewReader(buf), logger)
}

// FromReader reads a config from the given reader and specifies
// where, if applicable, the file the reader originated from.
func FromReader(originalPath string, r io.Reader, logger logging.Logger) (*Config, error) {
	cfg := Config{
		ConfigFilePath: originalPath,
	}
	if err := json5.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to decode Config from json")
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(""); err != nil {
		return nil, errors.Wrapf(err, "failed to process Config")
	}
	logger.Debugw("read config",
		"path", originalPath, "mesh", cfg.MeshPath, "sampler", cfg.Sampler.Type,
		"size", []int{cfg.Width, cfg.Height}, "output", cfg.Output.Cloud)
	return &cfg, nil
}

// Schema returns the JSON schema of the config file, indented.
func Schema() ([]byte, error) {
	return json.MarshalIndent(jsonschema.Reflect(&Config{}), "", "  ")
}
