package config

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/a8m/envsubst"
	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"

	"go.viam.com/leggedmpc/logging"
)

// Read reads a config from the given file after substituting environment variables.
func Read(filePath string, logger logging.Logger) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return FromReader(bytes.NewReader(buf), logger)
}

// FromReader decodes and validates a config. Sections missing from the document keep their
// defaults; a controller section replaces the default controller entirely.
func FromReader(r io.Reader, logger logging.Logger) (*Config, error) {
	cfg := DefaultConfig()
	doc := struct {
		*Config
		Controller *ControllerConfig `json:"controller"`
	}{Config: &cfg}
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "failed to decode Config from json")
	}
	if doc.Controller != nil {
		cfg.Controller = *doc.Controller
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger.Debugw("read config",
		"controller", cfg.Controller.Type,
		"swing_nodes", len(cfg.Swing.Profile.Nodes),
		"loop_hz", cfg.Loop.Frequency)
	return &cfg, nil
}

// Schema returns the JSON schema of Config.
func Schema() ([]byte, error) {
	return json.MarshalIndent(jsonschema.Reflect(&Config{}), "", "  ")
}
