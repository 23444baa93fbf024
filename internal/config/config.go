// Package config loads jioctl's batch-script format: a YAML
// description of a data file, its library flags, and a sequence of
// transactions to replay against it. Unmarshaling follows the
// teacher's internal/config package byte-for-byte in approach — read
// the file, yaml.Unmarshal into a struct, return a pointer — just
// describing a different domain (a CLI batch script instead of a
// server's startup config).
package config

import (
	"encoding/base64"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Script is the top-level document a jioctl run invocation loads.
type Script struct {
	DataPath    string      `yaml:"dataPath"`
	JournalPath string      `yaml:"journalPath"`
	Flags       FlagsConfig `yaml:"flags"`
	Diagnostics bool        `yaml:"diagnostics"`

	Transactions []TransactionConfig `yaml:"transactions"`
}

// FlagsConfig mirrors the library's open-flag bit field (§6).
type FlagsConfig struct {
	NoLock     bool `yaml:"noLock"`
	NoRollback bool `yaml:"noRollback"`
	Linger     bool `yaml:"linger"`
	ReadOnly   bool `yaml:"readOnly"`
}

// TransactionConfig describes one transaction as an ordered list of
// operations, plus whether it should be rolled back immediately after
// committing (useful for scripted rollback tests/demos).
type TransactionConfig struct {
	Operations    []OperationConfig `yaml:"operations"`
	RollbackAfter bool              `yaml:"rollbackAfter"`
}

// OperationConfig is one (offset, payload) write. Payload is given as
// a plain UTF-8 string for readability; PayloadBase64 is an
// alternative for binary data, and it is an error to set both.
type OperationConfig struct {
	Offset        int64  `yaml:"offset"`
	Payload       string `yaml:"payload"`
	PayloadBase64 string `yaml:"payloadBase64"`
}

// Bytes returns the operation's payload as raw bytes.
func (o OperationConfig) Bytes() ([]byte, error) {
	if o.Payload != "" && o.PayloadBase64 != "" {
		return nil, fmt.Errorf("config: operation at offset %d sets both payload and payloadBase64", o.Offset)
	}
	if o.PayloadBase64 != "" {
		b, err := base64.StdEncoding.DecodeString(o.PayloadBase64)
		if err != nil {
			return nil, fmt.Errorf("config: decode payloadBase64 at offset %d: %w", o.Offset, err)
		}
		return b, nil
	}
	return []byte(o.Payload), nil
}

// Load reads and parses a batch script from path.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	if s.DataPath == "" {
		return nil, fmt.Errorf("config: %s: dataPath is required", path)
	}
	return &s, nil
}
