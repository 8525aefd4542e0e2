// format.go: Document format detection for channel configuration files
//
// The access tiers are JSON by contract (their schema is shared with peer
// implementations); only the static channel-definition file may also be
// provided as YAML, which some image builds prefer for hand-edited
// provider data.
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package chancfg

import (
	"encoding/json"
	"strings"

	"github.com/agilira/go-errors"
	"go.yaml.in/yaml/v3"
)

// DocumentFormat identifies a channel-definition document encoding.
type DocumentFormat int

const (
	FormatJSON DocumentFormat = iota
	FormatYAML
	FormatUnknown
)

func (f DocumentFormat) String() string {
	switch f {
	case FormatJSON:
		return "JSON"
	case FormatYAML:
		return "YAML"
	default:
		return "Unknown"
	}
}

// DetectFormat detects the document format from the file extension.
func DetectFormat(path string) DocumentFormat {
	switch {
	case strings.HasSuffix(path, ".json"):
		return FormatJSON
	case strings.HasSuffix(path, ".yaml"), strings.HasSuffix(path, ".yml"):
		return FormatYAML
	default:
		return FormatUnknown
	}
}

// decodeDocument unmarshals data into out according to format.
func decodeDocument(data []byte, format DocumentFormat, out interface{}) error {
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, out); err != nil {
			return errors.Wrap(err, ErrCodeCorruptedConfig, "invalid JSON document")
		}
		return nil
	case FormatYAML:
		if err := yaml.Unmarshal(data, out); err != nil {
			return errors.Wrap(err, ErrCodeCorruptedConfig, "invalid YAML document")
		}
		return nil
	default:
		return errors.New(ErrCodeInvalidConfig, "unsupported document format")
	}
}
