package cachestore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/plugmirror/internal/domain/mirror"
)

// recordDTO is the serialized form of a mirror.Record.
type recordDTO struct {
	Version string `yaml:"version" json:"version" toml:"version"`
	Name    string `yaml:"name" json:"name" toml:"name"`
	URL     string `yaml:"url" json:"url" toml:"url"`
	Hash    string `yaml:"hash" json:"hash" toml:"hash"`
}

// fileDTO is the whole cache file.
type fileDTO struct {
	Records map[string]recordDTO `yaml:"records" json:"records" toml:"records"`
}

func toDTO(r mirror.Record) recordDTO {
	return recordDTO{Version: r.Version, Name: r.Name, URL: r.URL, Hash: r.Hash}
}

func fromDTO(key string, dto recordDTO) (mirror.Record, error) {
	r, err := mirror.NewRecord(dto.Version, dto.Name, dto.URL, dto.Hash)
	if err != nil {
		return mirror.Record{}, fmt.Errorf("%w: entry %q: %w", mirror.ErrCacheCorrupt, key, err)
	}
	return r, nil
}

// codec encodes the cache file in one syntax.
type codec struct {
	name      string
	marshal   func(v any) ([]byte, error)
	unmarshal func(data []byte, v any) error
}

var (
	yamlCodec = codec{name: "yaml", marshal: yaml.Marshal, unmarshal: yaml.Unmarshal}
	jsonCodec = codec{
		name: "json",
		marshal: func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		},
		unmarshal: json.Unmarshal,
	}
	tomlCodec = codec{name: "toml", marshal: toml.Marshal, unmarshal: toml.Unmarshal}
)

// codecFor picks the codec from the file extension; YAML is the default.
func codecFor(path string) codec {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return jsonCodec
	case ".toml":
		return tomlCodec
	default:
		return yamlCodec
	}
}

// decode parses a cache file. Blank input is an empty cache.
func (c codec) decode(data []byte) (map[string]mirror.Record, error) {
	records := make(map[string]mirror.Record)
	if len(bytes.TrimSpace(data)) == 0 {
		return records, nil
	}

	var dto fileDTO
	if err := c.unmarshal(data, &dto); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", mirror.ErrCacheCorrupt, c.name, err)
	}

	for key, entry := range dto.Records {
		r, err := fromDTO(key, entry)
		if err != nil {
			return nil, err
		}
		records[key] = r
	}
	return records, nil
}

func (c codec) encode(records map[string]mirror.Record) ([]byte, error) {
	dto := fileDTO{Records: make(map[string]recordDTO, len(records))}
	for key, r := range records {
		dto.Records[key] = toDTO(r)
	}
	return c.marshal(&dto)
}
