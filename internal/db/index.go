package db

import (
	"errors"
	"strconv"
)

// StorageType defines the document storage backend for FT indexes (HASH or JSON).
type StorageType string

const (
	// StorageHash stores documents as Redis hashes.
	StorageHash StorageType = "HASH"
	// StorageJSON stores documents as JSON.
	StorageJSON StorageType = "JSON"
)

// TagField describes a single TAG field in an FT index schema.
type TagField struct {
	Path  string // attribute name for HASH, JSONPath for JSON
	Alias string // AS alias in FT.CREATE SCHEMA

	Separator     string
	CaseSensitive bool
}

// IndexDefinition is a complete FT index definition used by FT.CREATE.
type IndexDefinition struct {
	Name        string
	StorageType StorageType
	Prefixes    []string
	Fields      []TagField
}

// Validate checks that the index definition is well-formed.
func (idx *IndexDefinition) Validate() error {
	if idx.Name == "" {
		return errors.New("index name is required")
	}
	if !IsValidIdentifier(idx.Name) {
		return errors.New("index name contains invalid characters")
	}
	if len(idx.Fields) == 0 {
		return errors.New("at least one field is required")
	}

	seen := make(map[string]bool)
	for i := range idx.Fields {
		f := &idx.Fields[i]
		if f.Path == "" {
			return errors.New("field path is required at index " + strconv.Itoa(i))
		}
		key := f.Path
		if f.Alias != "" {
			key = f.Alias
		}
		if seen[key] {
			return errors.New("duplicate field name: " + key)
		}
		seen[key] = true
	}

	return nil
}

// Args renders the FT.CREATE arguments that follow the command name.
func (idx *IndexDefinition) Args() []string {
	args := []string{idx.Name}
	if idx.StorageType != "" {
		args = append(args, "ON", string(idx.StorageType))
	}
	if len(idx.Prefixes) > 0 {
		args = append(args, "PREFIX", strconv.Itoa(len(idx.Prefixes)))
		args = append(args, idx.Prefixes...)
	}
	args = append(args, "SCHEMA")
	for i := range idx.Fields {
		f := &idx.Fields[i]
		args = append(args, f.Path)
		if f.Alias != "" {
			args = append(args, "AS", f.Alias)
		}
		args = append(args, "TAG")
		if f.Separator != "" {
			args = append(args, "SEPARATOR", f.Separator)
		}
		if f.CaseSensitive {
			args = append(args, "CASESENSITIVE")
		}
	}
	return args
}

// IsValidIdentifier returns true if s matches [a-zA-Z0-9_:.-]+.
func IsValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		isSpecial := r == '_' || r == ':' || r == '-' || r == '.'
		if !isAlpha && !isDigit && !isSpecial {
			return false
		}
	}
	return true
}
