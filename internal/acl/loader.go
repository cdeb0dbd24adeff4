package acl

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/KilimcininKorOglu/oba-aci/internal/config"
	"github.com/KilimcininKorOglu/oba-aci/internal/dn"
	"github.com/KilimcininKorOglu/oba-aci/internal/filter"
)

// ErrInvalidBootstrap is returned for a bootstrap file that parses as YAML
// but does not describe valid entries.
var ErrInvalidBootstrap = errors.New("acl: invalid bootstrap file")

// BootstrapFile is the on-disk layout of a bootstrap ACI file:
//
//	backends:
//	  - baseDN: dc=example,dc=com
//	    entries:
//	      - dn: dc=example,dc=com
//	        aci:
//	          - '(targetattr="*")(version 3.0; acl "read"; allow (read) userdn="ldap:///all";)'
//	        attributes:
//	          objectClass: [top, domain]
type BootstrapFile struct {
	Backends []BootstrapBackend `yaml:"backends"`
}

// BootstrapBackend is one naming context of a bootstrap file.
type BootstrapBackend struct {
	BaseDN  string           `yaml:"baseDN"`
	Entries []BootstrapEntry `yaml:"entries"`
}

// BootstrapEntry is one entry of a bootstrap backend.
type BootstrapEntry struct {
	DN         string              `yaml:"dn"`
	ACI        []string            `yaml:"aci"`
	Attributes map[string][]string `yaml:"attributes"`
}

// Backend is a loaded naming context.
type Backend struct {
	BaseDN  dn.DN
	Entries []*filter.Entry
}

// LoadBootstrapFile reads and parses a bootstrap ACI file.
func LoadBootstrapFile(path string) ([]Backend, error) {
	if path == "" {
		return nil, ErrNoFilePath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("acl: failed to read bootstrap file: %w", err)
	}
	return ParseBootstrap(data)
}

// ParseBootstrap parses bootstrap YAML. ${VAR} and ${VAR:-default}
// references are expanded first. ACI values are not decoded here.
func ParseBootstrap(data []byte) ([]Backend, error) {
	data = config.ExpandEnv(data)

	var bf BootstrapFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&bf); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	backends := make([]Backend, 0, len(bf.Backends))
	for i, b := range bf.Backends {
		base, err := dn.Parse(b.BaseDN)
		if err != nil {
			return nil, fmt.Errorf("%w: backend %d: baseDN: %v", ErrInvalidBootstrap, i, err)
		}
		backend := Backend{BaseDN: base}
		for j, be := range b.Entries {
			d, err := dn.Parse(be.DN)
			if err != nil {
				return nil, fmt.Errorf("%w: backend %d entry %d: %v", ErrInvalidBootstrap, i, j, err)
			}
			if !d.IsDescendantOf(base) {
				return nil, fmt.Errorf("%w: entry %q is not under %q", ErrInvalidBootstrap, be.DN, b.BaseDN)
			}
			e := filter.NewEntry(d)
			for name, values := range be.Attributes {
				e.SetStringAttribute(name, values...)
			}
			if len(be.ACI) > 0 {
				e.SetStringAttribute(AttrACI, be.ACI...)
			}
			backend.Entries = append(backend.Entries, e)
		}
		backends = append(backends, backend)
	}
	return backends, nil
}
