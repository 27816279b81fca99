// Package aettable holds the DICOM node table: the mapping from a server
// name to its application entity title, network address, advertised
// facilities and optional credentials. The table is loaded once and
// read-only thereafter.
package aettable

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/openrad/dcmfetch/errors"
)

// Facility is a single-letter capability marker on a server entry.
type Facility rune

const (
	// FacilityWeb marks a DICOMweb (QIDO-RS/WADO-RS) endpoint.
	FacilityWeb Facility = 'W'
	// FacilityFind marks support for C-FIND via the find tool.
	FacilityFind Facility = 'F'
	// FacilityGet marks support for C-GET via the get tool.
	FacilityGet Facility = 'G'
)

// Server describes one remote archive node.
type Server struct {
	Name       string
	AET        string
	Host       string
	Port       int
	Facilities map[Facility]bool
	Auth       string // "user:password", empty when the node needs none
}

// HasFacility reports whether the node advertises the given facility.
func (s *Server) HasFacility(f Facility) bool { return s.Facilities[f] }

// Addr returns the host:port connect address of the node.
func (s *Server) Addr() string { return fmt.Sprintf("%s:%d", s.Host, s.Port) }

// Table is the read-only server directory.
type Table struct {
	servers map[string]*Server
}

// serverEntry is the YAML shape of one node table entry.
type serverEntry struct {
	AET        string `yaml:"aet"`
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Facilities string `yaml:"facilities"`
	Auth       string `yaml:"auth,omitempty"`
}

type tableFile struct {
	Servers map[string]serverEntry `yaml:"servers"`
}

// Load reads a node table from a YAML file.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read node table: %w", err)
	}
	return Parse(data)
}

// Parse builds a node table from YAML data.
func Parse(data []byte) (*Table, error) {
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse node table: %w", err)
	}

	servers := make(map[string]*Server, len(f.Servers))
	for name, e := range f.Servers {
		srv, err := newServer(name, e)
		if err != nil {
			return nil, err
		}
		servers[name] = srv
	}

	return &Table{servers: servers}, nil
}

func newServer(name string, e serverEntry) (*Server, error) {
	if e.AET == "" || e.Host == "" {
		return nil, fmt.Errorf("node table entry %s: aet and host are required", name)
	}
	if e.Port <= 0 || e.Port > 0xFFFF {
		return nil, fmt.Errorf("node table entry %s: invalid port %d", name, e.Port)
	}

	facilities := make(map[Facility]bool, len(e.Facilities))
	for _, r := range strings.ToUpper(e.Facilities) {
		switch f := Facility(r); f {
		case FacilityWeb, FacilityFind, FacilityGet:
			facilities[f] = true
		default:
			return nil, fmt.Errorf("node table entry %s: unknown facility marker %q", name, string(r))
		}
	}

	return &Server{
		Name:       name,
		AET:        e.AET,
		Host:       e.Host,
		Port:       e.Port,
		Facilities: facilities,
		Auth:       e.Auth,
	}, nil
}

// Lookup resolves a server name.
func (t *Table) Lookup(name string) (*Server, error) {
	srv, ok := t.servers[name]
	if !ok {
		return nil, errors.NewUnknownServerError(name)
	}
	return srv, nil
}

// Names returns the known server names in sorted order.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.servers))
	for name := range t.servers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
