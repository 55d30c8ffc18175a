package directory

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mantenix/inventory-service/internal/domain"
)

// File is the YAML layout of a static directory
type File struct {
	WorkOrders []Entry `yaml:"workOrders"`
	Sites      []Entry `yaml:"sites"`
	Companies  []Entry `yaml:"companies"`
	Users      []Entry `yaml:"users"`
}

// Entry is one directory record in a File
type Entry struct {
	ID             string `yaml:"id"`
	Name           string `yaml:"name"`
	SiteID         string `yaml:"siteId"`
	CompanyID      string `yaml:"companyId"`
	CompanyGroupID string `yaml:"companyGroupId"`
}

// Static serves the directory from memory. Local runs and the CLI use it
// when no directory service is configured.
type Static struct {
	workOrders map[string]domain.DirectoryEntry
	sites      map[string]domain.DirectoryEntry
	companies  map[string]domain.DirectoryEntry
	users      map[string]domain.DirectoryEntry
}

// LoadStatic reads a YAML directory file
func LoadStatic(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory file: %w", err)
	}
	return ParseStatic(data)
}

// ParseStatic decodes a YAML directory document
func ParseStatic(data []byte) (*Static, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse directory file: %w", err)
	}
	return NewStatic(f), nil
}

// NewStatic indexes f by id
func NewStatic(f File) *Static {
	return &Static{
		workOrders: index(f.WorkOrders),
		sites:      index(f.Sites),
		companies:  index(f.Companies),
		users:      index(f.Users),
	}
}

func index(entries []Entry) map[string]domain.DirectoryEntry {
	m := make(map[string]domain.DirectoryEntry, len(entries))
	for _, e := range entries {
		m[e.ID] = domain.DirectoryEntry{
			ID:             e.ID,
			Name:           e.Name,
			SiteID:         e.SiteID,
			CompanyID:      e.CompanyID,
			CompanyGroupID: e.CompanyGroupID,
		}
	}
	return m
}

func (s *Static) WorkOrder(_ context.Context, id string) (*domain.DirectoryEntry, error) {
	return lookup(s.workOrders, "work order", id)
}

func (s *Static) Site(_ context.Context, id string) (*domain.DirectoryEntry, error) {
	return lookup(s.sites, "site", id)
}

func (s *Static) Company(_ context.Context, id string) (*domain.DirectoryEntry, error) {
	return lookup(s.companies, "company", id)
}

func (s *Static) User(_ context.Context, id string) (*domain.DirectoryEntry, error) {
	return lookup(s.users, "user", id)
}

func lookup(m map[string]domain.DirectoryEntry, resource, id string) (*domain.DirectoryEntry, error) {
	e, ok := m[id]
	if !ok {
		return nil, domain.NewNotFoundError(resource, id)
	}
	return &e, nil
}
