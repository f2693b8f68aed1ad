package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/databricks/databricks-sdk-go/config"
	"gopkg.in/ini.v1"
)

type ProfileType string

const (
	ProfileTypeWorkspace ProfileType = "workspace"
	ProfileTypeAccount   ProfileType = "account"
)

// Profile is a named credential section of a .databrickscfg file.
type Profile struct {
	Name string
	Type ProfileType
}

func profileTypeOf(section *ini.Section) ProfileType {
	if section.HasKey("account_id") {
		return ProfileTypeAccount
	}
	return ProfileTypeWorkspace
}

// Registry exposes the profiles of a .databrickscfg file. GetConfig only
// resolves workspace profiles.
type Registry interface {
	GetProfiles(ctx context.Context) ([]Profile, error)
	GetConfig(ctx context.Context, profile string) (*config.Config, error)
}

type cfgRegistry struct {
	cfg *ini.File
}

// DefaultDatabricksConfigPath returns $HOME/.databrickscfg.
func DefaultDatabricksConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".databrickscfg"
	}
	return filepath.Join(home, ".databrickscfg")
}

func NewRegistry(path string) (Registry, error) {
	if path == "" {
		path = DefaultDatabricksConfigPath()
	}
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load databricks config %s: %w", path, err)
	}
	return &cfgRegistry{cfg: cfg}, nil
}

func (cr *cfgRegistry) GetProfiles(_ context.Context) ([]Profile, error) {
	var profiles []Profile
	for _, section := range cr.cfg.Sections() {
		if len(section.Keys()) == 0 {
			continue
		}
		profiles = append(profiles, Profile{Name: section.Name(), Type: profileTypeOf(section)})
	}
	return profiles, nil
}

func (cr *cfgRegistry) GetConfig(_ context.Context, profile string) (*config.Config, error) {
	section, err := cr.cfg.GetSection(profile)
	if err != nil {
		return nil, fmt.Errorf("profile %s not found", profile)
	}
	// Clusters live in workspaces; account-level profiles cannot list them.
	if profileTypeOf(section) == ProfileTypeAccount {
		return nil, fmt.Errorf("profile %s is an account profile, a workspace profile is required", profile)
	}

	host := section.Key("host").String()
	token := section.Key("token").String()
	if host == "" {
		return nil, fmt.Errorf("profile %s has no host", profile)
	}

	return &config.Config{
		Host:  host,
		Token: token,
	}, nil
}
