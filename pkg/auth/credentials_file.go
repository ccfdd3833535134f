package auth

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// credentialsFile is the on-disk shape of an auth.CredentialsPath file: a
// flat map of authcid to bcrypt hash.
type credentialsFile struct {
	Credentials map[string]string `yaml:"credentials"`
}

// LoadCredentialsFile reads and parses a YAML credentials file.
func LoadCredentialsFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("auth: read credentials file: %w", err)
	}
	var f credentialsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("auth: parse credentials file: %w", err)
	}
	return f.Credentials, nil
}
