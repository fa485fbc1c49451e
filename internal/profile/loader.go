package profile

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed data/profile.json data/profile.schema.json
var dataFS embed.FS

var (
	defaultOnce    sync.Once
	defaultProfile *Profile
)

// Default returns the profile document compiled into the binary. It panics if
// the embedded document does not satisfy the schema, since that is a build
// defect rather than a runtime condition.
func Default() *Profile {
	defaultOnce.Do(func() {
		raw, err := dataFS.ReadFile("data/profile.json")
		if err != nil {
			panic(fmt.Sprintf("profile: reading embedded document: %v", err))
		}
		p, err := Parse(raw)
		if err != nil {
			panic(fmt.Sprintf("profile: embedded document is invalid: %v", err))
		}
		defaultProfile = p
	})
	return defaultProfile
}

// Load reads and validates a profile document from disk.
func Load(path string) (*Profile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile file %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse validates raw JSON against the profile schema and decodes it.
func Parse(raw []byte) (*Profile, error) {
	if err := Validate(raw); err != nil {
		return nil, err
	}
	var p Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	return &p, nil
}

// Validate checks raw JSON against the embedded profile schema.
func Validate(raw []byte) error {
	schema, err := dataFS.ReadFile("data/profile.schema.json")
	if err != nil {
		return fmt.Errorf("failed to read profile schema: %w", err)
	}

	res, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schema), gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("failed to validate profile: %w", err)
	}
	if res.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("profile schema validation failed: %s", strings.Join(msgs, "; "))
}
