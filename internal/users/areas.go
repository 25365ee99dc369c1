package users

import (
	"fmt"
	"strings"

	"lumacms.org/internal/cqs"
)

// AreaCodeLength is the fixed length of a user area code.
const AreaCodeLength = 3

// AdminAreaCode identifies the built-in administrative user area.
const AdminAreaCode = "ADM"

// AreaDefinition is the static, per-area configuration of one partition of
// the user base. Multiple areas coexist in a process, each with its own
// credential rules and session scheme.
type AreaDefinition struct {
	Code               string
	Name               string
	AllowPasswordLogin bool
	UseEmailAsUsername bool
	SessionScheme      string
}

// AdminArea is the built-in administrative area definition.
func AdminArea() AreaDefinition {
	return AreaDefinition{
		Code:               AdminAreaCode,
		Name:               "Administrators",
		AllowPasswordLogin: true,
		UseEmailAsUsername: true,
		SessionScheme:      "lumacms.admin",
	}
}

// AreaRegistry resolves user area definitions by code. It is built once at
// process start and read-only afterwards.
type AreaRegistry struct {
	areas map[string]AreaDefinition
}

// NewAreaRegistry validates and indexes the given definitions. Codes must be
// unique, uppercase and exactly AreaCodeLength characters; session schemes
// must be unique too.
func NewAreaRegistry(defs ...AreaDefinition) (*AreaRegistry, error) {
	areas := make(map[string]AreaDefinition, len(defs))
	schemes := make(map[string]string, len(defs))
	for _, def := range defs {
		if len(def.Code) != AreaCodeLength {
			return nil, fmt.Errorf("users: area code %q must be exactly %d characters", def.Code, AreaCodeLength)
		}
		if def.Code != strings.ToUpper(def.Code) {
			return nil, fmt.Errorf("users: area code %q must be uppercase", def.Code)
		}
		if _, dup := areas[def.Code]; dup {
			return nil, fmt.Errorf("users: duplicate area code %q", def.Code)
		}
		if def.SessionScheme == "" {
			return nil, fmt.Errorf("users: area %q requires a session scheme", def.Code)
		}
		if owner, dup := schemes[def.SessionScheme]; dup {
			return nil, fmt.Errorf("users: areas %q and %q share session scheme %q", owner, def.Code, def.SessionScheme)
		}
		areas[def.Code] = def
		schemes[def.SessionScheme] = def.Code
	}
	return &AreaRegistry{areas: areas}, nil
}

// Get resolves an area definition by code.
func (r *AreaRegistry) Get(code string) (AreaDefinition, error) {
	def, ok := r.areas[code]
	if !ok {
		return AreaDefinition{}, cqs.NewNotFoundError("user area", code)
	}
	return def, nil
}
