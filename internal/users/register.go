package users

import (
	"lumacms.org/internal/cache"
	"lumacms.org/internal/cqs"
	"lumacms.org/internal/passwords"
)

// Deps bundles the collaborators user operations need.
type Deps struct {
	Users    Store
	Roles    RoleStore
	Areas    *AreaRegistry
	Verifier CredentialVerifier
	Policy   *passwords.Policy
	Cache    *cache.Cache
}

// Register wires every user command and query into the executor.
func Register(e *cqs.Executor, d Deps) error {
	if err := cqs.RegisterCommand(e, NewAddUserHandler(d.Users, d.Roles, d.Areas, d.Verifier, d.Policy, d.Cache)); err != nil {
		return err
	}
	if err := cqs.RegisterCommand(e, NewAddSuperAdminUserHandler(e, d.Roles)); err != nil {
		return err
	}
	if err := cqs.RegisterCommand(e, NewUpdateCurrentUserPasswordHandler(d.Users, d.Verifier, d.Policy, d.Cache)); err != nil {
		return err
	}
	if err := cqs.RegisterQuery(e, NewAuthenticateCredentialsHandler(d.Users, d.Areas, d.Verifier)); err != nil {
		return err
	}
	return cqs.RegisterQuery(e, NewGetUserByIDHandler(d.Users))
}
