package database

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	gormadapter "github.com/casbin/gorm-adapter/v3"
)

var enforcer *casbin.Enforcer

func Casbin() *casbin.Enforcer {
	if enforcer != nil {
		return enforcer
	}

	// Initialize casbin adapter
	adapter, err := gormadapter.NewAdapterByDB(Postgres)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize casbin adapter: %v", err))
	}

	// Load model configuration file and policy store adapter
	e, err := casbin.NewEnforcer("config/restful_rbac_model.conf", adapter)
	if err != nil {
		panic(fmt.Sprintf("failed to create casbin enforcer: %v", err))
	}

	// Default policies: admins and moderators own the admin surface,
	// every signed-in user gets the self-service surface.
	if hasPolicy, _ := e.HasPolicy("admin", "/v1/admin*", "(GET)|(POST)|(PUT)|(DELETE)"); !hasPolicy {
		e.AddPolicy("admin", "/v1/admin*", "(GET)|(POST)|(PUT)|(DELETE)")
	}
	if hasPolicy, _ := e.HasPolicy("moderator", "/v1/admin*", "(GET)|(POST)|(PUT)|(DELETE)"); !hasPolicy {
		e.AddPolicy("moderator", "/v1/admin*", "(GET)|(POST)|(PUT)|(DELETE)")
	}
	if hasPolicy, _ := e.HasPolicy("user", "/v1/user*", "(GET)|(POST)|(PUT)|(DELETE)"); !hasPolicy {
		e.AddPolicy("user", "/v1/user*", "(GET)|(POST)|(PUT)|(DELETE)")
	}

	e.LoadPolicy()
	enforcer = e
	return e
}
