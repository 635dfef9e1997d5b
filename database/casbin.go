package database

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

func Casbin(db *gorm.DB, modelPath string) (*casbin.SyncedEnforcer, error) {
	// Initialize casbin adapter
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize casbin adapter: %w", err)
	}

	// Load model configuration file and policy store adapter
	e, err := casbin.NewSyncedEnforcer(modelPath, adapter)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	if err := e.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("failed to load casbin policy: %w", err)
	}

	// Add default policy
	if hasPolicy, _ := e.HasPolicy(RoleAdmin, "/v1/admin/*", "(GET)|(POST)|(PUT)|(DELETE)"); !hasPolicy {
		if _, err := e.AddPolicy(RoleAdmin, "/v1/admin/*", "(GET)|(POST)|(PUT)|(DELETE)"); err != nil {
			return nil, fmt.Errorf("failed to add default policy: %w", err)
		}
	}

	return e, nil
}
