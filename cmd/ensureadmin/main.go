// Command ensureadmin bootstraps the default admin account
// (login=admin, password=admin). Safe to run repeatedly: it re-hashes
// the password if it drifted and re-activates a blocked account.
package main

import (
	"context"
	"os"
	"time"

	"github.com/alexedwards/argon2id"

	"github.com/itcons/afisha/internal/domain"
	"github.com/itcons/afisha/internal/repo/postgres"
	"github.com/itcons/afisha/pkg/config"
	"github.com/itcons/afisha/pkg/logger"
)

const (
	defaultAdminLogin    = "admin"
	defaultAdminPassword = "admin"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	accounts := postgres.NewAccountRepo(pool)

	admin, err := accounts.FindAdminByEmail(ctx, defaultAdminLogin)
	if err != nil {
		logger.Error("failed to look up default admin", "error", err)
		os.Exit(1)
	}

	if admin == nil {
		hash, err := argon2id.CreateHash(defaultAdminPassword, argon2id.DefaultParams)
		if err != nil {
			logger.Error("failed to hash password", "error", err)
			os.Exit(1)
		}
		if _, err := accounts.CreateAdmin(ctx, defaultAdminLogin, hash); err != nil {
			logger.Error("failed to create default admin", "error", err)
			os.Exit(1)
		}
		logger.Info("created default admin", "login", defaultAdminLogin)
		return
	}

	updated := false
	hash := admin.PasswordHash
	match, err := argon2id.ComparePasswordAndHash(defaultAdminPassword, admin.PasswordHash)
	if err != nil || !match {
		hash, err = argon2id.CreateHash(defaultAdminPassword, argon2id.DefaultParams)
		if err != nil {
			logger.Error("failed to hash password", "error", err)
			os.Exit(1)
		}
		updated = true
	}

	status := admin.Status
	if status != domain.AccountActive {
		status = domain.AccountActive
		updated = true
	}

	if !updated {
		logger.Info("default admin already exists", "login", defaultAdminLogin)
		return
	}

	if err := accounts.UpdateAdmin(ctx, admin.ID, hash, status); err != nil {
		logger.Error("failed to update default admin", "error", err)
		os.Exit(1)
	}
	logger.Info("updated default admin credentials", "login", defaultAdminLogin)
}
