// Package services contains server-side business logic. This file implements
// CredentialService, the credential store: account creation and password
// verification over a users.Repository.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/tumordetect/internal/common"
	"github.com/dmitrijs2005/tumordetect/internal/dbx"
	"github.com/dmitrijs2005/tumordetect/internal/logging"
	"github.com/dmitrijs2005/tumordetect/internal/server/config"
	"github.com/dmitrijs2005/tumordetect/internal/server/models"
	"github.com/dmitrijs2005/tumordetect/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/tumordetect/internal/server/repositories/users"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// CredentialService adds and verifies accounts.
//
// AddUser relies on the store's unique constraint instead of a prior lookup,
// so two concurrent signups of one name cannot both succeed.
type CredentialService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	cost        int
	logger      logging.Logger
	now         func() time.Time

	dummyOnce sync.Once
	dummyHash []byte
}

// NewCredentialService constructs a CredentialService using the repository
// manager and the configured bcrypt cost.
func NewCredentialService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, l logging.Logger) *CredentialService {
	cost := cfg.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &CredentialService{
		db:          db,
		repomanager: m,
		cost:        cost,
		logger:      l.With("module", "credentials"),
		now:         time.Now,
	}
}

// AddUser hashes password and stores the account.
//
// It returns common.ErrMissingInput for an empty username or password,
// common.ErrDuplicateUsername when the name is taken, and a wrapped
// common.ErrorValidation when bcrypt rejects the password (longer than 72 bytes).
func (s *CredentialService) AddUser(ctx context.Context, username, password string) error {
	return s.addUser(ctx, s.repomanager.Users(s.db), username, password)
}

func (s *CredentialService) addUser(ctx context.Context, repo users.Repository, username, password string) error {
	if username == "" || password == "" {
		return common.ErrMissingInput
	}

	pw := []byte(password)
	defer common.WipeByteArray(pw)

	hash, err := bcrypt.GenerateFromPassword(pw, s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return fmt.Errorf("%w: %v", common.ErrorValidation, err)
		}
		return fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	user := &models.User{Username: username, PasswordHash: hash, CreatedAt: s.now().UTC()}
	if _, err := repo.Create(ctx, user); err != nil {
		if errors.Is(err, common.ErrDuplicateUsername) {
			return common.ErrDuplicateUsername
		}
		s.logger.Error(ctx, "error creating user", "error", err)
		return fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	s.logger.Info(ctx, "user created", "username", username)
	return nil
}

// CheckUser verifies password against the stored hash.
//
// An unknown username and a wrong password both yield
// common.ErrInvalidCredentials. For unknown users a comparison against a
// throwaway hash still runs so both cases take similar time.
func (s *CredentialService) CheckUser(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return common.ErrMissingInput
	}

	pw := []byte(password)
	defer common.WipeByteArray(pw)

	user, err := s.repomanager.Users(s.db).GetUserByLogin(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.getDummyHash(), pw)
			return common.ErrInvalidCredentials
		}
		s.logger.Error(ctx, "error looking up user", "error", err)
		return fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, pw); err != nil {
		return common.ErrInvalidCredentials
	}

	return nil
}

type seedFile struct {
	Users []struct {
		Username string `yaml:"username"`
		Password string `yaml:"password"`
	} `yaml:"users"`
}

// SeedFromFile creates the accounts listed in a YAML file:
//
//	users:
//	  - username: alice
//	    password: pw1
//
// All inserts share one transaction. Existing usernames and entries with an
// empty field are skipped. It returns the number of accounts created.
func (s *CredentialService) SeedFromFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	var sf seedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return 0, fmt.Errorf("parse seed file: %w", err)
	}

	created := 0
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)
		for _, u := range sf.Users {
			if u.Username == "" || u.Password == "" {
				continue
			}
			if _, err := repo.GetUserByLogin(ctx, u.Username); err == nil {
				continue
			} else if !errors.Is(err, common.ErrorNotFound) {
				return err
			}
			if err := s.addUser(ctx, repo, u.Username, u.Password); err != nil {
				return fmt.Errorf("seed user %q: %w", u.Username, err)
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return created, nil
}

func (s *CredentialService) getDummyHash() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), s.cost)
	})
	return s.dummyHash
}
