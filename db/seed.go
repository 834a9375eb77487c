package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"

	"quizbank-server/models"
)

// SeedFile is the yaml layout for bootstrap data. There are no endpoints for
// creating subjects or accounts, so they come from here.
type SeedFile struct {
	Subjects []string   `yaml:"subjects"`
	Users    []SeedUser `yaml:"users"`
}

// SeedUser is one account entry in a seed file.
type SeedUser struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
	Name     string `yaml:"name"`
}

// LoadSeedFile reads and parses a seed yaml file.
func LoadSeedFile(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file %s: %w", path, err)
	}
	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}
	return &seed, nil
}

// PasswordHasher turns a seed password into its stored form.
type PasswordHasher func(plain string) (string, error)

// Seed inserts the subjects and users that do not exist yet. It is safe to run
// on every start.
func Seed(ctx context.Context, store Store, seed *SeedFile, hash PasswordHasher) error {
	existing, err := store.ListSubjects(ctx)
	if err != nil {
		return fmt.Errorf("failed to list subjects for seeding: %w", err)
	}
	known := make(map[string]bool, len(existing))
	for _, s := range existing {
		known[s.Name] = true
	}

	added := 0
	for _, name := range seed.Subjects {
		if name == "" || known[name] {
			continue
		}
		if err := store.CreateSubject(ctx, &models.Subject{Name: name}); err != nil && !errors.Is(err, ErrDuplicate) {
			return fmt.Errorf("failed to seed subject %q: %w", name, err)
		}
		known[name] = true
		added++
	}

	for _, u := range seed.Users {
		if u.Username == "" {
			continue
		}
		if _, err := store.FindUserByUsername(ctx, u.Username); err == nil {
			continue
		} else if !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("failed to look up user %q: %w", u.Username, err)
		}
		role := u.Role
		if role != models.RoleTeacher {
			role = models.RoleStudent
		}
		password := u.Password
		if hash != nil {
			if password, err = hash(u.Password); err != nil {
				return fmt.Errorf("failed to hash password for %q: %w", u.Username, err)
			}
		}
		user := &models.User{Username: u.Username, Password: password, Role: role, Name: u.Name}
		if err := store.CreateUser(ctx, user); err != nil && !errors.Is(err, ErrDuplicate) {
			return fmt.Errorf("failed to seed user %q: %w", u.Username, err)
		}
		added++
	}

	log.Printf("Seeding complete: %d new records", added)
	return nil
}
