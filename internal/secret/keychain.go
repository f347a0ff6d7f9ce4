package secret

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// DefaultKeychainService is the keychain service entries are filed under.
const DefaultKeychainService = "pagebuilder"

// notFoundExit is the exit code of `security` for a missing item.
const notFoundExit = 44

// KeychainStore implements SecretStore with the macOS Keychain through the
// `security` tool. Where the tool is missing, Get finds nothing and Set
// fails.
type KeychainStore struct {
	service string
}

func NewKeychainStore() *KeychainStore {
	return &KeychainStore{service: DefaultKeychainService}
}

func (k *KeychainStore) Set(key string, value []byte) error {
	cmd := exec.Command("security", "add-generic-password",
		"-a", key,
		"-s", k.service,
		"-w", string(value),
		"-U",
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("keychain set %s: %s: %w", key, strings.TrimSpace(string(out)), err)
	}
	return nil
}

func (k *KeychainStore) Get(key string) ([]byte, error) {
	out, err := exec.Command("security", "find-generic-password",
		"-a", key,
		"-s", k.service,
		"-w",
	).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() != notFoundExit {
			return nil, fmt.Errorf("keychain get %s: %w", key, err)
		}
		return nil, nil
	}
	return []byte(strings.TrimSpace(string(out))), nil
}

func (k *KeychainStore) Delete(key string) error {
	out, err := exec.Command("security", "delete-generic-password",
		"-a", key,
		"-s", k.service,
	).CombinedOutput()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() != notFoundExit {
		return fmt.Errorf("keychain delete %s: %s: %w", key, strings.TrimSpace(string(out)), err)
	}
	return nil
}
