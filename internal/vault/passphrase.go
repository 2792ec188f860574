package vault

import (
	"os"
	"time"

	credmanerrors "github.com/openclaw/credman/internal/errors"
	"github.com/openclaw/credman/internal/passcache"
)

// PassphraseEnvVar is consulted after the cache and before any prompt.
const PassphraseEnvVar = "CREDMAN_PASSPHRASE"

// PassphraseSource resolves the container passphrase. Resolution order
// is fixed: session cache, environment variable, interactive prompt.
// A nil Prompt means the process is non-interactive and resolution
// stops at the environment.
type PassphraseSource struct {
	Cache  passcache.Cache
	EnvVar string
	Prompt func(label string) ([]byte, error)
	TTL    time.Duration
}

// Resolve returns the passphrase or ErrNoPassphrase. A passphrase
// obtained from the environment or a prompt is written back to the
// cache so repeated operations in one session prompt once.
func (s *PassphraseSource) Resolve() ([]byte, error) {
	if s == nil {
		return nil, credmanerrors.ErrNoPassphrase
	}

	if s.Cache != nil {
		if pass, ok := s.Cache.Get(); ok && len(pass) > 0 {
			return pass, nil
		}
	}

	envVar := s.EnvVar
	if envVar == "" {
		envVar = PassphraseEnvVar
	}
	if v := os.Getenv(envVar); v != "" {
		pass := []byte(v)
		s.cache(pass)
		return pass, nil
	}

	if s.Prompt != nil {
		pass, err := s.Prompt("Container passphrase: ")
		if err != nil {
			return nil, err
		}
		if len(pass) > 0 {
			s.cache(pass)
			return pass, nil
		}
	}

	return nil, credmanerrors.ErrNoPassphrase
}

// Forget drops any cached passphrase, forcing the next Resolve to go
// back to the environment or the prompt.
func (s *PassphraseSource) Forget() {
	if s != nil && s.Cache != nil {
		s.Cache.Clear()
	}
}

func (s *PassphraseSource) cache(pass []byte) {
	if s.Cache == nil {
		return
	}
	ttl := s.TTL
	if ttl <= 0 {
		ttl = passcache.DefaultTTL
	}
	// Cache failures are not fatal; the operator just gets prompted
	// again next time.
	_ = s.Cache.Set(pass, ttl)
}
