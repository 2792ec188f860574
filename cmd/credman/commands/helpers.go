package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/openclaw/credman/internal/config"
	"github.com/openclaw/credman/internal/passcache"
	"github.com/openclaw/credman/internal/services"
	"github.com/openclaw/credman/internal/vault"
	"github.com/openclaw/credman/internal/vault/cipher"
)

// openStore builds the vault from configuration: cipher backend,
// passphrase cache, and the interactive prompt when a terminal is
// attached.
func openStore(cfg *config.Config) (*vault.Store, error) {
	return vault.Open(vault.Options{
		Dir:    cfg.StoreDir(),
		Cipher: cipher.NewAESGCM(),
		Passphrases: &vault.PassphraseSource{
			Cache:  buildCache(cfg),
			Prompt: passphrasePrompt(cfg),
			TTL:    cfg.CacheTTL(),
		},
		Logger: cfg.Logger,
	})
}

func buildCache(cfg *config.Config) passcache.Cache {
	switch cfg.PassphraseCache() {
	case "memory":
		return passcache.NewMemory()
	case "none":
		return nil
	default:
		return passcache.NewKeyring()
	}
}

// passphrasePrompt reads a passphrase without echo. Non-interactive
// runs get no prompt, so resolution can fall through to the sentinel.
func passphrasePrompt(cfg *config.Config) func(label string) ([]byte, error) {
	if cfg.NonInteractive || !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil
	}
	return func(label string) ([]byte, error) {
		fmt.Fprint(os.Stderr, label)
		pass, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return nil, fmt.Errorf("reading passphrase: %w", err)
		}
		return pass, nil
	}
}

// loadServices returns the builtin service table extended by the
// user's services file when present.
func loadServices(cfg *config.Config) (*services.Table, error) {
	table := services.NewTable()
	path := cfg.ServicesFile()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return table, nil
	}
	if err := table.LoadFile(path); err != nil {
		return nil, err
	}
	return table, nil
}

// confirm asks a yes/no question on the terminal. Non-interactive runs
// always answer no.
func confirm(cfg *config.Config, question string) bool {
	if cfg.NonInteractive {
		return false
	}
	fmt.Fprintf(os.Stderr, "%s [y/N]: ", question)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
