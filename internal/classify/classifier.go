// Package classify decides whether a (key name, value) pair is a
// credential, how sensitive it is, and which semantic category it
// belongs to. Classification is pure: no I/O, and values never appear
// in returned messages.
package classify

import (
	"math"
	"regexp"
	"strings"
)

// Category is the semantic kind of a credential.
type Category string

const (
	CategoryPrivateKey Category = "private_key"
	CategoryMnemonic   Category = "mnemonic"
	CategoryToken      Category = "token"
	CategoryPassword   Category = "password"
	CategoryGeneric    Category = "generic"
)

// Tier is the risk classification driving rotation cadence and the
// encryption recommendation.
type Tier string

const (
	TierCritical Tier = "critical"
	TierStandard Tier = "standard"
	TierLow      Tier = "low"
)

// RotationDays returns the rotation cadence for a tier.
func (t Tier) RotationDays() int {
	switch t {
	case TierCritical:
		return 90
	case TierStandard:
		return 180
	default:
		return 365
	}
}

// Result is the outcome of classifying a single (key name, value) pair.
type Result struct {
	IsCredential bool
	Tier         Tier
	Category     Category
	Confidence   float64
	// Weak marks low-entropy or placeholder values on secret-bearing
	// categories. Weak results are surfaced as warnings, not rejected.
	Weak bool
}

// EntropyThreshold is the minimum Shannon entropy (bits per character)
// below which a secret-bearing value is flagged weak.
const EntropyThreshold = 3.0

// credentialSuffixes mark a key name as credential-bearing regardless of value.
var credentialSuffixes = []string{
	"_api_key",
	"_secret",
	"_token",
	"_password",
	"_client_id",
	"_client_secret",
	"_access_key",
}

// credentialTerms are name terms (after snake normalization) that mark
// a key as credential-bearing. Ordered so the most specific category
// wins when several terms appear in one name.
var credentialTerms = []struct {
	term string
	cat  Category
}{
	{"private_key", CategoryPrivateKey},
	{"signing_key", CategoryPrivateKey},
	{"wallet_key", CategoryPrivateKey},
	{"mnemonic", CategoryMnemonic},
	{"seed_phrase", CategoryMnemonic},
	{"passphrase", CategoryPassword},
}

var (
	hexKeyPattern   = regexp.MustCompile(`^(0x)?[0-9a-fA-F]{64}$`)
	wordSeqPattern  = regexp.MustCompile(`^[a-z]+( [a-z]+)*$`)
	camelBoundary   = regexp.MustCompile(`([a-z0-9])([A-Z])`)
	criticalPattern = regexp.MustCompile(`PRIVATE_KEY|MNEMONIC|SEED|WALLET_KEY|CUSTODY|SIGNER|PASSPHRASE`)
	standardPattern = regexp.MustCompile(`API_KEY|SECRET|TOKEN|BEARER|CONSUMER|ACCESS|AUTH`)
)

var placeholders = map[string]bool{
	"":            true,
	"password":    true,
	"password123": true,
	"changeme":    true,
	"xxx":         true,
}

// tokenPrefixes are well-known provider token prefixes.
var tokenPrefixes = []string{"sk_", "pk_", "Bearer "}

// Classify decides whether the pair names a credential and assigns a
// risk tier and category. Name and value matching are independent; a
// 64-hex value is flagged even under an innocuous key name.
func Classify(keyName, value string) Result {
	res := Result{Tier: TierLow, Category: CategoryGeneric}

	name := snakeName(keyName)

	// Name-based matching. The leading underscore lets a bare "api_key"
	// match the "_api_key" suffix.
	for _, suffix := range credentialSuffixes {
		if strings.HasSuffix("_"+name, suffix) {
			res.IsCredential = true
			res.Category = categoryForSuffix(suffix)
			res.Confidence = 0.7
			break
		}
	}
	for _, t := range credentialTerms {
		if strings.Contains(name, t.term) {
			res.IsCredential = true
			res.Category = t.cat
			res.Confidence = 0.8
			break
		}
	}

	// Value-based matching overrides the name-derived category when it
	// is more specific: a 64-hex string under any name is a private key
	// until proven otherwise.
	switch {
	case hexKeyPattern.MatchString(value):
		res.IsCredential = true
		res.Category = CategoryPrivateKey
		res.Confidence = 0.9
	case isMnemonicPhrase(value):
		res.IsCredential = true
		res.Category = CategoryMnemonic
		res.Confidence = 0.9
	case hasTokenPrefix(value):
		res.IsCredential = true
		if res.Category == CategoryGeneric {
			res.Category = CategoryToken
		}
		if res.Confidence < 0.8 {
			res.Confidence = 0.8
		}
	}

	if !res.IsCredential {
		return res
	}

	res.Tier = tier(name, res.Category)

	// Entropy screen for secret-bearing categories. Private keys and
	// mnemonics matched structurally; a weak flag there would be noise.
	if res.Category == CategoryToken || res.Category == CategoryPassword || res.Category == CategoryGeneric {
		if placeholders[strings.ToLower(value)] || Entropy(value) < EntropyThreshold {
			res.Weak = true
			if res.Confidence > 0.5 {
				res.Confidence = 0.5
			}
		}
	}

	return res
}

// TierForKey classifies risk from a canonical key name alone. Used by
// the rotation tracker when only names are available.
func TierForKey(canonicalKey string) Tier {
	return tier(snakeName(canonicalKey), CategoryGeneric)
}

func tier(name string, cat Category) Tier {
	if cat == CategoryPrivateKey || cat == CategoryMnemonic {
		return TierCritical
	}
	upper := strings.ToUpper(name)
	if criticalPattern.MatchString(upper) {
		return TierCritical
	}
	if standardPattern.MatchString(upper) {
		return TierStandard
	}
	return TierLow
}

func categoryForSuffix(suffix string) Category {
	switch suffix {
	case "_token", "_api_key", "_access_key":
		return CategoryToken
	case "_password":
		return CategoryPassword
	default:
		return CategoryGeneric
	}
}

// isMnemonicPhrase reports whether the value is a space-separated
// sequence of exactly 12 or 24 lowercase alphabetic words.
func isMnemonicPhrase(value string) bool {
	if !wordSeqPattern.MatchString(value) {
		return false
	}
	n := len(strings.Fields(value))
	return n == 12 || n == 24
}

func hasTokenPrefix(value string) bool {
	for _, p := range tokenPrefixes {
		if strings.HasPrefix(value, p) {
			return true
		}
	}
	return false
}

// snakeName lowers a key name into snake form so camelCase, kebab-case
// and UPPER_SNAKE names all match the same terms.
func snakeName(name string) string {
	s := camelBoundary.ReplaceAllString(name, "${1}_${2}")
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, ".", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}

// Entropy computes the Shannon entropy of the value's character
// distribution in bits per character.
func Entropy(value string) float64 {
	if value == "" {
		return 0
	}
	counts := make(map[rune]int)
	total := 0
	for _, r := range value {
		counts[r]++
		total++
	}
	var h float64
	for _, c := range counts {
		p := float64(c) / float64(total)
		h -= p * math.Log2(p)
	}
	return h
}
