package auth

import (
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcdev12/nexora/go/internal/models"
)

// Credential is a known login
type Credential struct {
	Email        string
	PasswordHash []byte
	UserType     models.UserType
}

// CredentialProvider supplies the built-in logins
type CredentialProvider interface {
	Lookup(email string) (Credential, bool)
	// Hint is shown when a login fails, e.g. "student@nexora.com / student123".
	Hint() string
}

type demoAccount struct {
	email    string
	password string
	userType models.UserType
}

var demoAccounts = []demoAccount{
	{"student@nexora.com", "student123", models.UserTypeStudent},
	{"professional@nexora.com", "work2024", models.UserTypeProfessional},
	{"educator@nexora.com", "teach456", models.UserTypeEducator},
}

// DemoCredentials are the three demo accounts. Their hashes are computed on first use.
type DemoCredentials struct {
	once  sync.Once
	creds map[string]Credential
}

// NewDemoCredentials creates the demo credential provider
func NewDemoCredentials() *DemoCredentials {
	return &DemoCredentials{}
}

func (d *DemoCredentials) load() {
	d.once.Do(func() {
		d.creds = make(map[string]Credential, len(demoAccounts))
		for _, a := range demoAccounts {
			hash, err := bcrypt.GenerateFromPassword([]byte(a.password), bcrypt.DefaultCost)
			if err != nil {
				log.Error().Err(err).Str("email", a.email).Msg("failed to hash demo password")
				continue
			}
			d.creds[a.email] = Credential{Email: a.email, PasswordHash: hash, UserType: a.userType}
		}
	})
}

func (d *DemoCredentials) Lookup(email string) (Credential, bool) {
	d.load()
	c, ok := d.creds[strings.ToLower(strings.TrimSpace(email))]
	return c, ok
}

func (d *DemoCredentials) Hint() string {
	return demoAccounts[0].email + " / " + demoAccounts[0].password
}
