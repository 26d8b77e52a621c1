package invites

import (
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"
)

// CodeGenerator produces unguessable invite codes
type CodeGenerator interface {
	Generate() string
}

// Generator draws codes from random (version 4) UUIDs: 122 random bits encoded as 22
// URL-safe characters.
type Generator struct {
	newRandom func() (uuid.UUID, error)
}

// NewGenerator probes the entropy source once. An error here is fatal at startup.
func NewGenerator() (*Generator, error) {
	return newGenerator(uuid.NewRandom)
}

func newGenerator(source func() (uuid.UUID, error)) (*Generator, error) {
	g := &Generator{newRandom: source}
	if _, err := g.newRandom(); err != nil {
		return nil, fmt.Errorf("entropy source unavailable: %w", err)
	}
	return g, nil
}

// Generate returns a fresh code. It panics if the entropy source fails after startup.
func (g *Generator) Generate() string {
	id, err := g.newRandom()
	if err != nil {
		panic(fmt.Sprintf("invite code entropy source failed: %v", err))
	}
	return base64.RawURLEncoding.EncodeToString(id[:])
}
