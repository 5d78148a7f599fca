package transactions

import (
	"strings"
	"time"

	"github.com/google/uuid"
	hashids "github.com/speps/go-hashids/v2"
)

// ReferenceGenerator produces short human-readable transaction codes like
// BRT-Q8PN2M4K. Codes are salted per deployment so they are not guessable
// from the numeric ids.
type ReferenceGenerator struct {
	h *hashids.HashID
}

func NewReferenceGenerator(salt string) (*ReferenceGenerator, error) {
	data := hashids.NewData()
	data.Salt = salt
	data.MinLength = 8
	data.Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	h, err := hashids.NewWithData(data)
	if err != nil {
		return nil, err
	}
	return &ReferenceGenerator{h: h}, nil
}

// Generate encodes the offer id together with a time/uuid-derived nonce so
// that two transactions for the same offer still get distinct codes.
func (g *ReferenceGenerator) Generate(offerID int64) (string, error) {
	nonce := int64(uuid.New().ID())
	code, err := g.h.EncodeInt64([]int64{offerID, time.Now().Unix(), nonce})
	if err != nil {
		return "", err
	}
	return "BRT-" + strings.ToUpper(code), nil
}
