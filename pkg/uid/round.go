package uid

import "github.com/google/uuid"

// GenerateRoundID returns a random UUID used as the round key in every store.
func GenerateRoundID() string {
	return uuid.NewString()
}

// IsValid reports whether id looks like something GenerateRoundID produced.
func IsValid(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
