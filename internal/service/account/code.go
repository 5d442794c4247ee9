package account

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/mediscan/mediscan-api/internal/repository"
)

const (
	codeMin         = 100000
	codeSpan        = 900000
	maxCodeAttempts = 10
)

// CodeGenerator issues the 6-digit codes guardians use to link to a patient.
type CodeGenerator struct {
	patients repository.PatientRepository
	intN     func(n int) int
	now      func() time.Time
}

func NewCodeGenerator(patients repository.PatientRepository, now func() time.Time) *CodeGenerator {
	return &CodeGenerator{
		patients: patients,
		intN:     rand.IntN,
		now:      now,
	}
}

// Generate draws random codes until one is unused. After maxCodeAttempts
// collisions it falls back to the last six digits of the Unix time, which is
// not checked for uniqueness.
func (g *CodeGenerator) Generate(ctx context.Context) (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code := strconv.Itoa(codeMin + g.intN(codeSpan))
		exists, err := g.patients.GuardianCodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return fmt.Sprintf("%06d", g.now().Unix()%1000000), nil
}
