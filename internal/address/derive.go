package address

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

const (
	MaxSeeds   = 16
	MaxSeedLen = 32

	pdaMarker = "ProgramDerivedAddress"
	// IDLSeed is the create-with-seed seed for Anchor IDL accounts.
	IDLSeed = "anchor:idl"
)

var (
	ErrMaxSeedLengthExceeded = errors.New("address: seed length exceeded")
	ErrTooManySeeds          = errors.New("address: too many seeds")
	ErrOnCurve               = errors.New("address: derived address is on the ed25519 curve")
	ErrNoViableBump          = errors.New("address: no viable bump seed")
	ErrIllegalOwner          = errors.New("address: owner is a program derived address marker")
)

// Deriver maps a program to the address of its IDL record.
type Deriver interface {
	RecordAddress(program Identifier) (Identifier, error)
}

// AnchorIDL derives IDL record addresses the way Anchor's IdlAccount does:
// create_with_seed(find_program_address([], program), "anchor:idl", program).
type AnchorIDL struct{}

func (AnchorIDL) RecordAddress(program Identifier) (Identifier, error) {
	base, _, err := FindProgramAddress(nil, program)
	if err != nil {
		return Identifier{}, fmt.Errorf("idl signer: %w", err)
	}
	return CreateWithSeed(base, IDLSeed, program)
}

// CreateProgramAddress derives a program address from seeds and rejects
// results that are valid ed25519 points.
func CreateProgramAddress(seeds [][]byte, program Identifier) (Identifier, error) {
	if err := checkSeeds(seeds, MaxSeeds); err != nil {
		return Identifier{}, err
	}
	pk, err := solana.CreateProgramAddress(seeds, solana.PublicKey(program))
	if err != nil {
		return Identifier{}, fmt.Errorf("%w: %v", ErrOnCurve, err)
	}
	return Identifier(pk), nil
}

// FindProgramAddress searches bump seeds from 255 down and returns the first
// off-curve address together with its bump.
func FindProgramAddress(seeds [][]byte, program Identifier) (Identifier, uint8, error) {
	if err := checkSeeds(seeds, MaxSeeds-1); err != nil {
		return Identifier{}, 0, err
	}
	pk, bump, err := solana.FindProgramAddress(seeds, solana.PublicKey(program))
	if err != nil {
		return Identifier{}, 0, fmt.Errorf("%w: %v", ErrNoViableBump, err)
	}
	return Identifier(pk), bump, nil
}

// CreateWithSeed returns sha256(base || seed || owner).
func CreateWithSeed(base Identifier, seed string, owner Identifier) (Identifier, error) {
	if len(seed) > MaxSeedLen {
		return Identifier{}, ErrMaxSeedLengthExceeded
	}
	if bytes.HasSuffix(owner[:], []byte(pdaMarker)) {
		return Identifier{}, ErrIllegalOwner
	}
	pk, err := solana.CreateWithSeed(solana.PublicKey(base), seed, solana.PublicKey(owner))
	if err != nil {
		return Identifier{}, err
	}
	return Identifier(pk), nil
}

// IsOnCurve reports whether id decodes as an ed25519 point.
func IsOnCurve(id Identifier) bool {
	return solana.IsOnCurve(id[:])
}

// checkSeeds applies the runtime seed limits up front so callers get a
// specific error instead of a failed search.
func checkSeeds(seeds [][]byte, maxSeeds int) error {
	if len(seeds) > maxSeeds {
		return ErrTooManySeeds
	}
	for _, seed := range seeds {
		if len(seed) > MaxSeedLen {
			return ErrMaxSeedLengthExceeded
		}
	}
	return nil
}
