// SPDX-License-Identifier: MPL-2.0

package receipt

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

type (
	// Receipt is the record of one completed install.
	Receipt struct {
		ID          uuid.UUID `json:"id" yaml:"id"`
		Formula     string    `json:"formula" yaml:"formula"`
		Version     string    `json:"version" yaml:"version"`
		Options     []string  `json:"options" yaml:"options"`
		Args        []string  `json:"args" yaml:"args"`
		Keg         string    `json:"keg" yaml:"keg"`
		Fingerprint string    `json:"fingerprint" yaml:"fingerprint"`
		InstalledAt time.Time `json:"installed_at" yaml:"installed_at"`
	}
)

// New returns a receipt with a fresh time-ordered ID.
func New(formula, version, keg string, options, args []string, fingerprint string) Receipt {
	return Receipt{
		ID:          uuid.Must(uuid.NewV7()),
		Formula:     formula,
		Version:     version,
		Options:     options,
		Args:        args,
		Keg:         keg,
		Fingerprint: fingerprint,
		InstalledAt: time.Now().UTC(),
	}
}

// Fingerprint hashes everything that determines the installed bytes: the
// formula name and version, the ordered configure arguments and the
// rendered layout file.
func Fingerprint(formula, version string, args []string, layoutFile string) string {
	h := sha256.New()
	write := func(s string) {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	write(formula)
	write(version)
	for _, a := range args {
		write(a)
	}
	write(layoutFile)
	return hex.EncodeToString(h.Sum(nil))
}
