// SPDX-License-Identifier: MPL-2.0

package formula

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/pelletier/go-toml/v2"

	"github.com/gammamatrix/homebrew-apache/pkg/cueutil"
)

// parseTOML decodes the TOML encoding of a formula. Unknown keys are
// rejected so typos do not silently drop configuration.
func parseTOML(data []byte, filename string) (*Formula, error) {
	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, filename); err != nil {
		return nil, err
	}

	var f Formula
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return nil, fmt.Errorf("%s:%d:%d: %s", filename, row, col, decodeErr.Error())
		}
		var strictErr *toml.StrictMissingError
		if errors.As(err, &strictErr) {
			return nil, fmt.Errorf("%s: %s", filename, strictErr.String())
		}
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return &f, nil
}
