// SPDX-License-Identifier: MPL-2.0

// keg builds option-driven formulas from source into a Homebrew-style prefix.
package main

import "github.com/gammamatrix/homebrew-apache/cmd/keg"

func main() {
	cmd.Execute()
}
