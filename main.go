// SPDX-License-Identifier: MPL-2.0

package main

import "github.com/invowk/execstream/cmd/execstream"

func main() {
	cmd.Execute()
}
