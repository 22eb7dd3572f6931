// SPDX-License-Identifier: MPL-2.0

// Command rig is a declarative task runner.
package main

import "github.com/riglabs/rig/cmd/rig"

func main() {
	cmd.Execute()
}
