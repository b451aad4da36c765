// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/monobuild/monobuild/cmd/monobuild"

func main() {
	cmd.Execute()
}
