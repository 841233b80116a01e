// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Command modrinth downloads the mods and datapacks listed in a manifest.
package main

import (
	"os"

	"github.com/z5labs/minecraft/internal/cli"
)

func main() {
	os.Exit(cli.Execute(newCommand()))
}
