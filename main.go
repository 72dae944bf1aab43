// Copyright 2025 The Agrovet Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/agrosoil/agrovet/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
