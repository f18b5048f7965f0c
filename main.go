// Package main provides the entry point for the authcore service.
// It initializes and runs the authentication session lifecycle engine:
// continuous validation and refresh of identity provider sessions, role
// resolution against the relational store, a background session monitor,
// and a small JSON web surface the rest of the platform consumes.
package main

import (
	"os"

	"github.com/alexandrevcalmon/authcore/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
