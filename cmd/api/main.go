// Package main is the entry point for the NightSpot API.
// Its sole responsibility is wiring dependencies together and running the
// requested command. No business logic belongs here.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
