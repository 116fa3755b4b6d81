// Package main provides the apexsim command line.
// apexsim runs APEX assembly programs on the cycle-accurate out-of-order
// core and reports timing and architectural state.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
