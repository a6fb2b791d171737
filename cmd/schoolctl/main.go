// Command schoolctl is the operator CLI of the school directory: it loads
// extracts, runs migrations and manages the client tag set from a shell.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(newApp()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "schoolctl:", err)
		os.Exit(1)
	}
}
