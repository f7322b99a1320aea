// Entrypoint for the Cobra CLI; command wiring lives in cmd/root.go.

package main

import (
	"github.com/pkpdsim/pkpdsim/cmd"
)

func main() {
	cmd.Execute()
}
