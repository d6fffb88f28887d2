// main.go
//
// Entry point; the cobra commands live in cmd/.

package main

import (
	"github.com/agentsim/agentsim/cmd"
)

func main() {
	cmd.Execute()
}
