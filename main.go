package main

import (
	"github.com/axellelanca/trackit/cmd"
	_ "github.com/axellelanca/trackit/cmd/cli"
	_ "github.com/axellelanca/trackit/cmd/server"
)

func main() {
	cmd.Execute()
}
