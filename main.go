package main

import (
	"github.com/foomo/nessiecatalog/cmd"
)

func main() {
	cmd.Execute()
}
