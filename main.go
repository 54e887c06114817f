package main

import (
	"github.com/paglaai/paglachat/cmd"
)

func main() {
	cmd.Execute()
}
