package main

import "github.com/gohydro/gohydro/cmd"

func main() {
	cmd.Execute()
}
