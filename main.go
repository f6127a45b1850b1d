package main

import "github.com/sw33tLie/estform/cmd"

func main() {
	cmd.Execute()
}
