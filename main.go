package main

import "github.com/faceatlas/faceatlas/cmd"

func main() {
	cmd.Execute()
}
