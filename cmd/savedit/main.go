package main

import "github.com/jpl-au/savedit/cmd/savedit/cmd"

func main() {
	cmd.Execute()
}
