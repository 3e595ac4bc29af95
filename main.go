package main

import "github.com/fakeyudi/venvterm/cmd"

func main() {
	cmd.Execute()
}
