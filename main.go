package main

import "github.com/matt-g-everett/ledmotion/cmd"

func main() {
	cmd.Execute()
}
