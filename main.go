package main

import "github.com/bbernhard/emotion-playground/cmd"

func main() {
	cmd.Execute()
}
