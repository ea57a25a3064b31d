package main

import "github.com/esaepulloh/bikedash/cmd"

func main() {
	cmd.Execute()
}
