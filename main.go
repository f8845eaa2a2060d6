package main

import "github.com/KaramelBytes/autoclean-cli/cmd"

func main() {
	cmd.Execute()
}
