package main

import "github.com/bryanchriswhite/focuswm/cmd/focuswm/commands"

func main() {
	commands.Execute()
}
