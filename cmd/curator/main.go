package main

import "github.com/austiecodes/curator/internal/commands"

func main() {
	commands.Execute()
}
