// cmd/main.go
package main

import cmd "github.com/mwiater/jusbot/cmd/jusbot"

// main starts the jusbot CLI application by delegating to the cobra root
// command defined in the jusbot package.
func main() {
	cmd.Execute()
}
