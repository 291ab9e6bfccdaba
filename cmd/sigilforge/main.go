// cmd/sigilforge/main.go
//
// This is the entry point for the sigilforge CLI. Running `sigilforge` with
// no subcommand opens the interactive builder for the current directory.

package main

func main() {
	Execute()
}
