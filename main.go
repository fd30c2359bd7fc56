package main

import "github.com/example/vocabdrill/internal/cli"

func main() {
	cli.Execute()
}
