package main

import "github.com/LeJamon/goFST/internal/cli"

func main() {
	cli.Execute()
}
