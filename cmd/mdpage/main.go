package main

import "github.com/dgallion1/mdpage/internal/cli"

func main() {
	cli.Execute()
}
