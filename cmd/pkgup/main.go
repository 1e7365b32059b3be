package main

import "github.com/pkgup/pkgup/cmd/pkgup/cmd"

func main() {
	cmd.Execute()
}
