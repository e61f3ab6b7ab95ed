package main

import (
	"dpstore/cmd"
)

func main() {
	cmd.Execute()
}
