package main

import "github.com/mkoval/tablestore-migrate/internal/cli"

func main() {
	cli.Execute()
}
