package main

import "github.com/devicelab-dev/pages-reporter/pkg/cli"

func main() {
	cli.Execute()
}
