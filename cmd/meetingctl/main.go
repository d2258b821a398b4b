// Package main runs the meetingctl control CLI.
package main

import "github.com/meetinghub/meetingd/internal/cli"

func main() {
	cli.Execute()
}
