//go:build !unix

package main

import "os"

func terminalWidth(file *os.File) int {
	return 0
}
