//go:build !darwin && !linux
// +build !darwin,!linux

package logger

import (
	"io"
	"os"
)

const SupportsColorEscapes = false

func GetTerminalInfo(*os.File) TerminalInfo {
	return TerminalInfo{}
}

func writeStringWithColor(w io.Writer, text string) {
	io.WriteString(w, text)
}
