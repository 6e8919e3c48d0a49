package logger

import (
	"io"
	"log"
)

// Null discards messages. Tests use it.
func Null() *log.Logger {
	return log.New(io.Discard, "", log.LstdFlags)
}

func Default() *log.Logger {
	return log.Default()
}
