package common

import (
	"log"
	"os"
)

var logger = log.New(os.Stderr, "[vgmgate] ", log.LstdFlags|log.Lmicroseconds)

func Logf(format string, v ...any) {
	logger.Printf(format, v...)
}

func Fatalf(format string, v ...any) {
	logger.Fatalf(format, v...)
}
