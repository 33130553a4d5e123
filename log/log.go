package log

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

type LogLevel int

const (
	LogLevel_None LogLevel = iota
	LogLevel_Error
	LogLevel_Warn
	LogLevel_Info
	LogLevel_Debug
)

var Level LogLevel = LogLevel_Info

// Output は、ログの出力先です。
var Output io.Writer = os.Stderr

var red = color.New(color.FgRed)
var cyan = color.New(color.FgCyan)
var yellow = color.New(color.FgYellow)

func Errorf(f string, args ...interface{}) {
	if LogLevel_Error <= Level {
		red.Fprintf(Output, "[ERROR] "+f+"\n", args...)
	}
}

func Warnf(f string, args ...interface{}) {
	if LogLevel_Warn <= Level {
		yellow.Fprintf(Output, "[WARNING] "+f+"\n", args...)
	}
}

func Infof(f string, args ...interface{}) {
	if LogLevel_Info <= Level {
		fmt.Fprintf(Output, f+"\n", args...)
	}
}

var indent = 0

func Debugf(f string, args ...interface{}) {
	if LogLevel_Debug <= Level {
		cyan.Fprintf(Output, strings.Repeat("  ", indent)+f+"\n", args...)
	}
}

func Enter() {
	indent++
}

func Leave() {
	if 0 < indent {
		indent--
	}
}
