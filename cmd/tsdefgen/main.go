package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"

	"github.com/tsdefgen/tsdefgen/cmd/tsdefgen/internal/check"
	"github.com/tsdefgen/tsdefgen/cmd/tsdefgen/internal/gen"
	"github.com/tsdefgen/tsdefgen/cmd/tsdefgen/internal/input"
	"github.com/tsdefgen/tsdefgen/cmd/tsdefgen/internal/serve"
)

type CLI struct {
	LogLevel  string `help:"Log level." default:"info" enum:"debug,info,warn,error" name:"log-level"`
	LogFormat string `help:"Log format: auto picks console on a terminal." default:"auto" enum:"auto,console,json" name:"log-format"`

	Version VersionCmd `cmd:"" help:"Print version information."`
	Gen     gen.Cmd    `cmd:"" help:"Generate TypeScript definitions."`
	Check   check.Cmd  `cmd:"" help:"Load and validate the input without writing files."`
	Serve   serve.Cmd  `cmd:"" help:"Serve POST /emit for editors and build tools."`
}

type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Println(Version())
	return nil
}

func newLogger(level, format string, out io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	console := format == "console"
	if format == "auto" {
		if f, ok := out.(*os.File); ok {
			console = isatty.IsTerminal(f.Fd())
		}
	}
	if console {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

func main() {
	cli := &CLI{}
	kctx := kong.Parse(cli,
		kong.Name("tsdefgen"),
		kong.Description("Generate TypeScript definition files from Go packages or type models."),
		kong.UsageOnError(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	globals := &input.Globals{
		Ctx:    ctx,
		Logger: newLogger(cli.LogLevel, cli.LogFormat, os.Stderr),
	}
	err := kctx.Run(globals)
	kctx.FatalIfErrorf(err)
}
