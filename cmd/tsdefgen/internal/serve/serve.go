package serve

import (
	"github.com/tsdefgen/tsdefgen/cmd/tsdefgen/internal/input"
	"github.com/tsdefgen/tsdefgen/config"
	"github.com/tsdefgen/tsdefgen/internal/server"
)

type Cmd struct {
	Addr        string   `help:"Address to listen on." default:":9000" short:"a"`
	Config      string   `help:"Override file for default settings (default: discovered from the current directory)." short:"c" type:"existingfile"`
	MaxBodySize int64    `help:"Largest accepted request body in bytes." default:"4194304" name:"max-body-size"`
	Mask        bool     `help:"Hide internal error messages from clients." name:"mask-internal-errors"`
	AllowOrigin []string `help:"Origins browsers may call from; \"*\" allows any." name:"allow-origin"`
}

func (c *Cmd) Run(g *input.Globals) error {
	var (
		settings config.Settings
		err      error
	)
	if c.Config != "" {
		settings, err = config.Load(c.Config)
	} else {
		settings, _, err = config.Discover(".")
	}
	if err != nil {
		return err
	}

	opts := []server.Option{
		server.WithLogger(g.Logger),
		server.WithSettings(settings),
		server.WithMaxBodySize(c.MaxBodySize),
	}
	if c.Mask {
		opts = append(opts, server.WithMaskInternalErrors())
	}
	if len(c.AllowOrigin) > 0 {
		opts = append(opts, server.WithAllowedOrigins(c.AllowOrigin...))
	}
	return server.New(opts...).ListenAndServe(g.Ctx, c.Addr)
}
