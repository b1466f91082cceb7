package check

import (
	"fmt"

	"github.com/tsdefgen/tsdefgen/cmd/tsdefgen/internal/input"
	"github.com/tsdefgen/tsdefgen/internal/errors"
)

type Cmd struct {
	input.Source `embed:""`
}

func (c *Cmd) Run(g *input.Globals) error {
	settings, err := c.Settings(g.Logger)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Settings: %s\n", settingsOrigin(settings.Source))

	schema, err := c.Generator(settings, g.Logger).Schema(g.Ctx)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Found %d declarations\n", len(schema.Declarations))

	for _, w := range schema.Warnings {
		fmt.Printf("! %s\n", w)
	}

	if errs := schema.Validate(); len(errs) > 0 {
		for _, e := range errs {
			fmt.Printf("✗ %s\n", e)
		}
		return errors.Newf("%d problems found", len(errs))
	}
	fmt.Println("✓ Model is valid")
	return nil
}

func settingsOrigin(source string) string {
	if source == "" {
		return "defaults"
	}
	return source
}
