package main

import (
	"context"
	"fmt"

	"github.com/lex00/simple-mail-api-go/internal/config"
	"github.com/lex00/simple-mail-api-go/internal/logger"
	"github.com/lex00/simple-mail-api-go/internal/mailapi"
	"github.com/lex00/simple-mail-api-go/internal/sender"
	"github.com/lex00/simple-mail-api-go/internal/stack"
)

// newResolver creates the SSM resolver used in lookup mode. Tests replace it.
var newResolver = func(ctx context.Context, region string) (sender.Resolver, error) {
	return sender.NewSSMResolver(ctx, region)
}

// appOptions translates the configuration into build options.
func appOptions(ctx context.Context, c *config.Config) (mailapi.Options, error) {
	mode, err := sender.ParseMode(c.Sender.Mode)
	if err != nil {
		return mailapi.Options{}, err
	}
	wiring, err := mailapi.ParseWiring(c.Wiring)
	if err != nil {
		return mailapi.Options{}, err
	}

	opts := mailapi.Options{
		Env:            c.Environment(),
		SenderRef:      c.Sender.Ref,
		SenderMode:     mode,
		StaticSender:   c.Sender.Address,
		DefinitionPath: c.Definition,
		Wiring:         wiring,
	}

	if mode == sender.ModeLookup {
		opts.Resolver, err = newResolver(ctx, c.Region)
		if err != nil {
			return mailapi.Options{}, err
		}
	}
	return opts, nil
}

// synthesize builds both stacks and synthesizes them in the configured format.
func synthesize(ctx context.Context, c *config.Config) (*stack.Assembly, error) {
	opts, err := appOptions(ctx, c)
	if err != nil {
		return nil, err
	}

	app, err := mailapi.Build(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("build failed: %w", err)
	}

	asm, err := app.Synth(c.Format)
	if err != nil {
		return nil, fmt.Errorf("synth failed: %w", err)
	}

	logger.Logger.Debugw("assembly synthesized", "stacks", asm.StackNames())
	return asm, nil
}
