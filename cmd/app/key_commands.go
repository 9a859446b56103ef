package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/sanctumapp/sanctum/cmd/app/commands"
	"github.com/sanctumapp/sanctum/internal/app"
	"github.com/sanctumapp/sanctum/internal/config"
)

func emailFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "email",
		Aliases:  []string{"e"},
		Required: true,
		Usage:    "Account email address",
	}
}

func getKeyCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "setup-protection",
			Usage: "Generate a data key and recovery phrase for an account with no key record",
			Flags: []cli.Flag{
				emailFlag(),
				&cli.StringFlag{
					Name:     "password",
					Aliases:  []string{"p"},
					Required: true,
					Usage:    "Account password",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				userUseCase, err := container.UserUseCase()
				if err != nil {
					return err
				}
				lifecycleUseCase, err := container.LifecycleUseCase()
				if err != nil {
					return err
				}

				return commands.RunSetupProtection(
					ctx,
					userUseCase,
					lifecycleUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("email"),
					cmd.String("password"),
				)
			},
		},
		{
			Name:  "unlock",
			Usage: "Verify that the password unwraps the account data key",
			Flags: []cli.Flag{
				emailFlag(),
				&cli.StringFlag{
					Name:     "password",
					Aliases:  []string{"p"},
					Required: true,
					Usage:    "Account password",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				userUseCase, err := container.UserUseCase()
				if err != nil {
					return err
				}
				lifecycleUseCase, err := container.LifecycleUseCase()
				if err != nil {
					return err
				}

				return commands.RunUnlock(
					ctx,
					userUseCase,
					lifecycleUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("email"),
					cmd.String("password"),
				)
			},
		},
		{
			Name:  "change-password",
			Usage: "Re-wrap the data key and login hash under a new password",
			Flags: []cli.Flag{
				emailFlag(),
				&cli.StringFlag{
					Name:     "old-password",
					Required: true,
					Usage:    "Current account password",
				},
				&cli.StringFlag{
					Name:     "new-password",
					Required: true,
					Usage:    "New account password",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				userUseCase, err := container.UserUseCase()
				if err != nil {
					return err
				}
				lifecycleUseCase, err := container.LifecycleUseCase()
				if err != nil {
					return err
				}

				return commands.RunChangePassword(
					ctx,
					userUseCase,
					lifecycleUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("email"),
					cmd.String("old-password"),
					cmd.String("new-password"),
				)
			},
		},
		{
			Name:  "recover-account",
			Usage: "Reset the password using the recovery phrase",
			Flags: []cli.Flag{
				emailFlag(),
				&cli.StringFlag{
					Name:     "recovery-phrase",
					Required: true,
					Usage:    "The recovery phrase shown at setup or migration",
				},
				&cli.StringFlag{
					Name:     "new-password",
					Required: true,
					Usage:    "New account password",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				userUseCase, err := container.UserUseCase()
				if err != nil {
					return err
				}
				lifecycleUseCase, err := container.LifecycleUseCase()
				if err != nil {
					return err
				}

				return commands.RunRecoverAccount(
					ctx,
					userUseCase,
					lifecycleUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("email"),
					cmd.String("recovery-phrase"),
					cmd.String("new-password"),
				)
			},
		},
		{
			Name:  "show-recovery-phrase",
			Usage: "Decrypt and display the stored recovery phrase",
			Flags: []cli.Flag{
				emailFlag(),
				&cli.StringFlag{
					Name:     "password",
					Aliases:  []string{"p"},
					Required: true,
					Usage:    "Account password",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				userUseCase, err := container.UserUseCase()
				if err != nil {
					return err
				}
				lifecycleUseCase, err := container.LifecycleUseCase()
				if err != nil {
					return err
				}

				return commands.RunShowRecoveryPhrase(
					ctx,
					userUseCase,
					lifecycleUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("email"),
					cmd.String("password"),
				)
			},
		},
		{
			Name:  "migrate-user",
			Usage: "Re-encrypt an account's legacy content under a fresh data key",
			Flags: []cli.Flag{
				emailFlag(),
				&cli.StringFlag{
					Name:     "password",
					Aliases:  []string{"p"},
					Required: true,
					Usage:    "Account password",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				userUseCase, err := container.UserUseCase()
				if err != nil {
					return err
				}
				migrationUseCase, err := container.MigrationUseCase()
				if err != nil {
					return err
				}

				return commands.RunMigrateUser(
					ctx,
					userUseCase,
					migrationUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("email"),
					cmd.String("password"),
					cmd.String("format"),
				)
			},
		},
	}
}
