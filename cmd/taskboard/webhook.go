package main

import (
	"fmt"

	"github.com/dkovalov/taskboard/internal/bot"
	"github.com/dkovalov/taskboard/internal/config"
	"github.com/spf13/cobra"
)

func newWebhookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Manage the Telegram webhook registration",
	}

	cmd.AddCommand(newWebhookSetCmd())
	cmd.AddCommand(newWebhookInfoCmd())
	cmd.AddCommand(newWebhookDeleteCmd())
	return cmd
}

func newWebhookSetCmd() *cobra.Command {
	var configPath string
	var deleteFirst bool

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Register the configured webhook URL with Telegram",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, client, err := webhookClient(configPath)
			if err != nil {
				return err
			}
			if cfg.Telegram.WebhookURL == "" {
				return fmt.Errorf("telegram.webhook_url is not configured in %s", configPath)
			}

			ctx := cmd.Context()
			if deleteFirst {
				fmt.Fprintln(cmd.OutOrStdout(), "Deleting existing webhook...")
				if err := client.DeleteWebhook(ctx); err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Setting webhook to: %s\n", cfg.Telegram.WebhookURL)
			if err := client.SetWebhook(ctx, cfg.Telegram.WebhookURL); err != nil {
				return err
			}

			info, err := client.GetWebhookInfo(ctx)
			if err != nil {
				return err
			}
			printWebhookInfo(cmd, info)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "taskboard.yaml", "path to config file")
	cmd.Flags().BoolVar(&deleteFirst, "delete", false, "delete the webhook before setting it")
	return cmd
}

func newWebhookInfoCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show the current webhook registration",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, client, err := webhookClient(configPath)
			if err != nil {
				return err
			}
			info, err := client.GetWebhookInfo(cmd.Context())
			if err != nil {
				return err
			}
			printWebhookInfo(cmd, info)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "taskboard.yaml", "path to config file")
	return cmd
}

func newWebhookDeleteCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Remove the webhook registration",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, client, err := webhookClient(configPath)
			if err != nil {
				return err
			}
			if err := client.DeleteWebhook(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Webhook deleted.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "taskboard.yaml", "path to config file")
	return cmd
}

// webhookClient loads config and builds a Telegram client from it.
func webhookClient(configPath string) (*config.Config, *bot.Client, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	client, err := bot.NewClient(bot.ClientOpts{
		Token:   cfg.Telegram.BotToken,
		Timeout: cfg.Telegram.SendTimeout,
	})
	if err != nil {
		return nil, nil, err
	}
	return cfg, client, nil
}

func printWebhookInfo(cmd *cobra.Command, info *bot.WebhookInfo) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "URL:             %s\n", info.URL)
	fmt.Fprintf(out, "Pending updates: %d\n", info.PendingUpdateCount)
	if info.LastErrorMessage != "" {
		fmt.Fprintf(out, "Last error:      %s\n", info.LastErrorMessage)
	}
}
