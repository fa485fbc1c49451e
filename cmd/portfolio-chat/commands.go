package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"portfolio.dev/chat-assistant/internal/core"
	"portfolio.dev/chat-assistant/internal/profile"
)

// --- ask ---

func newAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask one question in-process and print the reply",
		Long: `Ask one question in-process and print the reply.

Examples:
  portfolio-chat ask "What projects have you built?"
  portfolio-chat ask --action whyhire`,
		RunE: func(cmd *cobra.Command, args []string) error {
			actionID, _ := cmd.Flags().GetString("action")
			question := strings.Join(args, " ")
			if actionID == "" && strings.TrimSpace(question) == "" {
				return errors.New("a question or --action is required")
			}

			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			// The CLI keeps nothing between runs and has no typing indicator to show.
			cfg.Store.Driver = "memory"
			cfg.Chat.CardDelay = 0

			a, err := newApp(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			chat, err := a.chatService.CreateChat(cmd.Context())
			if err != nil {
				return err
			}

			var ex *core.Exchange
			if actionID != "" {
				ex, err = a.chatService.QuickAction(cmd.Context(), chat.ID, actionID)
			} else {
				ex, err = a.chatService.Send(cmd.Context(), chat.ID, question)
			}
			if err != nil {
				return err
			}
			return printExchange(cmd.OutOrStdout(), ex)
		},
	}
	cmd.Flags().String("action", "", "quick action id (about, projects, skills, experience, contact, resume, whyhire)")
	return cmd
}

func printExchange(w io.Writer, ex *core.Exchange) error {
	fmt.Fprintf(w, "You: %s\n", ex.User.Content)
	fmt.Fprintf(w, "Assistant [%s]: %s\n", ex.Assistant.Type, ex.Assistant.Content)

	if ex.Assistant.Data == nil {
		return nil
	}
	card, ok := core.RenderCard(ex.Assistant.Type, ex.Assistant.Data)
	if !ok {
		return nil
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(card)
}

// --- classify ---

func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify [text]",
		Short: "Print the category a message would be answered with",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), core.Classify(strings.Join(args, " ")))
			return nil
		},
	}
}

// --- profile ---

func newProfileCmd() *cobra.Command {
	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "Inspect the profile document",
	}

	validateCmd := &cobra.Command{
		Use:   "validate [path]",
		Short: "Validate a profile document against the schema (default: the built-in profile)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				p   *profile.Profile
				err error
			)
			source := "built-in profile"
			if len(args) == 1 {
				source = args[0]
				p, err = profile.Load(args[0])
			} else {
				p = profile.Default()
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is valid: %s, %d projects, %d skill groups\n",
				source, p.Name, len(p.Projects), len(p.SkillGroups()))
			return nil
		},
	}

	profileCmd.AddCommand(validateCmd)
	return profileCmd
}
