package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"storycanvas/internal/reveal"
	"storycanvas/internal/tagging"
)

func tagCmd() *cobra.Command {
	var ideas []string
	cmd := &cobra.Command{
		Use:   "tag [file|-]",
		Short: "Wrap idea names found in an HTML document with tag markup",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			names := make([]string, 0, len(ideas))
			for _, name := range ideas {
				if name = strings.TrimSpace(name); name != "" {
					names = append(names, name)
				}
			}
			tagged, matches := tagging.TagWithStats(content, names)
			fmt.Fprint(cmd.OutOrStdout(), tagged)
			for _, name := range names {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %d\n", name, matches[name])
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&ideas, "ideas", nil, "comma separated idea names")
	_ = cmd.MarkFlagRequired("ideas")
	return cmd
}

func wordCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "wordcount [file|-]",
		Short: "Count the words of an HTML document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tagging.WordCount(content))
			return nil
		},
	}
}

func revealCmd() *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "reveal <text>",
		Short: "Print text with the typewriter effect",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			out := cmd.OutOrStdout()
			written := 0
			for frame := range reveal.New(args[0], interval).Frames(ctx) {
				fmt.Fprint(out, frame.Text[written:])
				written = len(frame.Text)
			}
			fmt.Fprintln(out)
			return ctx.Err()
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", reveal.DefaultInterval, "delay between two characters")
	return cmd
}

// readInput reads the file named by args[0], or stdin for "-" or no argument.
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		raw, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(raw), nil
	}
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", args[0], err)
	}
	return string(raw), nil
}
