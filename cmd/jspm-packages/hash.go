package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	apperrors "github.com/jspm/jspm-packages/internal/errors"
	"github.com/jspm/jspm-packages/pkg/hasher"
	"github.com/jspm/jspm-packages/pkg/islands"
)

func hashCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hash",
		Short: "Encode and decode generator hashes",
	}
	cmd.AddCommand(hashEncodeCmd(), hashDecodeCmd())
	return cmd
}

func hashEncodeCmd() *cobra.Command {
	var (
		link      bool
		generator string
	)

	cmd := &cobra.Command{
		Use:   "encode <dep>...",
		Short: "Print the generator hash for a dependency selection",
		Long: `Print the generator hash for a dependency selection.

Examples:
  jspm-packages hash encode react@18.2.0 react-dom@18.2.0/client
  jspm-packages hash encode --link lit@3.1.0`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := hasher.LocalService{}.Hash(cmd.Context(), hasher.DescriptorFor(args))
			if err != nil {
				return apperrors.New("J101").Wrap(err)
			}
			if link {
				h = islands.GeneratorURL(generator, h)
			}
			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&link, "link", "l", false, "Print the generator link instead of the bare hash")
	cmd.Flags().StringVar(&generator, "generator", islands.DefaultGeneratorURL, "Generator base URL for --link")
	return cmd
}

func hashDecodeCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "decode <hash>",
		Short: "Print the dependency selection encoded in a hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash := args[0]
			// Accept a full generator link.
			if i := strings.LastIndexByte(hash, '#'); i >= 0 {
				hash = hash[i+1:]
			}
			d, err := hasher.DecodeLocal(hash)
			if err != nil {
				return apperrors.New("J102").Wrap(err).WithDetail(err.Error())
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(d)
			}
			for _, dep := range d.Deps() {
				fmt.Fprintln(out, dep)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw descriptor")
	return cmd
}
