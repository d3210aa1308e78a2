// © Copyright 2025-2026, r2a authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/istvan-fodor/r2a/server"
)

func newSchemasCommand(a *app) *cobra.Command {
	var flat bool
	cmd := &cobra.Command{
		Use:   "schemas",
		Short: "List the supported message types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			for _, name := range a.registry.SupportedSchemas() {
				if !flat {
					fmt.Fprintln(out, name)
					continue
				}
				s, err := a.registry.SchemaFor(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s\t%s\n", name, strings.Join(s.FlatFieldNames(), ","))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&flat, "flat", false, "also list the flat field paths of every type")
	return cmd
}

func newDescribeCommand(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "describe <type>",
		Short: "Describe the Arrow schema of a message type",
		Long: `Describe prints the fields of a message type with their ROS and Arrow
types. --output arrow writes the describe record batch as an Arrow IPC
stream instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := a.registry.SchemaFor(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch output {
			case "json":
				data, err := json.MarshalIndent(server.Describe(schema), "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, string(data))
				return err
			case "yaml":
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(server.Describe(schema)); err != nil {
					return err
				}
				return enc.Close()
			case "arrow":
				batch, err := server.DescribeBatch(a.registry, args)
				if err != nil {
					return err
				}
				defer batch.Release()
				w := ipc.NewWriter(out, ipc.WithSchema(batch.Schema()))
				if err := w.Write(batch); err != nil {
					return err
				}
				return w.Close()
			}
			return fmt.Errorf("unknown output %q (json, yaml, arrow)", output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "yaml", "output format: json, yaml or arrow")
	return cmd
}
