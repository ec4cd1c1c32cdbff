// Copyright 2026 Open Targets.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions
// are met:
//
// 1. Redistributions of source code must retain the above copyright
// notice, this list of conditions and the following disclaimer.
//
// 2. Redistributions in binary form must reproduce the above copyright
// notice, this list of conditions and the following disclaimer in the
// documentation and/or other materials provided with the distribution.
//
// 3. Neither the name of the copyright holder nor the names of its
// contributors may be used to endorse or promote products derived
// from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND
// CONTRIBUTORS "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES,
// INCLUDING, BUT NOT LIMITED TO, THE IMPLIED WARRANTIES OF
// MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
// DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR
// CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
// SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING,
// BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
// SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY,
// WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING
// NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH
// DAMAGE.

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jaffee/commandeer"
	"github.com/opentargets/otgraph/generate"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// NewGenerateCommand returns a new cobra command wrapping a generate.Main.
// Interrupts cancel the run and the records written so far are flushed.
func NewGenerateCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	m := generate.NewMain()
	m.SetOutput(stdout, stderr)
	generateCommand := &cobra.Command{
		Use:   "generate",
		Short: "generate nodes and edges from datasets",
		Long: `Reads the datasets named by a definitions file, from a directory,
a SQLite file or an S3 prefix, and writes the generated nodes and edges
as JSON lines to a file, stdout or Kafka.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := m.RunContext(ctx); err != nil {
				return errors.Wrap(err, "generating")
			}
			fmt.Fprintln(stderr, "Done:", time.Since(start))
			return nil
		},
	}
	flags := generateCommand.Flags()
	if err := commandeer.Flags(flags, m); err != nil {
		panic(err)
	}
	return generateCommand
}

func init() {
	subcommandFns["generate"] = NewGenerateCommand
}
