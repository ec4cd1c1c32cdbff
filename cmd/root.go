// Copyright 2017 Pilosa Corp.
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
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Release and BuiltAt are set at link time, e.g.
//
//	go build -ldflags "-X github.com/opentargets/otgraph/cmd.Release=24.06"
var (
	Release string
	BuiltAt string
)

// releaseInfo describes the running binary in one line.
func releaseInfo() string {
	release, built := Release, BuiltAt
	if release == "" {
		release = "dev"
	}
	if built == "" {
		built = "unknown"
	}
	return fmt.Sprintf("otgraph %s (built %s)", release, built)
}

// subcommandFns holds the constructors registered by each subcommand file.
var subcommandFns = map[string]func(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command{}

// NewRootCommand builds the otgraph command tree. Every subcommand reads
// its options from flags, OTGRAPH_* environment variables and the --config
// file, in that order of precedence.
func NewRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	rc := &cobra.Command{
		Use:   "otgraph",
		Short: "Build a knowledge graph out of platform datasets",
		Long: `otgraph scans platform datasets (JSON lines or Avro, on disk or in S3)
and turns their rows into graph nodes and edges described by YAML
definitions. Records are deduplicated by id and written as JSON lines or
to Kafka topics.

` + releaseInfo() + "\n",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setAllConfig(viper.New(), cmd.Flags(), "OTGRAPH")
		},
		SilenceUsage: true,
	}
	rc.PersistentFlags().StringP("config", "c", "", "TOML file of option values, keyed by flag name.")
	names := make([]string, 0, len(subcommandFns))
	for name := range subcommandFns {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		rc.AddCommand(subcommandFns[name](stdin, stdout, stderr))
	}
	rc.SetOutput(stderr)
	return rc
}

// setAllConfig fills every flag in flags that was not given on the command
// line, first from an environment variable named envPrefix_FLAG_NAME, then
// from the TOML file named by the "config" flag. Flag defaults apply last.
func setAllConfig(v *viper.Viper, flags *pflag.FlagSet, envPrefix string) error {
	if err := v.BindPFlags(flags); err != nil {
		return errors.Wrap(err, "binding flags")
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "reading config file %s", path)
		}
	}

	var setErr error
	flags.VisitAll(func(f *pflag.Flag) {
		// flags given explicitly win, and re-setting a slice flag would
		// append to it
		if setErr != nil || f.Changed {
			return
		}
		var value string
		switch f.Value.Type() {
		case "stringSlice":
			// a TOML array is not readable with GetString
			value = strings.Join(v.GetStringSlice(f.Name), ",")
		default:
			value = v.GetString(f.Name)
		}
		if err := f.Value.Set(value); err != nil {
			setErr = errors.Wrapf(err, "setting %s", f.Name)
		}
	})
	return setErr
}
