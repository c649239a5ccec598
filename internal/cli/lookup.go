package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/ppiankov/estlookup/internal/model"
	"github.com/ppiankov/estlookup/internal/pipeline"
)

var (
	lookupReq     model.LookupRequest
	lookupSource  string
	lookupTimeout time.Duration
	lookupCompact bool
)

// lookupCmd represents the lookup command
var lookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Resolve one identifier and print the JSON response",
	Long: `Lookup runs a single source and prints the same JSON the HTTP
endpoint returns.

Example:
  estlookup lookup --source local-table --est 969
  estlookup lookup --source structured-api --est 969 --prefix P
  estlookup lookup --source packager-code --cc fr --num 35.360.003 --sfx ce`,
	Args: cobra.NoArgs,
	RunE: runLookup,
}

func init() {
	rootCmd.AddCommand(lookupCmd)

	lookupCmd.Flags().StringVarP(&lookupSource, "source", "s", "", "source selector (required)")
	lookupCmd.Flags().StringVar(&lookupReq.EstablishmentCode, "est", "", "establishment number")
	lookupCmd.Flags().StringVar(&lookupReq.Prefix, "prefix", model.DefaultPrefix, "facility-type prefix")
	lookupCmd.Flags().StringVar(&lookupReq.CountryCode, "cc", "", "packager country code")
	lookupCmd.Flags().StringVar(&lookupReq.SequenceNumber, "num", "", "packager number")
	lookupCmd.Flags().StringVar(&lookupReq.Suffix, "sfx", "", "packager suffix")
	lookupCmd.Flags().DurationVar(&lookupTimeout, "timeout", 2*time.Minute, "overall lookup timeout")
	lookupCmd.Flags().BoolVar(&lookupCompact, "compact", false, "print single-line JSON")
	_ = lookupCmd.MarkFlagRequired("source")
}

func runLookup(cmd *cobra.Command, args []string) error {
	src, err := model.ParseSource(lookupSource)
	if err != nil {
		return err
	}
	req := lookupReq
	req.Source = src

	ctx, cancel := context.WithTimeout(cmd.Context(), lookupTimeout)
	defer cancel()

	resolver := pipeline.NewResolverFromConfig(appCfg, newFetcher(appCfg))
	res := resolver.Resolve(ctx, req)

	var out []byte
	if lookupCompact {
		out, err = json.Marshal(res)
	} else {
		out, err = json.MarshalIndent(res, "", "  ")
	}
	if err != nil {
		return eris.Wrap(err, "lookup: encode result")
	}

	fmt.Fprintln(os.Stdout, string(out))
	return nil
}
