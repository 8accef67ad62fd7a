// Package commands implements deskctl, a command line front end for the order-api.
package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/nimeshabuddhika/treasury-desk/pkg"
	"github.com/nimeshabuddhika/treasury-desk/pkg/client"
	"github.com/nimeshabuddhika/treasury-desk/pkg/utils"
	"github.com/spf13/cobra"
)

const defaultBaseURL = "http://localhost:8080"

type options struct {
	baseURL  string
	timeout  time.Duration
	output   string
	logLevel string
	out      io.Writer
}

// NewRootCommand builds the deskctl command tree writing results to out.
func NewRootCommand(out io.Writer) *cobra.Command {
	opts := &options{out: out}

	root := &cobra.Command{
		Use:           "deskctl",
		Short:         "Treasury desk command line client",
		Long:          `Submit and list treasury orders and query par yield curves through the order-api.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	baseURL := os.Getenv("DESK_API_URL")
	if utils.IsEmpty(baseURL) {
		baseURL = defaultBaseURL
	}
	root.PersistentFlags().StringVar(&opts.baseURL, "base-url", baseURL, "order-api base URL (env DESK_API_URL)")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "per-command timeout")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", "table", "output format: table or json")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level")

	root.AddCommand(newOrdersCommand(opts), newYieldsCommand(opts))
	return root
}

func (o *options) client() (*client.Client, error) {
	logger := pkg.NewLogger("", o.logLevel)
	return client.New(o.baseURL,
		client.WithLogger(logger),
		client.WithHTTPClient(utils.NewHTTPClient(
			utils.WithClientTimeout(o.timeout),
			utils.WithUserAgent("deskctl/1.0"),
		)),
	)
}

func (o *options) validateOutput() error {
	if o.output != "table" && o.output != "json" {
		return fmt.Errorf("unknown output format %q (table or json)", o.output)
	}
	return nil
}

func (o *options) printJSON(v any) error {
	enc := json.NewEncoder(o.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// describe turns API errors into one readable line including field problems.
func describe(err error) error {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	msg := fmt.Sprintf("%s (%s, status %d)", apiErr.Message, apiErr.Code, apiErr.Status)
	for _, f := range apiErr.Fields[min(1, len(apiErr.Fields)):] {
		msg += fmt.Sprintf("\n  %s: %s", f.Field, f.Message)
	}
	if apiErr.TraceID != "" {
		msg += "\n  trace id: " + apiErr.TraceID
	}
	return fmt.Errorf("%s", msg)
}
