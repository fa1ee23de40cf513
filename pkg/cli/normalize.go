package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/getmockd/stubd/pkg/normalize"
)

func newNormalizeCmd() *cobra.Command {
	var (
		response bool
		pretty   bool
	)

	cmd := &cobra.Command{
		Use:   "normalize [file|-]",
		Short: "Repair double-encoded JSON",
		Long: `Read JSON text from a file (or stdin when the argument is "-" or absent)
and print it with one level of double encoding undone, the way the admin API
presents stored stubs.

With --response, the text is treated as a response spec: a double-encoded
"body" member is repaired as well.`,
		Example: `  # A string holding a JSON document
  echo '"{\"url\":\"/users\"}"' | stubd normalize

  # A response spec with an encoded body
  stubd normalize --response response.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			data, err := io.ReadAll(in)
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}

			text := string(bytes.TrimSpace(data))
			if _, err := normalize.Decode(text); err != nil {
				return fmt.Errorf("input is not JSON: %w", err)
			}

			v := normalize.Normalize(text)
			if response {
				v = normalize.New(nil).NormalizeResponse(text, "")
			}

			out := v.Canonical()
			if pretty {
				var buf bytes.Buffer
				if err := json.Indent(&buf, []byte(out), "", "  "); err != nil {
					return err
				}
				out = buf.String()
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().BoolVar(&response, "response", false, "Treat input as a response spec and repair its body")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Indent the output")
	return cmd
}
