package cli

import (
	"github.com/urfave/cli/v2"

	"go.viam.com/meshscan/config"
)

// SchemaAction prints the JSON schema of the scan config file.
func SchemaAction(c *cli.Context) error {
	schema, err := config.Schema()
	if err != nil {
		return err
	}
	printf(c.App.Writer, "%s", schema)
	return nil
}
