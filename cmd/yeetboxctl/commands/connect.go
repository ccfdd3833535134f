package commands

import (
	"context"
	"fmt"

	"github.com/yeetbox/yeetbox/pkg/auth"
	"github.com/yeetbox/yeetbox/pkg/client"
)

// connectAndAuthenticate opens a client against --server and negotiates
// --mechanism on it, per the root command's note: authentication is
// per-connection, so every command that touches the filesystem does this
// once at the start of its own run.
func connectAndAuthenticate(ctx context.Context) (*client.Client, error) {
	c := client.New(serverAddr)

	assertion, err := buildAssertion()
	if err != nil {
		return nil, err
	}

	if _, err := c.Authenticate(ctx, mechanism, assertion); err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	return c, nil
}

func buildAssertion() ([]byte, error) {
	switch mechanism {
	case auth.MechanismANONYMOUS:
		return nil, nil
	case auth.MechanismPLAIN:
		if authcid == "" {
			return nil, fmt.Errorf("--user is required for PLAIN mechanism")
		}
		return []byte("\x00" + authcid + "\x00" + password), nil
	default:
		return nil, fmt.Errorf("unknown mechanism: %s", mechanism)
	}
}
