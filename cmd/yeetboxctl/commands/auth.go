package commands

import (
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/yeetbox/yeetbox/pkg/auth"
	"github.com/yeetbox/yeetbox/pkg/client"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authentication commands",
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Interactively negotiate a session against the server",
	Long: `Prompts for a SASL mechanism and, for PLAIN, credentials, then
calls Authenticate and prints the issued session token.

The token is bound to this one connection — it demonstrates the RPC but
doesn't carry over to a later yeetboxctl invocation, which authenticates
fresh on its own connection (see the root command help).`,
	RunE: runLogin,
}

func init() {
	authCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	mechs, err := promptAvailableMechanisms(cmd)
	if err != nil {
		return err
	}

	selected, err := promptSelectMechanism(mechs)
	if err != nil {
		return err
	}

	var assertion []byte
	if selected == auth.MechanismPLAIN {
		authcid, password, err = promptCredentials()
		if err != nil {
			return err
		}
		assertion = []byte("\x00" + authcid + "\x00" + password)
	}

	c := client.New(serverAddr)
	anon, err := c.Authenticate(cmd.Context(), selected, assertion)
	if err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}

	fmt.Printf("Authenticated (anonymous=%v)\n", anon)
	fmt.Printf("Session token: %s\n", c.Token())
	return nil
}

func promptAvailableMechanisms(cmd *cobra.Command) ([]string, error) {
	c := client.New(serverAddr)
	mechs, err := c.AvailableMechanisms(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("list mechanisms: %w", err)
	}
	return mechs, nil
}

func promptSelectMechanism(mechs []string) (string, error) {
	prompt := promptui.Select{
		Label: "Select authentication mechanism",
		Items: mechs,
	}
	_, selected, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("mechanism prompt: %w", err)
	}
	return selected, nil
}

func promptCredentials() (string, string, error) {
	userPrompt := promptui.Prompt{Label: "Username"}
	user, err := userPrompt.Run()
	if err != nil {
		return "", "", fmt.Errorf("username prompt: %w", err)
	}

	passPrompt := promptui.Prompt{Label: "Password", Mask: '*'}
	pass, err := passPrompt.Run()
	if err != nil {
		return "", "", fmt.Errorf("password prompt: %w", err)
	}
	return user, pass, nil
}
