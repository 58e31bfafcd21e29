package cmd

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/medubelko/snapcraft/pkg/datadir"
	"github.com/medubelko/snapcraft/pkg/store"
)

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Log in to the snap store",
		Long: `Authenticates against the snap store and saves the credentials.

If you do not have an Ubuntu One account, you can create one at
https://snapcraft.io/account.`,
		RunE: runLogin,
	}
}

func runLogin(cmd *cobra.Command, args []string) error {
	client, err := storeClient()
	if err != nil {
		return err
	}

	email, password, err := promptCredentials()
	if err != nil {
		return err
	}

	err = client.Login(cmd.Context(), email, password, "")
	var tfa *store.TwoFactorRequiredError
	if errors.As(err, &tfa) {
		otp, perr := promptOTP()
		if perr != nil {
			return perr
		}
		err = client.Login(cmd.Context(), email, password, otp)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Login successful. You are now logged in as %q.\n", email)
	return nil
}

func promptCredentials() (email, password string, err error) {
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Value(&email),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&password),
		),
	).Run()
	if err != nil {
		return "", "", fmt.Errorf("login prompt failed: %w", err)
	}
	return email, password, nil
}

func promptOTP() (string, error) {
	var otp string
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Second-factor auth").
				Value(&otp),
		),
	).Run()
	if err != nil {
		return "", fmt.Errorf("second-factor prompt failed: %w", err)
	}
	return otp, nil
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out of the snap store",
		Long:  "Discards the saved snap store credentials.",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := datadir.Default()
			if err != nil {
				return err
			}
			data.RemoveCredentials()
			fmt.Fprintln(cmd.OutOrStdout(), "Credentials cleared.")
			return nil
		},
	}
}
