package main

import (
	"context"
	"fmt"

	"github.com/smith3v/mood-tracker/pkg/app"
	"github.com/spf13/cobra"
)

var (
	loginName     string
	profileName   string
	profileAge    int
	profileWeight float64
	profileHeight float64
	profileGender string
	profileClear  []string
)

var loginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Sign in, creating the account on first use",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, "", func(ctx context.Context, e *env) error {
			user, err := e.svc.SignIn(ctx, args[0], loginName)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", user.Name, user.Email)
			return nil
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the signed-in user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, "", func(ctx context.Context, e *env) error {
			if err := e.svc.SignOut(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		})
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user and profile",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, "", func(ctx context.Context, e *env) error {
			user, err := e.svc.CurrentUser()
			if err != nil {
				return err
			}
			printUser(cmd.OutOrStdout(), user)
			return nil
		})
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage the user profile",
}

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update profile fields",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		input := app.ProfileInput{Clear: profileClear}
		flags := cmd.Flags()
		if flags.Changed("name") {
			input.Name = &profileName
		}
		if flags.Changed("age") {
			input.Age = &profileAge
		}
		if flags.Changed("weight") {
			input.Weight = &profileWeight
		}
		if flags.Changed("height") {
			input.Height = &profileHeight
		}
		if flags.Changed("gender") {
			input.Gender = &profileGender
		}
		return withEnv(cmd, "", func(ctx context.Context, e *env) error {
			user, err := e.svc.UpdateProfile(ctx, input)
			if err != nil {
				return err
			}
			printUser(cmd.OutOrStdout(), user)
			return nil
		})
	},
}

func initSessionCmds() {
	loginCmd.Flags().StringVar(&loginName, "name", "", "display name for a new account")

	profileSetCmd.Flags().StringVar(&profileName, "name", "", "display name")
	profileSetCmd.Flags().IntVar(&profileAge, "age", 0, "age in years")
	profileSetCmd.Flags().Float64Var(&profileWeight, "weight", 0, "weight in kg")
	profileSetCmd.Flags().Float64Var(&profileHeight, "height", 0, "height in cm")
	profileSetCmd.Flags().StringVar(&profileGender, "gender", "", "gender")
	profileSetCmd.Flags().StringSliceVar(&profileClear, "clear", nil, "fields to clear: age, weight, height, gender")
	profileCmd.AddCommand(profileSetCmd)

	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd, profileCmd)
}
