package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/anisan-cli/finplay/auth"
	"github.com/anisan-cli/finplay/color"
	"github.com/anisan-cli/finplay/icon"
	"github.com/anisan-cli/finplay/key"
	"github.com/anisan-cli/finplay/log"
	"github.com/anisan-cli/finplay/server"
	"github.com/anisan-cli/finplay/style"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd)
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to a media server",
	Long:  "Sign in to a Jellyfin-compatible media server. The access token is kept in the system keyring.",
	Run: func(cmd *cobra.Command, args []string) {
		answers := struct {
			URL      string
			Username string
			Password string
		}{}

		questions := []*survey.Question{
			{
				Name:     "url",
				Prompt:   &survey.Input{Message: "Server URL:", Default: viper.GetString(key.ServerURL)},
				Validate: survey.Required,
			},
			{
				Name:     "username",
				Prompt:   &survey.Input{Message: "Username:"},
				Validate: survey.Required,
			},
			{
				Name:   "password",
				Prompt: &survey.Password{Message: "Password:"},
			},
		}
		handleErr(survey.Ask(questions, &answers))

		deviceID := viper.GetString(key.ServerDeviceID)
		if deviceID == "" {
			deviceID = uuid.New().String()
		}

		client, err := server.New(server.Config{
			URL:        strings.TrimSpace(answers.URL),
			DeviceID:   deviceID,
			DeviceName: viper.GetString(key.ServerDeviceName),
			ClientName: viper.GetString(key.ServerClientName),
		}, nil)
		handleErr(err)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		sess, err := client.AuthenticateByName(ctx, answers.Username, answers.Password)
		handleErr(err)
		if sess.Token == "" {
			handleErr(errors.New("server returned no access token"))
		}

		handleErr(auth.SetToken(sess.Token))

		viper.Set(key.ServerURL, strings.TrimSpace(answers.URL))
		viper.Set(key.ServerUserID, sess.UserID)
		viper.Set(key.ServerDeviceID, deviceID)
		handleErr(persistConfig())
		log.Infof("signed in as %s", sess.Name)

		fmt.Printf(
			"%s signed in as %s\n%s %s\n",
			style.Fg(color.Success)(icon.Get(icon.Success)),
			style.Fg(color.Key)(sess.Name),
			icon.Get(icon.Link),
			style.Faint(viper.GetString(key.ServerURL)),
		)
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the media server access token",
	Run: func(cmd *cobra.Command, args []string) {
		if err := auth.DeleteToken(); err != nil {
			log.Warnf("delete token: %v", err)
		}

		viper.Set(key.ServerUserID, "")
		handleErr(persistConfig())

		fmt.Printf("%s signed out\n", style.Fg(color.Success)(icon.Get(icon.Success)))
	},
}
