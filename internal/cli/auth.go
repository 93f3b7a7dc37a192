package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authentication commands",
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and save the session token",
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		if username == "" {
			fmt.Print("Username: ")
			fmt.Scanln(&username)
		}

		fmt.Print("Password: ")
		password, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("cannot read password: %w", err)
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		base := serverURL(cmd, cfg)

		result, err := postJSON(base+"/api/v1/auth/login", map[string]string{
			"username": username,
			"password": string(password),
		}, "")
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}

		data, ok := result["data"].(map[string]interface{})
		if !ok {
			return fmt.Errorf("login failed: %v", result["error"])
		}
		token, _ := data["token"].(string)
		user, _ := data["user"].(map[string]interface{})

		cfg.ServerURL = base
		cfg.Username = username
		cfg.Token = token
		if user != nil {
			cfg.UserID, _ = user["id"].(string)
		}
		if err := saveConfig(cfg); err != nil {
			return fmt.Errorf("cannot save session: %w", err)
		}

		fmt.Printf("Logged in as %s\n", username)
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		displayName, _ := cmd.Flags().GetString("display-name")
		if username == "" {
			fmt.Print("Username: ")
			fmt.Scanln(&username)
		}

		fmt.Print("Password: ")
		password, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("cannot read password: %w", err)
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		result, err := postJSON(serverURL(cmd, cfg)+"/api/v1/auth/register", map[string]string{
			"username":     username,
			"password":     string(password),
			"display_name": displayName,
		}, "")
		if err != nil {
			return fmt.Errorf("registration failed: %w", err)
		}
		if success, _ := result["success"].(bool); !success {
			return fmt.Errorf("registration failed: %v", result["error"])
		}

		fmt.Printf("Account created. Run `manganime auth login` to start a session.\n")
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Discard the saved session token",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		cfg.Token = ""
		cfg.UserID = ""
		if err := saveConfig(cfg); err != nil {
			return err
		}
		fmt.Println("Logged out. The device library keeps working offline.")
		return nil
	},
}

func init() {
	loginCmd.Flags().String("username", "", "Username")
	registerCmd.Flags().String("username", "", "Username")
	registerCmd.Flags().String("display-name", "", "Display name")
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(registerCmd)
	authCmd.AddCommand(logoutCmd)
}

// postJSON posts a JSON body and decodes the envelope.
func postJSON(url string, body interface{}, token string) (map[string]interface{}, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var result map[string]interface{}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("unexpected response: %s", raw)
	}
	if errMsg, ok := result["error"].(string); ok && errMsg != "" {
		return result, fmt.Errorf("%s", errMsg)
	}
	return result, nil
}
