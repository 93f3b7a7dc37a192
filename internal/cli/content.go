package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"
)

var contentCmd = &cobra.Command{
	Use:   "content",
	Short: "Browse the catalog",
}

var contentSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		query := ""
		if len(args) > 0 {
			query = args[0]
		}
		contentType, _ := cmd.Flags().GetString("type")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		params := url.Values{}
		if query != "" {
			params.Set("query", query)
		}
		if contentType != "" {
			params.Set("type", contentType)
		}

		resp, err := http.Get(serverURL(cmd, cfg) + "/api/v1/content?" + params.Encode())
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		var envelope struct {
			Success bool   `json:"success"`
			Error   string `json:"error"`
			Data    struct {
				Data []struct {
					ID         string `json:"id"`
					Type       string `json:"type"`
					Title      string `json:"title"`
					TotalItems *int   `json:"total_items"`
				} `json:"data"`
				Pagination struct {
					Total int `json:"total"`
				} `json:"pagination"`
			} `json:"data"`
		}
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return fmt.Errorf("unexpected response: %s", raw)
		}
		if !envelope.Success {
			return fmt.Errorf("search failed: %s", envelope.Error)
		}

		fmt.Printf("\n%d results:\n\n", envelope.Data.Pagination.Total)
		for _, item := range envelope.Data.Data {
			fmt.Printf("  [%s] %s  %s", item.Type, item.ID, item.Title)
			if item.TotalItems != nil {
				fmt.Printf("  (%d items)", *item.TotalItems)
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	contentSearchCmd.Flags().String("type", "", "Filter by type (anime, manga, comics)")
	contentCmd.AddCommand(contentSearchCmd)
}
