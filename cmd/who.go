package cmd

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

var (
	whoHost     string
	whoHTTPPort string
)

func init() {
	flags := WhoCmd.Flags()

	flags.StringVarP(&whoHost, "host", "a", "127.0.0.1", "The relay host")
	flags.StringVar(&whoHTTPPort, "http-port", "5001", "The relay's HTTP port")
}

var WhoCmd = &cobra.Command{
	Use:   "who",
	Short: "List the users and chats of a running relay",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		url := "http://" + net.JoinHostPort(whoHost, whoHTTPPort) + "/state"

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}

		res, err := http.DefaultClient.Do(req)
		if err != nil {
			return err
		}
		defer res.Body.Close()

		body, err := io.ReadAll(res.Body)
		if err != nil {
			return err
		}

		if res.StatusCode != http.StatusOK {
			return fmt.Errorf("Unexpected status from %s: %s", url, res.Status)
		}

		if !gjson.ValidBytes(body) {
			return fmt.Errorf("Invalid state document from %s", url)
		}

		fmt.Fprint(cmd.OutOrStdout(), formatState(body))
		return nil
	},
}

// formatState renders a /state document, one chat or idle user per line.
func formatState(doc []byte) string {
	var b strings.Builder

	users := gjson.GetBytes(doc, "users").Array()
	pairs := gjson.GetBytes(doc, "pairs").Array()

	fmt.Fprintf(&b, "%d users, %d chats\n", len(users), len(pairs))

	paired := make(map[string]bool, len(pairs)*2)
	for _, p := range pairs {
		a, c := p.Get("a").String(), p.Get("b").String()
		paired[a] = true
		paired[c] = true

		fmt.Fprintf(&b, "  %s <-> %s\n", a, c)
	}

	for _, u := range users {
		if !paired[u.String()] {
			fmt.Fprintf(&b, "  %s\n", u.String())
		}
	}

	return b.String()
}
