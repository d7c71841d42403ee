package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/luma/parley/client"
	"github.com/luma/parley/internal/env"
	"github.com/luma/parley/protocol"
)

var (
	connectHost string
	connectPort int
	connectName string
	connectLog  string
)

func init() {
	flags := ConnectCmd.Flags()

	flags.StringVarP(&connectHost, "host", "a", "127.0.0.1", "The relay host to connect to")
	flags.IntVarP(&connectPort, "port", "p", 5000, "The relay port to connect to")
	flags.StringVarP(&connectName, "name", "n", "", "The name to register with")
	flags.StringVar(&connectLog, "log-level", "fatal", "Client log level, logs go to stderr")

	if err := ConnectCmd.MarkFlagRequired("name"); err != nil {
		panic(err)
	}
}

var ConnectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Chat through a running Parley relay",
	Long: `Connect to a Parley relay and chat from the terminal

Usage
	parley connect --name alice
	parley connect --host chat.example.com --port 5000 --name bob

Every line typed is sent as is, so /chat <name>, /leave, /bye and
target:message all work. Lines from the server are printed verbatim.
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, signalStop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer signalStop()

		log, err := env.MakeLogger(connectLog)
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck

		c := client.New(log.Named("client"))

		dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		addr := net.JoinHostPort(connectHost, strconv.Itoa(connectPort))
		if err := c.Connect(dialCtx, addr); err != nil {
			return err
		}

		if err := c.Register(dialCtx, connectName); err != nil {
			_ = c.Disconnect()
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Connected to", addr, "as", connectName)

		return chatLoop(ctx, c, cmd.InOrStdin(), out, log)
	},
}

// chatLoop forwards input lines to the relay and prints relay lines to out
// until the server closes the connection, input ends or ctx is done.
func chatLoop(ctx context.Context, c *client.Conn, in io.Reader, out io.Writer, log *zap.Logger) error {
	done := make(chan struct{})
	go func() {
		defer close(done)

		for ev := range c.Events() {
			fmt.Fprintln(out, ev.Line)
		}
	}()

	lines := make(chan string)
	go func() {
		defer close(lines)

		r := bufio.NewReader(in)
		for {
			line, err := protocol.ReadLine(r, 0)
			if err != nil {
				if err != io.EOF {
					log.Debug("Input closed", zap.Error(err))
				}
				return
			}

			select {
			case lines <- line:
			case <-done:
				return
			}
		}
	}()

	for {
		select {
		case line, ok := <-lines:
			if !ok {
				// End of input behaves like /bye
				if err := c.Bye(); err != nil {
					return c.Disconnect()
				}

				select {
				case <-done:
				case <-time.After(5 * time.Second):
				}

				_ = c.Disconnect()
				return nil
			}

			if err := c.WriteLine(line); err != nil {
				_ = c.Disconnect()
				<-done
				return err
			}

		case <-done:
			_ = c.Disconnect()
			return nil

		case <-ctx.Done():
			_ = c.Bye()
			_ = c.Disconnect()
			<-done
			return nil
		}
	}
}
