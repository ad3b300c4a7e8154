package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/kavach/internal/errors"
	"github.com/felixgeelhaar/kavach/internal/portal"
	"github.com/felixgeelhaar/kavach/internal/session"
	"github.com/felixgeelhaar/kavach/internal/tui"
)

func newAuthCmd(cc *CommandContext) *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the portal session",
		Long: `Log in and out of the Kavach Setu portal and inspect the current session.

Customers and employees have separate login endpoints; pick one with --as.

Examples:
  kavach auth login --as customer --email ravi@example.com
  kavach auth status
  kavach auth whoami
  kavach auth logout`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	authCmd.AddCommand(
		newAuthLoginCmd(cc),
		newAuthLogoutCmd(cc),
		newAuthStatusCmd(cc),
		newAuthWhoamiCmd(cc),
	)
	return authCmd
}

// loginResult is what auth login reports
type loginResult struct {
	Category session.Category    `json:"category"`
	User     *session.Profile    `json:"user,omitempty"`
	Next     session.Destination `json:"next"`
}

func newAuthLoginCmd(cc *CommandContext) *cobra.Command {
	var (
		as            string
		email         string
		password      string
		passwordStdin bool
	)

	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Log in as a customer or employee",
		Long: `Log in with email and password. Missing values are prompted for when
running in a terminal.

If a previous command was refused for lack of a session, login continues
to the page that command wanted; otherwise it opens the dashboard.

Examples:
  kavach auth login
  kavach auth login --as employee --email asha@kavach.example
  echo "$PASSWORD" | kavach auth login --email ravi@example.com --password-stdin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			in := tui.LoginInput{Category: as, Email: email, Password: password}
			if in.Category == "" {
				in.Category = string(cc.Session.CurrentCategory(ctx))
			}
			if passwordStdin {
				p, err := readSecret(cmd.InOrStdin())
				if err != nil {
					return err
				}
				in.Password = p
			}

			if in.Email == "" || in.Password == "" {
				if !cc.CanPrompt() {
					return errors.New(errors.ErrCodeAuthLoginFailed, "email and password are required").
						WithSuggestion("Pass --email with --password or --password-stdin")
				}
				if err := tui.PromptLogin(&in); err != nil {
					return err
				}
			}

			category, err := session.ParseCategory(in.Category)
			if err != nil {
				return err
			}

			resp, err := withBusy(cc, "Signing in…", func() (*portal.LoginResponse, error) {
				return cc.Client.Login(ctx, category, strings.TrimSpace(in.Email), in.Password)
			})
			if err != nil {
				return err
			}

			next := cc.Session.ConsumePostLoginRedirect(ctx, session.DashboardFor(category))
			result := loginResult{Category: category, User: resp.User, Next: next}
			return cc.Output(view{data: result, text: func(w io.Writer) error {
				name := in.Email
				if resp.User != nil {
					name = resp.User.DisplayName()
				}
				_, err := fmt.Fprintf(w, "Signed in as %s (%s).\n", name, category)
				return err
			}})
		},
	}

	loginCmd.Flags().StringVar(&as, "as", "", "user category: customer or employee (default: last used)")
	loginCmd.Flags().StringVar(&email, "email", "", "account email")
	loginCmd.Flags().StringVar(&password, "password", "", "account password (prefer --password-stdin)")
	loginCmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	loginCmd.MarkFlagsMutuallyExclusive("password", "password-stdin")
	return loginCmd
}

func readSecret(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read password from stdin: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newAuthLogoutCmd(cc *CommandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session",
		Long:  `Forget the stored token, category and profile. Logging out twice is harmless.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cc.Client.Logout(cmd.Context()); err != nil {
				return err
			}
			return cc.Output(message(map[string]bool{"logged_out": true}, "Logged out."))
		},
	}
}

// sessionStatus is what auth status reports
type sessionStatus struct {
	Authenticated bool                `json:"authenticated"`
	Category      session.Category    `json:"category"`
	User          *session.Profile    `json:"user,omitempty"`
	Token         *session.TokenInfo  `json:"token,omitempty"`
	Expired       bool                `json:"expired,omitempty"`
	Redirect      session.Destination `json:"pending_redirect,omitempty"`
}

func newAuthStatusCmd(cc *CommandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current session",
		Long: `Show whether a session is active, its category and cached profile.

When the token is a JWT its expiry is shown. The expiry is informational;
only the server decides whether a token is still accepted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			st := sessionStatus{
				Authenticated: cc.Session.IsAuthenticated(ctx),
				Category:      cc.Session.CurrentCategory(ctx),
				User:          cc.Session.CurrentProfile(ctx),
			}
			if info, ok := cc.Session.InspectToken(ctx); ok {
				st.Token = &info
				st.Expired = info.Expired(time.Now())
			}
			if dest, ok := cc.Session.PendingRedirect(ctx); ok {
				st.Redirect = dest
			}

			return cc.Output(view{data: st, text: func(w io.Writer) error {
				if !st.Authenticated {
					fmt.Fprintln(w, "Not logged in.")
					if st.Redirect != "" {
						fmt.Fprintf(w, "After login: %s\n", st.Redirect)
					}
					return nil
				}
				pairs := []string{"Category", string(st.Category)}
				if st.User != nil {
					pairs = append(pairs, "User", st.User.DisplayName(), "Email", st.User.Email)
				}
				if st.Token != nil && !st.Token.ExpiresAt.IsZero() {
					exp := st.Token.ExpiresAt.Local().Format(time.RFC1123)
					if st.Expired {
						exp += " (expired)"
					}
					pairs = append(pairs, "Token expires", exp)
				}
				fmt.Fprintln(w, "Logged in.")
				return fields(w, pairs...)
			}})
		},
	}
}

func newAuthWhoamiCmd(cc *CommandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Fetch the signed-in user from the portal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := cc.RequireSession(ctx, ""); err != nil {
				return err
			}

			p, err := withBusy(cc, "Fetching profile…", func() (*session.Profile, error) {
				return cc.Client.Me(ctx)
			})
			if err != nil {
				return err
			}
			return cc.Output(view{data: p, text: func(w io.Writer) error {
				return fields(w,
					"ID", p.ID,
					"Name", p.Name,
					"Email", p.Email,
					"Phone", p.Phone,
					"Category", string(p.UserType),
					"Employee ID", p.EmployeeID,
					"Department", p.Department,
					"Role", p.Role,
				)
			}})
		},
	}
}
