package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/goliatone/go-print"
	"github.com/spf13/cobra"

	talent "github.com/goliatone/go-talent-session"
	"github.com/goliatone/go-talent-session/credentials"
	"github.com/goliatone/go-talent-session/metrics"
)

// withApp builds the app for the command and closes it afterwards.
func withApp(cmd *cobra.Command, flags *rootFlags, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(ctx, flags, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func newLoginCmd(flags *rootFlags) *cobra.Command {
	var email, password, role string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app) error {
				if !a.ctrl.Login(ctx, email, password, talent.Role(role)) {
					return codeError(1, "%s", a.ctrl.Snapshot().Error)
				}
				s := a.ctrl.Snapshot()
				fmt.Fprintf(a.out, "Signed in as %s <%s> (%s)\n", s.User.FullName(), s.User.Email, s.User.Role)
				fmt.Fprintf(a.out, "Landing: %s\n", talent.LandingPath(s.User.Role))
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&email, "email", "", "Account email")
	f.StringVar(&password, "password", "", "Account password")
	f.StringVar(&role, "role", "", "Account role: talent or recruiter")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newRegisterCmd(flags *rootFlags) *cobra.Command {
	var payload talent.RegistrationPayload
	var role string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			payload.Role = talent.Role(role)
			if payload.ConfirmPassword == "" {
				payload.ConfirmPassword = payload.Password
			}

			// the role rule is reported by the session controller itself
			if payload.Role != "" {
				if err := payload.Validate(); err != nil {
					return codeError(2, "invalid registration: %s", err)
				}
			}

			return withApp(cmd, flags, func(ctx context.Context, a *app) error {
				a.logger.Debug("register payload: %+v", payload.Redacted())
				if !a.ctrl.Register(ctx, payload) {
					return codeError(1, "%s", a.ctrl.Snapshot().Error)
				}
				s := a.ctrl.Snapshot()
				fmt.Fprintf(a.out, "Registered %s <%s> (%s)\n", s.User.FullName(), s.User.Email, s.User.Role)
				fmt.Fprintf(a.out, "Landing: %s\n", talent.LandingPath(s.User.Role))
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&payload.FirstName, "first-name", "", "First name")
	f.StringVar(&payload.LastName, "last-name", "", "Last name")
	f.StringVar(&payload.Email, "email", "", "Account email")
	f.StringVar(&payload.Password, "password", "", "Password, at least 6 characters")
	f.StringVar(&payload.ConfirmPassword, "confirm-password", "", "Password confirmation, defaults to --password")
	f.StringVar(&payload.Country, "country", "", "Country")
	f.StringVar(&role, "role", "", "Account role: talent or recruiter")
	f.StringVar(&payload.Company, "company", "", "Company (recruiters)")
	f.StringVar(&payload.Position, "position", "", "Position (recruiters)")

	return cmd
}

func newLogoutCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored session credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app) error {
				a.ctrl.RestoreSession(ctx)
				a.ctrl.Logout(ctx)
				fmt.Fprintln(a.out, "Signed out")
				return nil
			})
		},
	}
}

func newWhoamiCmd(flags *rootFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Restore the session and print the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app) error {
				if !a.ctrl.RestoreSession(ctx) {
					fmt.Fprintln(a.out, "anonymous")
					return nil
				}
				s := a.ctrl.Snapshot()
				if asJSON {
					return printJSON(a, s.User)
				}
				fmt.Fprintf(a.out, "%s <%s> (%s)\n", s.User.FullName(), s.User.Email, s.User.Role)
				if !s.ExpiresAt.IsZero() {
					fmt.Fprintf(a.out, "Session expires %s\n", s.ExpiresAt.Format(time.RFC3339))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the user record as JSON")
	return cmd
}

func newAccessCmd(flags *rootFlags) *cobra.Command {
	var role string

	cmd := &cobra.Command{
		Use:   "access",
		Short: "Evaluate the access guard for a role restricted view",
		RunE: func(cmd *cobra.Command, args []string) error {
			required, ok := talent.ParseRole(role)
			if !ok {
				return codeError(2, "unknown role %q", role)
			}
			return withApp(cmd, flags, func(ctx context.Context, a *app) error {
				a.ctrl.RestoreSession(ctx)
				decision, path := a.guard.Check(required)
				if path != "" {
					fmt.Fprintf(a.out, "%s %s\n", decision, path)
				} else {
					fmt.Fprintln(a.out, decision)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "Required role: talent, recruiter or admin")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}

func newProfileCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Read or update the signed-in user's profile",
	}

	var blindView bool
	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Print the current profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app) error {
				if err := requireSession(ctx, a); err != nil {
					return err
				}
				a.profiles.FetchCurrent(ctx)
				state := a.profiles.State()
				if state.Error != "" {
					return codeError(1, "%s", state.Error)
				}
				profile, err := state.Current()
				if talent.IsNotFoundError(err) {
					fmt.Fprintln(a.out, "No profile yet")
					return nil
				}
				if blindView {
					return printJSON(a, profile.BlindView())
				}
				return printJSON(a, profile)
			})
		},
	}

	getCmd.Flags().BoolVar(&blindView, "blind", false, "Print only the fields recruiters see under blind matching")

	var in talent.ProfileInput
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Create or update the profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app) error {
				if err := in.Validate(); err != nil {
					return codeError(2, "invalid profile: %s", err)
				}
				if err := requireSession(ctx, a); err != nil {
					return err
				}
				if !a.profiles.Save(ctx, in) {
					return codeError(1, "%s", a.profiles.State().Error)
				}
				return printJSON(a, a.profiles.State().Profile)
			})
		},
	}

	f := setCmd.Flags()
	f.StringVar(&in.Headline, "headline", "", "Headline")
	f.StringVar(&in.Summary, "summary", "", "Summary")
	f.StringVar(&in.Skills, "skills", "", "Comma separated skills")
	f.StringVar(&in.Location, "location", "", "Location")
	f.StringVar(&in.Title, "title", "", "Job title")
	f.BoolVar(&in.NeedsSponsorship, "needs-sponsorship", false, "Requires visa sponsorship")
	f.StringVar(&in.SponsorshipComment, "sponsorship-comment", "", "Sponsorship details")
	f.StringVar(&in.Company, "company", "", "Company (recruiters)")
	f.StringVar(&in.Position, "position", "", "Position (recruiters)")
	f.StringVar(&in.Bio, "bio", "", "Bio (recruiters)")
	f.StringVar(&in.Website, "website", "", "Website (recruiters)")
	f.StringVar(&in.LinkedIn, "linkedin", "", "LinkedIn URL (recruiters)")
	f.StringVar(&in.Phone, "phone", "", "Contact phone (recruiters)")

	cmd.AddCommand(getCmd, setCmd)
	return cmd
}

func newRecruiterCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recruiter",
		Short: "Recruiter dashboard commands",
	}

	dashCmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Print the recruiter account and shortlist",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app) error {
				a.ctrl.RestoreSession(ctx)
				if decision, path := a.guard.Check(talent.RoleRecruiter); decision != talent.DecisionAllow {
					return codeError(1, "access %s %s", decision, path)
				}
				if !a.desk.Load(ctx) {
					return codeError(1, "%s", a.desk.State().Error)
				}
				state := a.desk.State()
				if state.Account != nil {
					fmt.Fprintf(a.out, "%s, %s\n", state.Account.Position, state.Account.Company)
				}
				fmt.Fprintf(a.out, "Shortlist (%d)\n", len(state.Shortlist))
				for _, entry := range state.Shortlist {
					card := entry.Talent
					fmt.Fprintf(a.out, "- %s %s [%s]\n", entry.ID, card.Headline, strings.Join(card.Skills, ", "))
				}
				return nil
			})
		},
	}
	cmd.AddCommand(dashCmd)
	return cmd
}

func newWatchCmd(flags *rootFlags) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Hold the session and log out when the stored credential changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app) error {
				if a.fileStore == nil {
					return codeError(2, "watch requires the file credential store")
				}
				if !a.ctrl.RestoreSession(ctx) {
					return codeError(1, "no active session")
				}

				ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
				defer stop()

				w, err := credentials.NewWatcher(a.fileStore, func(token string, present bool) {
					if !present || token != a.ctrl.Snapshot().Token {
						a.ctrl.ForceLogout(ctx)
						stop()
					}
				})
				if err != nil {
					return codeError(1, "%s", err)
				}
				defer w.Close()

				if metricsAddr != "" {
					srv := &http.Server{Addr: metricsAddr, Handler: metrics.Handler(a.registry)}
					go func() {
						if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
							a.logger.Error("metrics server: %v", err)
						}
					}()
					defer srv.Close()
				}

				s := a.ctrl.Snapshot()
				fmt.Fprintf(a.out, "Watching session of %s\n", s.User.Email)

				if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					return codeError(1, "%s", err)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while watching")
	return cmd
}

// requireSession restores the session and fails for anonymous callers.
func requireSession(ctx context.Context, a *app) error {
	if !a.ctrl.RestoreSession(ctx) {
		return codeError(1, "not signed in")
	}
	return nil
}

func printJSON(a *app, v any) error {
	_, err := fmt.Fprintln(a.out, print.MaybePrettyJSON(v))
	return err
}
