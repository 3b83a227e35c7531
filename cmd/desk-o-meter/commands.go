package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/username/desk-o-meter/internal/attendance"
	"github.com/username/desk-o-meter/internal/calendar"
	"github.com/username/desk-o-meter/internal/export"
	"github.com/username/desk-o-meter/internal/manager"
	"github.com/username/desk-o-meter/internal/server"
	"github.com/username/desk-o-meter/pkg/dateutil"
)

// withApp opens the store and manager for one command and closes them after
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app, userID string) error) error {
	userID, err := currentUser()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a, userID)
}

// parseMonth parses YYYY-MM, or returns the month of today when args is empty
func parseMonth(args []string, today time.Time) (int, time.Month, error) {
	if len(args) == 0 {
		return today.Year(), today.Month(), nil
	}
	t, err := time.Parse("2006-01", args[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month %q, expected YYYY-MM", args[0])
	}
	return t.Year(), t.Month(), nil
}

// parseDay parses YYYY-MM-DD, or returns today when args is empty
func parseDay(args []string, today time.Time) (time.Time, error) {
	if len(args) == 0 {
		return today, nil
	}
	return dateutil.ParseDate(args[0])
}

func monthCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "month [YYYY-MM]",
		Short: "Show a month and its office quota",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app, userID string) error {
				today, err := a.manager.Today(ctx, userID)
				if err != nil {
					return err
				}
				year, month, err := parseMonth(args, today)
				if err != nil {
					return err
				}

				if asJSON {
					data, err := a.manager.ExportMonth(ctx, userID, year, month)
					if err != nil {
						return err
					}
					_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
					return err
				}

				view, err := a.manager.LoadMonth(ctx, userID, year, month)
				if err != nil {
					return err
				}
				renderMonth(cmd.OutOrStdout(), view, today)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the month as a JSON document")
	return cmd
}

func cycleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cycle [YYYY-MM-DD]",
		Short: "Advance a day's status: NONE, OFFICE, WFH, VACATION",
		Long:  "Advance the status of a day (today by default) one step through NONE → OFFICE → WFH → VACATION → NONE",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app, userID string) error {
				today, err := a.manager.Today(ctx, userID)
				if err != nil {
					return err
				}
				date, err := parseDay(args, today)
				if err != nil {
					return err
				}
				rec, err := a.manager.CycleDay(ctx, userID, date)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", dateutil.FormatDate(rec.Date), renderCell(rec, false))
				return nil
			})
		},
	}
}

func dayCmd() *cobra.Command {
	var (
		status string
		adhoc  bool
		notes  string
	)

	cmd := &cobra.Command{
		Use:   "day YYYY-MM-DD",
		Short: "Show or edit a single day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := dateutil.ParseDate(args[0])
			if err != nil {
				return err
			}

			var update manager.DayUpdate
			if cmd.Flags().Changed("status") {
				st, err := attendance.ParseStatus(status)
				if err != nil {
					return err
				}
				update.Status = &st
			}
			if cmd.Flags().Changed("adhoc-credit") {
				update.AdhocCredit = &adhoc
			}
			if cmd.Flags().Changed("notes") {
				update.Notes = &notes
			}

			return withApp(cmd, func(ctx context.Context, a *app, userID string) error {
				rec, err := a.manager.UpdateDay(ctx, userID, date, update)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s  %s  %s\n", dateutil.FormatDate(rec.Date), dateutil.WeekdayCode(rec.Weekday()), rec.Status)
				if rec.IsHoliday {
					fmt.Fprintf(out, "Holiday:      %s\n", holidayStyle.Render(rec.HolidayName))
					fmt.Fprintf(out, "Adhoc credit: %t\n", rec.AdhocCredit)
				}
				if rec.Notes != "" {
					fmt.Fprintf(out, "Notes:        %s\n", rec.Notes)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&status, "status", "s", "", "Set status: NONE, OFFICE, WFH or VACATION")
	cmd.Flags().BoolVar(&adhoc, "adhoc-credit", false, "Credit this holiday as an office day")
	cmd.Flags().StringVarP(&notes, "notes", "n", "", "Set free-form notes")
	return cmd
}

func vacationCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vacation FROM TO",
		Short: "Mark every date of an inclusive range as vacation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := dateutil.ParseDate(args[0])
			if err != nil {
				return err
			}
			to, err := dateutil.ParseDate(args[1])
			if err != nil {
				return err
			}

			return withApp(cmd, func(ctx context.Context, a *app, userID string) error {
				n, err := a.manager.SetVacationRange(ctx, userID, from, to)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), Success(fmt.Sprintf("Marked %d days as vacation", n)))
				return nil
			})
		},
	}
}

func settingsCmd() *cobra.Command {
	show := func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app, userID string) error {
			settings, err := a.manager.Settings(ctx, userID)
			if err != nil {
				return err
			}
			printSettings(cmd.OutOrStdout(), settings)
			return nil
		})
	}

	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change quota settings",
		Args:  cobra.NoArgs,
		RunE:  show,
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show quota settings",
			Args:  cobra.NoArgs,
			RunE:  show,
		},
		settingsSetCmd(),
	)
	return cmd
}

func settingsSetCmd() *cobra.Command {
	var (
		percent   float64
		rounding  string
		weekdays  []string
		treatment string
		country   string
		state     string
		timezone  string
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change quota settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app, userID string) error {
				settings, err := a.manager.Settings(ctx, userID)
				if err != nil {
					return err
				}

				flags := cmd.Flags()
				if flags.Changed("percent") {
					settings.RequiredPercent = percent
				}
				if flags.Changed("rounding") {
					if settings.RoundingMode, err = attendance.ParseRoundingMode(rounding); err != nil {
						return err
					}
				}
				if flags.Changed("credit-days") {
					if settings.CreditWeekdays, err = attendance.ParseWeekdays(weekdays); err != nil {
						return err
					}
				}
				if flags.Changed("mon-fri-holiday") {
					if settings.MonFriHolidayTreatment, err = attendance.ParseHolidayTreatment(treatment); err != nil {
						return err
					}
				}
				if flags.Changed("country") {
					settings.Country = strings.ToUpper(country)
				}
				if flags.Changed("state") {
					settings.State = strings.ToUpper(state)
				}
				if flags.Changed("timezone") {
					settings.Timezone = timezone
				}

				if err := a.manager.UpdateSettings(ctx, settings); err != nil {
					return err
				}
				printSettings(cmd.OutOrStdout(), settings)
				return nil
			})
		},
	}

	cmd.Flags().Float64Var(&percent, "percent", 0, "Required office fraction, 0..1")
	cmd.Flags().StringVar(&rounding, "rounding", "", "Rounding of required days: CEIL, FLOOR or ROUND_HALF_UP")
	cmd.Flags().StringSliceVar(&weekdays, "credit-days", nil, "Weekdays whose holidays count as office days, e.g. TUE,WED,THU")
	cmd.Flags().StringVar(&treatment, "mon-fri-holiday", "", "Monday/Friday holiday treatment: NEUTRAL, EXCLUDE or CREDIT")
	cmd.Flags().StringVar(&country, "country", "", "Holiday country (ISO 3166-1 alpha-2)")
	cmd.Flags().StringVar(&state, "state", "", "Holiday state or province, empty for country-wide")
	cmd.Flags().StringVar(&timezone, "timezone", "", "IANA timezone used for today")
	return cmd
}

func printSettings(w io.Writer, s attendance.Settings) {
	fmt.Fprintf(w, "%s\n", Header("Settings for "+s.UserID))
	fmt.Fprintf(w, "Required percent:  %.0f%%\n", s.RequiredPercent*100)
	fmt.Fprintf(w, "Rounding:          %s\n", s.RoundingMode)
	fmt.Fprintf(w, "Credit weekdays:   %s\n", strings.Join(s.CreditWeekdays.Codes(), ","))
	fmt.Fprintf(w, "Mon/Fri holidays:  %s\n", s.MonFriHolidayTreatment)
	fmt.Fprintf(w, "Region:            %s\n", calendar.RegionCode(s.Country, s.State))
	fmt.Fprintf(w, "Timezone:          %s\n", s.Timezone)
}

func holidaysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "holidays [YEAR]",
		Short: "List public holidays of your region",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app, userID string) error {
				year := 0
				if len(args) == 1 {
					if _, err := fmt.Sscanf(args[0], "%d", &year); err != nil || year < 1 || year > 9999 {
						return fmt.Errorf("invalid year %q", args[0])
					}
				} else {
					today, err := a.manager.Today(ctx, userID)
					if err != nil {
						return err
					}
					year = today.Year()
				}

				holidays, err := a.manager.Holidays(ctx, userID, year)
				if errors.Is(err, calendar.ErrUnsupportedRegion) {
					fmt.Fprintln(cmd.OutOrStdout(), Silent("No holiday calendar for this region"))
					return nil
				}
				if err != nil {
					return err
				}

				for _, date := range holidays.Dates() {
					fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", holidayStyle.Render(date), holidays[date])
				}
				return nil
			})
		},
	}
}

func exportCmd() *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export [YYYY-MM]",
		Short: "Export a month as JSON or XLSX",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(format)
			if format != "json" && format != "xlsx" {
				return fmt.Errorf("format must be 'json' or 'xlsx', got '%s'", format)
			}

			return withApp(cmd, func(ctx context.Context, a *app, userID string) error {
				today, err := a.manager.Today(ctx, userID)
				if err != nil {
					return err
				}
				year, month, err := parseMonth(args, today)
				if err != nil {
					return err
				}

				return writeOutput(output, cmd.OutOrStdout(), func(w io.Writer) error {
					if format == "xlsx" {
						return a.manager.ExportMonthXLSX(ctx, userID, year, month, w)
					}
					data, err := a.manager.ExportMonth(ctx, userID, year, month)
					if err != nil {
						return err
					}
					_, err = w.Write(append(data, '\n'))
					return err
				})
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "Export format: json or xlsx")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	return cmd
}

// writeOutput runs write against stdout when path is empty or "-". Otherwise it
// writes a temporary file next to path and renames it into place, so a failed
// export never leaves a partial file behind.
func writeOutput(path string, stdout io.Writer, write func(io.Writer) error) (err error) {
	if path == "" || path == "-" {
		return write(stdout)
	}

	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	if err = f.Chmod(0o644); err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	if err = write(f); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err = os.Rename(f.Name(), path); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Replace a month with an exported JSON document",
		Long:  "Replace a month with an exported JSON document. Use - to read from stdin. The document's settings replace the stored ones.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("failed to read document: %w", err)
			}

			// The document names its own user; --user is not consulted
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			view, err := a.manager.ImportMonth(ctx, data)
			if errors.Is(err, export.ErrSchemaMismatch) {
				return fmt.Errorf("document rejected, nothing was changed: %w", err)
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), Success(fmt.Sprintf("Imported %s %d for %s", view.Month, view.Year, view.UserID)))
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only month API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = cfg.Server.Addr
			}
			defaultUser, _ := currentUser()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			router := server.NewRouter(a.manager, a.store, server.Options{
				DefaultUser:    defaultUser,
				AllowedOrigins: cfg.Server.AllowedOrigins,
			}, logger)

			logger.Info("Starting API", zap.String("addr", addr), zap.String("default_user", defaultUser))
			return server.Run(ctx, addr, router, logger)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: server.addr from config)")
	return cmd
}
