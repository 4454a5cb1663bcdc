// ticketctl runs ticket admin tasks from a terminal: listing tickets by status,
// moving a ticket through the status workflow and downloading the CSV export.
// It talks to the backend API directly with the service account from
// SERVICE_EMAIL and SERVICE_PASSWORD unless --email and --password are given.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"ticket-admin/cmd"
	"ticket-admin/config"
	"ticket-admin/internal/backend"
	"ticket-admin/internal/join"
	"ticket-admin/internal/logger"
	"ticket-admin/internal/status"
	"ticket-admin/models"
	"ticket-admin/services"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	email    string
	password string
	apiURL   string
	filter   string
	output   string
	yes      bool
	verbose  bool
	req      status.Request
	timeout  time.Duration
}

func run(argv []string, stdin io.Reader, stdout io.Writer) error {
	cfg := config.LoadConfig()

	var opts options
	flagSet := pflag.NewFlagSet("ticketctl", pflag.ContinueOnError)
	flagSet.StringVar(&opts.apiURL, "api", cfg.APIBaseURL, "backend API base url")
	flagSet.StringVar(&opts.email, "email", cfg.ServiceEmail, "admin email")
	flagSet.StringVar(&opts.password, "password", cfg.ServicePassword, "admin password")
	flagSet.StringVarP(&opts.filter, "status", "s", join.FilterAll, "status filter for list (all, pending, paid, complete, cancel)")
	flagSet.StringVarP(&opts.output, "output", "o", "", "export file (default: name sent by the backend)")
	flagSet.BoolVarP(&opts.yes, "yes", "y", false, "confirm gated transitions without asking")
	flagSet.BoolVarP(&opts.verbose, "verbose", "v", false, "log requests")
	flagSet.DurationVar(&opts.timeout, "timeout", 2*time.Minute, "overall timeout")
	flagSet.StringVar(&opts.req.CustomerPayment, "payment", "", "customer payment (pending -> paid)")
	flagSet.StringVar(&opts.req.PaymentDate, "payment-date", "", "payment date YYYY-MM-DD (pending -> paid)")
	flagSet.StringVar(&opts.req.SellingPrice, "selling-price", "", "selling price (paid -> complete)")
	flagSet.StringVar(&opts.req.Zone, "zone", "", "zone (paid -> complete)")
	flagSet.StringVar(&opts.req.Row, "row", "", "row (paid -> complete)")
	flagSet.StringVar(&opts.req.Seat, "seat", "", "seat (paid -> complete)")
	flagSet.StringVar(&opts.req.RefundStatus, "refund", "", "refund status for a cancelled ticket (in_process, refunded)")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(argv); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help || flagSet.NArg() == 0 {
		printHelp(flagSet)
		return nil
	}

	level := "warn"
	if opts.verbose {
		level = "debug"
	}
	if err := logger.Init("development", level); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	cfg.APIBaseURL = opts.apiURL
	client, err := cmd.NewBackendClient(cfg)
	if err != nil {
		return err
	}

	sess, _, err := client.Login(ctx, backend.Credentials{Email: opts.email, Password: opts.password})
	if err != nil {
		return fmt.Errorf("login: %s", backend.Message(err))
	}
	if !sess.IsSuperuser {
		return errors.New(services.AccessDeniedMessage)
	}

	args := flagSet.Args()
	switch args[0] {
	case "list":
		return listTickets(ctx, stdout, services.NewDashboardService(client), sess, opts.filter)
	case "status":
		if len(args) != 3 {
			return errors.New("usage: ticketctl status <ticket-id> <pending|paid|complete|cancel>")
		}
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid ticket id %q", args[1])
		}
		opts.req.To = models.TicketStatus(args[2])

		var confirmer status.Confirmer = status.Preconfirmed(true)
		if !opts.yes {
			confirmer = promptConfirmer(stdin, stdout)
		}
		return changeStatus(ctx, stdout, services.NewTicketService(client, nil), sess, id, opts.req, confirmer)
	case "export":
		return exportTickets(ctx, stdout, services.NewTicketService(client, nil), sess, opts.output)
	}
	return fmt.Errorf("unknown command %q", args[0])
}

func listTickets(ctx context.Context, w io.Writer, dashboard *services.DashboardService, sess *backend.Session, filter string) error {
	rows, err := dashboard.TicketRows(ctx, sess, filter)
	if err != nil {
		return errors.New(backend.Message(err))
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tORDER\tEMAIL\tEVENT\tPASSPORT\tSTATUS")
	for _, r := range rows {
		fmt.Fprintf(tw, "%v\t%s\t%s\t%s\t%s\t%s\n",
			r.ID.Value(), optionalID(r.OrderID), optionalString(r.CustomerEmail), r.EventName, r.PassportName, r.StatusLabel)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "%d ticket(s)\n", len(rows))
	return nil
}

func changeStatus(ctx context.Context, w io.Writer, tickets *services.TicketService, sess *backend.Session, id int64, req status.Request, confirmer status.Confirmer) error {
	res, err := tickets.ChangeStatus(ctx, sess, id, req, confirmer)
	if res == nil {
		var verr *status.ValidationError
		switch {
		case errors.Is(err, status.ErrDeclined):
			fmt.Fprintln(w, "Cancelled, nothing was changed.")
			return nil
		case errors.As(err, &verr):
			return err
		case errors.Is(err, status.ErrNotAllowed), errors.Is(err, services.ErrTicketNotFound):
			return err
		}
		return errors.New(backend.Message(err))
	}

	fmt.Fprintf(w, "Ticket #%d: %s -> %s\n", res.TicketID, res.Edge.From.Label(), res.Ticket.StatusLabel())
	if errors.Is(err, status.ErrResync) {
		fmt.Fprintf(w, "warning: ticket list refresh failed: %s\n", backend.Message(err))
	}
	return nil
}

func exportTickets(ctx context.Context, w io.Writer, tickets *services.TicketService, sess *backend.Session, output string) error {
	export, err := tickets.ExportCSV(ctx, sess)
	if err != nil {
		return errors.New(backend.Message(err))
	}
	if output == "" {
		output = export.Filename
	}
	if err := os.WriteFile(output, export.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	fmt.Fprintf(w, "Wrote %s (%d bytes)\n", output, len(export.Data))
	return nil
}

// promptConfirmer asks on the terminal; anything but y or yes declines.
func promptConfirmer(in io.Reader, out io.Writer) status.Confirmer {
	reader := bufio.NewReader(in)
	return status.ConfirmFunc(func(ctx context.Context, prompt string) (bool, error) {
		fmt.Fprintf(out, "%s [y/N]: ", prompt)
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return false, err
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes", nil
	})
}

func optionalID(id *int64) string {
	if id == nil {
		return "-"
	}
	return strconv.FormatInt(*id, 10)
}

func optionalString(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `ticketctl - ticket admin tasks from the terminal.

Usage:
  ticketctl list [--status paid]
  ticketctl status <ticket-id> <status> [flags]
  ticketctl export [-o tickets.csv]

Flags:
%s`, flagSet.FlagUsages())
}
