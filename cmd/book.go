package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/room-booker/internal/availability"
	"github.com/example/room-booker/internal/booking"
	"github.com/example/room-booker/internal/domain/user"
)

func newBookCmd() *cobra.Command {
	var username, roomName, sectionName string

	c := &cobra.Command{
		Use:   "book",
		Short: "Book a section interactively from the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			b, err := openBackend(ctx, cfg, log, openOptions{})
			if err != nil {
				return err
			}
			defer b.Close()

			u, err := b.Users.GetByUsername(ctx, user.NormalizeUsername(username))
			if err != nil {
				return fmt.Errorf("user %q: %w", username, err)
			}

			reg := booking.NewRegistry(b.Catalog, newMachine(cfg, b, log), booking.NewMemorySessionStore(), cfg.IdleTimeout, log)
			return runBooking(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), reg, u.ID, roomName, sectionName)
		},
	}

	c.Flags().StringVar(&username, "user", "", "username booking the section")
	c.Flags().StringVar(&roomName, "room", "", "room name")
	c.Flags().StringVar(&sectionName, "section", "", "section name")
	_ = c.MarkFlagRequired("user")
	_ = c.MarkFlagRequired("room")
	_ = c.MarkFlagRequired("section")
	return c
}

var errAborted = errors.New("booking aborted")

// runBooking drives one session from line-oriented input: a date choice, then a slot
// choice, repeating after a conflict or an empty day.
func runBooking(ctx context.Context, in io.Reader, out io.Writer, reg *booking.Registry, userID, roomName, sectionName string) error {
	v, err := reg.Start(ctx, "", userID, roomName, sectionName)
	if err != nil {
		return err
	}
	sc := bufio.NewScanner(in)

	for {
		switch v.State {
		case booking.Confirmed, booking.Expired:
			fmt.Fprintln(out, v.Message)
			return nil
		}

		if v.Message != "" {
			fmt.Fprintln(out, v.Message)
		}
		fmt.Fprintln(out, v.Footer)

		if v.State == booking.AwaitingSlot && !v.NoSlots {
			for i, s := range v.Slots {
				fmt.Fprintf(out, "  %d) %s  %s\n", i+1, s.Label, s.Description)
			}
			n, err := prompt(sc, out, "slot", len(v.Slots))
			if err != nil {
				return err
			}
			next, cerr := reg.ChooseSlot(ctx, v.Key, userID, v.Slots[n-1].ID)
			if v, err = recoverable(out, next, cerr); err != nil {
				return err
			}
			continue
		}

		if v.NoSlots {
			fmt.Fprintln(out, "No time slots are available for this day.")
		}
		for i, d := range v.Dates {
			fmt.Fprintf(out, "  %d) %s\n", i+1, d.Label)
		}
		n, err := prompt(sc, out, "date", len(v.Dates))
		if err != nil {
			return err
		}
		date, err := availability.ParseDate(v.Dates[n-1].Value)
		if err != nil {
			return err
		}
		next, cerr := reg.ChooseDate(ctx, v.Key, userID, date)
		if v, err = recoverable(out, next, cerr); err != nil {
			return err
		}
	}
}

// recoverable reports store hiccups and rejected choices and lets the session go on.
func recoverable(out io.Writer, v booking.View, err error) (booking.View, error) {
	if err == nil {
		return v, nil
	}
	if v.Key == "" || !(errors.Is(err, booking.ErrStoreUnavailable) || errors.Is(err, booking.ErrInvalidSelection)) {
		return v, err
	}
	fmt.Fprintln(out, err)
	return v, nil
}

func prompt(sc *bufio.Scanner, out io.Writer, what string, n int) (int, error) {
	for {
		fmt.Fprintf(out, "choose a %s [1-%d]: ", what, n)
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return 0, err
			}
			return 0, errAborted
		}
		line := strings.TrimSpace(sc.Text())
		if line == "q" {
			return 0, errAborted
		}
		i, err := strconv.Atoi(line)
		if err == nil && i >= 1 && i <= n {
			return i, nil
		}
		fmt.Fprintf(out, "enter a number between 1 and %d, or q to quit\n", n)
	}
}
