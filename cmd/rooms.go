package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/room-booker/internal/availability"
	"github.com/example/room-booker/internal/config"
	"github.com/example/room-booker/internal/domain/reservation"
	"github.com/example/room-booker/internal/domain/room"
)

func newRoomsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rooms",
		Short: "Inspect and load the room catalog",
	}
	cmd.AddCommand(newRoomsListCmd())
	cmd.AddCommand(newRoomsSlotsCmd())
	cmd.AddCommand(newRoomsImportCmd())
	return cmd
}

func newRoomsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List rooms, their opening hours and sections",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := context.Background()
			b, err := openBackend(ctx, cfg, log, openOptions{})
			if err != nil {
				return err
			}
			defer b.Close()
			return printRooms(ctx, cmd.OutOrStdout(), b.Catalog)
		},
	}
}

func printRooms(ctx context.Context, out io.Writer, catalog reservation.Catalog) error {
	rooms, err := catalog.ListRooms(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ROOM\tSTATUS\tHOURS\tSECTIONS")
	for _, rm := range rooms {
		secs, err := catalog.ListSections(ctx, rm.ID)
		if err != nil {
			return err
		}
		names := make([]string, 0, len(secs))
		for _, s := range secs {
			names = append(names, fmt.Sprintf("%s(%d)", s.Name, s.Capacity))
		}
		status := "open"
		if rm.Closed {
			status = "closed"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", rm.Name, status, formatHours(rm.Schedule), strings.Join(names, ", "))
	}
	return tw.Flush()
}

var dayAbbrev = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

func formatHours(schedule []room.DaySchedule) string {
	if len(schedule) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(schedule))
	for _, d := range schedule {
		if d.DayOfWeek < 0 || d.DayOfWeek > 6 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %02d-%02d", dayAbbrev[d.DayOfWeek], d.OpenHour, d.CloseHour))
	}
	return strings.Join(parts, " ")
}

func newRoomsSlotsCmd() *cobra.Command {
	var roomName, sectionName, date string

	c := &cobra.Command{
		Use:   "slots",
		Short: "Show the bookable hours of a section on a date",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := context.Background()
			b, err := openBackend(ctx, cfg, log, openOptions{})
			if err != nil {
				return err
			}
			defer b.Close()

			now := time.Now().In(cfg.Location)
			d := availability.DateOf(now)
			if date != "" {
				if d, err = availability.ParseDate(date); err != nil {
					return fmt.Errorf("invalid --date (want YYYY-MM-DD)")
				}
			}
			rm, err := b.Catalog.FindRoomByName(ctx, roomName)
			if err != nil {
				return fmt.Errorf("room %q: %w", roomName, err)
			}
			sec, err := b.Catalog.FindSectionByName(ctx, rm.ID, sectionName)
			if err != nil {
				return fmt.Errorf("section %q: %w", sectionName, err)
			}

			slots, err := availability.NewEngine(b.Reservations, cfg.Location).AvailableSlots(ctx, rm, sec, d, now)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(slots) == 0 {
				fmt.Fprintf(out, "no slots for %s - %s on %s\n", rm.Name, sec.Name, d)
				return nil
			}
			for _, s := range slots {
				fmt.Fprintf(out, "%s  %s-%s  capacity=%d\n", d,
					s.StartsAt.In(cfg.Location).Format("15:04"), s.EndsAt.In(cfg.Location).Format("15:04"), s.AvailableCapacity)
			}
			return nil
		},
	}

	c.Flags().StringVar(&roomName, "room", "", "room name")
	c.Flags().StringVar(&sectionName, "section", "", "section name")
	c.Flags().StringVar(&date, "date", "", "date YYYY-MM-DD (default today)")
	_ = c.MarkFlagRequired("room")
	_ = c.MarkFlagRequired("section")
	return c
}

func newRoomsImportCmd() *cobra.Command {
	var file string

	c := &cobra.Command{
		Use:   "import",
		Short: "Create or update rooms and sections from a catalog file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			rooms, sections, err := config.LoadCatalog(file)
			if err != nil {
				return err
			}

			ctx := context.Background()
			b, err := openBackend(ctx, cfg, log, openOptions{migrate: true})
			if err != nil {
				return err
			}
			defer b.Close()
			if b.Writer == nil {
				return fmt.Errorf("store driver %q reads its catalog from CATALOG_FILE; nothing to import", cfg.StoreDriver)
			}

			if err := importCatalog(ctx, b.Writer, rooms, sections); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d rooms, %d sections\n", len(rooms), len(sections))
			return nil
		},
	}

	c.Flags().StringVar(&file, "file", "", "catalog file (yaml, json or toml)")
	_ = c.MarkFlagRequired("file")
	return c
}

func importCatalog(ctx context.Context, w catalogWriter, rooms []room.Room, sections []room.Section) error {
	for _, rm := range rooms {
		if err := w.UpsertRoom(ctx, rm); err != nil {
			return fmt.Errorf("room %q: %w", rm.Name, err)
		}
	}
	for _, s := range sections {
		if err := w.UpsertSection(ctx, s); err != nil {
			return fmt.Errorf("section %q: %w", s.Name, err)
		}
	}
	return nil
}
