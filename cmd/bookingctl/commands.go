package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/nekogravitycat/hostel-booking-backend/internal/bed"
	"github.com/nekogravitycat/hostel-booking-backend/internal/bookingapi"
	"github.com/nekogravitycat/hostel-booking-backend/internal/pricing"
	"github.com/nekogravitycat/hostel-booking-backend/internal/room"
	"github.com/nekogravitycat/hostel-booking-backend/internal/stay"
)

type options struct {
	baseURL    string
	timeout    time.Duration
	outputJSON bool
	checkIn    string
	checkOut   string
}

func (o *options) client() (*bookingapi.HTTPClient, error) {
	if o.baseURL == "" {
		return nil, errors.New("booking service URL is required (--api or BOOKING_API_BASE_URL)")
	}
	return bookingapi.New(strings.TrimRight(o.baseURL, "/"),
		bookingapi.WithHTTPClient(&http.Client{Timeout: o.timeout}),
	), nil
}

func (o *options) stayRange() (stay.Range, error) {
	r, err := stay.Parse(o.checkIn, o.checkOut)
	if err != nil {
		return stay.Range{}, err
	}
	return r, r.Validate()
}

func (o *options) signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func rootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "bookingctl",
		Short: "Query the hostel booking service",
		Long: `Query the hostel booking service the booking page talks to.

Examples:
  bookingctl rooms --from 2024-08-01 --to 2024-08-04
  bookingctl beds 2 --from 2024-08-01 --to 2024-08-04
  bookingctl quote 2 --from 2024-08-01 --to 2024-08-04 --guests 2
`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.baseURL, "api", os.Getenv("BOOKING_API_BASE_URL"), "Booking service base URL")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Per-request timeout")
	cmd.PersistentFlags().BoolVar(&opts.outputJSON, "json", false, "Output results as JSON")
	cmd.PersistentFlags().StringVar(&opts.checkIn, "from", "", "Check-in date (YYYY-MM-DD)")
	cmd.PersistentFlags().StringVar(&opts.checkOut, "to", "", "Check-out date (YYYY-MM-DD)")

	cmd.AddCommand(roomsCmd(opts), bedsCmd(opts), quoteCmd(opts))
	return cmd
}

func parseRoomID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid room id %q", arg)
	}
	return id, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func roomsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "rooms",
		Short: "List rooms offered for a stay",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := opts.stayRange()
			if err != nil {
				return err
			}
			client, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := opts.signalContext()
			defer cancel()

			rooms, err := room.NewService(client).ListAvailable(ctx, r)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.outputJSON {
				return writeJSON(out, rooms)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tCAPACITY\tPRICE\tGENDER")
			for _, rm := range rooms {
				fmt.Fprintf(tw, "%d\t%s\t%d\t%.2f\t%s\n", rm.ID, rm.Name, rm.Capacity, rm.Price, rm.Gender)
			}
			return tw.Flush()
		},
	}
}

func bedsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "beds <room-id>",
		Short: "Show the bed grid of a room for a stay",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			roomID, err := parseRoomID(args[0])
			if err != nil {
				return err
			}
			r, err := opts.stayRange()
			if err != nil {
				return err
			}
			client, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := opts.signalContext()
			defer cancel()

			beds, err := client.AvailableBeds(ctx, roomID, r)
			if err != nil {
				return err
			}
			tiers := bed.Partition(beds)

			out := cmd.OutOrStdout()
			if opts.outputJSON {
				return writeJSON(out, tiers)
			}

			printTier(out, "Upper", tiers.Upper)
			printTier(out, "Lower", tiers.Lower)
			return nil
		},
	}
}

func printTier(w io.Writer, name string, beds []bed.Bed) {
	cells := make([]string, 0, len(beds))
	for _, b := range beds {
		mark := "x"
		if b.Available {
			mark = " "
		}
		cells = append(cells, fmt.Sprintf("[%s] #%d (id %d)", mark, b.Number, b.ID))
	}
	if len(cells) == 0 {
		cells = append(cells, "none")
	}
	fmt.Fprintf(w, "%s: %s\n", name, strings.Join(cells, "  "))
}

func quoteCmd(opts *options) *cobra.Command {
	var guests int

	cmd := &cobra.Command{
		Use:   "quote <room-id>",
		Short: "Price a stay for the first available beds of a room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			roomID, err := parseRoomID(args[0])
			if err != nil {
				return err
			}
			r, err := opts.stayRange()
			if err != nil {
				return err
			}
			client, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := opts.signalContext()
			defer cancel()

			rm, err := room.NewService(client).GetByID(ctx, roomID)
			if err != nil {
				return err
			}
			beds, err := client.AvailableBeds(ctx, roomID, r)
			if err != nil {
				return err
			}

			selection, err := pickBeds(beds, rm.Capacity, guests)
			if err != nil {
				return err
			}

			q, err := pricing.NewEngine(client).Quote(ctx, pricing.Input{
				CategoryID: rm.PricingCategory(),
				BedIDs:     selection.IDs(),
				Range:      r,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.outputJSON {
				return writeJSON(out, map[string]any{
					"room":   rm.Name,
					"beds":   selection.Sorted(),
					"nights": r.Nights(),
					"quote":  q,
					"total":  q.Total(),
				})
			}

			fmt.Fprintf(out, "%s, %d night(s), beds %v\n", rm.Name, r.Nights(), selection.Sorted())
			if q.HasDiscount() {
				fmt.Fprintf(out, "Original: %.2f\nDiscount: %.0f%% (-%.2f)\n", q.OriginalPrice, q.DiscountPercentage, q.DiscountAmount)
			}
			fmt.Fprintf(out, "Total: %.2f\n", q.Total())
			return nil
		},
	}

	cmd.Flags().IntVar(&guests, "guests", 1, "Number of guests (one bed each)")
	return cmd
}

// pickBeds selects the first n available beds the way a guest clicking
// through the grid would.
func pickBeds(beds []bed.Bed, capacity, n int) (bed.Selection, error) {
	if n < 1 {
		return bed.Selection{}, fmt.Errorf("guests must be at least 1")
	}

	var sel bed.Selection
	for _, b := range beds {
		if sel.Len() == n {
			break
		}
		next, err := bed.Toggle(beds, sel, capacity, b.ID)
		if errors.Is(err, bed.ErrBedUnavailable) {
			continue
		}
		if err != nil {
			return bed.Selection{}, err
		}
		sel = next
	}
	if sel.Len() < n {
		return bed.Selection{}, fmt.Errorf("only %d bed(s) available, %d requested", sel.Len(), n)
	}
	return sel, nil
}
