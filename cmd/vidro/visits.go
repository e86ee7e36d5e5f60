package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/javierleyes/vidro-android/internal/domain/schedule"
	"github.com/javierleyes/vidro-android/internal/infrastructure/i18n"
	"github.com/spf13/cobra"
)

// dateLayouts are the accepted --date formats. A date typed without a zone is
// the user's local time, while zoneless dates in server payloads are read as UTC.
var dateLayouts = []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02T15:04", "2006-01-02"}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		var (
			t   time.Time
			err error
		)
		if layout == time.RFC3339 {
			t, err = time.Parse(layout, s)
		} else {
			t, err = time.ParseInLocation(layout, s, time.Local)
		}
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q, use YYYY-MM-DD HH:MM", s)
}

func newVisitsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "visits",
		Short: "Manage scheduled visits",
	}
	cmd.AddCommand(
		newVisitsListCmd(),
		newVisitsCreateCmd(),
		newVisitsUpdateCmd(),
		newVisitsDeleteCmd(),
		newVisitsCompleteCmd(),
	)
	return cmd
}

func newVisitsListCmd() *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pending and completed visits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			filter, err := schedule.ParseStatus(status)
			if err != nil {
				return a.alertText(err.Error())
			}

			a.schedule.Fetch(cmd.Context(), filter)
			if msg := a.schedule.Error(); msg != "" {
				return a.alert(i18n.OpFetchVisits, errors.New(msg))
			}

			if filter != schedule.StatusCompleted {
				a.printVisits(schedule.StatusPending.String(), a.schedule.Pending())
			}
			if filter != schedule.StatusPending {
				a.printVisits(schedule.StatusCompleted.String(), a.schedule.Completed())
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&status, "status", "s", "all", "pending, completed or all")
	return cmd
}

// visitFields binds the editable visit fields to flags
type visitFields struct {
	date, name, address, phone string
}

func (f *visitFields) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.date, "date", "", "visit date, e.g. \"2026-03-10 09:30\"")
	cmd.Flags().StringVar(&f.name, "name", "", "customer name")
	cmd.Flags().StringVar(&f.address, "address", "", "visit address")
	cmd.Flags().StringVar(&f.phone, "phone", "", "contact phone")
}

func newVisitsCreateCmd() *cobra.Command {
	var f visitFields

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Schedule a new visit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			req := schedule.CreateVisitRequest{Name: f.name, Address: f.address, Phone: f.phone}
			if f.date != "" {
				d, err := parseDate(f.date)
				if err != nil {
					return a.alertText(err.Error())
				}
				req.Date = d
			}
			if err := req.Validate(); err != nil {
				return a.alert(i18n.OpCreateVisit, err)
			}

			v, err := a.schedule.Create(cmd.Context(), req.Normalize())
			if err != nil {
				return a.alert(i18n.OpCreateVisit, err)
			}
			fmt.Fprintln(a.out, v.ID)
			return nil
		},
	}
	f.bind(cmd)
	return cmd
}

func newVisitsUpdateCmd() *cobra.Command {
	var f visitFields

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit the fields of a pending visit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			flags := cmd.Flags()

			var patch schedule.VisitPatch
			if flags.Changed("date") {
				d, err := parseDate(f.date)
				if err != nil {
					return a.alertText(err.Error())
				}
				patch.Date = &d
			}
			if flags.Changed("name") {
				patch.Name = trimmed(f.name)
			}
			if flags.Changed("address") {
				patch.Address = trimmed(f.address)
			}
			if flags.Changed("phone") {
				patch.Phone = trimmed(f.phone)
			}
			if err := patch.Validate(); err != nil {
				return a.alert(i18n.OpUpdateVisit, err)
			}

			// the store only edits visits it holds
			a.schedule.Fetch(cmd.Context(), schedule.StatusUnknown)
			if msg := a.schedule.Error(); msg != "" {
				return a.alert(i18n.OpFetchVisits, errors.New(msg))
			}
			v, err := a.schedule.Update(cmd.Context(), args[0], patch)
			if err != nil {
				return a.alert(i18n.OpUpdateVisit, err)
			}
			a.printVisits(v.Status.String(), []schedule.Visit{v})
			return nil
		},
	}
	f.bind(cmd)
	return cmd
}

func newVisitsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a visit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			if err := a.schedule.Delete(cmd.Context(), args[0]); err != nil {
				return a.alert(i18n.OpDeleteVisit, err)
			}
			return nil
		},
	}
}

func newVisitsCompleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete <id>",
		Short: "Mark a visit as completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			if err := a.schedule.Complete(cmd.Context(), args[0]); err != nil {
				return a.alert(i18n.OpCompleteVisit, err)
			}
			return nil
		},
	}
}

func trimmed(s string) *string {
	s = strings.TrimSpace(s)
	return &s
}

func (a *app) printVisits(title string, visits []schedule.Visit) {
	fmt.Fprintf(a.out, "%s (%d)\n", strings.ToUpper(title), len(visits))
	if len(visits) == 0 {
		fmt.Fprintln(a.out, a.tr.Text(i18n.KeyNoResults))
		return
	}
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tNAME\tADDRESS\tPHONE")
	for _, v := range schedule.SortByDate(visits) {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			v.ID, v.Date.Local().Format("2006-01-02 15:04"), v.Name, v.Address, v.Phone)
	}
	_ = w.Flush()
}
