package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/propval/internal/api"
	"github.com/sells-group/propval/internal/model"
	"github.com/sells-group/propval/internal/store"
	"github.com/sells-group/propval/pkg/notion"
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "Inspect captured leads",
	Long:  "Commands for listing and viewing captured leads and pushing them to Notion.",
}

// -- leads list --

var leadsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List captured leads, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		city, _ := cmd.Flags().GetString("city")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		leads, err := st.ListLeads(ctx, store.LeadFilter{City: city, Limit: limit, Offset: offset})
		if err != nil {
			return eris.Wrap(err, "leads list")
		}

		if len(leads) == 0 {
			fmt.Fprintln(os.Stderr, "No leads found.")
			return nil
		}

		formatLeadsList(os.Stdout, leads)
		return nil
	},
}

// -- leads show --

var leadsShowCmd = &cobra.Command{
	Use:   "show <lead-id>",
	Short: "Show full details of a lead",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		lead, err := st.GetLead(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "leads show")
		}
		if lead == nil {
			return eris.Errorf("leads show: lead %s not found", args[0])
		}
		return printJSON(os.Stdout, lead)
	},
}

// -- leads push --

var leadsPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push leads not yet in Notion to the lead database",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if !cfg.Notion.Enabled() {
			return eris.New("notion.token and notion.lead_db are required (set PROPVAL_NOTION_TOKEN and PROPVAL_NOTION_LEAD_DB)")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		city, _ := cmd.Flags().GetString("city")
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		pending, err := pendingLeads(ctx, st, city)
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			fmt.Fprintln(os.Stderr, "No leads to push.")
			return nil
		}
		if dryRun {
			formatLeadsList(os.Stdout, pending)
			return nil
		}

		client := newNotionClient(cfg.Notion.Token)
		var pushed, failed int
		for _, lead := range pending {
			pageID, err := notion.PushLead(ctx, client, cfg.Notion.LeadDB, api.LeadPage(lead))
			if err != nil {
				failed++
				zap.L().Warn("leads push: notion", zap.String("lead_id", lead.ID), zap.Error(err))
				continue
			}
			if err := st.SetLeadNotionPage(ctx, lead.ID, pageID); err != nil {
				return eris.Wrapf(err, "leads push: record page for %s", lead.ID)
			}
			pushed++
		}

		fmt.Fprintf(os.Stderr, "Pushed %d leads (%d failed)\n", pushed, failed)
		if failed > 0 {
			return eris.Errorf("leads push: %d leads failed", failed)
		}
		return nil
	},
}

// pendingLeads pages through stored leads and returns those without a
// Notion page.
func pendingLeads(ctx context.Context, st store.Store, city string) ([]model.Lead, error) {
	const pageSize = 200
	var pending []model.Lead
	for offset := 0; ; offset += pageSize {
		page, err := st.ListLeads(ctx, store.LeadFilter{City: city, Limit: pageSize, Offset: offset})
		if err != nil {
			return nil, eris.Wrap(err, "leads push: list")
		}
		for _, l := range page {
			if l.NotionPageID == "" {
				pending = append(pending, l)
			}
		}
		if len(page) < pageSize {
			return pending, nil
		}
	}
}

// formatLeadsList writes a human-readable table of leads to w.
func formatLeadsList(w io.Writer, leads []model.Lead) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCONTACT\tCITY\tTYPE\tESTIMATE\tNOTION\tCREATED")
	for _, l := range leads {
		contact := l.Email
		if contact == "" {
			contact = l.Phone
		}
		estimate := "-"
		if l.EstimateMax > 0 {
			estimate = fmt.Sprintf("%d-%d", l.EstimateMin, l.EstimateMax)
		}
		notionStatus := "no"
		if l.NotionPageID != "" {
			notionStatus = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			l.ID,
			l.Name,
			contact,
			l.City,
			l.PropertyType,
			estimate,
			notionStatus,
			l.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	tw.Flush() //nolint:errcheck
}

func init() {
	leadsListCmd.Flags().String("city", "", "filter by city")
	leadsListCmd.Flags().Int("limit", 50, "max leads to show")
	leadsListCmd.Flags().Int("offset", 0, "leads to skip")

	leadsPushCmd.Flags().String("city", "", "push only leads for this city")
	leadsPushCmd.Flags().Bool("dry-run", false, "list pending leads without pushing")

	leadsCmd.AddCommand(leadsListCmd)
	leadsCmd.AddCommand(leadsShowCmd)
	leadsCmd.AddCommand(leadsPushCmd)
	rootCmd.AddCommand(leadsCmd)
}
