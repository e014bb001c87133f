package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/muestras/pkg/catalog"
	"github.com/shashiranjanraj/muestras/pkg/dashboard"
	"github.com/shashiranjanraj/muestras/pkg/form"
	"github.com/shashiranjanraj/muestras/pkg/gate"
	"github.com/shashiranjanraj/muestras/pkg/listview"
	"github.com/shashiranjanraj/muestras/pkg/pages"
)

var (
	listSearchFlag string
	listFilterFlag string
	listJSONFlag   bool
	setFlags       []string
	yesFlag        bool
)

// muestras pages
var pagesCmd = &cobra.Command{
	Use:   "pages",
	Short: "List the pages you can open",
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := open(cmd.Context())
		if err != nil {
			return err
		}
		if err := t.authorize(gate.HomePath); err != nil {
			return err
		}
		tw := newTable(os.Stdout)
		fmt.Fprintln(tw, "RESOURCE\tTITLE")
		for _, d := range pages.Visible(*t.sess.User()) {
			fmt.Fprintf(tw, "%s\t%s\n", d.Resource, d.Title)
		}
		return tw.Flush()
	},
}

// muestras stats
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show how many records each collection holds",
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := open(cmd.Context())
		if err != nil {
			return err
		}
		if err := t.authorize(gate.HomePath); err != nil {
			return err
		}
		sum, err := dashboard.Load(cmd.Context(), t.client, t.bus)
		if err != nil {
			return err
		}
		tw := newTable(os.Stdout)
		fmt.Fprintln(tw, "GROUP\tCOLLECTION\tRECORDS")
		for _, c := range sum.Cards {
			fmt.Fprintf(tw, "%s\t%s\t%d\n", c.Group, c.Label, c.Count)
		}
		fmt.Fprintf(tw, "\ttotal\t%d\n", sum.Total)
		return tw.Flush()
	},
}

// muestras list <resource>
var listCmd = &cobra.Command{
	Use:   "list <resource>",
	Short: "List the records of a resource",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		filter, err := listview.ParseFilter(listFilterFlag)
		if err != nil {
			return err
		}
		t, err := open(ctx)
		if err != nil {
			return err
		}
		p, err := t.page(ctx, args[0], nil)
		if err != nil {
			return err
		}
		if err := p.Search(ctx, listSearchFlag, filter); err != nil {
			return err
		}
		if listJSONFlag {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(p.Rows())
		}
		return printView(os.Stdout, p.View())
	},
}

// muestras get <resource> <id>
var getCmd = &cobra.Command{
	Use:   "get <resource> <id>",
	Short: "Print one record as JSON",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		r, err := catalog.Lookup(args[0])
		if err != nil {
			return err
		}
		t, err := open(ctx)
		if err != nil {
			return err
		}
		if err := t.authorize("/" + string(r)); err != nil {
			return err
		}
		it, err := t.client.Get(ctx, r, args[1])
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(it)
	},
}

func applySet(d *form.Dialog) error {
	pairs, err := parseSet(setFlags)
	if err != nil {
		return err
	}
	for _, kv := range pairs {
		if err := d.Set(kv[0], kv[1]); err != nil {
			return err
		}
	}
	return nil
}

// muestras create <resource> --set key=value...
var createCmd = &cobra.Command{
	Use:   "create <resource>",
	Short: "Create a record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		t, err := open(ctx)
		if err != nil {
			return err
		}
		p, err := t.page(ctx, args[0], nil)
		if err != nil {
			return err
		}
		d, err := p.NewItem(ctx)
		if err != nil {
			return err
		}
		if err := applySet(d); err != nil {
			return err
		}
		return p.Save(ctx, d)
	},
}

// muestras update <resource> <id> --set key=value...
var updateCmd = &cobra.Command{
	Use:   "update <resource> <id>",
	Short: "Change fields of a record",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		t, err := open(ctx)
		if err != nil {
			return err
		}
		p, err := t.page(ctx, args[0], nil)
		if err != nil {
			return err
		}
		if err := p.Load(ctx); err != nil {
			return err
		}
		d, err := p.EditItem(ctx, args[1])
		if err != nil {
			return err
		}
		if err := applySet(d); err != nil {
			return err
		}
		return p.Save(ctx, d)
	},
}

// muestras delete <resource> <id>
var deleteCmd = &cobra.Command{
	Use:   "delete <resource> <id>",
	Short: "Delete a record after confirmation",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		t, err := open(ctx)
		if err != nil {
			return err
		}
		p, err := t.page(ctx, args[0], nil)
		if err != nil {
			return err
		}
		if err := p.Load(ctx); err != nil {
			return err
		}
		if err := p.RequestDelete(args[1]); err != nil {
			return err
		}

		dlg := p.Confirmation()
		if !yesFlag {
			fmt.Fprintf(os.Stderr, "Delete %q? This cannot be undone. [y/N] ", dlg.Name())
			line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
			if a := strings.ToLower(strings.TrimSpace(line)); a != "y" && a != "yes" {
				dlg.Close()
				fmt.Println("Cancelled")
				return nil
			}
		}
		return p.ConfirmDelete(ctx)
	},
}

// muestras move <resource> <from> <to>
var moveCmd = &cobra.Command{
	Use:   "move <resource> <from> <to>",
	Short: "Move a record to another position (zero-based)",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		from, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("from: %w", err)
		}
		to, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("to: %w", err)
		}
		t, err := open(ctx)
		if err != nil {
			return err
		}
		p, err := t.page(ctx, args[0], nil)
		if err != nil {
			return err
		}
		if err := p.Load(ctx); err != nil {
			return err
		}
		if _, err := p.Move(ctx, from, to); err != nil {
			return err
		}
		p.Wait()
		return printView(os.Stdout, p.View())
	},
}

func init() {
	listCmd.Flags().StringVarP(&listSearchFlag, "search", "s", "", "search text")
	listCmd.Flags().StringVarP(&listFilterFlag, "filter", "f", "all", "all, active or inactive")
	listCmd.Flags().BoolVar(&listJSONFlag, "json", false, "print the raw records")
	createCmd.Flags().StringArrayVar(&setFlags, "set", nil, "field value as key=value (repeatable)")
	updateCmd.Flags().StringArrayVar(&setFlags, "set", nil, "field value as key=value (repeatable)")
	deleteCmd.Flags().BoolVarP(&yesFlag, "yes", "y", false, "skip the confirmation prompt")
}
