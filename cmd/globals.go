package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/bnema/wayframe/internal/config"
	"github.com/bnema/wayframe/internal/session"
	"github.com/bnema/wayframe/internal/ui"
	"github.com/bnema/wayframe/internal/wayland"
	"github.com/spf13/cobra"
)

var globalsJSON bool

var globalsCmd = &cobra.Command{
	Use:   "globals",
	Short: "List the globals advertised by the compositor",
	Long: `Connect to the compositor, perform one round-trip and list every
advertised global. Globals a window session requires are marked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()

		conn, err := wayland.Connect(cfg.Display.Name)
		if err != nil {
			return err
		}
		defer conn.Close()

		globals, err := session.Probe(conn)
		if err != nil {
			return err
		}

		if globalsJSON {
			return writeGlobalsJSON(cmd.OutOrStdout(), globals)
		}
		writeGlobalsTable(cmd.OutOrStdout(), cfg.Display.Name, globals)
		return nil
	},
}

func init() {
	globalsCmd.Flags().BoolVar(&globalsJSON, "json", false, "Print globals as JSON")
	rootCmd.AddCommand(globalsCmd)
}

type globalEntry struct {
	Name      uint32 `json:"name"`
	Interface string `json:"interface"`
	Version   uint32 `json:"version"`
	Required  bool   `json:"required"`
}

func writeGlobalsJSON(w io.Writer, globals []session.Global) error {
	entries := make([]globalEntry, 0, len(globals))
	for _, g := range globals {
		entries = append(entries, globalEntry{
			Name:      g.Name,
			Interface: g.Interface,
			Version:   g.Version,
			Required:  session.IsRequired(g.Interface),
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

func writeGlobalsTable(w io.Writer, display string, globals []session.Global) {
	if display == "" {
		display = "$WAYLAND_DISPLAY"
	}

	rows := make([]ui.GlobalRow, 0, len(globals))
	missing := map[string]bool{
		session.InterfaceCompositor: true,
		session.InterfaceShm:        true,
		session.InterfaceWmBase:     true,
	}
	for _, g := range globals {
		required := session.IsRequired(g.Interface)
		if required {
			delete(missing, g.Interface)
		}
		rows = append(rows, ui.GlobalRow{
			Name:      g.Name,
			Interface: g.Interface,
			Version:   g.Version,
			Required:  required,
		})
	}

	fmt.Fprintln(w, ui.FormatHeader("GLOBALS", display))
	fmt.Fprintln(w, ui.GlobalsTable(rows))
	fmt.Fprintln(w)
	if len(missing) == 0 {
		fmt.Fprintln(w, ui.FormatResult(true, "all required globals advertised"))
		return
	}
	for _, iface := range []string{session.InterfaceCompositor, session.InterfaceShm, session.InterfaceWmBase} {
		if missing[iface] {
			fmt.Fprintln(w, ui.FormatResult(false, "missing "+iface))
		}
	}
}
