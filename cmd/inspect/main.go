package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/vtxworks/converter-twin/internal/history"
	"github.com/vtxworks/converter-twin/internal/params"
)

// #region main

func main() {
	paramsDB := flag.String("params-db", "", "path to twin_params.db")
	historyDB := flag.String("history-db", "", "path to twin_history.db")
	last := flag.Int("last", 20, "show N most recent records")
	heatID := flag.String("heat", "", "show single heat detail with advisories")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *paramsDB == "" && *historyDB == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect [--params-db path] [--history-db path] [--last N] [--heat id] [--json]")
		os.Exit(2)
	}

	if *paramsDB != "" {
		if err := runParams(*paramsDB, *last, *jsonOut); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}
	if *historyDB != "" {
		if err := runHistory(*historyDB, *last, *heatID, *jsonOut); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}
}

// #endregion main

// #region params-mode

func runParams(dbPath string, last int, jsonOut bool) error {
	store, err := params.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open params db: %w", err)
	}
	defer store.Close()

	versions, err := store.ListVersions(last)
	if err != nil {
		return err
	}
	active, err := store.GetCurrent()
	if err != nil {
		return err
	}

	if jsonOut {
		return json.NewEncoder(os.Stdout).Encode(versions)
	}

	fmt.Println("Parameter versions (newest first)")
	for _, v := range versions {
		mark := " "
		if v.VersionID == active.VersionID {
			mark = "*"
		}
		fmt.Printf("%s %s  eff=%.3f mod=%.3f  %s  %s\n",
			mark, v.VersionID[:8], v.HeatEfficiency, v.ReactionRateModifier,
			v.CreatedAt.Format("2006-01-02 15:04:05"), v.Note)
	}
	return nil
}

// #endregion params-mode

// #region history-mode

func runHistory(dbPath string, last int, heatID string, jsonOut bool) error {
	store, err := history.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open history db: %w", err)
	}
	defer store.Close()

	if heatID != "" {
		return showHeat(store, heatID, jsonOut)
	}

	heats, err := store.ListHeats(last)
	if err != nil {
		return err
	}
	if jsonOut {
		return json.NewEncoder(os.Stdout).Encode(heats)
	}

	fmt.Println("\nHeats (newest first)")
	for _, h := range heats {
		end := "—"
		if h.Measured != nil {
			end = fmt.Sprintf("V=%.3f%% T=%.0f°C (lab)", h.Measured.Comp.V, h.Measured.TempC)
		} else if h.Predicted != nil {
			end = fmt.Sprintf("V=%.3f%% T=%.0f°C (model)", h.Predicted.Comp.V, h.Predicted.TempC)
		}
		fmt.Printf("  %s  %-7s onecan=%-5v ratio=%.2f  %s  findings=%d\n",
			h.HeatID[:8], h.Status, h.OneCan, h.Recipe.VSiTiRatio, end, len(h.Findings))
	}
	return nil
}

func showHeat(store *history.Store, heatID string, jsonOut bool) error {
	rec, err := store.GetHeat(heatID)
	if err != nil {
		return err
	}
	advisories, err := store.ListAdvisories(heatID)
	if err != nil {
		return err
	}

	if jsonOut {
		return json.NewEncoder(os.Stdout).Encode(struct {
			Heat       history.HeatRecord      `json:"heat"`
			Advisories []history.AdvisoryEntry `json:"advisories"`
		}{rec, advisories})
	}

	fmt.Printf("Heat %s (%s)\n", rec.HeatID, rec.Status)
	fmt.Printf("  one-can: %v | V/(Si+Ti): %.2f | O2: %.0f m³ | slag: %.1f t\n",
		rec.OneCan, rec.Recipe.VSiTiRatio, rec.Recipe.OxygenM3, rec.Recipe.SlagWeightT)
	for typ, tons := range rec.Recipe.Coolants {
		fmt.Printf("  coolant %-14s %.2f t\n", typ, tons)
	}
	if rec.Predicted != nil {
		fmt.Printf("  predicted: V=%.3f%% T=%.0f°C\n", rec.Predicted.Comp.V, rec.Predicted.TempC)
	}
	if rec.Measured != nil {
		fmt.Printf("  measured:  V=%.3f%% T=%.0f°C\n", rec.Measured.Comp.V, rec.Measured.TempC)
	}
	for _, f := range rec.Findings {
		fmt.Printf("  finding: %s\n", f)
	}
	for _, a := range advisories {
		fmt.Printf("  [%s] %s  %s\n", a.Kind, a.CreatedAt.Format("15:04:05"), a.Message)
	}
	return nil
}

// #endregion history-mode
